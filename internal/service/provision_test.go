package service_test

import (
	"context"
	"errors"
	"testing"

	"smartshala/school/internal/crypto"
	"smartshala/school/internal/model"
	"smartshala/school/internal/repository/memory"
	"smartshala/school/internal/service"
)

func newService(t *testing.T) (*service.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return service.New(store), store
}

func seedClassroom(t *testing.T, store *memory.Store, id, name string) {
	t.Helper()
	if err := store.CreateClassroom(context.Background(), model.Classroom{ID: id, Name: name}); err != nil {
		t.Fatalf("seed classroom: %v", err)
	}
}

func TestRegisterTeacher(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, service.RegisterInput{
		Name:     "Nisha Rao",
		Email:    "nisha@example.com",
		Password: "pw-nisha",
		Role:     model.RoleTeacher,
	})
	if err != nil {
		t.Fatalf("register error: %v", err)
	}
	if created.ID == "" || created.Email != "nisha@example.com" || created.Role != model.RoleTeacher {
		t.Fatalf("unexpected result: %+v", created)
	}
	if created.Profile != nil {
		t.Fatalf("teacher must not get a student profile")
	}

	stored, err := store.FindIdentityByEmail(ctx, "nisha@example.com")
	if err != nil {
		t.Fatalf("lookup error: %v", err)
	}
	if stored.PasswordHash == "pw-nisha" {
		t.Fatalf("password stored in plaintext")
	}
	if err := crypto.CheckPassword(stored.PasswordHash, "pw-nisha"); err != nil {
		t.Fatalf("stored hash does not verify original password")
	}
	if err := crypto.CheckPassword(stored.PasswordHash, "pw-other"); err == nil {
		t.Fatalf("stored hash verifies a foreign password")
	}
}

func TestRegisterStudentCreatesProfile(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	seedClassroom(t, store, "class-1", "5A")

	created, err := svc.Register(ctx, service.RegisterInput{
		Name:        "Asha Patel",
		Email:       "asha@example.com",
		Password:    "pw-asha",
		Role:        model.RoleStudent,
		ClassroomID: "class-1",
		RollNo:      7,
	})
	if err != nil {
		t.Fatalf("register error: %v", err)
	}
	if created.Profile == nil || created.Profile.RollNo != 7 || created.Profile.ClassroomID != "class-1" {
		t.Fatalf("unexpected profile: %+v", created.Profile)
	}

	profiles := store.StudentProfiles()
	if len(profiles) != 1 || profiles[0].IdentityID != created.ID {
		t.Fatalf("expected one profile bound to identity, got %+v", profiles)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	seedClassroom(t, store, "class-1", "5A")

	cases := []service.RegisterInput{
		{Email: "a@example.com", Password: "pw", Role: model.RoleTeacher},
		{Name: "A", Password: "pw", Role: model.RoleTeacher},
		{Name: "A", Email: "a@example.com", Role: model.RoleTeacher},
		{Name: "A", Email: "a@example.com", Password: "pw"},
		// Students need classroom and roll number.
		{Name: "A", Email: "a@example.com", Password: "pw", Role: model.RoleStudent, RollNo: 1},
		{Name: "A", Email: "a@example.com", Password: "pw", Role: model.RoleStudent, ClassroomID: "class-1"},
	}
	for i, in := range cases {
		if _, err := svc.Register(ctx, in); !errors.Is(err, service.ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
	if identities := store.Identities(); len(identities) != 0 {
		t.Fatalf("validation failures must not write, got %d identities", len(identities))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	first := service.RegisterInput{Name: "A", Email: "dup@example.com", Password: "pw", Role: model.RoleTeacher}
	if _, err := svc.Register(ctx, first); err != nil {
		t.Fatalf("register error: %v", err)
	}
	second := service.RegisterInput{Name: "B", Email: "dup@example.com", Password: "pw2", Role: model.RoleAdmin}
	if _, err := svc.Register(ctx, second); !errors.Is(err, service.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
	if identities := store.Identities(); len(identities) != 1 {
		t.Fatalf("duplicate attempt must not write, got %d identities", len(identities))
	}
}

func TestRegisterEmailIsCaseSensitive(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, service.RegisterInput{Name: "A", Email: "Case@example.com", Password: "pw", Role: model.RoleTeacher}); err != nil {
		t.Fatalf("register error: %v", err)
	}
	// Emails compare exactly as stored; a different casing is a new identity.
	if _, err := svc.Register(ctx, service.RegisterInput{Name: "B", Email: "case@example.com", Password: "pw", Role: model.RoleTeacher}); err != nil {
		t.Fatalf("expected distinct-cased email to register, got %v", err)
	}
}

func TestRegisterStudentMissingClassroom(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, service.RegisterInput{
		Name:        "Asha",
		Email:       "asha@example.com",
		Password:    "pw",
		Role:        model.RoleStudent,
		ClassroomID: "missing",
		RollNo:      1,
	})
	if !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if identities := store.Identities(); len(identities) != 0 {
		t.Fatalf("expected no identity written")
	}
}

func TestLogin(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	seedClassroom(t, store, "class-1", "5A")

	if _, err := svc.Register(ctx, service.RegisterInput{
		Name:        "Asha",
		Email:       "a@x.com",
		Password:    "right",
		Role:        model.RoleStudent,
		ClassroomID: "class-1",
		RollNo:      1,
	}); err != nil {
		t.Fatalf("register error: %v", err)
	}

	identity, err := svc.Login(ctx, service.LoginInput{Email: "a@x.com", Password: "right", Role: model.RoleStudent})
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if identity.Email != "a@x.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	if _, err := svc.Login(ctx, service.LoginInput{Email: "a@x.com", Password: "wrong", Role: model.RoleStudent}); !errors.Is(err, service.ErrIncorrectPassword) {
		t.Fatalf("expected ErrIncorrectPassword, got %v", err)
	}
	if _, err := svc.Login(ctx, service.LoginInput{Email: "a@x.com", Password: "right", Role: model.RoleTeacher}); !errors.Is(err, service.ErrRoleMismatch) {
		t.Fatalf("expected ErrRoleMismatch, got %v", err)
	}
	if _, err := svc.Login(ctx, service.LoginInput{Email: "nobody@x.com", Password: "right", Role: model.RoleStudent}); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddClassroomDuplicate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.AddClassroom(ctx, "5A"); err != nil {
		t.Fatalf("add classroom error: %v", err)
	}
	if _, err := svc.AddClassroom(ctx, "5A"); !errors.Is(err, service.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := svc.AddClassroom(ctx, "  "); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation for blank name, got %v", err)
	}
}

func TestAddSubjectMissingClassroom(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddSubject(ctx, service.AddSubjectInput{Name: "Maths", ClassroomID: "missing"})
	if !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAssignTeacher(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	seedClassroom(t, store, "class-1", "5A")

	subject, err := svc.AddSubject(ctx, service.AddSubjectInput{Name: "Maths", ClassroomID: "class-1"})
	if err != nil {
		t.Fatalf("add subject error: %v", err)
	}
	teacher, err := svc.Register(ctx, service.RegisterInput{Name: "T", Email: "t@example.com", Password: "pw", Role: model.RoleTeacher})
	if err != nil {
		t.Fatalf("register error: %v", err)
	}
	student, err := svc.Register(ctx, service.RegisterInput{Name: "S", Email: "s@example.com", Password: "pw", Role: model.RoleStudent, ClassroomID: "class-1", RollNo: 2})
	if err != nil {
		t.Fatalf("register error: %v", err)
	}

	assigned, err := svc.AssignTeacher(ctx, subject.ID, teacher.ID)
	if err != nil {
		t.Fatalf("assign error: %v", err)
	}
	if assigned.TeacherID == nil || *assigned.TeacherID != teacher.ID {
		t.Fatalf("expected teacher assigned, got %+v", assigned.TeacherID)
	}

	if _, err := svc.AssignTeacher(ctx, subject.ID, student.ID); !errors.Is(err, service.ErrRoleMismatch) {
		t.Fatalf("expected ErrRoleMismatch for student, got %v", err)
	}
	if _, err := svc.AssignTeacher(ctx, "missing", teacher.ID); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing subject, got %v", err)
	}
	if _, err := svc.AssignTeacher(ctx, subject.ID, "missing"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing teacher, got %v", err)
	}
}

func TestDashboardReport(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	seedClassroom(t, store, "class-1", "5A")
	seedClassroom(t, store, "class-2", "5B")

	if _, err := svc.Register(ctx, service.RegisterInput{Name: "T", Email: "t@example.com", Password: "pw", Role: model.RoleTeacher}); err != nil {
		t.Fatalf("register error: %v", err)
	}
	for i, email := range []string{"s1@example.com", "s2@example.com"} {
		if _, err := svc.Register(ctx, service.RegisterInput{Name: "S", Email: email, Password: "pw", Role: model.RoleStudent, ClassroomID: "class-1", RollNo: i + 1}); err != nil {
			t.Fatalf("register error: %v", err)
		}
	}

	dashboard, err := svc.DashboardReport(ctx)
	if err != nil {
		t.Fatalf("dashboard error: %v", err)
	}
	if dashboard.TotalClassrooms != 2 || dashboard.TotalTeachers != 1 || dashboard.TotalStudents != 2 {
		t.Fatalf("unexpected totals: %+v", dashboard)
	}
	if len(dashboard.Students) != 2 || len(dashboard.Teachers) != 1 || len(dashboard.Classrooms) != 2 {
		t.Fatalf("unexpected list sizes: %+v", dashboard)
	}
}
