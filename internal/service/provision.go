package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"smartshala/school/internal/crypto"
	"smartshala/school/internal/model"
)

type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
	// Student-only fields.
	ClassroomID string
	RollNo      int
}

type StudentProfileInfo struct {
	RollNo      int    `json:"rollNo"`
	ClassroomID string `json:"classroomId"`
}

// RegisteredIdentity carries the public fields of a created identity.
// The password hash never leaves the service.
type RegisteredIdentity struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	Email   string              `json:"email"`
	Role    model.Role          `json:"role"`
	Profile *StudentProfileInfo `json:"studentProfile,omitempty"`
}

// Register creates one identity and, for students, the dependent profile.
// Validation order: required fields, duplicate email, classroom existence.
// Emails are compared exactly as stored.
func (s *Service) Register(ctx context.Context, in RegisterInput) (RegisteredIdentity, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" || !in.Role.Valid() {
		return RegisteredIdentity{}, ErrValidation
	}
	if in.Role == model.RoleStudent && (in.ClassroomID == "" || in.RollNo <= 0) {
		return RegisteredIdentity{}, ErrValidation
	}

	if _, err := s.store.FindIdentityByEmail(ctx, in.Email); err == nil {
		return RegisteredIdentity{}, ErrDuplicateIdentity
	} else if !errors.Is(err, ErrNoRecord) {
		return RegisteredIdentity{}, fmt.Errorf("lookup email: %w", err)
	}

	if in.Role == model.RoleStudent {
		if _, err := s.store.FindClassroomByID(ctx, in.ClassroomID); err != nil {
			if errors.Is(err, ErrNoRecord) {
				return RegisteredIdentity{}, fmt.Errorf("classroom: %w", ErrNotFound)
			}
			return RegisteredIdentity{}, fmt.Errorf("lookup classroom: %w", err)
		}
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return RegisteredIdentity{}, fmt.Errorf("hash password: %w", err)
	}

	identity := model.Identity{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		CreatedAt:    time.Now().UTC(),
	}

	if in.Role == model.RoleStudent {
		profile := model.StudentProfile{
			IdentityID:  identity.ID,
			RollNo:      in.RollNo,
			ClassroomID: in.ClassroomID,
		}
		if err := s.store.CreateStudent(ctx, identity, profile); err != nil {
			if errors.Is(err, ErrDuplicateKey) {
				return RegisteredIdentity{}, ErrDuplicateIdentity
			}
			return RegisteredIdentity{}, fmt.Errorf("create student: %w", err)
		}
		return RegisteredIdentity{
			ID:    identity.ID,
			Name:  identity.Name,
			Email: identity.Email,
			Role:  identity.Role,
			Profile: &StudentProfileInfo{
				RollNo:      profile.RollNo,
				ClassroomID: profile.ClassroomID,
			},
		}, nil
	}

	if err := s.store.CreateIdentity(ctx, identity); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return RegisteredIdentity{}, ErrDuplicateIdentity
		}
		return RegisteredIdentity{}, fmt.Errorf("create identity: %w", err)
	}
	return RegisteredIdentity{
		ID:    identity.ID,
		Name:  identity.Name,
		Email: identity.Email,
		Role:  identity.Role,
	}, nil
}

type LoginInput struct {
	Email    string
	Password string
	Role     model.Role
}

// Login authenticates an identity. The requested role must match the
// stored role; a wrong password surfaces as ErrIncorrectPassword with no
// token ever issued by the caller.
func (s *Service) Login(ctx context.Context, in LoginInput) (model.Identity, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" || !in.Role.Valid() {
		return model.Identity{}, ErrValidation
	}

	identity, err := s.store.FindIdentityByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return model.Identity{}, fmt.Errorf("identity: %w", ErrNotFound)
		}
		return model.Identity{}, fmt.Errorf("lookup email: %w", err)
	}
	if identity.Role != in.Role {
		return model.Identity{}, ErrRoleMismatch
	}
	if err := crypto.CheckPassword(identity.PasswordHash, in.Password); err != nil {
		return model.Identity{}, ErrIncorrectPassword
	}
	return identity, nil
}

// AddClassroom creates a classroom with a unique name.
func (s *Service) AddClassroom(ctx context.Context, name string) (model.Classroom, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Classroom{}, ErrValidation
	}

	if _, err := s.store.FindClassroomByName(ctx, name); err == nil {
		return model.Classroom{}, ErrDuplicate
	} else if !errors.Is(err, ErrNoRecord) {
		return model.Classroom{}, fmt.Errorf("lookup classroom: %w", err)
	}

	classroom := model.Classroom{ID: uuid.NewString(), Name: name}
	if err := s.store.CreateClassroom(ctx, classroom); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return model.Classroom{}, ErrDuplicate
		}
		return model.Classroom{}, fmt.Errorf("create classroom: %w", err)
	}
	return classroom, nil
}

type AddSubjectInput struct {
	Name        string
	Code        *int
	ClassroomID string
}

// AddSubject creates a subject under an existing classroom.
func (s *Service) AddSubject(ctx context.Context, in AddSubjectInput) (model.Subject, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.ClassroomID == "" {
		return model.Subject{}, ErrValidation
	}

	if _, err := s.store.FindSubjectByName(ctx, in.Name); err == nil {
		return model.Subject{}, ErrDuplicate
	} else if !errors.Is(err, ErrNoRecord) {
		return model.Subject{}, fmt.Errorf("lookup subject: %w", err)
	}

	if _, err := s.store.FindClassroomByID(ctx, in.ClassroomID); err != nil {
		if errors.Is(err, ErrNoRecord) {
			return model.Subject{}, fmt.Errorf("classroom: %w", ErrNotFound)
		}
		return model.Subject{}, fmt.Errorf("lookup classroom: %w", err)
	}

	subject := model.Subject{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Code:        in.Code,
		ClassroomID: in.ClassroomID,
	}
	if err := s.store.CreateSubject(ctx, subject); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return model.Subject{}, ErrDuplicate
		}
		return model.Subject{}, fmt.Errorf("create subject: %w", err)
	}
	return subject, nil
}

// AssignTeacher links a subject to an identity whose role is TEACHER.
func (s *Service) AssignTeacher(ctx context.Context, subjectID, teacherID string) (model.Subject, error) {
	if strings.TrimSpace(subjectID) == "" || strings.TrimSpace(teacherID) == "" {
		return model.Subject{}, ErrValidation
	}

	subject, err := s.store.FindSubjectByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return model.Subject{}, fmt.Errorf("subject: %w", ErrNotFound)
		}
		return model.Subject{}, fmt.Errorf("lookup subject: %w", err)
	}

	teacher, err := s.store.FindIdentityByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return model.Subject{}, fmt.Errorf("teacher: %w", ErrNotFound)
		}
		return model.Subject{}, fmt.Errorf("lookup teacher: %w", err)
	}
	if teacher.Role != model.RoleTeacher {
		return model.Subject{}, ErrRoleMismatch
	}

	if err := s.store.AssignSubjectTeacher(ctx, subject.ID, teacher.ID); err != nil {
		return model.Subject{}, fmt.Errorf("assign teacher: %w", err)
	}
	subject.TeacherID = &teacher.ID
	return subject, nil
}

type IdentitySummary struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

type Dashboard struct {
	TotalClassrooms int               `json:"totalClasses"`
	TotalTeachers   int               `json:"totalTeachers"`
	TotalStudents   int               `json:"totalStudents"`
	Classrooms      []model.Classroom `json:"classList"`
	Students        []IdentitySummary `json:"studentList"`
	Teachers        []IdentitySummary `json:"teacherList"`
}

// DashboardReport aggregates counts and listings for the admin overview.
func (s *Service) DashboardReport(ctx context.Context) (Dashboard, error) {
	totalClassrooms, err := s.store.CountClassrooms(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("count classrooms: %w", err)
	}
	totalTeachers, err := s.store.CountByRole(ctx, model.RoleTeacher)
	if err != nil {
		return Dashboard{}, fmt.Errorf("count teachers: %w", err)
	}
	totalStudents, err := s.store.CountByRole(ctx, model.RoleStudent)
	if err != nil {
		return Dashboard{}, fmt.Errorf("count students: %w", err)
	}
	classrooms, err := s.store.ListClassrooms(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list classrooms: %w", err)
	}
	students, err := s.store.ListByRole(ctx, model.RoleStudent)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list students: %w", err)
	}
	teachers, err := s.store.ListByRole(ctx, model.RoleTeacher)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list teachers: %w", err)
	}

	return Dashboard{
		TotalClassrooms: totalClassrooms,
		TotalTeachers:   totalTeachers,
		TotalStudents:   totalStudents,
		Classrooms:      classrooms,
		Students:        summarize(students),
		Teachers:        summarize(teachers),
	}, nil
}

func summarize(identities []model.Identity) []IdentitySummary {
	out := make([]IdentitySummary, 0, len(identities))
	for _, identity := range identities {
		out = append(out, IdentitySummary{
			ID:    identity.ID,
			Name:  identity.Name,
			Email: identity.Email,
			Role:  identity.Role,
		})
	}
	return out
}
