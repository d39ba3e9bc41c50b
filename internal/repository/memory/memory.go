// Package memory provides an in-process Store used by tests and local
// development. It enforces the same uniqueness constraints as the
// Postgres schema so duplicate-key behavior matches.
package memory

import (
	"context"
	"sync"

	"smartshala/school/internal/model"
	"smartshala/school/internal/service"
)

type Store struct {
	mu         sync.Mutex
	identities []model.Identity
	profiles   []model.StudentProfile
	classrooms []model.Classroom
	subjects   []model.Subject

	// FailCreates forces create operations to return this error,
	// simulating an unavailable backend.
	FailCreates error
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) FindIdentityByEmail(_ context.Context, email string) (model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, identity := range s.identities {
		if identity.Email == email {
			return identity, nil
		}
	}
	return model.Identity{}, service.ErrNoRecord
}

func (s *Store) FindIdentityByID(_ context.Context, id string) (model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, identity := range s.identities {
		if identity.ID == id {
			return identity, nil
		}
	}
	return model.Identity{}, service.ErrNoRecord
}

func (s *Store) CreateIdentity(_ context.Context, identity model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreates != nil {
		return s.FailCreates
	}
	if s.emailTaken(identity.Email) {
		return service.ErrDuplicateKey
	}
	s.identities = append(s.identities, identity)
	return nil
}

func (s *Store) CreateStudent(_ context.Context, identity model.Identity, profile model.StudentProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreates != nil {
		return s.FailCreates
	}
	if s.emailTaken(identity.Email) {
		return service.ErrDuplicateKey
	}
	for _, existing := range s.profiles {
		if existing.IdentityID == profile.IdentityID {
			return service.ErrDuplicateKey
		}
	}
	s.identities = append(s.identities, identity)
	s.profiles = append(s.profiles, profile)
	return nil
}

func (s *Store) CountByRole(_ context.Context, role model.Role) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, identity := range s.identities {
		if identity.Role == role {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListByRole(_ context.Context, role model.Role) ([]model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Identity{}
	for _, identity := range s.identities {
		if identity.Role == role {
			out = append(out, identity)
		}
	}
	return out, nil
}

func (s *Store) FindClassroomByID(_ context.Context, id string) (model.Classroom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, classroom := range s.classrooms {
		if classroom.ID == id {
			return classroom, nil
		}
	}
	return model.Classroom{}, service.ErrNoRecord
}

func (s *Store) FindClassroomByName(_ context.Context, name string) (model.Classroom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, classroom := range s.classrooms {
		if classroom.Name == name {
			return classroom, nil
		}
	}
	return model.Classroom{}, service.ErrNoRecord
}

func (s *Store) CreateClassroom(_ context.Context, classroom model.Classroom) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreates != nil {
		return s.FailCreates
	}
	for _, existing := range s.classrooms {
		if existing.Name == classroom.Name {
			return service.ErrDuplicateKey
		}
	}
	s.classrooms = append(s.classrooms, classroom)
	return nil
}

func (s *Store) ListClassrooms(_ context.Context) ([]model.Classroom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Classroom{}, s.classrooms...), nil
}

func (s *Store) CountClassrooms(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.classrooms), nil
}

func (s *Store) FindSubjectByID(_ context.Context, id string) (model.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, subject := range s.subjects {
		if subject.ID == id {
			return subject, nil
		}
	}
	return model.Subject{}, service.ErrNoRecord
}

func (s *Store) FindSubjectByName(_ context.Context, name string) (model.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, subject := range s.subjects {
		if subject.Name == name {
			return subject, nil
		}
	}
	return model.Subject{}, service.ErrNoRecord
}

func (s *Store) CreateSubject(_ context.Context, subject model.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreates != nil {
		return s.FailCreates
	}
	for _, existing := range s.subjects {
		if existing.Name == subject.Name {
			return service.ErrDuplicateKey
		}
	}
	s.subjects = append(s.subjects, subject)
	return nil
}

func (s *Store) AssignSubjectTeacher(_ context.Context, subjectID, teacherID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, subject := range s.subjects {
		if subject.ID == subjectID {
			id := teacherID
			s.subjects[i].TeacherID = &id
			return nil
		}
	}
	return service.ErrNoRecord
}

// StudentProfiles returns a copy of the stored profiles, for assertions.
func (s *Store) StudentProfiles() []model.StudentProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.StudentProfile{}, s.profiles...)
}

// Identities returns a copy of the stored identities, for assertions.
func (s *Store) Identities() []model.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Identity{}, s.identities...)
}

func (s *Store) emailTaken(email string) bool {
	for _, identity := range s.identities {
		if identity.Email == email {
			return true
		}
	}
	return false
}
