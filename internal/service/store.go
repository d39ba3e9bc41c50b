package service

import (
	"context"
	"errors"

	"smartshala/school/internal/model"
)

// Store contract errors. Implementations return ErrNoRecord for missing
// rows and ErrDuplicateKey when a uniqueness constraint rejects a create.
// The duplicate-key path is the backstop for concurrent registrations
// racing past the application-level email check.
var (
	ErrNoRecord     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// Store is the persistence boundary for identities, student profiles and
// the academic catalog.
type Store interface {
	FindIdentityByEmail(ctx context.Context, email string) (model.Identity, error)
	FindIdentityByID(ctx context.Context, id string) (model.Identity, error)
	CreateIdentity(ctx context.Context, identity model.Identity) error
	// CreateStudent persists the identity and its profile in one
	// transaction so a profile failure never leaves an orphan identity.
	CreateStudent(ctx context.Context, identity model.Identity, profile model.StudentProfile) error
	CountByRole(ctx context.Context, role model.Role) (int, error)
	ListByRole(ctx context.Context, role model.Role) ([]model.Identity, error)

	FindClassroomByID(ctx context.Context, id string) (model.Classroom, error)
	FindClassroomByName(ctx context.Context, name string) (model.Classroom, error)
	CreateClassroom(ctx context.Context, classroom model.Classroom) error
	ListClassrooms(ctx context.Context) ([]model.Classroom, error)
	CountClassrooms(ctx context.Context) (int, error)

	FindSubjectByID(ctx context.Context, id string) (model.Subject, error)
	FindSubjectByName(ctx context.Context, name string) (model.Subject, error)
	CreateSubject(ctx context.Context, subject model.Subject) error
	AssignSubjectTeacher(ctx context.Context, subjectID, teacherID string) error
}
