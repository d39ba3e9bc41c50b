package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"smartshala/school/internal/model"
	"smartshala/school/internal/service"
)

// Store is the Postgres implementation of service.Store.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) FindIdentityByEmail(ctx context.Context, email string) (model.Identity, error) {
	row := s.pool.QueryRow(ctx, `
    SELECT id, name, email, password_hash, role, created_at
    FROM identities
    WHERE email = $1
  `, email)
	return scanIdentity(row)
}

func (s *Store) FindIdentityByID(ctx context.Context, id string) (model.Identity, error) {
	row := s.pool.QueryRow(ctx, `
    SELECT id, name, email, password_hash, role, created_at
    FROM identities
    WHERE id = $1
  `, id)
	return scanIdentity(row)
}

func (s *Store) CreateIdentity(ctx context.Context, identity model.Identity) error {
	_, err := s.pool.Exec(ctx, `
    INSERT INTO identities (id, name, email, password_hash, role, created_at)
    VALUES ($1, $2, $3, $4, $5, $6)
  `, identity.ID, identity.Name, identity.Email, identity.PasswordHash, string(identity.Role), identity.CreatedAt)
	return mapWriteError(err)
}

// CreateStudent inserts the identity and its profile in one transaction.
func (s *Store) CreateStudent(ctx context.Context, identity model.Identity, profile model.StudentProfile) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    INSERT INTO identities (id, name, email, password_hash, role, created_at)
    VALUES ($1, $2, $3, $4, $5, $6)
  `, identity.ID, identity.Name, identity.Email, identity.PasswordHash, string(identity.Role), identity.CreatedAt); err != nil {
		return mapWriteError(err)
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO student_profiles (identity_id, roll_no, classroom_id)
    VALUES ($1, $2, $3)
  `, profile.IdentityID, profile.RollNo, profile.ClassroomID); err != nil {
		return mapWriteError(err)
	}
	return tx.Commit(ctx)
}

func (s *Store) CountByRole(ctx context.Context, role model.Role) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM identities WHERE role = $1`, string(role)).Scan(&count)
	return count, err
}

func (s *Store) ListByRole(ctx context.Context, role model.Role) ([]model.Identity, error) {
	rows, err := s.pool.Query(ctx, `
    SELECT id, name, email, password_hash, role, created_at
    FROM identities
    WHERE role = $1
    ORDER BY created_at
  `, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	identities := []model.Identity{}
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		identities = append(identities, identity)
	}
	return identities, rows.Err()
}

func (s *Store) FindClassroomByID(ctx context.Context, id string) (model.Classroom, error) {
	var classroom model.Classroom
	err := s.pool.QueryRow(ctx, `SELECT id, name FROM classrooms WHERE id = $1`, id).
		Scan(&classroom.ID, &classroom.Name)
	return classroom, mapReadError(err)
}

func (s *Store) FindClassroomByName(ctx context.Context, name string) (model.Classroom, error) {
	var classroom model.Classroom
	err := s.pool.QueryRow(ctx, `SELECT id, name FROM classrooms WHERE name = $1`, name).
		Scan(&classroom.ID, &classroom.Name)
	return classroom, mapReadError(err)
}

func (s *Store) CreateClassroom(ctx context.Context, classroom model.Classroom) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO classrooms (id, name) VALUES ($1, $2)`, classroom.ID, classroom.Name)
	return mapWriteError(err)
}

func (s *Store) ListClassrooms(ctx context.Context) ([]model.Classroom, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM classrooms ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classrooms := []model.Classroom{}
	for rows.Next() {
		var classroom model.Classroom
		if err := rows.Scan(&classroom.ID, &classroom.Name); err != nil {
			return nil, err
		}
		classrooms = append(classrooms, classroom)
	}
	return classrooms, rows.Err()
}

func (s *Store) CountClassrooms(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM classrooms`).Scan(&count)
	return count, err
}

func (s *Store) FindSubjectByID(ctx context.Context, id string) (model.Subject, error) {
	row := s.pool.QueryRow(ctx, `
    SELECT id, name, code, classroom_id, teacher_id
    FROM subjects
    WHERE id = $1
  `, id)
	return scanSubject(row)
}

func (s *Store) FindSubjectByName(ctx context.Context, name string) (model.Subject, error) {
	row := s.pool.QueryRow(ctx, `
    SELECT id, name, code, classroom_id, teacher_id
    FROM subjects
    WHERE name = $1
  `, name)
	return scanSubject(row)
}

func (s *Store) CreateSubject(ctx context.Context, subject model.Subject) error {
	_, err := s.pool.Exec(ctx, `
    INSERT INTO subjects (id, name, code, classroom_id, teacher_id)
    VALUES ($1, $2, $3, $4, $5)
  `, subject.ID, subject.Name, subject.Code, subject.ClassroomID, subject.TeacherID)
	return mapWriteError(err)
}

func (s *Store) AssignSubjectTeacher(ctx context.Context, subjectID, teacherID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE subjects SET teacher_id = $1 WHERE id = $2`, teacherID, subjectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNoRecord
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row scanner) (model.Identity, error) {
	var identity model.Identity
	var role string
	err := row.Scan(
		&identity.ID,
		&identity.Name,
		&identity.Email,
		&identity.PasswordHash,
		&role,
		&identity.CreatedAt,
	)
	if err != nil {
		return model.Identity{}, mapReadError(err)
	}
	identity.Role = model.Role(role)
	return identity, nil
}

func scanSubject(row scanner) (model.Subject, error) {
	var subject model.Subject
	err := row.Scan(
		&subject.ID,
		&subject.Name,
		&subject.Code,
		&subject.ClassroomID,
		&subject.TeacherID,
	)
	if err != nil {
		return model.Subject{}, mapReadError(err)
	}
	return subject, nil
}

func mapReadError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return service.ErrNoRecord
	}
	return err
}

// mapWriteError surfaces Postgres unique violations as the store
// contract's duplicate-key error. This is the backstop for two requests
// racing past the application-level email check.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return service.ErrDuplicateKey
	}
	return err
}
