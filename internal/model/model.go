package model

import (
	"strings"
	"time"
)

// Role is the closed set of account roles. Stored data keeps roles as
// uppercase literals, so the constants mirror that spelling.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// ParseRole maps a raw string onto a Role. Unknown values are rejected
// rather than carried through as free text.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleTeacher:
		return RoleTeacher, true
	case RoleStudent:
		return RoleStudent, true
	default:
		return "", false
	}
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTeacher || r == RoleStudent
}

type Identity struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

type StudentProfile struct {
	IdentityID  string
	RollNo      int
	ClassroomID string
}

type Classroom struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Subject struct {
	ID          string
	Name        string
	Code        *int
	ClassroomID string
	TeacherID   *string
}
