package service

import "errors"

// Expected failure kinds. Handlers map these onto status codes; the bulk
// import engine records validation, duplicate-email and not-found
// failures per row instead of aborting the batch.
var (
	ErrValidation        = errors.New("missing required fields")
	ErrDuplicateIdentity = errors.New("email already exists")
	ErrDuplicate         = errors.New("already exists")
	ErrNotFound          = errors.New("not found")
	ErrRoleMismatch      = errors.New("role mismatch")
	ErrIncorrectPassword = errors.New("incorrect password")
)
