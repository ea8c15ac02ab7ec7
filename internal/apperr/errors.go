package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrPermission    = errors.New("permission denied")
	ErrInvalid       = errors.New("invalid input")
)
