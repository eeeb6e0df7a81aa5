package accounts

import "errors"

// Stable, client-safe failures. Causes of ErrServer are logged, never returned.
var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateAccount   = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("user not found")
	ErrServer             = errors.New("server error")
)
