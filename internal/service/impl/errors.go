package impl

import "errors"

var (
	ErrEmptyCredential  = errors.New("username/email and password are required")
	ErrPasswordLength   = errors.New("password must be at least 6 characters")
	ErrPasswordTooShort = errors.New("password too short")
)
