package domain

import "errors"

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminDisabled      = errors.New("admin disabled")
	ErrStoreUnavailable   = errors.New("session store unavailable")
	ErrSessionExists      = errors.New("session id already exists")

	// ErrSessionFixation is returned when code attempts to bind an identity
	// onto an existing admin-namespace session instead of regenerating it.
	// Hitting it is a programming error, not a user-facing condition.
	ErrSessionFixation = errors.New("identity bind attempted on admin-namespace session")
)
