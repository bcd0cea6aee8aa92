package dto

import "newsauth/internal/domain"

// AuthResult is the contract every verify/create/refresh call hands back to
// the transport layer: the live session, the resolved identity (nil for
// anonymous), and the freshly rotated CSRF token.
type AuthResult struct {
	Session   *domain.Session
	User      *AdminUser
	CSRFToken string
}
