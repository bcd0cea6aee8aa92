package service

import (
	"context"

	"newsauth/internal/dto"
)

type AuthService interface {
	// AdminLogin verifies credentials and regenerates the session: whatever
	// id the client presented is destroyed and a new one is minted.
	AdminLogin(ctx context.Context, r dto.LoginRequest, presentedSessionID, ip, ua string) (*dto.AuthResult, error)
	AdminVerify(ctx context.Context, sessionID string) (*dto.AuthResult, error)
	// AdminLogout is best-effort; logout always succeeds from the client's
	// point of view.
	AdminLogout(ctx context.Context, sessionID string)

	// ClientEnsure lazily creates an anonymous public session on first
	// contact, or refreshes the presented one.
	ClientEnsure(ctx context.Context, sessionID, ip, ua string) (*dto.AuthResult, error)
	ClientVerify(ctx context.Context, sessionID string) (*dto.AuthResult, error)
	ClientRefresh(ctx context.Context, sessionID string) (*dto.AuthResult, error)
	ClientLogout(ctx context.Context, sessionID string)
}
