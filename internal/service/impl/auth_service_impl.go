package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"newsauth/internal/domain"
	"newsauth/internal/dto"
	"newsauth/internal/observability/metrics"
	"newsauth/internal/service"
	"newsauth/internal/session"
	"newsauth/internal/store"
)

// timingDummyHash is compared against when the login identifier is unknown,
// so a miss costs the same as a password mismatch.
const timingDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type AuthServiceImpl struct {
	sessions  sessionManager
	admins    adminStore
	passwords service.PasswordService
}

// Narrow interfaces over the concrete manager/store keep the flow testable
// with in-memory fakes.
type sessionManager interface {
	Create(ctx context.Context, ns domain.Namespace, adminID *domain.AdminID, meta session.ClientMeta) (*domain.Session, error)
	Lookup(ctx context.Context, id string, ns domain.Namespace) (*domain.Session, error)
	Touch(ctx context.Context, sess *domain.Session) (*domain.Session, error)
	Regenerate(ctx context.Context, presentedID string, adminID domain.AdminID, meta session.ClientMeta) (*domain.Session, error)
	IssueCSRFToken(ctx context.Context, sess *domain.Session) (string, error)
	Destroy(ctx context.Context, id string, ns domain.Namespace) error
}

type adminStore interface {
	GetActiveByLogin(ctx context.Context, login string) (*domain.Admin, error)
	GetActiveByID(ctx context.Context, id domain.AdminID) (*domain.Admin, error)
	UpdateLastLogin(ctx context.Context, id domain.AdminID, at time.Time) error
}

func NewAuthServiceImpl(sessions *session.Manager, st *store.Store, passwords service.PasswordService) *AuthServiceImpl {
	return &AuthServiceImpl{
		sessions:  sessions,
		admins:    st.Admins(),
		passwords: passwords,
	}
}

func (a *AuthServiceImpl) AdminLogin(ctx context.Context, r dto.LoginRequest, presentedSessionID, ip, ua string) (*dto.AuthResult, error) {
	result := "success"
	defer func() {
		metrics.AuthLoginsTotal.WithLabelValues(result).Inc()
	}()

	login := strings.TrimSpace(r.Login())
	password := strings.TrimSpace(r.Password)
	if login == "" || password == "" {
		result = "failure"
		return nil, ErrEmptyCredential
	}
	if len(password) < 6 {
		result = "failure"
		return nil, ErrPasswordLength
	}

	admin, err := a.admins.GetActiveByLogin(ctx, login)
	if errors.Is(err, store.ErrRecordNotFound) {
		a.passwords.Verify(timingDummyHash, password)
		result = "failure"
		return nil, domain.ErrInvalidCredentials // don't leak which field failed
	}
	if err != nil {
		result = "failure"
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if !a.passwords.Verify(admin.PasswordHash, password) {
		result = "failure"
		return nil, domain.ErrInvalidCredentials
	}

	// Session regeneration on privilege change: the presented id dies, a new
	// one is minted with the verified identity already bound.
	sess, err := a.sessions.Regenerate(ctx, presentedSessionID, admin.AdminID, session.ClientMeta{IP: ip, UserAgent: ua})
	if err != nil {
		result = "failure"
		return nil, err
	}

	token, err := a.sessions.IssueCSRFToken(ctx, sess)
	if err != nil {
		result = "failure"
		return nil, err
	}

	now := time.Now().UTC()
	if err := a.admins.UpdateLastLogin(ctx, admin.AdminID, now); err != nil {
		// Audit field only; the login itself already succeeded.
		slog.Warn("failed to update last_login", "admin_id", admin.AdminID, "error", err)
	}
	admin.LastLogin = &now

	slog.Info("admin login", "admin_id", admin.AdminID, "session_id", sess.ID, "role", admin.Role)

	return &dto.AuthResult{Session: sess, User: adminUser(admin), CSRFToken: token}, nil
}

func (a *AuthServiceImpl) AdminVerify(ctx context.Context, sessionID string) (*dto.AuthResult, error) {
	sess, err := a.sessions.Lookup(ctx, sessionID, domain.NamespaceAdmin)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.ErrUnauthenticated
	}
	if sess.AdminID == nil {
		// Admin sessions are bound at creation; a row without an identity is
		// invalid and destroyed on sight.
		a.destroyQuietly(ctx, sess.ID, domain.NamespaceAdmin)
		return nil, domain.ErrUnauthenticated
	}

	admin, err := a.admins.GetActiveByID(ctx, *sess.AdminID)
	if errors.Is(err, store.ErrRecordNotFound) {
		// Revoke-on-discovery: the bound identity is gone or suspended.
		a.destroyQuietly(ctx, sess.ID, domain.NamespaceAdmin)
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	sess, err = a.sessions.Touch(ctx, sess)
	if err != nil {
		return nil, err
	}
	token, err := a.sessions.IssueCSRFToken(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResult{Session: sess, User: adminUser(admin), CSRFToken: token}, nil
}

func (a *AuthServiceImpl) AdminLogout(ctx context.Context, sessionID string) {
	// Logout must always appear to succeed; a failed server-side delete is
	// nothing the client can remediate. A surviving row is reaped by lazy
	// expiry or the sweeper.
	if err := a.sessions.Destroy(ctx, sessionID, domain.NamespaceAdmin); err != nil {
		slog.Warn("admin logout destroy failed", "error", err)
	}
}

func (a *AuthServiceImpl) ClientEnsure(ctx context.Context, sessionID, ip, ua string) (*dto.AuthResult, error) {
	if sessionID != "" {
		sess, err := a.sessions.Lookup(ctx, sessionID, domain.NamespacePublic)
		if err != nil {
			return nil, err
		}
		if sess != nil {
			return a.refreshPublic(ctx, sess, true)
		}
	}
	sess, err := a.sessions.Create(ctx, domain.NamespacePublic, nil, session.ClientMeta{IP: ip, UserAgent: ua})
	if err != nil {
		return nil, err
	}
	token, err := a.sessions.IssueCSRFToken(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResult{Session: sess, CSRFToken: token}, nil
}

func (a *AuthServiceImpl) ClientVerify(ctx context.Context, sessionID string) (*dto.AuthResult, error) {
	sess, err := a.sessions.Lookup(ctx, sessionID, domain.NamespacePublic)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.ErrUnauthenticated
	}
	return a.refreshPublic(ctx, sess, true)
}

func (a *AuthServiceImpl) ClientRefresh(ctx context.Context, sessionID string) (*dto.AuthResult, error) {
	sess, err := a.sessions.Lookup(ctx, sessionID, domain.NamespacePublic)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.ErrUnauthenticated
	}
	return a.refreshPublic(ctx, sess, false)
}

func (a *AuthServiceImpl) ClientLogout(ctx context.Context, sessionID string) {
	if err := a.sessions.Destroy(ctx, sessionID, domain.NamespacePublic); err != nil {
		slog.Warn("client logout destroy failed", "error", err)
	}
}

// refreshPublic slides the session forward and rotates the CSRF token. When
// the session is bound to an identity and resolveUser is set, the identity is
// resolved best-effort: a vanished identity degrades the result to anonymous
// without killing the continuity session.
func (a *AuthServiceImpl) refreshPublic(ctx context.Context, sess *domain.Session, resolveUser bool) (*dto.AuthResult, error) {
	sess, err := a.sessions.Touch(ctx, sess)
	if err != nil {
		return nil, err
	}
	token, err := a.sessions.IssueCSRFToken(ctx, sess)
	if err != nil {
		return nil, err
	}

	var user *dto.AdminUser
	if resolveUser && sess.AdminID != nil {
		admin, err := a.admins.GetActiveByID(ctx, *sess.AdminID)
		if err == nil {
			user = adminUser(admin)
		} else if !errors.Is(err, store.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
	}
	return &dto.AuthResult{Session: sess, User: user, CSRFToken: token}, nil
}

func (a *AuthServiceImpl) destroyQuietly(ctx context.Context, id string, ns domain.Namespace) {
	if err := a.sessions.Destroy(ctx, id, ns); err != nil {
		slog.Warn("failed to destroy invalid session", "namespace", ns, "error", err)
	}
}

func adminUser(admin *domain.Admin) *dto.AdminUser {
	perms := admin.Permissions
	if perms == nil {
		perms = []string{}
	}
	return &dto.AdminUser{
		AdminID:     admin.AdminID.String(),
		FirstName:   admin.FirstName,
		LastName:    admin.LastName,
		Email:       admin.Email,
		Phone:       admin.Phone,
		Role:        admin.Role,
		Permissions: perms,
		LastLogin:   admin.LastLogin,
		Status:      admin.Status,
	}
}
