package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newsauth/internal/domain"
	"newsauth/internal/observability/metrics"
)

// Store is the persistence contract the manager drives. The gorm-backed
// implementation lives in internal/store; tests substitute an in-memory one.
type Store interface {
	Create(ctx context.Context, sess *domain.Session) error
	Get(ctx context.Context, id string, ns domain.Namespace) (*domain.Session, error)
	Touch(ctx context.Context, id string, ns domain.Namespace, activity, expiry time.Time) error
	SetCSRFHash(ctx context.Context, id string, ns domain.Namespace, hash []byte) error
	BindAdmin(ctx context.Context, id string, ns domain.Namespace, adminID domain.AdminID) error
	Delete(ctx context.Context, id string, ns domain.Namespace) error
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// ClientMeta is the non-authoritative fingerprint captured at creation.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// createRetries bounds the id-collision retry loop. A collision on a 256-bit
// id is practically unreachable, but the store's unique constraint surfaces
// it and we must not fail the caller on the first hit.
const createRetries = 3

type Manager struct {
	store   Store
	ttl     TTLConfig
	secrets Secrets
	now     func() time.Time
}

func NewManager(store Store, ttl TTLConfig, secrets Secrets) *Manager {
	return &Manager{
		store:   store,
		ttl:     ttl,
		secrets: secrets,
		now:     time.Now,
	}
}

// Create allocates a fresh session in the given namespace. Admin sessions
// must carry an identity from the start; there is no later upgrade path.
func (m *Manager) Create(ctx context.Context, ns domain.Namespace, adminID *domain.AdminID, meta ClientMeta) (*domain.Session, error) {
	if !ns.Valid() {
		return nil, fmt.Errorf("session: unknown namespace %q", ns)
	}
	if ns.RequiresIdentity() && adminID == nil {
		return nil, fmt.Errorf("session: %s session requires an identity at creation", ns)
	}

	now := m.now().UTC()
	for attempt := 0; attempt < createRetries; attempt++ {
		id, err := NewID()
		if err != nil {
			return nil, err
		}
		sess := &domain.Session{
			ID:             id,
			Namespace:      ns,
			AdminID:        adminID,
			CreatedAt:      now,
			LastActivityAt: now,
			ExpiresAt:      now.Add(m.ttl.For(ns)),
			IP:             meta.IP,
			UserAgent:      meta.UserAgent,
		}
		err = m.store.Create(ctx, sess)
		if errors.Is(err, domain.ErrSessionExists) {
			slog.Warn("session id collision, retrying", "namespace", ns, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		metrics.SessionsCreatedTotal.WithLabelValues(string(ns)).Inc()
		return sess, nil
	}
	return nil, fmt.Errorf("%w: could not allocate a unique session id", domain.ErrStoreUnavailable)
}

// Lookup fails closed: absent, expired, or namespace-mismatched ids all
// return (nil, nil). Errors are reserved for infrastructure failures, which
// callers must never conflate with "no session".
func (m *Manager) Lookup(ctx context.Context, id string, ns domain.Namespace) (*domain.Session, error) {
	if id == "" {
		return nil, nil
	}
	sess, err := m.store.Get(ctx, id, ns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if sess == nil {
		return nil, nil
	}
	if sess.Expired(m.now().UTC()) {
		// Lazy expiry: reap the row before anything can use it. The sweeper
		// issues the same idempotent delete on its own schedule.
		if derr := m.store.Delete(ctx, id, ns); derr != nil {
			slog.Warn("failed to reap expired session", "namespace", ns, "error", derr)
		}
		return nil, nil
	}
	return sess, nil
}

// Touch records activity and slides the expiry forward by the namespace TTL.
// The expiry never moves backwards; two racing touches settle on the later
// value.
func (m *Manager) Touch(ctx context.Context, sess *domain.Session) (*domain.Session, error) {
	now := m.now().UTC()
	expiry := now.Add(m.ttl.For(sess.Namespace))
	if expiry.Before(sess.ExpiresAt) {
		expiry = sess.ExpiresAt
	}
	if err := m.store.Touch(ctx, sess.ID, sess.Namespace, now, expiry); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	out := *sess
	out.LastActivityAt = now
	out.ExpiresAt = expiry
	return &out, nil
}

// BindIdentity attaches an identity to a public session (anonymous → known).
// Admin sessions never take this path: privilege must not be upgraded into a
// pre-authentication session object. Use Regenerate for admin login.
func (m *Manager) BindIdentity(ctx context.Context, sess *domain.Session, adminID domain.AdminID) (*domain.Session, error) {
	if sess.Namespace == domain.NamespaceAdmin {
		return nil, domain.ErrSessionFixation
	}
	if err := m.store.BindAdmin(ctx, sess.ID, sess.Namespace, adminID); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	out := *sess
	out.AdminID = &adminID
	return &out, nil
}

// Regenerate implements session regeneration on privilege change: whatever
// admin session id the client presented is destroyed first, then a brand-new
// session is minted with the verified identity. Destroy-then-create is
// deliberately sequenced.
func (m *Manager) Regenerate(ctx context.Context, presentedID string, adminID domain.AdminID, meta ClientMeta) (*domain.Session, error) {
	if presentedID != "" {
		if err := m.store.Delete(ctx, presentedID, domain.NamespaceAdmin); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
	}
	return m.Create(ctx, domain.NamespaceAdmin, &adminID, meta)
}

// IssueCSRFToken mints a fresh anti-forgery token bound to the session and
// stores its hash, replacing any previous one. The token rotates on every
// create/verify/refresh: it proves the caller round-tripped through the
// current session state.
func (m *Manager) IssueCSRFToken(ctx context.Context, sess *domain.Session) (string, error) {
	token, err := MintCSRF(m.secrets.For(sess.Namespace), sess.ID, m.ttl.For(sess.Namespace), m.now().UTC())
	if err != nil {
		return "", err
	}
	hash := HashCSRF(token)
	if err := m.store.SetCSRFHash(ctx, sess.ID, sess.Namespace, hash); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	sess.CSRFHash = hash
	return token, nil
}

// CheckCSRFToken verifies a presented token against the session: the HS256
// signature must bind it to this session id and its hash must match the one
// currently stored (older rotations are rejected).
func (m *Manager) CheckCSRFToken(sess *domain.Session, presented string) error {
	if err := VerifyCSRF(m.secrets.For(sess.Namespace), presented, sess.ID); err != nil {
		return err
	}
	if !MatchCSRFHash(sess.CSRFHash, presented) {
		return errors.New("csrf token is not the current one for this session")
	}
	return nil
}

// Destroy removes a session. Idempotent: destroying an absent id succeeds.
func (m *Manager) Destroy(ctx context.Context, id string, ns domain.Namespace) error {
	if id == "" {
		return nil
	}
	if err := m.store.Delete(ctx, id, ns); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
