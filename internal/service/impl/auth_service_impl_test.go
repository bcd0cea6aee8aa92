package impl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"newsauth/internal/domain"
	"newsauth/internal/dto"
	"newsauth/internal/observability/metrics"
	"newsauth/internal/session"
	"newsauth/internal/store"

	"github.com/google/uuid"
)

func TestMain(m *testing.M) {
	metrics.MustRegister("impl-test")
	m.Run()
}

type fakeSessionManager struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session // keyed by id+"/"+namespace
	seq      int

	destroyErr   error
	destroyCalls []string
}

func newFakeSessionManager() *fakeSessionManager {
	return &fakeSessionManager{sessions: make(map[string]*domain.Session)}
}

func (f *fakeSessionManager) key(id string, ns domain.Namespace) string {
	return id + "/" + string(ns)
}

func (f *fakeSessionManager) Create(ctx context.Context, ns domain.Namespace, adminID *domain.AdminID, meta session.ClientMeta) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	now := time.Now().UTC()
	sess := &domain.Session{
		ID:             fmt.Sprintf("sess-%d", f.seq),
		Namespace:      ns,
		AdminID:        adminID,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(time.Hour),
		IP:             meta.IP,
		UserAgent:      meta.UserAgent,
	}
	f.sessions[f.key(sess.ID, ns)] = sess
	return sess, nil
}

func (f *fakeSessionManager) Lookup(ctx context.Context, id string, ns domain.Namespace) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[f.key(id, ns)]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (f *fakeSessionManager) Touch(ctx context.Context, sess *domain.Session) (*domain.Session, error) {
	cp := *sess
	cp.LastActivityAt = time.Now().UTC()
	return &cp, nil
}

func (f *fakeSessionManager) Regenerate(ctx context.Context, presentedID string, adminID domain.AdminID, meta session.ClientMeta) (*domain.Session, error) {
	f.mu.Lock()
	delete(f.sessions, f.key(presentedID, domain.NamespaceAdmin))
	f.mu.Unlock()
	return f.Create(ctx, domain.NamespaceAdmin, &adminID, meta)
}

func (f *fakeSessionManager) IssueCSRFToken(ctx context.Context, sess *domain.Session) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("csrf-%d", f.seq), nil
}

func (f *fakeSessionManager) Destroy(ctx context.Context, id string, ns domain.Namespace) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyCalls = append(f.destroyCalls, f.key(id, ns))
	if f.destroyErr != nil {
		return f.destroyErr
	}
	delete(f.sessions, f.key(id, ns))
	return nil
}

func (f *fakeSessionManager) has(id string, ns domain.Namespace) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sessions[f.key(id, ns)]
	return ok
}

type fakeAdminStore struct {
	mu     sync.Mutex
	admins map[domain.AdminID]*domain.Admin

	lastLoginCalls int
	infraErr       error
}

func newFakeAdminStore(admins ...*domain.Admin) *fakeAdminStore {
	f := &fakeAdminStore{admins: make(map[domain.AdminID]*domain.Admin)}
	for _, a := range admins {
		f.admins[a.AdminID] = a
	}
	return f
}

func (f *fakeAdminStore) GetActiveByLogin(ctx context.Context, login string) (*domain.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.infraErr != nil {
		return nil, f.infraErr
	}
	for _, a := range f.admins {
		if a.Status != domain.AdminStatusActive {
			continue
		}
		if a.Email == login || a.Phone == login || a.Username == login {
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrRecordNotFound
}

func (f *fakeAdminStore) GetActiveByID(ctx context.Context, id domain.AdminID) (*domain.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.infraErr != nil {
		return nil, f.infraErr
	}
	a, ok := f.admins[id]
	if !ok || a.Status != domain.AdminStatusActive {
		return nil, store.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAdminStore) UpdateLastLogin(ctx context.Context, id domain.AdminID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLoginCalls++
	if a, ok := f.admins[id]; ok {
		a.LastLogin = &at
	}
	return nil
}

func (f *fakeAdminStore) suspend(id domain.AdminID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.admins[id]; ok {
		a.Status = domain.AdminStatusSuspended
	}
}

type stubPasswordService struct {
	validPassword string
	verifyCalls   int
}

func (s *stubPasswordService) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (s *stubPasswordService) Verify(hash, password string) bool {
	s.verifyCalls++
	return password == s.validPassword
}

func testAdmin() *domain.Admin {
	return &domain.Admin{
		AdminID:      uuid.New(),
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        "jane@example.com",
		Username:     "jane",
		Role:         "editor",
		Permissions:  []string{"news.publish"},
		PasswordHash: "irrelevant-for-stub",
		Status:       domain.AdminStatusActive,
	}
}

func newTestService(sessions *fakeSessionManager, admins *fakeAdminStore, pw *stubPasswordService) *AuthServiceImpl {
	return &AuthServiceImpl{sessions: sessions, admins: admins, passwords: pw}
}

func TestAdminLoginRegeneratesSession(t *testing.T) {
	admin := testAdmin()
	sessions := newFakeSessionManager()
	admins := newFakeAdminStore(admin)
	svc := newTestService(sessions, admins, &stubPasswordService{validPassword: "correct-horse"})

	// Seed a pre-login session the client will present.
	presented, err := sessions.Create(context.Background(), domain.NamespaceAdmin, &admin.AdminID, session.ClientMeta{})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := svc.AdminLogin(context.Background(), dto.LoginRequest{Identifier: "jane", Password: "correct-horse"}, presented.ID, "203.0.113.9", "ua")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if res.Session.ID == presented.ID {
		t.Fatal("login must mint a session id different from the presented one")
	}
	if sessions.has(presented.ID, domain.NamespaceAdmin) {
		t.Fatal("presented session must be destroyed on login")
	}
	if res.CSRFToken == "" {
		t.Fatal("login must issue a csrf token")
	}
	if res.User == nil || res.User.AdminID != admin.AdminID.String() {
		t.Fatal("login must return the resolved identity")
	}
	if admins.lastLoginCalls != 1 {
		t.Fatalf("expected last_login update, got %d calls", admins.lastLoginCalls)
	}
}

func TestAdminLoginUnknownIdentifierIsGeneric(t *testing.T) {
	pw := &stubPasswordService{validPassword: "whatever"}
	svc := newTestService(newFakeSessionManager(), newFakeAdminStore(), pw)

	_, err := svc.AdminLogin(context.Background(), dto.LoginRequest{Identifier: "nobody", Password: "some-password"}, "", "", "")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	// A dummy comparison still runs so a miss costs the same as a mismatch.
	if pw.verifyCalls != 1 {
		t.Fatalf("expected 1 verify call, got %d", pw.verifyCalls)
	}
}

func TestAdminLoginWrongPasswordIsGeneric(t *testing.T) {
	admin := testAdmin()
	svc := newTestService(newFakeSessionManager(), newFakeAdminStore(admin), &stubPasswordService{validPassword: "right"})

	_, err := svc.AdminLogin(context.Background(), dto.LoginRequest{Identifier: "jane", Password: "wrong-password"}, "", "", "")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAdminLoginValidation(t *testing.T) {
	svc := newTestService(newFakeSessionManager(), newFakeAdminStore(), &stubPasswordService{})

	if _, err := svc.AdminLogin(context.Background(), dto.LoginRequest{}, "", "", ""); !errors.Is(err, ErrEmptyCredential) {
		t.Fatalf("expected ErrEmptyCredential, got %v", err)
	}
	if _, err := svc.AdminLogin(context.Background(), dto.LoginRequest{Identifier: "jane", Password: "short"}, "", "", ""); !errors.Is(err, ErrPasswordLength) {
		t.Fatalf("expected ErrPasswordLength, got %v", err)
	}
}

func TestAdminLoginStoreFailure(t *testing.T) {
	admins := newFakeAdminStore()
	admins.infraErr = errors.New("connection reset")
	svc := newTestService(newFakeSessionManager(), admins, &stubPasswordService{})

	_, err := svc.AdminLogin(context.Background(), dto.LoginRequest{Identifier: "jane", Password: "longenough"}, "", "", "")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestAdminVerifyHappyPath(t *testing.T) {
	admin := testAdmin()
	sessions := newFakeSessionManager()
	svc := newTestService(sessions, newFakeAdminStore(admin), &stubPasswordService{})

	sess, err := sessions.Create(context.Background(), domain.NamespaceAdmin, &admin.AdminID, session.ClientMeta{})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := svc.AdminVerify(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.User == nil || res.User.AdminID != admin.AdminID.String() {
		t.Fatal("verify must resolve the bound identity")
	}
	if res.CSRFToken == "" {
		t.Fatal("verify must rotate the csrf token")
	}
}

func TestAdminVerifyRevokeOnDiscovery(t *testing.T) {
	admin := testAdmin()
	sessions := newFakeSessionManager()
	admins := newFakeAdminStore(admin)
	svc := newTestService(sessions, admins, &stubPasswordService{})

	sess, err := sessions.Create(context.Background(), domain.NamespaceAdmin, &admin.AdminID, session.ClientMeta{})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	admins.suspend(admin.AdminID)

	if _, err := svc.AdminVerify(context.Background(), sess.ID); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if sessions.has(sess.ID, domain.NamespaceAdmin) {
		t.Fatal("session must be destroyed when its identity is revoked")
	}

	// Second check on the now-destroyed id fails the same way.
	if _, err := svc.AdminVerify(context.Background(), sess.ID); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated on second check, got %v", err)
	}
}

func TestAdminVerifyMissingSession(t *testing.T) {
	svc := newTestService(newFakeSessionManager(), newFakeAdminStore(), &stubPasswordService{})

	if _, err := svc.AdminVerify(context.Background(), "never-existed"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAdminLogoutMasksStoreFailure(t *testing.T) {
	sessions := newFakeSessionManager()
	sessions.destroyErr = errors.New("timeout")
	svc := newTestService(sessions, newFakeAdminStore(), &stubPasswordService{})

	// Must not panic or surface the failure; logout is best-effort.
	svc.AdminLogout(context.Background(), "some-session")
	if len(sessions.destroyCalls) != 1 {
		t.Fatalf("expected a destroy attempt, got %d", len(sessions.destroyCalls))
	}
}

func TestClientEnsureCreatesAndReuses(t *testing.T) {
	sessions := newFakeSessionManager()
	svc := newTestService(sessions, newFakeAdminStore(), &stubPasswordService{})

	first, err := svc.ClientEnsure(context.Background(), "", "203.0.113.9", "ua")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if first.Session.Namespace != domain.NamespacePublic {
		t.Fatal("client sessions live in the public namespace")
	}
	if first.Session.AdminID != nil {
		t.Fatal("lazy public session must start anonymous")
	}

	second, err := svc.ClientEnsure(context.Background(), first.Session.ID, "203.0.113.9", "ua")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if second.Session.ID != first.Session.ID {
		t.Fatal("presenting a live session must not mint a new one")
	}
	if second.CSRFToken == first.CSRFToken {
		t.Fatal("csrf token must rotate on re-ensure")
	}
}

func TestClientVerifyWithoutSession(t *testing.T) {
	svc := newTestService(newFakeSessionManager(), newFakeAdminStore(), &stubPasswordService{})

	if _, err := svc.ClientVerify(context.Background(), "missing"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestClientRefreshAndLogout(t *testing.T) {
	sessions := newFakeSessionManager()
	svc := newTestService(sessions, newFakeAdminStore(), &stubPasswordService{})

	res, err := svc.ClientEnsure(context.Background(), "", "", "")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	refreshed, err := svc.ClientRefresh(context.Background(), res.Session.ID)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.Session.ID != res.Session.ID {
		t.Fatal("refresh must keep the session id")
	}

	svc.ClientLogout(context.Background(), res.Session.ID)
	if sessions.has(res.Session.ID, domain.NamespacePublic) {
		t.Fatal("logout must destroy the session")
	}

	// Idempotent: a second logout is also fine.
	svc.ClientLogout(context.Background(), res.Session.ID)
}
