package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"newsauth/internal/domain"
	"newsauth/internal/observability/metrics"
	obsmw "newsauth/internal/observability/middleware"
	"newsauth/internal/session"
	"newsauth/internal/store"
)

// AdminSource is the identity re-check the gate issues on every request, so
// suspension takes effect immediately instead of at next login.
type AdminSource interface {
	GetActiveByID(ctx context.Context, id domain.AdminID) (*domain.Admin, error)
}

// Gate enforces "is this request entitled to act as identity X in namespace
// N". It resolves identity only; permission checks stay in route handlers.
type Gate struct {
	manager *session.Manager
	codec   *session.CookieCodec
	admins  AdminSource
}

func NewGate(manager *session.Manager, codec *session.CookieCodec, admins AdminSource) *Gate {
	return &Gate{manager: manager, codec: codec, admins: admins}
}

func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := "rejected"
		defer func() {
			metrics.GateChecksTotal.WithLabelValues(string(domain.NamespaceAdmin), result).Inc()
		}()
		reqID := obsmw.RequestIDFromContext(r.Context())

		sid, ok := g.codec.Read(r, domain.NamespaceAdmin)
		if !ok {
			rejectAdmin(w)
			return
		}

		sess, err := g.manager.Lookup(r.Context(), sid, domain.NamespaceAdmin)
		if err != nil {
			result = "error"
			slog.Error("gate session lookup failed", "error", err, "request_id", reqID)
			writeAdminServerError(w)
			return
		}
		// Absent, expired, and unbound all get the same rejection; the
		// response must not reveal whether the id ever existed.
		if sess == nil || sess.AdminID == nil {
			rejectAdmin(w)
			return
		}

		admin, err := g.admins.GetActiveByID(r.Context(), *sess.AdminID)
		if errors.Is(err, store.ErrRecordNotFound) {
			// Revoke-on-discovery: the identity is gone or suspended, so the
			// session dies with it. The delete is idempotent; a concurrent
			// check on the same id fails the same way.
			if derr := g.manager.Destroy(r.Context(), sess.ID, domain.NamespaceAdmin); derr != nil {
				slog.Warn("failed to destroy revoked session", "error", derr, "request_id", reqID)
			}
			rejectAdmin(w)
			return
		}
		if err != nil {
			result = "error"
			slog.Error("gate identity re-check failed", "error", err, "request_id", reqID)
			writeAdminServerError(w)
			return
		}

		// Sliding refresh while the admin is actively used.
		sess, err = g.manager.Touch(r.Context(), sess)
		if err != nil {
			result = "error"
			slog.Error("gate session touch failed", "error", err, "request_id", reqID)
			writeAdminServerError(w)
			return
		}

		result = "authorized"
		ctx := withSession(r.Context(), sess)
		ctx = withIdentity(ctx, domain.Identity{
			ID:          admin.AdminID,
			Role:        admin.Role,
			Permissions: admin.Permissions,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireCSRF checks the anti-forgery token on unsafe methods. Safe methods
// pass through, so it stacks under RequireAdmin for a whole route group.
func (g *Gate) RequireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		sess, ok := SessionFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusForbidden, adminEnvelope{
				Error:   strptr("CSRF token required"),
				Message: strptr("Missing session for CSRF check"),
			})
			return
		}
		token := r.Header.Get("X-CSRF-Token")
		if token == "" || g.manager.CheckCSRFToken(sess, token) != nil {
			writeJSON(w, http.StatusForbidden, adminEnvelope{
				Authenticated: true,
				Error:         strptr("Invalid or missing CSRF token"),
				Message:       strptr("Re-fetch a token from the verify endpoint and retry"),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func rejectAdmin(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, adminEnvelope{
		Error:   strptr("Admin session required"),
		Message: strptr("Please log in to access this resource"),
	})
}

func writeAdminServerError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, adminEnvelope{
		Error:   strptr("Admin authentication failed"),
		Message: strptr("Internal server error"),
	})
}
