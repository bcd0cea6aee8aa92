package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"newsauth/internal/domain"
	"newsauth/internal/dto"
	"newsauth/internal/netutil"
	obsmw "newsauth/internal/observability/middleware"
	"newsauth/internal/service"
	"newsauth/internal/session"
)

// Response envelopes match what the frontend was written against.

type adminEnvelope struct {
	Success       bool           `json:"success"`
	Authenticated bool           `json:"authenticated"`
	User          *dto.AdminUser `json:"user"`
	CSRFToken     *string        `json:"csrf_token,omitempty"`
	Error         *string        `json:"error"`
	Message       *string        `json:"message"`
}

type clientEnvelope struct {
	Success         bool           `json:"success"`
	IsAuthenticated bool           `json:"isAuthenticated"`
	IsAnonymous     bool           `json:"isAnonymous"`
	User            *dto.AdminUser `json:"user"`
	ClientID        *string        `json:"client_id"`
	CSRFToken       *string        `json:"csrf_token"`
	Message         string         `json:"message"`
}

type Handler struct {
	svc        service.AuthService
	codec      *session.CookieCodec
	trustProxy bool
}

func NewHandler(svc service.AuthService, codec *session.CookieCodec, trustProxy bool) *Handler {
	return &Handler{svc: svc, codec: codec, trustProxy: trustProxy}
}

func (h *Handler) clientMeta(r *http.Request) (ip, ua string) {
	return netutil.ClientIP(r, h.trustProxy), netutil.TruncateUserAgent(r.UserAgent())
}

// --- admin ---

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, adminEnvelope{Error: strptr("Invalid request body")})
		return
	}

	presented, _ := h.codec.Read(r, domain.NamespaceAdmin)
	ip, ua := h.clientMeta(r)

	res, err := h.svc.AdminLogin(r.Context(), req, presented, ip, ua)
	if err != nil {
		h.writeAdminError(w, r, err)
		return
	}

	h.codec.Set(w, domain.NamespaceAdmin, res.Session.ID)
	writeJSON(w, http.StatusOK, adminEnvelope{
		Success:       true,
		Authenticated: true,
		User:          res.User,
		CSRFToken:     &res.CSRFToken,
		Message:       strptr("Login successful"),
	})
}

func (h *Handler) AdminVerify(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.codec.Read(r, domain.NamespaceAdmin)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, adminEnvelope{Error: strptr("No active session found")})
		return
	}

	res, err := h.svc.AdminVerify(r.Context(), sid)
	if err != nil {
		h.writeAdminError(w, r, err)
		return
	}

	// Rolling cookie: every verified response re-issues the cookie with the
	// slid expiry.
	h.codec.Set(w, domain.NamespaceAdmin, res.Session.ID)
	writeJSON(w, http.StatusOK, adminEnvelope{
		Success:       true,
		Authenticated: true,
		User:          res.User,
		CSRFToken:     &res.CSRFToken,
		Message:       strptr("Session verified"),
	})
}

func (h *Handler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	if sid, ok := h.codec.Read(r, domain.NamespaceAdmin); ok {
		h.svc.AdminLogout(r.Context(), sid)
	}
	h.codec.Clear(w, domain.NamespaceAdmin)
	writeJSON(w, http.StatusOK, adminEnvelope{
		Success: true,
		Message: strptr("Logout successful"),
	})
}

// AdminMe exposes the gate's output contract to the caller; it only runs
// behind RequireAdmin.
func (h *Handler) AdminMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		rejectAdmin(w)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success  bool            `json:"success"`
		Identity domain.Identity `json:"identity"`
	}{Success: true, Identity: identity})
}

func (h *Handler) writeAdminError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := obsmw.RequestIDFromContext(r.Context())
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, adminEnvelope{Error: strptr("Invalid credentials")})
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, adminEnvelope{Error: strptr("Invalid or expired admin session"), Message: strptr("Please log in again")})
	case errors.Is(err, domain.ErrStoreUnavailable):
		slog.Error("admin auth store failure", "error", err, "request_id", reqID)
		writeJSON(w, http.StatusInternalServerError, adminEnvelope{Error: strptr("Internal server error")})
	case errors.Is(err, domain.ErrSessionFixation):
		// Should be unreachable; treat as a fatal programming error.
		slog.Error("session fixation guard tripped", "error", err, "request_id", reqID)
		writeJSON(w, http.StatusInternalServerError, adminEnvelope{Error: strptr("Internal server error")})
	default:
		writeJSON(w, http.StatusBadRequest, adminEnvelope{Error: strptr(err.Error())})
	}
}

// --- client ---

func (h *Handler) ClientAnonymous(w http.ResponseWriter, r *http.Request) {
	sid, _ := h.codec.Read(r, domain.NamespacePublic)
	ip, ua := h.clientMeta(r)

	res, err := h.svc.ClientEnsure(r.Context(), sid, ip, ua)
	if err != nil {
		h.writeClientError(w, r, err, "Session creation failed")
		return
	}

	h.codec.Set(w, domain.NamespacePublic, res.Session.ID)
	writeJSON(w, http.StatusOK, clientEnvelope{
		Success:         true,
		IsAuthenticated: true,
		IsAnonymous:     res.Session.Anonymous(),
		ClientID:        strptr(res.Session.ID),
		CSRFToken:       &res.CSRFToken,
		Message:         "Anonymous session created",
	})
}

func (h *Handler) ClientVerify(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.codec.Read(r, domain.NamespacePublic)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, clientEnvelope{IsAnonymous: true, Message: "No session found"})
		return
	}

	res, err := h.svc.ClientVerify(r.Context(), sid)
	if err != nil {
		h.writeClientError(w, r, err, "Verification failed")
		return
	}

	h.codec.Set(w, domain.NamespacePublic, res.Session.ID)
	writeJSON(w, http.StatusOK, clientEnvelope{
		Success:         true,
		IsAuthenticated: true,
		IsAnonymous:     res.User == nil,
		User:            res.User,
		ClientID:        strptr(res.Session.ID),
		CSRFToken:       &res.CSRFToken,
		Message:         "Session verified",
	})
}

func (h *Handler) ClientRefresh(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.codec.Read(r, domain.NamespacePublic)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, clientEnvelope{IsAnonymous: true, Message: "No session to refresh"})
		return
	}

	res, err := h.svc.ClientRefresh(r.Context(), sid)
	if err != nil {
		h.writeClientError(w, r, err, "Refresh failed")
		return
	}

	h.codec.Set(w, domain.NamespacePublic, res.Session.ID)
	writeJSON(w, http.StatusOK, clientEnvelope{
		Success:         true,
		IsAuthenticated: true,
		IsAnonymous:     res.Session.Anonymous(),
		ClientID:        strptr(res.Session.ID),
		CSRFToken:       &res.CSRFToken,
		Message:         "Session refreshed",
	})
}

func (h *Handler) ClientLogout(w http.ResponseWriter, r *http.Request) {
	if sid, ok := h.codec.Read(r, domain.NamespacePublic); ok {
		h.svc.ClientLogout(r.Context(), sid)
	}
	h.codec.Clear(w, domain.NamespacePublic)
	writeJSON(w, http.StatusOK, clientEnvelope{
		Success:     true,
		IsAnonymous: true,
		Message:     "Session terminated",
	})
}

func (h *Handler) writeClientError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, domain.ErrUnauthenticated) {
		writeJSON(w, http.StatusUnauthorized, clientEnvelope{IsAnonymous: true, Message: "No session found"})
		return
	}
	slog.Error("client session failure", "error", err, "request_id", obsmw.RequestIDFromContext(r.Context()))
	writeJSON(w, http.StatusInternalServerError, clientEnvelope{IsAnonymous: true, Message: msg})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func strptr(s string) *string { return &s }
