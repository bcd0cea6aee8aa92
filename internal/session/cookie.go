package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"newsauth/internal/domain"
)

// Each namespace gets its own cookie so the partitions stay independent at
// the transport layer too.
const (
	AdminCookieName  = "news_admin_session"
	PublicCookieName = "news_public_session"
)

func CookieName(ns domain.Namespace) string {
	if ns == domain.NamespaceAdmin {
		return AdminCookieName
	}
	return PublicCookieName
}

// CookieCodec writes and reads signed session cookies. The value on the wire
// is "<sid>.<base64url(HMAC-SHA256(secret, sid))>"; a tampered or unsigned
// cookie never reaches the store.
type CookieCodec struct {
	secrets    Secrets
	ttl        TTLConfig
	production bool
}

func NewCookieCodec(secrets Secrets, ttl TTLConfig, production bool) *CookieCodec {
	return &CookieCodec{secrets: secrets, ttl: ttl, production: production}
}

func (c *CookieCodec) sign(ns domain.Namespace, sid string) string {
	mac := hmac.New(sha256.New, c.secrets.For(ns))
	mac.Write([]byte(sid))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (c *CookieCodec) Encode(ns domain.Namespace, sid string) string {
	return sid + "." + c.sign(ns, sid)
}

// Decode validates the signature and returns the bare session id.
func (c *CookieCodec) Decode(ns domain.Namespace, value string) (string, bool) {
	idx := strings.LastIndexByte(value, '.')
	if idx <= 0 || idx == len(value)-1 {
		return "", false
	}
	sid, sig := value[:idx], value[idx+1:]
	if !hmac.Equal([]byte(sig), []byte(c.sign(ns, sid))) {
		return "", false
	}
	return sid, true
}

// sameSite follows the deployment mode: None for the cross-origin production
// setup (frontend and backend on different origins), Lax in development.
func (c *CookieCodec) sameSite() http.SameSite {
	if c.production {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// Set issues the session cookie with a Max-Age matching the namespace TTL.
func (c *CookieCodec) Set(w http.ResponseWriter, ns domain.Namespace, sid string) {
	ttl := c.ttl.For(ns)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName(ns),
		Value:    c.Encode(ns, sid),
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   c.production,
		SameSite: c.sameSite(),
	})
}

// Clear removes the namespace cookie from the client.
func (c *CookieCodec) Clear(w http.ResponseWriter, ns domain.Namespace) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName(ns),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.production,
		SameSite: c.sameSite(),
	})
}

// Read extracts and validates the session id for a namespace from the
// request, if present.
func (c *CookieCodec) Read(r *http.Request, ns domain.Namespace) (string, bool) {
	cookie, err := r.Cookie(CookieName(ns))
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return c.Decode(ns, cookie.Value)
}
