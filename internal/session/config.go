package session

import (
	"time"

	"newsauth/internal/domain"
)

// TTLConfig holds the per-namespace session lifetimes. Admin sessions are
// short because they carry privilege; public sessions are long because they
// only carry continuity.
type TTLConfig struct {
	Admin  time.Duration
	Public time.Duration
}

func (c TTLConfig) For(ns domain.Namespace) time.Duration {
	if ns == domain.NamespaceAdmin {
		return c.Admin
	}
	return c.Public
}

// Secrets are the per-namespace keys protecting the session mechanism:
// cookie signatures and CSRF tokens.
type Secrets struct {
	Admin  []byte
	Public []byte
}

func (s Secrets) For(ns domain.Namespace) []byte {
	if ns == domain.NamespaceAdmin {
		return s.Admin
	}
	return s.Public
}
