package session

import (
	"context"
	"log/slog"
	"time"

	"newsauth/internal/observability/metrics"
)

// Sweeper reaps expired sessions on a fixed interval. It coexists with the
// manager's lazy expiry: both paths issue idempotent deletes, so they never
// conflict.
type Sweeper struct {
	store    Store
	interval time.Duration
}

func NewSweeper(store Store, interval time.Duration) *Sweeper {
	return &Sweeper{store: store, interval: interval}
}

// Run blocks until ctx is cancelled. Callers start it in its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				slog.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				metrics.SessionsSweptTotal.Add(float64(n))
				slog.Info("swept expired sessions", "count", n)
			}
		}
	}
}
