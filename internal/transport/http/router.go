package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	obsmw "newsauth/internal/observability/middleware"
)

type RouterConfig struct {
	CORSOrigins []string
}

func NewRouter(h *Handler, gate *Gate, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(httprate.LimitByIP(300, 1*time.Minute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-CSRF-Token", "X-Request-Id"},
		ExposedHeaders:   []string{"Set-Cookie"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(obsmw.WithRequestAndTrace)
	r.Use(obsmw.WithMetrics)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/admin", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Tight limit on login to slow down credential stuffing.
			r.With(httprate.LimitByIP(10, 1*time.Minute)).Post("/login", h.AdminLogin)
			r.Post("/logout", h.AdminLogout)
			r.Get("/verify", h.AdminVerify)
		})

		// Everything else under /admin sits behind the gate; downstream
		// admin resources mount into this group.
		r.Group(func(r chi.Router) {
			r.Use(gate.RequireAdmin)
			r.Use(gate.RequireCSRF)
			r.Get("/me", h.AdminMe)
		})
	})

	r.Route("/client/auth", func(r chi.Router) {
		r.Post("/anonymous", h.ClientAnonymous)
		r.Get("/verify", h.ClientVerify)
		r.Post("/refresh", h.ClientRefresh)
		r.Post("/logout", h.ClientLogout)
	})

	return r
}
