package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"newsauth/internal/config"
	"newsauth/internal/domain"
	"newsauth/internal/observability/logging"
	"newsauth/internal/observability/metrics"
	impl "newsauth/internal/service/impl"
	"newsauth/internal/session"
	"newsauth/internal/store"
	httpx "newsauth/internal/transport/http"
	"newsauth/pkg/db"
)

func main() {
	_ = godotenv.Load()

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	logger := logging.NewLogger(logging.Config{
		ServiceName: "newsauth",
		Environment: env,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	slog.SetDefault(logger)

	metrics.MustRegister("newsauth")

	cfg := config.Load()

	gdb, err := db.OpenGorm(db.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		logger.Error("gorm open", "error", err)
		os.Exit(1)
	}
	if err := gdb.AutoMigrate(&domain.Admin{}, &domain.Session{}); err != nil {
		logger.Error("auto migrate", "error", err)
		os.Exit(1)
	}

	st := store.New(gdb)

	ttl := session.TTLConfig{Admin: cfg.AdminSessionTTL, Public: cfg.PublicSessionTTL}
	secrets := session.Secrets{
		Admin:  []byte(cfg.AdminSessionSecret),
		Public: []byte(cfg.PublicSessionSecret),
	}

	manager := session.NewManager(st.Sessions(), ttl, secrets)
	codec := session.NewCookieCodec(secrets, ttl, cfg.Production())

	pw := impl.NewPasswordServiceBcrypt()
	svc := impl.NewAuthServiceImpl(manager, st, pw)

	gate := httpx.NewGate(manager, codec, st.Admins())
	handler := httpx.NewHandler(svc, codec, cfg.TrustProxy)
	router := httpx.NewRouter(handler, gate, httpx.RouterConfig{CORSOrigins: cfg.CORSOrigins})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := session.NewSweeper(st.Sessions(), cfg.SweepInterval)
	go sweeper.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("newsauth listening", "addr", srv.Addr, "env", env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	slog.Info("newsauth stopped")
}
