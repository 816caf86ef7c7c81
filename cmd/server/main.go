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

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	appHandler "barangaylink/internal/application/handler"
	appMetrics "barangaylink/internal/application/metrics"
	appService "barangaylink/internal/application/service"
	appStore "barangaylink/internal/application/store"
	"barangaylink/internal/audit"
	authHandler "barangaylink/internal/auth/handler"
	authService "barangaylink/internal/auth/service"
	authStore "barangaylink/internal/auth/store"
	"barangaylink/internal/auth/token"
	"barangaylink/internal/platform/config"
	"barangaylink/internal/platform/httpserver"
	"barangaylink/internal/platform/logger"
	"barangaylink/internal/platform/postgres"
	platformRedis "barangaylink/internal/platform/redis"
	"barangaylink/internal/vault"
	"barangaylink/pkg/platform/httputil"
	"barangaylink/pkg/platform/middleware"
)

// main wires dependencies and runs the HTTP server next to the audit worker.
// Business logic lives in the internal service packages.
func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New(cfg.IsProduction())

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: postgres when configured, in-memory otherwise (local dev).
	var (
		applications appStore.ApplicationStore
		users        authStore.UserStore
		outbox       audit.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(db, "migrations"); err != nil {
			return err
		}
		applications = appStore.NewPostgres(db)
		users = authStore.NewPostgres(db)
		outbox = audit.NewPostgresStore(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		applications = appStore.NewMemory()
		users = authStore.NewMemory()
		outbox = audit.NewMemoryStore()
	}

	redisClient, err := platformRedis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var files vault.Vault
	if cfg.Vault.Bucket != "" {
		files, err = vault.NewS3(ctx, cfg.Vault)
		if err != nil {
			return err
		}
	} else {
		log.Warn("S3_BUCKET not set, using in-memory file vault")
		files = vault.NewMemory()
	}

	// Keep the interface nil when kafka is not configured; a typed nil would
	// defeat the worker's idle check.
	var publisher audit.Publisher
	kafkaPublisher, err := audit.NewKafkaPublisher(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	if kafkaPublisher != nil {
		publisher = kafkaPublisher
		defer kafkaPublisher.Close()
	}

	recorder := audit.NewRecorder(outbox, log)
	tokens := token.NewManager(cfg.JWTSigningKey, cfg.JWTTokenTTL)

	appSvc := appService.New(applications, files,
		appService.WithLogger(log),
		appService.WithAuditRecorder(recorder),
		appService.WithMetrics(appMetrics.New()),
		appService.WithMaxUploadBytes(cfg.Vault.MaxUploadLen),
	)
	authSvc := authService.New(users, tokens,
		authService.WithLogger(log),
		authService.WithAuditRecorder(recorder),
	)

	router := newRouter(cfg, log, redisClient, tokens, appSvc, authSvc)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting barangaylink", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return audit.NewWorker(outbox, publisher, log).Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newRouter(
	cfg config.Config,
	log *slog.Logger,
	redisClient *platformRedis.Client,
	tokens *token.Manager,
	appSvc *appService.Service,
	authSvc *authService.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, "ok", nil)
	})
	r.Handle("/metrics", promhttp.Handler())

	requireAuth := middleware.RequireAuth(tokens, log)
	requireAdmin := middleware.RequireAdmin(log)

	var submitLimit func(http.Handler) http.Handler
	if redisClient != nil {
		submitLimit = middleware.SubmitRateLimit(redisClient.Client, cfg.SubmitRateLimit, cfg.SubmitRateWindow, log)
	} else {
		submitLimit = middleware.SubmitRateLimit(nil, 0, 0, log)
	}

	authHandler.New(authSvc, log).Register(r, authHandler.Middleware{
		RequireAuth:  requireAuth,
		RequireAdmin: requireAdmin,
	})
	appHandler.New(appSvc, log).Register(r, appHandler.Middleware{
		RequireAuth:  requireAuth,
		RequireAdmin: requireAdmin,
		SubmitLimit:  submitLimit,
	})
	return r
}
