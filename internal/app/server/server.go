package server

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"giraffe/internal/domain/audit"
	"giraffe/internal/domain/auth"
	"giraffe/internal/domain/catalog"
	"giraffe/internal/domain/checks"
	"giraffe/internal/domain/notifications"
	"giraffe/internal/domain/review"
	"giraffe/internal/domain/sanitation"
	"giraffe/internal/domain/tasks"
	"giraffe/internal/platform/ai"
	"giraffe/internal/platform/config"
	"giraffe/internal/platform/db"
	"giraffe/internal/platform/email"
	"giraffe/internal/platform/metrics"
	"giraffe/internal/transport/http/api"
	audithandler "giraffe/internal/transport/http/handlers/audit"
	authhandler "giraffe/internal/transport/http/handlers/auth"
	cataloghandler "giraffe/internal/transport/http/handlers/catalog"
	checkshandler "giraffe/internal/transport/http/handlers/checks"
	notificationshandler "giraffe/internal/transport/http/handlers/notifications"
	reviewshandler "giraffe/internal/transport/http/handlers/reviews"
	sanitationhandler "giraffe/internal/transport/http/handlers/sanitation"
	taskshandler "giraffe/internal/transport/http/handlers/tasks"
	"giraffe/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
}

// New connects, migrates, seeds, and wires the full route tree. Callers own
// the returned App and must Close it.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		dir := cfg.MigrationsDir
		if dir == "" {
			dir = "migrations"
		}
		if err := db.Migrate(ctx, pool, dir); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	router, err := buildRouter(pool, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &App{Config: cfg, DB: pool, Router: router}, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

func Run() {
	cfg := config.Load()

	ctx := context.Background()
	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	slog.Info("server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func buildRouter(pool *pgxpool.Pool, cfg config.Config) (http.Handler, error) {
	auditSvc := audit.New(pool)
	authSvc := auth.NewService(auth.NewStore(pool))
	catalogSvc := catalog.NewService(catalog.NewStore(pool))
	checksSvc := checks.NewService(checks.NewStore(pool))
	sanitationSvc := sanitation.NewService(sanitation.NewStore(pool))
	tasksSvc := tasks.NewService(tasks.NewStore(pool))
	notifySvc := notifications.New(notifications.NewStore(pool), email.New(cfg), cfg.EmailFrom)

	var generator review.Generator
	if cfg.AnthropicAPIKey != "" {
		gen, err := ai.NewGenerator(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, err
		}
		generator = gen
	}
	pipeline := review.NewPipeline(generator, cfg.AIModels, cfg.AITimeout)

	reviewStore := review.NewStore(pool)
	reviewSvc := review.NewService(reviewStore, reviewStore, pipeline)

	idemStore := middleware.NewIdempotencyStore(pool)

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, cfg.ReviewAdminEmails))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if collector != nil {
		router.With(middleware.RequireHQ).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authSvc, cfg.JWTSecret, auditSvc).RegisterRoutes(r)
		cataloghandler.NewHandler(catalogSvc, auditSvc).RegisterRoutes(r)
		checkshandler.NewHandler(checksSvc, auditSvc).RegisterRoutes(r)
		sanitationhandler.NewHandler(sanitationSvc, notifySvc, auditSvc).RegisterRoutes(r)
		taskshandler.NewHandler(tasksSvc, auditSvc).RegisterRoutes(r)
		reviewshandler.NewHandler(reviewSvc, notifySvc, auditSvc, idemStore).RegisterRoutes(r)
		notificationshandler.NewHandler(notifySvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc).RegisterRoutes(r)
	})

	return router, nil
}
