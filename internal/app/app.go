// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maltroom/cellarman/internal/config"
	"github.com/maltroom/cellarman/internal/domain"
	"github.com/maltroom/cellarman/internal/identity"
	"github.com/maltroom/cellarman/internal/identity/google"
	identitypostgres "github.com/maltroom/cellarman/internal/identity/postgres"
	"github.com/maltroom/cellarman/internal/inventory"
	inventorypostgres "github.com/maltroom/cellarman/internal/inventory/postgres"
	"github.com/maltroom/cellarman/internal/pkg/ctxlog"
	"github.com/maltroom/cellarman/internal/pkg/httputil"
	"github.com/maltroom/cellarman/internal/pkg/metrics"
	"github.com/maltroom/cellarman/internal/pkg/postgres"
	"github.com/maltroom/cellarman/internal/reference"
	referencepostgres "github.com/maltroom/cellarman/internal/reference/postgres"
	"github.com/maltroom/cellarman/internal/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	server        *http.Server
	metricsServer *http.Server
	metricsCancel context.CancelFunc
	limiters      []*httputil.RateLimiter
}

// Option customizes application construction.
type Option func(*options)

type options struct {
	verifier identity.TokenVerifier
}

// WithTokenVerifier replaces the Google token verifier. Used in tests to
// avoid talking to the real identity provider.
func WithTokenVerifier(v identity.TokenVerifier) Option {
	return func(o *options) {
		o.verifier = v
	}
}

// New creates a new application instance. It connects to the database, runs
// pending migrations, and assembles the HTTP routers.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := initLogger(cfg.Log)

	connectCtx, connectCancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := postgres.Migrate(cfg.Database.URL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	verifier := o.verifier
	if verifier == nil {
		verifier, err = google.NewVerifier(ctx, google.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			IssuerURL:    cfg.Google.IssuerURL,
			RedirectURL:  cfg.Google.RedirectURL,
			ClockSkew:    cfg.Google.ClockSkew,
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("create token verifier: %w", err)
		}
	}

	metricsCtx, metricsCancel := context.WithCancel(context.Background())

	app := &App{
		config:        cfg,
		logger:        logger,
		db:            db,
		metricsCancel: metricsCancel,
	}

	go app.collectDBMetrics(metricsCtx)

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           app.setupRouter(verifier),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	// Start metrics server in background
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	// Start main server
	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.metricsCancel()

	// Shutdown both servers in parallel
	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	for _, l := range a.limiters {
		l.Stop()
	}
	a.db.Close()

	return errors.Join(errs...)
}

func (a *App) collectDBMetrics(ctx context.Context) {
	// Collect immediately on start
	metrics.RecordDBPoolMetrics(a.db)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.RecordDBPoolMetrics(a.db)
		case <-ctx.Done():
			return
		}
	}
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

func (a *App) setupRouter(verifier identity.TokenVerifier) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.Error(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", a.healthHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, "api/openapi/openapi.yaml")
	})

	identityRepo := identitypostgres.NewRepository(a.db)
	identityService := identity.NewService(identityRepo, verifier)
	identityHandler := identity.NewHandler(identityService)

	inventoryRepo := inventorypostgres.NewRepository(a.db)
	inventoryHandler := inventory.NewHandler(inventory.NewService(inventoryRepo))

	referenceRepo := referencepostgres.NewRepository(a.db)
	referenceHandler := reference.NewHandler(reference.NewService(referenceRepo))

	defaultLimiter := httputil.NewRateLimiter(a.config.RateLimit.DefaultPerMinute)
	loginLimiter := httputil.NewRateLimiter(a.config.RateLimit.LoginPerMinute)
	writeLimiter := httputil.NewRateLimiter(a.config.RateLimit.WritePerMinute)
	a.limiters = []*httputil.RateLimiter{defaultLimiter, loginLimiter, writeLimiter}

	// Limiters sit outside the auth and role gates so that unauthenticated
	// floods draw down the budget instead of getting free 401s.
	r.Group(func(r chi.Router) {
		r.Use(loginLimiter.Middleware)
		identityHandler.RegisterPublicRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(defaultLimiter.Middleware)
		r.Use(httputil.RequireAuth(identityService))

		inventoryHandler.RegisterReadRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(httputil.RequireRole(identityService, domain.RoleAdmin))
			identityHandler.RegisterAdminRoutes(r)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(writeLimiter.Middleware)
		r.Use(httputil.RequireAuth(identityService))
		r.Use(httputil.RequireRole(identityService, domain.RoleAdmin))

		inventoryHandler.RegisterWriteRoutes(r)
		referenceHandler.RegisterRoutes(r)
	})

	return r
}

// healthHandler reports liveness only. Dependency health is covered by
// /readyz so that load balancer checks stay cheap.
func (a *App) healthHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Error(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
