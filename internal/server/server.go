// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects the store, services,
// handlers, middleware and routes, and decides:
//   - Which URL patterns map to which handler functions
//   - What middleware runs on which routes
//   - How the server starts and stops gracefully
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it testable: the end-to-end
// tests build a Server and drive Handler() with httptest, no sockets needed.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New() → Store (memory or sqlite)
//	                              → Authenticator (stub or jwt)
//	                              → services → handlers → routes
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/pose-mock/internal/auth"
	"github.com/sakif/pose-mock/internal/config"
	"github.com/sakif/pose-mock/internal/handler"
	"github.com/sakif/pose-mock/internal/metrics"
	"github.com/sakif/pose-mock/internal/middleware"
	"github.com/sakif/pose-mock/internal/repository"
	"github.com/sakif/pose-mock/internal/repository/memory"
	sqliteRepo "github.com/sakif/pose-mock/internal/repository/sqlite"
	"github.com/sakif/pose-mock/internal/service"
)

// shutdownTimeout bounds how long in-flight requests get to finish.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store. With the sqlite driver that is a database
// connection, which Close (and Start, on the way out) releases.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	store   repository.Store
	authn   auth.Authenticator
	metrics *metrics.Metrics
}

// New creates a Server from a validated config.
//
// DEPENDENCY INJECTION & WIRING:
//  1. Open the store selected by store.driver
//  2. Build the authenticator selected by auth.mode
//  3. Create services over the store, handlers over the services
//  4. Wire handlers to routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	authn, err := newAuthenticator(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("configuring auth: %w", err)
	}

	store, err := openStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		authn:   authn,
		metrics: metrics.New(),
	}
	s.setupRoutes()

	return s, nil
}

// openStore picks the storage backend. The memory store is the default;
// sqlite is for demo instances that should survive a restart.
func openStore(cfg config.StoreConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return memory.New(), nil
	case config.DriverSQLite:
		if cfg.Path != ":memory:" {
			// os.MkdirAll is like `mkdir -p`; 0755 = rwxr-xr-x.
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		return sqliteRepo.New(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func newAuthenticator(cfg config.AuthConfig) (auth.Authenticator, error) {
	switch cfg.Mode {
	case config.AuthStub, "":
		return auth.StubAuthenticator{ExpiresIn: int(cfg.AccessTTL / time.Second)}, nil
	case config.AuthJWT:
		tokens, err := auth.NewTokenService(cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		return auth.NewJWTAuthenticator(tokens.WithAccessTTL(cfg.AccessTTL)), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /health                              → liveness (public)
//	GET    /metrics                             → Prometheus scrape (public)
//	GET    /storage/uploads/{id}/schema.png     → uploaded schema image (public)
//	POST   /__test__/reset                      → wipe the store (test.reset_enabled)
//	POST   /api/v1/auth/{login,refresh,logout}  → token endpoints (public)
//	*      /api/v1/...                          → everything else, bearer auth
//	*      /api/sequences/...                   → alias of /api/v1/sequences
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added. Our order:
//  1. RequestID: assigns a unique ID to each request (for tracing)
//  2. RealIP: extracts the real client IP from proxy headers
//  3. Logger: logs each request with timing info
//  4. Metrics: counts requests by route pattern
//  5. Recover: turns panics into a JSON 500
//
// Recover sits innermost so the logger and the metrics see the 500 it writes.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(s.metrics.Middleware)
	s.router.Use(middleware.Recover(s.logger))

	// NotFound and MethodNotAllowed must be set before any Route/Mount call:
	// chi copies them into sub-routers at mount time.
	s.router.NotFound(handler.HandleNotFound)
	s.router.MethodNotAllowed(handler.HandleNotFound)

	// === Services and handlers ===
	authService := service.NewAuthService(s.authn, s.logger)
	categoryService := service.NewCategoryService(s.store, s.logger)
	muscleService := service.NewMuscleService(s.store, s.logger)
	poseService := service.NewPoseService(s.store, service.SystemClock, s.logger)
	sequenceService := service.NewSequenceService(s.store, service.SystemClock, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	categoryHandler := handler.NewCategoryHandler(categoryService, s.logger)
	muscleHandler := handler.NewMuscleHandler(muscleService, s.logger)
	poseHandler := handler.NewPoseHandler(poseService, s.config.Upload.MaxBytes, s.logger)
	sequenceHandler := handler.NewSequenceHandler(sequenceService, s.logger)

	requireAuth := auth.RequireAuth(s.authn)

	// === Public routes ===
	s.router.Get("/health", handler.HandleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	s.router.Get("/storage/uploads/{id:[0-9]+}/schema.png", poseHandler.HandleServeSchema)

	if s.config.Test.ResetEnabled {
		resetHandler := handler.NewResetHandler(s.store, s.logger)
		s.router.Post("/__test__/reset", resetHandler.HandleReset)
	}

	// Both prefixes get an identical sequences sub-router. Auth sits on a
	// group so unmatched paths and methods fall through to the 404 handler.
	sequenceRoutes := func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", sequenceHandler.HandleList)
			r.Post("/", sequenceHandler.HandleCreate)
			r.Get("/{id:[0-9]+}", sequenceHandler.HandleGet)
			r.Put("/{id:[0-9]+}", sequenceHandler.HandleUpdate)
			r.Delete("/{id:[0-9]+}", sequenceHandler.HandleDelete)
		})
	}
	s.router.Route("/api/sequences", sequenceRoutes)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/refresh", authHandler.HandleRefresh)
		r.Post("/auth/logout", authHandler.HandleLogout)

		// === Protected routes ===
		// r.Group shares the parent's path but adds middleware. An unknown
		// path under /api/v1 never reaches RequireAuth, so it is a 404 and
		// not a 401.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/auth/me", authHandler.HandleMe)

			r.Get("/categories", categoryHandler.HandleList)
			r.Post("/categories", categoryHandler.HandleCreate)
			r.Delete("/categories/{id:[0-9]+}", categoryHandler.HandleDelete)

			r.Post("/muscles/seed", muscleHandler.HandleSeed)
			r.Get("/muscles", muscleHandler.HandleList)

			r.Get("/poses", poseHandler.HandleList)
			r.Post("/poses", poseHandler.HandleCreate)
			r.Get("/poses/{id:[0-9]+}", poseHandler.HandleGet)
			r.Delete("/poses/{id:[0-9]+}", poseHandler.HandleDelete)
			r.Post("/poses/{id:[0-9]+}/schema", poseHandler.HandleUploadSchema)
		})

		r.Route("/sequences", sequenceRoutes)
	})
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store.
func (s *Server) Close() error {
	return s.store.Close()
}

// Start runs the server until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the store (flushes the sqlite WAL, releases the file lock)
func (s *Server) Run(ctx context.Context) error {
	// Ensure the store is closed when the server stops.
	defer s.Close()

	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	// Start the server in a goroutine (so it doesn't block)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("url", "http://"+srv.Addr),
			slog.String("store", s.config.Store.Driver),
			slog.String("auth", s.config.Auth.Mode),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
