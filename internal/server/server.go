// Package server is the composition root: it opens the store, seeds users, builds
// services and handlers, and mounts them on a chi router.
//
// DEPENDENCY FLOW:
//
//	main.go → server.Config
//	server.New: Store (sqlite|postgres) → services → handlers → routes
//
// Each layer receives only what it needs: services get repository interfaces,
// handlers get services. The Store is owned here and closed on shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/akallepalli/assignment-service/internal/auth"
	"github.com/akallepalli/assignment-service/internal/handler"
	"github.com/akallepalli/assignment-service/internal/middleware"
	"github.com/akallepalli/assignment-service/internal/repository"
	pgRepo "github.com/akallepalli/assignment-service/internal/repository/postgres"
	sqliteRepo "github.com/akallepalli/assignment-service/internal/repository/sqlite"
	"github.com/akallepalli/assignment-service/internal/service"
)

// Supported values of Config.DBDriver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds everything main reads from the environment.
type Config struct {
	Port           int
	DBDriver       string        // DriverSQLite (default) or DriverPostgres
	DBPath         string        // sqlite file, or ":memory:"
	DatabaseURL    string        // postgres DSN
	UsersFile      string        // CSV or XLSX seed file; empty disables seeding
	BcryptCost     int           // 0 means auth.DefaultCost
	VerifyPassword bool          // compare Basic passwords with stored hashes
	HealthTimeout  time.Duration // 0 means service.DefaultHealthTimeout
}

// Server holds the router and the resources it must release on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	store  repository.Store
}

// New opens the store, loads the user seed file and wires every route.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cost := cfg.BcryptCost
	if cost == 0 {
		cost = auth.DefaultCost
	}
	passwords, err := auth.NewPasswordService(cost)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("configuring password hashing: %w", err)
	}

	if cfg.UsersFile != "" {
		users := service.NewUserService(store, passwords, logger)
		if _, err := users.LoadFile(ctx, cfg.UsersFile); err != nil {
			store.Close()
			return nil, fmt.Errorf("loading users: %w", err)
		}
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}
	s.setupRoutes(passwords)

	return s, nil
}

func openStore(ctx context.Context, cfg Config) (repository.Store, error) {
	switch cfg.DBDriver {
	case "", DriverSQLite:
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite database: %w", err)
		}
		return db, nil
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres driver")
		}
		db, err := pgRepo.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
// *      /healthz                → store probe (the handler rejects non-GET itself)
// GET    /v1/assignments         → list
// POST   /v1/assignments         → create
// GET    /v1/assignments/{id}    → get
// PUT    /v1/assignments/{id}    → update (owner only)
// DELETE /v1/assignments/{id}    → delete (owner only)
// PATCH  /v1/assignments/{id}    → always 405
//
// Middleware order: RequestID, RealIP, Logger, Recoverer. Recoverer sits inside
// Logger so a recovered panic is still logged as a 500.
func (s *Server) setupRoutes(passwords *auth.PasswordService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.NotFound(handler.NotFound)
	s.router.MethodNotAllowed(handler.MethodNotAllowed)

	healthService := service.NewHealthService(s.store, s.config.HealthTimeout, s.logger)
	healthHandler := handler.NewHealthHandler(healthService, s.logger)
	s.router.HandleFunc("/healthz", healthHandler.HandleHealth)

	identities := service.NewIdentityResolver(s.store, passwords, s.config.VerifyPassword, s.logger)
	assignmentService := service.NewAssignmentService(s.store, s.store, identities, s.logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, s.logger)

	s.router.Route("/v1/assignments", func(r chi.Router) {
		r.Use(auth.BasicAuth)
		r.Get("/", assignmentHandler.HandleList)
		r.Post("/", assignmentHandler.HandleCreate)
		r.Get("/{id}", assignmentHandler.HandleGet)
		r.Put("/{id}", assignmentHandler.HandleUpdate)
		r.Delete("/{id}", assignmentHandler.HandleDelete)
		r.Patch("/{id}", assignmentHandler.HandlePatch)
	})
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store. Start calls it on shutdown.
func (s *Server) Close() error {
	return s.store.Close()
}

// Start serves HTTP until SIGINT or SIGTERM, then drains in-flight requests
// for up to 30 seconds and closes the store.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("driver", s.driver()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

func (s *Server) driver() string {
	if s.config.DBDriver == "" {
		return DriverSQLite
	}
	return s.config.DBDriver
}
