// Package server wires the application together: database, services,
// handlers, routes, and the HTTP server lifecycle.
//
// This is the composition root — every dependency is assembled here and
// nowhere else. Each layer receives only what it needs: services get the
// repository interfaces, handlers get the services, the router gets the
// handlers. None of them know the concrete types below them.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kwlin/studylog/internal/auth"
	"github.com/kwlin/studylog/internal/handler"
	"github.com/kwlin/studylog/internal/middleware"
	sqliteRepo "github.com/kwlin/studylog/internal/repository/sqlite"
	"github.com/kwlin/studylog/internal/service"
)

// Config holds the server's runtime settings.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string // empty disables token signature verification
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and assembles the full dependency chain.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes()

	return s, nil
}

// setupRoutes configures middleware and the route table.
//
// ROUTES:
//
//	GET  /healthz                       → liveness probe (no auth)
//	POST /users/{userId}/records        → ingest one study-activity record
//	GET  /users/{userId}/summary        → bucketed totals, optional SMA
//
// Both /users routes sit behind RequireAuth; every request must present a
// valid bearer token before a handler runs.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	verifier := auth.NewVerifier(s.config.JWTSecret, s.logger)

	recordService := service.NewRecordService(s.db, s.db, s.logger)
	summaryService := service.NewSummaryService(s.db, s.db, s.logger)

	recordHandler := handler.NewRecordHandler(recordService, s.logger)
	userHandler := handler.NewUserHandler(summaryService, s.logger)

	s.router.Route("/users", func(r chi.Router) {
		r.Use(auth.RequireAuth(verifier))
		r.Post("/{userId}/records", recordHandler.HandleCreate)
		r.Get("/{userId}/summary", userHandler.HandleSummary)
	})
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30 seconds
// to finish, close the database (flushes the WAL, releases the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.Bool("tokenSignatureVerification", s.config.JWTSecret != ""),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
