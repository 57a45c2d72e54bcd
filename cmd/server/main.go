// Package main is the entry point for the studylog API server.
//
// main stays minimal: set up logging, load configuration, make sure the
// database directory exists, and hand off to internal/server. All real logic
// lives in the internal packages so it can be tested without a process.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kwlin/studylog/internal/config"
	"github.com/kwlin/studylog/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set — bearer tokens are accepted without signature verification")
	}

	// Create the database directory if needed (like `mkdir -p`).
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(server.Config{
		Port:      cfg.Port,
		DBPath:    cfg.DBPath,
		JWTSecret: cfg.JWTSecret,
	}, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down via SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
