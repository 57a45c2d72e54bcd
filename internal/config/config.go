// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs at startup.
type Config struct {
	Port   int    // HTTP listen port (PORT, default 8080)
	DBPath string // SQLite database file (DB_PATH, default data/studylog.db)

	// JWTSecret, when set, enables HS256 signature verification on bearer
	// tokens. Left empty, tokens are decoded without signature checks —
	// only well-formedness and expiry are enforced.
	JWTSecret string // JWT_SECRET

	LogLevel slog.Level // LOG_LEVEL: debug|info|warn|error, default info
}

// Load reads a .env file if one exists (real environment variables win) and
// assembles the Config.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Port:      8080,
		DBPath:    "data/studylog.db",
		JWTSecret: os.Getenv("JWT_SECRET"),
		LogLevel:  slog.LevelInfo,
	}

	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", raw, err)
		}
		cfg.Port = port
	}

	if raw := os.Getenv("DB_PATH"); raw != "" {
		cfg.DBPath = raw
	}

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("config: invalid LOG_LEVEL %q: %w", raw, err)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}
