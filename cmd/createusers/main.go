// Command createusers provisions user accounts directly in the database.
//
// Account creation is deliberately outside the API surface — the service only
// verifies and reads users — so this tool is how accounts come to exist.
//
// Usage:
//
//	createusers                 # create the default test users
//	createusers alice bob       # create users with the given usernames
//	createusers -list           # list all provisioned users
//
// The database path comes from DB_PATH / .env like the server, or -db.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kwlin/studylog/internal/apperror"
	"github.com/kwlin/studylog/internal/config"
	"github.com/kwlin/studylog/internal/model"
	sqliteRepo "github.com/kwlin/studylog/internal/repository/sqlite"
)

// defaultUsers are the accounts provisioned when no usernames are given.
// Their external ids are fixed so local test tokens stay valid across a
// database reset.
var defaultUsers = []model.User{
	{Username: "test_user_1", UserID: "550e8400-e29b-41d4-a716-446655440001"},
	{Username: "test_user_2", UserID: "550e8400-e29b-41d4-a716-446655440002"},
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPath := flag.String("db", cfg.DBPath, "path to the SQLite database")
	list := flag.Bool("list", false, "list all users instead of creating any")
	flag.Parse()

	if dir := filepath.Dir(*dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create database directory", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	db, err := sqliteRepo.New(*dbPath)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()

	if *list {
		if err := listUsers(ctx, db); err != nil {
			logger.Error("failed to list users", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	users := defaultUsers
	if args := flag.Args(); len(args) > 0 {
		users = make([]model.User, len(args))
		for i, username := range args {
			users[i] = model.User{Username: username} // external id generated on insert
		}
	}

	for _, user := range users {
		if err := createUser(ctx, db, user); err != nil {
			logger.Error("failed to create user",
				slog.String("username", user.Username),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	fmt.Println("\nall users:")
	if err := listUsers(ctx, db); err != nil {
		logger.Error("failed to list users", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// createUser inserts one user, treating an already-taken username as a skip
// rather than a failure so the tool is safe to re-run.
func createUser(ctx context.Context, db *sqliteRepo.DB, user model.User) error {
	if err := db.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			existing, lookupErr := db.GetByUsername(ctx, user.Username)
			if lookupErr != nil {
				return lookupErr
			}
			fmt.Printf("user %q already exists (user_id=%s), skipping\n",
				existing.Username, existing.UserID)
			return nil
		}
		return err
	}
	fmt.Printf("created user %q (user_id=%s)\n", user.Username, user.UserID)
	return nil
}

func listUsers(ctx context.Context, db *sqliteRepo.DB) error {
	users, err := db.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("no users provisioned")
		return nil
	}
	for _, u := range users {
		fmt.Printf("  %s  user_id=%s  created=%s\n",
			u.Username, u.UserID, u.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
