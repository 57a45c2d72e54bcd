package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/kwlin/studylog/internal/apperror"
	"github.com/kwlin/studylog/internal/model"
	"github.com/kwlin/studylog/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// GetByUserID fetches a user by their external identifier.
// sql.ErrNoRows is translated to the domain's NotFound — callers never see
// database sentinels.
func (db *DB) GetByUserID(ctx context.Context, userID string) (*model.User, error) {
	var u model.User
	err := db.conn.GetContext(ctx, &u,
		`SELECT id, user_id, username, created_at FROM users WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", userID)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", userID, err)
	}
	return &u, nil
}

// GetByUsername fetches a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := db.conn.GetContext(ctx, &u,
		`SELECT id, user_id, username, created_at FROM users WHERE username = ?`,
		username,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user by username %s: %w", username, err)
	}
	return &u, nil
}

// CreateUser inserts a new user row.
//
// The external identifier is generated here when the caller leaves it empty.
// xid gives a 20-char URL-safe, creation-time-sortable id — opaque enough for
// an identifier that travels in URLs and token claims.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = xid.New().String()
	}
	user.CreatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (user_id, username, created_at) VALUES (?, ?, ?)`,
		user.UserID,
		user.Username,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading user insert id: %w", err)
	}
	return nil
}

// ListUsers returns every user, oldest first.
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	err := db.conn.SelectContext(ctx, &users,
		`SELECT id, user_id, username, created_at FROM users ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	return users, nil
}
