// Package repository declares the storage interfaces the service layer
// programs against. The sqlite subpackage provides the implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/kwlin/studylog/internal/model"
)

// UserRepository looks up and provisions user accounts.
type UserRepository interface {
	// GetByUserID fetches a user by their external identifier.
	// Returns apperror.ErrNotFound if no such user exists.
	GetByUserID(ctx context.Context, userID string) (*model.User, error)

	// GetByUsername fetches a user by username.
	// Returns apperror.ErrNotFound if no such user exists.
	GetByUsername(ctx context.Context, username string) (*model.User, error)

	// CreateUser inserts a new user, filling in ID, UserID (if empty) and
	// CreatedAt. Returns apperror.ErrConflict if the username is taken.
	CreateUser(ctx context.Context, user *model.User) error

	// ListUsers returns every provisioned user, oldest first.
	ListUsers(ctx context.Context) ([]model.User, error)
}

// RecordRepository stores study-activity events and aggregates them.
type RecordRepository interface {
	// CreateRecord inserts a single record, filling in its ID.
	// Returns apperror.ErrConflict if a record with the same RecordID
	// already exists — the uniqueness constraint is the only guard
	// against duplicate concurrent submissions.
	CreateRecord(ctx context.Context, record *model.Record) error

	// GetByRecordID fetches a record by its digest identifier.
	// Returns apperror.ErrNotFound if no such record exists.
	GetByRecordID(ctx context.Context, recordID string) (*model.Record, error)

	// Summary groups the user's records in the half-open range
	// [start, end) (unix seconds) into buckets of the given width and
	// returns (bucket start, total words, total time) rows in ascending
	// bucket order. Buckets with no records are not synthesized.
	Summary(ctx context.Context, userID int64, start, end int64, granularity model.Granularity) ([]model.SummaryBucket, error)
}
