// Package sqlite implements the repository interfaces on SQLite.
//
// The driver is modernc.org/sqlite — a pure Go translation of the SQLite C
// code, so there is no CGo and cross-compilation stays trivial. On top of
// database/sql we use jmoiron/sqlx, which scans rows straight into structs via
// their `db:` tags instead of hand-written Scan call chains.
//
// Timestamps on records are stored as INTEGER unix seconds. That keeps the
// bucketing queries exact: strftime(..., timestamp, 'unixepoch') interprets
// the value in UTC regardless of the server's locale or the driver's datetime
// formatting.
package sqlite

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	sqlite3 "modernc.org/sqlite"
)

// sqliteUniqueViolation is SQLITE_CONSTRAINT_UNIQUE (19 | 8<<8), the extended
// result code SQLite reports when an INSERT hits a UNIQUE constraint.
const sqliteUniqueViolation = 2067

// DB wraps the sqlx connection pool and implements both repository interfaces.
type DB struct {
	conn *sqlx.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for a throwaway in-memory database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// WAL lets concurrent readers proceed while a write is in flight;
	// foreign keys are off by default in SQLite and we rely on
	// records.user_id → users.id.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. The server defers this on shutdown so the
// WAL is flushed and the file lock released.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every startup.
//
// records.record_id is UNIQUE on purpose: the ingestion service's
// check-then-insert is not atomic across requests, so this constraint is the
// sole correctness guarantee against duplicate concurrent submissions.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL UNIQUE,
			username   TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			record_id  TEXT NOT NULL UNIQUE,
			user_id    INTEGER NOT NULL REFERENCES users(id),
			word_count INTEGER NOT NULL,
			study_time INTEGER NOT NULL,
			timestamp  INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_records_user_timestamp
			ON records(user_id, timestamp);
	`)
	if err != nil {
		return fmt.Errorf("creating records table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var se *sqlite3.Error
	return errors.As(err, &se) && se.Code() == sqliteUniqueViolation
}
