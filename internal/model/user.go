// Package model defines the data structures shared across all layers.
package model

import "time"

// User represents a provisioned account.
//
// Users are created once (by the createusers tool) and are immutable from this
// service's point of view — the API only ever looks them up.
//
// WHY TWO IDENTIFIERS?
// UserID is the opaque external identifier that appears in URLs and token
// claims; it is stable and safe to hand out. ID is the internal surrogate key
// that records reference — keeping the foreign key off the external identifier
// means the external scheme could change without rewriting the records table.
type User struct {
	ID        int64     `json:"-"         db:"id"`
	UserID    string    `json:"userId"    db:"user_id"`  // opaque external id (unique)
	Username  string    `json:"username"  db:"username"` // unique display name
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
