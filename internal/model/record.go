package model

// Record is a single study-activity event. Records are immutable once created:
// this system never updates or deletes them.
//
// RecordID is a deterministic SHA-256 digest of the four defining fields
// (external user id, timestamp, word count, study time) — the natural key that
// makes ingestion idempotent. The database enforces its uniqueness, so two
// identical submissions can never both land even under a race.
//
// Timestamp is stored as unix seconds rather than a DATETIME so that both the
// digest input and the SQL time-bucketing are exact — no driver-dependent
// datetime formatting, no timezone drift.
type Record struct {
	ID        int64  `db:"id"`
	RecordID  string `db:"record_id"` // sha256 digest, unique
	UserID    int64  `db:"user_id"`   // internal users.id
	WordCount int    `db:"word_count"`
	StudyTime int    `db:"study_time"` // seconds
	Timestamp int64  `db:"timestamp"`  // event time, unix seconds (UTC)
}
