package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kwlin/studylog/internal/apperror"
	"github.com/kwlin/studylog/internal/model"
	"github.com/kwlin/studylog/internal/repository"
)

// compile-time check that *DB implements repository.RecordRepository
var _ repository.RecordRepository = (*DB)(nil)

// CreateRecord inserts a single record as one atomic statement.
//
// A UNIQUE hit on record_id means an identical submission already landed —
// possibly from a concurrent request that raced past the service's existence
// check. Either way the answer is the same: Conflict.
func (db *DB) CreateRecord(ctx context.Context, record *model.Record) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO records (record_id, user_id, word_count, study_time, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		record.RecordID,
		record.UserID,
		record.WordCount,
		record.StudyTime,
		record.Timestamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("record", record.RecordID)
		}
		return fmt.Errorf("sqlite: inserting record %s: %w", record.RecordID, err)
	}

	record.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading record insert id: %w", err)
	}
	return nil
}

// GetByRecordID fetches a record by its digest identifier.
func (db *DB) GetByRecordID(ctx context.Context, recordID string) (*model.Record, error) {
	var r model.Record
	err := db.conn.GetContext(ctx, &r,
		`SELECT id, record_id, user_id, word_count, study_time, timestamp
		 FROM records WHERE record_id = ?`,
		recordID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("record", recordID)
		}
		return nil, fmt.Errorf("sqlite: getting record %s: %w", recordID, err)
	}
	return &r, nil
}

// bucketExpr returns the strftime expression that truncates a unix-seconds
// timestamp to its bucket start, rendered as an RFC 3339 UTC string.
//
// The week expression deserves a note: 'weekday 0' advances to the enclosing
// week's Sunday (staying put on a Sunday) and '-6 days' then lands on that
// week's Monday — i.e. weeks start on Monday, same truncation Postgres's
// date_trunc('week') performs.
func bucketExpr(granularity model.Granularity) (string, error) {
	switch granularity {
	case model.GranularityHour:
		return `strftime('%Y-%m-%dT%H:00:00Z', timestamp, 'unixepoch')`, nil
	case model.GranularityDay:
		return `strftime('%Y-%m-%dT00:00:00Z', timestamp, 'unixepoch')`, nil
	case model.GranularityWeek:
		return `strftime('%Y-%m-%dT00:00:00Z', timestamp, 'unixepoch', 'weekday 0', '-6 days')`, nil
	case model.GranularityMonth:
		return `strftime('%Y-%m-01T00:00:00Z', timestamp, 'unixepoch')`, nil
	}
	return "", fmt.Errorf("sqlite: unknown granularity %q", granularity)
}

// Summary aggregates a user's records in [start, end) into fixed-width
// buckets, ordered ascending by bucket start.
//
// The bucket expression is interpolated into the SQL text, but it comes from
// the fixed switch above, never from caller input — the caller-supplied values
// all go through placeholders.
func (db *DB) Summary(ctx context.Context, userID int64, start, end int64, granularity model.Granularity) ([]model.SummaryBucket, error) {
	expr, err := bucketExpr(granularity)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT %s AS bucket,
		        SUM(word_count) AS total_words,
		        SUM(study_time) AS total_time
		 FROM records
		 WHERE user_id = ? AND timestamp >= ? AND timestamp < ?
		 GROUP BY bucket
		 ORDER BY bucket`,
		expr,
	)

	rows, err := db.conn.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying record summary: %w", err)
	}
	defer rows.Close()

	buckets := []model.SummaryBucket{}
	for rows.Next() {
		var (
			bucket     string
			totalWords int
			totalTime  int
		)
		if err := rows.Scan(&bucket, &totalWords, &totalTime); err != nil {
			return nil, fmt.Errorf("sqlite: scanning summary row: %w", err)
		}

		date, err := time.Parse(time.RFC3339, bucket)
		if err != nil {
			return nil, fmt.Errorf("sqlite: parsing bucket start %q: %w", bucket, err)
		}

		buckets = append(buckets, model.SummaryBucket{
			Date:      date,
			WordCount: totalWords,
			StudyTime: totalTime,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating summary rows: %w", err)
	}

	return buckets, nil
}
