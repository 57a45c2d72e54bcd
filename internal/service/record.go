// Package service contains the business logic layer: record ingestion and
// summary aggregation. Services are stateless orchestrators — they hold only
// references to repository interfaces and a logger, never per-request state,
// so a single instance is safely shared across concurrent requests.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kwlin/studylog/internal/apperror"
	"github.com/kwlin/studylog/internal/model"
	"github.com/kwlin/studylog/internal/repository"
)

// RecordService ingests study-activity events.
type RecordService struct {
	records repository.RecordRepository
	users   repository.UserRepository
	logger  *slog.Logger
	now     func() time.Time // swappable clock for deterministic tests
}

// NewRecordService creates a RecordService. The repositories are interfaces —
// the caller decides whether they are backed by SQLite or by test mocks.
func NewRecordService(records repository.RecordRepository, users repository.UserRepository, logger *slog.Logger) *RecordService {
	return &RecordService{
		records: records,
		users:   users,
		logger:  logger,
		now:     time.Now,
	}
}

// RecordID computes the deterministic identity of a record: the SHA-256
// digest of its four defining fields joined with dashes.
//
// The same four inputs always produce the same id, which is what makes
// ingestion idempotent — resubmitting identical parameters collides on this
// digest instead of double-counting. The dash joiner is unambiguous here
// because the three trailing fields are decimal integers and can never
// contain a dash themselves.
func RecordID(userID string, wordCount, studyTime int, timestamp int64) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s-%d-%d-%d", userID, timestamp, wordCount, studyTime))
	return hex.EncodeToString(sum[:])
}

// Create validates and persists a single study-activity record.
//
// timestamp is the caller-supplied event time in unix seconds; nil means
// "now". The flow is: validate counts → resolve user → compute digest id →
// reject duplicates → insert.
//
// The duplicate probe and the insert are NOT atomic across requests. Two
// identical concurrent submissions can both pass the probe; the records
// table's UNIQUE constraint on record_id then fails the second insert, which
// the repository reports as the same Conflict. No application-level lock is
// involved — the store is the only component with a global view.
func (s *RecordService) Create(ctx context.Context, userID string, wordCount, studyTime int, timestamp *int64) error {
	if wordCount < 0 {
		return apperror.ValidationFailed("word_count", "must be a non-negative integer")
	}
	if studyTime < 0 {
		return apperror.ValidationFailed("study_time", "must be a non-negative integer")
	}

	user, err := s.users.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	ts := s.now().UTC().Unix()
	if timestamp != nil {
		ts = *timestamp
	}

	recordID := RecordID(userID, wordCount, studyTime, ts)

	// Fast-path duplicate check. NotFound is the happy case here: it means
	// no record with this identity exists yet.
	if _, err := s.records.GetByRecordID(ctx, recordID); err == nil {
		return apperror.Conflict("record", recordID)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		s.logger.Error("failed to check for existing record",
			slog.String("recordId", recordID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("checking record existence: %w", err)
	}

	record := &model.Record{
		RecordID:  recordID,
		UserID:    user.ID,
		WordCount: wordCount,
		StudyTime: studyTime,
		Timestamp: ts,
	}
	if err := s.records.CreateRecord(ctx, record); err != nil {
		// A Conflict here is the race loser hitting the UNIQUE
		// constraint — propagate it as-is, everything else is a
		// storage failure.
		if errors.Is(err, apperror.ErrConflict) {
			return err
		}
		s.logger.Error("failed to create record",
			slog.String("userId", userID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("creating record: %w", err)
	}

	s.logger.Info("record created",
		slog.String("userId", userID),
		slog.String("recordId", recordID),
		slog.Int("wordCount", wordCount),
		slog.Int("studyTime", studyTime),
	)
	return nil
}
