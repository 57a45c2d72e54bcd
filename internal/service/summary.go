package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/kwlin/studylog/internal/apperror"
	"github.com/kwlin/studylog/internal/model"
	"github.com/kwlin/studylog/internal/repository"
)

// SummaryService produces time-bucketed aggregates of a user's records.
type SummaryService struct {
	records repository.RecordRepository
	users   repository.UserRepository
	logger  *slog.Logger
}

// NewSummaryService creates a SummaryService.
func NewSummaryService(records repository.RecordRepository, users repository.UserRepository, logger *slog.Logger) *SummaryService {
	return &SummaryService{
		records: records,
		users:   users,
		logger:  logger,
	}
}

// GetUserSummary returns the user's records in [start, end) (unix seconds)
// grouped into buckets of the given width, ascending by bucket start. Buckets
// containing no records do not appear in the result.
//
// smaWindow, when non-nil, requests a trailing simple moving average of
// window size n over both totals. It must be positive. A window larger than
// the number of buckets leaves every row unannotated.
func (s *SummaryService) GetUserSummary(ctx context.Context, userID string, start, end int64, granularity model.Granularity, smaWindow *int) ([]model.SummaryBucket, error) {
	if smaWindow != nil && *smaWindow <= 0 {
		return nil, apperror.ValidationFailed("n", "must be a positive integer")
	}

	user, err := s.users.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	buckets, err := s.records.Summary(ctx, user.ID, start, end, granularity)
	if err != nil {
		s.logger.Error("failed to query record summary",
			slog.String("userId", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("querying record summary: %w", err)
	}

	if smaWindow != nil {
		applyMovingAverage(buckets, *smaWindow)
	}

	return buckets, nil
}

// applyMovingAverage annotates each bucket from index n-1 onward with the
// arithmetic mean of the trailing window [i-n+1, i], rounded to two decimal
// places. Buckets before the first full window keep their nil SMA fields.
func applyMovingAverage(buckets []model.SummaryBucket, n int) {
	for i := n - 1; i < len(buckets); i++ {
		var words, seconds int
		for j := i - n + 1; j <= i; j++ {
			words += buckets[j].WordCount
			seconds += buckets[j].StudyTime
		}

		wordsSMA := round2(float64(words) / float64(n))
		timeSMA := round2(float64(seconds) / float64(n))
		buckets[i].WordCountSMA = &wordsSMA
		buckets[i].StudyTimeSMA = &timeSMA
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
