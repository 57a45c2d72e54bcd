package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kwlin/studylog/internal/apperror"
	"github.com/kwlin/studylog/internal/model"
	"github.com/kwlin/studylog/internal/service"
)

// UserHandler exposes per-user summary queries over HTTP.
type UserHandler struct {
	summaries *service.SummaryService
	logger    *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(summaries *service.SummaryService, logger *slog.Logger) *UserHandler {
	return &UserHandler{summaries: summaries, logger: logger}
}

// summaryResponse is the GET /users/{userId}/summary body: the bucket rows in
// ascending date order plus their count.
type summaryResponse struct {
	Summary []model.SummaryBucket `json:"summary"`
	Total   int                   `json:"total"`
}

// HandleSummary returns a user's bucketed activity totals.
//
// HTTP: GET /users/{userId}/summary?start=&end=&granularity=&n=
//
// start and end are unix seconds bounding the half-open range [start, end);
// granularity is one of hour/day/week/month; n, when present, is the trailing
// moving-average window. Query parameters that fail to parse are schema
// errors (422), matching the body-validation envelope.
func (h *UserHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	query := r.URL.Query()

	start, err := parseIntParam(query.Get("start"), "start")
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := parseIntParam(query.Get("end"), "end")
	if err != nil {
		writeError(w, err)
		return
	}

	granularity, ok := model.ParseGranularity(query.Get("granularity"))
	if !ok {
		writeError(w, apperror.ValidationFailed("granularity", "must be one of hour, day, week, month"))
		return
	}

	var smaWindow *int
	if raw := query.Get("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, apperror.ValidationFailed("n", "must be an integer"))
			return
		}
		smaWindow = &n
	}

	buckets, err := h.summaries.GetUserSummary(r.Context(), userID, start, end, granularity, smaWindow)
	if err != nil {
		writeError(w, err)
		return
	}

	if buckets == nil {
		buckets = []model.SummaryBucket{} // "summary" serialises as [], never null
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary: buckets,
		Total:   len(buckets),
	})
}

// parseIntParam parses a required integer query parameter into unix seconds.
func parseIntParam(raw, field string) (int64, error) {
	if raw == "" {
		return 0, apperror.ValidationFailed(field, "is required")
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.ValidationFailed(field, "must be an integer")
	}
	return value, nil
}
