package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kwlin/studylog/internal/apperror"
	"github.com/kwlin/studylog/internal/auth"
	"github.com/kwlin/studylog/internal/service"
)

// RecordHandler exposes record ingestion over HTTP.
type RecordHandler struct {
	records *service.RecordService
	logger  *slog.Logger
}

// NewRecordHandler creates a RecordHandler.
func NewRecordHandler(records *service.RecordService, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{records: records, logger: logger}
}

// createRecordRequest is the POST body. The fields are pointers so a missing
// field is distinguishable from an explicit zero — word_count: 0 is a valid
// submission, an absent word_count is a schema error.
type createRecordRequest struct {
	WordCount *int   `json:"word_count"`
	StudyTime *int   `json:"study_time"`
	Timestamp *int64 `json:"timestamp"` // unix seconds; nil means "now"
}

// HandleCreate records one study-activity event.
//
// HTTP: POST /users/{userId}/records
// Body: {"word_count": int, "study_time": int, "timestamp"?: int}
//
// Responses: 201 with an empty object on success; 404 unknown user;
// 409 duplicate submission; 422 malformed/incomplete body; 500 otherwise.
func (h *RecordHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	// The token subject is not required to match the path user; note a
	// mismatch so it is visible in the logs.
	if identity, ok := auth.IdentityFromContext(r.Context()); ok && identity.UserID != userID {
		h.logger.Debug("token subject differs from path user",
			slog.String("tokenUserId", identity.UserID),
			slog.String("pathUserId", userID),
		)
	}

	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "must be a valid JSON object"))
		return
	}
	if req.WordCount == nil {
		writeError(w, apperror.ValidationFailed("word_count", "is required"))
		return
	}
	if req.StudyTime == nil {
		writeError(w, apperror.ValidationFailed("study_time", "is required"))
		return
	}

	if err := h.records.Create(r.Context(), userID, *req.WordCount, *req.StudyTime, req.Timestamp); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct{}{})
}
