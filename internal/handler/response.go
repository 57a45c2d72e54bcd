// Package handler implements the HTTP surface: request parsing, delegation to
// the service layer, and response/error encoding.
//
// Every endpoint shares the same two error envelopes, produced in one place
// (writeError) so status mapping can never drift between endpoints:
//
//	generic errors:    {"message": "..."}        with 401/404/409/500
//	schema validation: {"msg": "Field 'x' ..."}  with 422
//
// The validation envelope is built from the first failing field and its
// message, which is all a client needs to point at the offending input.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kwlin/studylog/internal/apperror"
)

// MessageResponse is the generic error envelope.
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationResponse is the envelope for request-schema failures.
type ValidationResponse struct {
	Msg string `json:"msg"`
}

// writeJSON sends data with the given status. Headers must be set before the
// first body write, hence the fixed order here.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone; logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error onto the HTTP status and envelope.
//
// The service layer only ever returns apperror sentinels (possibly wrapped
// with %w); errors.Is walks the chain so wrapping depth doesn't matter.
// Anything unrecognised becomes a 500 with a generic message — internal
// detail (SQL text, file paths) must never reach the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(err, apperror.ErrValidation):
			msg := appErr.Message
			if appErr.Field != "" {
				msg = fmt.Sprintf("Field '%s' %s", appErr.Field, appErr.Message)
			}
			writeJSON(w, http.StatusUnprocessableEntity, ValidationResponse{Msg: msg})
			return
		case errors.Is(err, apperror.ErrNotFound):
			writeJSON(w, http.StatusNotFound, MessageResponse{Message: appErr.Message})
			return
		case errors.Is(err, apperror.ErrConflict):
			writeJSON(w, http.StatusConflict, MessageResponse{Message: appErr.Message})
			return
		case errors.Is(err, apperror.ErrUnauthenticated):
			writeJSON(w, http.StatusUnauthorized, MessageResponse{Message: appErr.Message})
			return
		}
	}

	writeJSON(w, http.StatusInternalServerError, MessageResponse{Message: "an internal error occurred"})
}
