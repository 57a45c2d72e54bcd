// Package apperror defines the application's error taxonomy.
//
// Services raise these typed errors; the HTTP layer translates them to status
// codes in exactly one place (handler.writeError). Neither layer needs to know
// about the other's vocabulary — the sentinels below are the shared contract.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// AppError carries a sentinel (for errors.Is checks) plus the human-readable
// message the HTTP layer puts in the response body.
type AppError struct {
	Err     error  // sentinel: ErrNotFound, ErrValidation, ...
	Message string // Human-readable error message
	Field   string // Optional: request field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s %s not found", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s %s already exists", resource, id),
	}
}

// Unauthenticated covers every token failure mode: missing, malformed,
// undecodable, or expired. HTTP handlers map this to 401.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}
