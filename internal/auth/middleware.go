package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kwlin/studylog/internal/apperror"
)

// contextKey is an unexported type for this package's context keys, so no
// other package can read or shadow the identity we store on the request.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth gates a route subtree on bearer-token verification.
//
// On success the verified Identity is stored in the request context for
// handlers to read. On failure the chain stops with the error envelope the
// API uses everywhere: 422 + {"msg": ...} when the claims fail schema checks
// (missing user_id), 401 + {"message": ...} for everything else.
func RequireAuth(verifier *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := verifier.Verify(r.Header)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated identity set by RequireAuth.
// The second return value is false on routes that never passed through it.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*Identity)
	return identity, ok
}

// writeAuthError mirrors the handler package's error envelopes for the two
// failure categories the verifier can produce. It lives here rather than in
// handler to keep the middleware free of a dependency on the handler package.
func writeAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && errors.Is(err, apperror.ErrValidation) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		msg := appErr.Message
		if appErr.Field != "" {
			msg = fmt.Sprintf("Field '%s' %s", appErr.Field, appErr.Message)
		}
		json.NewEncoder(w).Encode(map[string]string{"msg": msg})
		return
	}

	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": err.Error()})
}
