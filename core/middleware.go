package core

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

type contextKey string

const uidContextKey contextKey = "u_id"

// UIDFromContext returns the user id attached by RequireSession.
func UIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(uidContextKey).(string)
	return uid, ok
}

// RequireSession verifies the bearer token on every request and attaches
// the acting user id to the request context. Missing or malformed
// headers are 403, failed verification is 401.
func RequireSession(secret string, logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, err := VerifyAuthorization(secret, r.Header.Get("Authorization"))
		if err != nil {
			if errors.Is(err, ErrMissingOrMalformedHeader) {
				logger.Warn().Str("path", r.URL.Path).Msg("missing or malformed authorization header")
				respondError(w, http.StatusForbidden, "Token is missing or not a Bearer token.")
				return
			}
			logger.Warn().Str("path", r.URL.Path).Msg("invalid session token")
			respondError(w, http.StatusUnauthorized, "Invalid token.")
			return
		}

		ctx := context.WithValue(r.Context(), uidContextKey, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
