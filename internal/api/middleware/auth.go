package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/reelworks/brain/internal/api"
)

// APIKeyAuth authenticates requests against the shared service key.
// The caller is the upstream pipeline, not an end user, so a single
// static key is sufficient; constant-time comparison avoids leaking
// key prefixes through timing.
func APIKeyAuth(serviceKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if serviceKey == "" {
				// No key configured means auth is disabled (local dev).
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if subtle.ConstantTimeCompare([]byte(token), []byte(serviceKey)) != 1 {
				api.Error(w, http.StatusUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
