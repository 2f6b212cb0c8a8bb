package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
)

// TokenVerifier validates a bearer credential and returns the identity it carries.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// RequireAuth rejects requests that lack a valid bearer token and attaches
// the verified identity to the request context.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logging.FromContext(r.Context())

			identity, err := verifier.Verify(bearerToken(r))
			if err != nil {
				reason := "invalid token"
				switch {
				case errors.Is(err, auth.ErrTokenMissing):
					reason = "no token provided"
				case errors.Is(err, auth.ErrTokenExpired):
					reason = "token expired"
				}
				logger.Warn("request rejected", "reason", reason)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": reason})
				return
			}

			ctx := auth.WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
