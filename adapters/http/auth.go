package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/cloudmeter/cloudmeter/domain/token"
)

type contextKey string

const tokenContextKey contextKey = "auth_token"

// TokenFromContext returns the verified auth token for a request, if any.
func TokenFromContext(ctx context.Context) (token.Token, bool) {
	t, ok := ctx.Value(tokenContextKey).(token.Token)
	return t, ok
}

// requireToken verifies the Authorization header against the token store.
// Both "Token <secret>" and "Bearer <secret>" schemes are accepted.
func (h *Handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := extractSecret(r.Header.Get("Authorization"))
		if secret == "" {
			respondError(w, http.StatusUnauthorized, "missing_token", "Authorization header required")
			return
		}

		t, ok := h.tokens.Verify(r.Context(), secret)
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid_token", "invalid or revoked token")
			return
		}

		ctx := context.WithValue(r.Context(), tokenContextKey, t)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractSecret(header string) string {
	for _, scheme := range []string{"Token ", "Bearer "} {
		if strings.HasPrefix(header, scheme) {
			return strings.TrimSpace(header[len(scheme):])
		}
	}
	return ""
}
