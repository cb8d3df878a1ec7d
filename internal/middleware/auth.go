package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/messagely/internal/auth"
	"github.com/hongminglow/messagely/internal/http/respond"
)

// TokenVerifier validates a bearer token and returns the embedded identity.
type TokenVerifier interface {
	Verify(raw string) (auth.Identity, error)
}

// RequireIdentity rejects requests without a valid bearer token and attaches
// the verified identity to the request context otherwise.
func RequireIdentity(tokens TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, raw, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				respond.Error(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			id, err := tokens.Verify(strings.TrimSpace(raw))
			if err != nil {
				logger.WarnContext(r.Context(), "rejected bearer token", "path", r.URL.Path, "error", err)
				respond.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}
