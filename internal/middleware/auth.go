package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/execcoach/coach/internal/ctxkeys"
	"github.com/execcoach/coach/internal/service"
)

// RequireAdmin checks the bearer token and adds the admin subject to context.
// Requests without a valid token get 401.
func RequireAdmin(authService *service.AuthService) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			subject, err := authService.VerifyJWT(token)
			if err != nil {
				slog.Warn("admin token rejected",
					"path", r.URL.Path,
					"request_id", ctxkeys.RequestID(r.Context()),
					"error", err,
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="admin", error="invalid_token"`)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := ctxkeys.WithAdmin(r.Context(), subject)
			next(w, r.WithContext(ctx))
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
