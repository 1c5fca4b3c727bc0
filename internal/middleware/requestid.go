package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/execcoach/coach/internal/ctxkeys"
)

const requestIDHeader = "X-Request-ID"

// WithRequestID tags each request with an id, reusing the caller's
// X-Request-ID when present, and echoes it in the response.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)
		ctx := ctxkeys.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
