package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"barangaylink/pkg/requestcontext"
)

// RequestID assigns every request a correlation id, honoring one supplied by
// an upstream proxy. The id travels in the context and the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
