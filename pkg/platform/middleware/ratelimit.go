package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"barangaylink/pkg/requestcontext"
)

// SubmitRateLimit caps how many submissions a caller may make per window
// using a fixed-window counter in redis. A nil client disables the limiter,
// and redis outages fail open: losing rate limiting is better than refusing
// every citizen submission.
func SubmitRateLimit(client *redis.Client, limit int, window time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if client == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			caller := requestcontext.Caller(ctx)
			key := fmt.Sprintf("ratelimit:submit:%s", caller.ID.String())

			count, err := client.Incr(ctx, key).Result()
			if err != nil {
				logger.WarnContext(ctx, "rate limit check failed, allowing request",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				client.Expire(ctx, key, window)
			}
			if count > int64(limit) {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"success":false,"message":"too many submissions, try again later","error":"rate_limited"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
