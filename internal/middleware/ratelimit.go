package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"placement-service/internal/httputil"
	"placement-service/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RateLimiter counts requests per key in fixed Redis windows.
// A nil client allows everything.
type RateLimiter struct {
	client  redis.Scripter
	script  *redis.Script
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewRateLimiter(client redis.Scripter, logger *slog.Logger, m *metrics.Metrics) *RateLimiter {
	return &RateLimiter{
		client:  client,
		script:  redis.NewScript(rateLimitScript),
		timeout: 250 * time.Millisecond,
		logger:  logger,
		metrics: m,
	}
}

// Allow reports whether another request under key fits in the window.
// Redis errors fail open.
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if l == nil || l.client == nil || key == "" || limit <= 0 || window <= 0 {
		return true
	}
	ttl := max(window.Milliseconds(), 1)

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	allowed, err := l.script.Run(ctx, l.client, []string{key}, ttl, limit).Int64()
	if err != nil {
		l.logger.WarnContext(ctx, "rate limiter unavailable", "key", key, "error", err)
		return true
	}
	return allowed == 1
}

// Limit applies the limiter to a route. keyFn returns the caller's key;
// an empty key bypasses the limit.
func (l *RateLimiter) Limit(route string, keyFn func(*http.Request) string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if key != "" {
				key = "ratelimit:" + route + ":" + key
			}
			if !l.Allow(r.Context(), key, limit, window) {
				l.metrics.RecordRateLimited(r.Context(), route)
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				httputil.RespondWithError(w, http.StatusTooManyRequests, "too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
