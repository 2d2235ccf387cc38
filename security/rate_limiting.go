package security

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// ScanRateLimit caps scan submissions per source per minute. A stuck or
// hostile scanner gets throttled here before it reaches the validator;
// legitimate gates stay far below the limit even at peak flow.
func (r *RateLimiter) ScanRateLimit(maxPerMinute int) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if !r.allow(e.Request.Context(), e.RealIP(), maxPerMinute) {
			return e.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Too many scan requests",
			})
		}

		return e.Next()
	}
}

// allow counts one request against the source's minute window. The
// limiter fails open: it is protective, not load-bearing, and the
// validator behind it is safe on its own.
func (r *RateLimiter) allow(ctx context.Context, source string, maxPerMinute int) bool {
	key := fmt.Sprintf("ratelimit:scan:%s", source)

	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return true
	}

	// ExpireNX arms the window only when the key has no TTL yet, so a
	// failed arm attempt is repaired by the next request instead of
	// leaving the counter immortal.
	r.redis.ExpireNX(ctx, key, time.Minute)

	return count <= int64(maxPerMinute)
}
