package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quizfiesta/funnel-api/internal/pkg/logger"
)

// Redis is a fixed-window counter shared across instances. INCR creates the
// key at 1; the first increment of each window attaches the TTL.
type Redis struct {
	client *redis.Client
	max    int
	window time.Duration
	prefix string
}

// NewRedis creates a Redis-backed limiter allowing max requests per window
// for each key.
func NewRedis(client *redis.Client, max int, window time.Duration) *Redis {
	return &Redis{client: client, max: max, window: window, prefix: "ratelimit:"}
}

// Allow increments the window counter for key. Fails open on Redis errors:
// an unreachable limiter must not take the funnel down with it.
func (r *Redis) Allow(ctx context.Context, key string) bool {
	k := r.prefix + key
	n, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		logger.Warn("rate limiter unavailable, allowing request", "error", err)
		return true
	}
	if n == 1 {
		if err := r.client.Expire(ctx, k, r.window).Err(); err != nil {
			logger.Warn("rate limiter expire failed", "key", k, "error", err)
		}
	}
	return n <= int64(r.max)
}
