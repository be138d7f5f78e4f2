package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"modelrouter/internal/utils"
)

// Limiter is used to enforce per-key rate limits. The routing and workflow
// engines impose no limits of their own; admission control lives here, in
// the server layer.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// NoopLimiter allows all requests. Used when no limit is configured.
type NoopLimiter struct{}

func NewNoopLimiter() *NoopLimiter {
	return &NoopLimiter{}
}

func (l *NoopLimiter) Allow(ctx context.Context, key string) bool {
	return true
}

// SlidingWindowLimiter enforces a per-key requests-per-window limit using a
// Redis sorted set of request timestamps. It fails open: if Redis is
// unreachable the request is allowed, because a broken limiter must not
// take the router down with it.
type SlidingWindowLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	log    *utils.Logger
}

// NewSlidingWindowLimiter creates a limiter allowing limit requests per
// window per key. A zero window defaults to one minute.
func NewSlidingWindowLimiter(client *redis.Client, limit int, window time.Duration, log *utils.Logger) *SlidingWindowLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if log == nil {
		log = utils.NewLogger("ratelimit")
	}
	return &SlidingWindowLimiter{client: client, limit: limit, window: window, log: log}
}

// Allow records the request and reports whether the key is within its limit.
func (rl *SlidingWindowLimiter) Allow(ctx context.Context, key string) bool {
	if rl.limit <= 0 {
		return true
	}

	redisKey := fmt.Sprintf("ratelimit:%s", key)
	now := time.Now()
	windowStart := now.Add(-rl.window)

	pipe := rl.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.UnixMilli()))
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: fmt.Sprintf("%d:%d", now.UnixNano(), rl.limit),
	})
	pipe.Expire(ctx, redisKey, 2*rl.window)

	if _, err := pipe.Exec(ctx); err != nil {
		rl.log.Warn("rate limit check failed, allowing request", "key", key, "error", err)
		return true
	}

	return int(countCmd.Val()) < rl.limit
}

// Reset clears the window for a key.
func (rl *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	return rl.client.Del(ctx, fmt.Sprintf("ratelimit:%s", key)).Err()
}
