package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter shared across processes. Each window
// of one second admits up to limit calls; callers past the limit sleep until
// the window rolls over.
type RedisLimiter struct {
	client *redis.Client
	key    string
	limit  int64
}

// NewRedisLimiter connects to the given Redis URL. The key namespaces the
// limiter so independent call classes do not contend.
func NewRedisLimiter(redisURL, key string, limit int) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	if limit < 1 {
		limit = 1
	}

	return &RedisLimiter{
		client: redis.NewClient(opts),
		key:    "cortexlab:ratelimit:" + key,
		limit:  int64(limit),
	}, nil
}

func (l *RedisLimiter) Wait(ctx context.Context) error {
	for {
		window := time.Now().Unix()
		windowKey := fmt.Sprintf("%s:%d", l.key, window)

		count, err := l.client.Incr(ctx, windowKey).Result()
		if err != nil {
			return fmt.Errorf("failed to increment rate limit window: %w", err)
		}

		if count == 1 {
			// First caller in the window owns expiry.
			l.client.Expire(ctx, windowKey, 2*time.Second)
		}

		if count <= l.limit {
			return nil
		}

		// Sleep to the next window boundary.
		wait := time.Until(time.Unix(window+1, 0))
		if wait <= 0 {
			wait = 50 * time.Millisecond
		}

		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()

			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Close releases the underlying Redis connection.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
