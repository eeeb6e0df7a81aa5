package middlewares

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter shared by every instance pointed at
// the same redis.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		prefix: "filekeep:ratelimit:",
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := l.prefix + key

	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}

	if n == 1 {
		if err := l.rdb.PExpire(ctx, k, l.window).Err(); err != nil {
			return false, 0, err
		}
	}

	if n <= int64(l.limit) {
		return true, 0, nil
	}

	ttl, err := l.rdb.PTTL(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}

	// key lost its expiry somehow, restart the window
	if ttl < 0 {
		_ = l.rdb.PExpire(ctx, k, l.window).Err()
		ttl = l.window
	}

	return false, ttl, nil
}
