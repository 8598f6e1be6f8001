package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient parses url and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// Redis is a fixed window limiter shared by every instance using the same
// server.
type Redis struct {
	rdb    *redis.Client
	prefix string
	window time.Duration
	max    int64
}

func NewRedis(rdb *redis.Client, prefix string, limit int, window time.Duration) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, window: window, max: int64(limit)}
}

func (l *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := "ratelimit:" + l.prefix + ":" + key

	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", k, err)
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expiry %s: %w", k, err)
		}
	}
	return n <= l.max, nil
}
