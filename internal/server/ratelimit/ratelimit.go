// Package ratelimit bounds how often a user may attempt to open capsules.
// Counters are fixed windows kept in Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "capsule:open:"

// Limiter decides whether another attempt identified by key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// counter is the part of a Redis client the limiter needs.
type counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

type RedisLimiter struct {
	rdb    counter
	limit  int64
	window time.Duration
	logger logging.Logger
}

func NewRedisLimiter(rdb counter, limit int, window time.Duration, logger logging.Logger) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: int64(limit), window: window, logger: logger}
}

// Allow counts the attempt and reports whether it is within the limit. When
// Redis is unreachable the attempt is allowed and the error is logged.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := keyPrefix + key

	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		l.logger.Warn(ctx, "rate limiter unavailable, allowing", "key", key, "error", err)
		return true, nil
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			l.logger.Warn(ctx, "rate limiter expire failed", "key", key, "error", err)
		}
	}
	return n <= l.limit, nil
}

// Unlimited allows everything. It is used when the limit is configured as 0.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, error) { return true, nil }

// Connect opens a Redis client from a redis:// URI and pings it.
func Connect(ctx context.Context, uri string) (*redis.Client, error) {
	opt, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
