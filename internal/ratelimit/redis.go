package ratelimit

import (
	"context"
	"time"

	"callcenter-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a fixed-window limiter shared across instances.
// Counter atomicity comes from the Lua script in pkg/utils.
type RedisStore struct {
	rdb *redis.Client

	// Prefix namespaces limiter keys within the shared Redis.
	Prefix string
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, Prefix: "ratelimit:"}
}

func (s *RedisStore) Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	count, ttl, err := utils.FixedWindowIncr(ctx, s.rdb, s.Prefix+key, limit, window)
	if err != nil {
		return Result{}, err
	}

	resetAt := time.Now().Add(ttl)
	if count > int64(limit) {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}
	return Result{Allowed: true, Remaining: limit - int(count), ResetAt: resetAt}, nil
}
