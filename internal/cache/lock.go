package cache

import (
	"context"
	"time"

	"TourRoute/storage/redis"
)

const (
	lockPrefix = "lock"
)

// TryLock SETNX 占位，返回 false 表示已被占用
func TryLock(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if !redis.Ready() {
		return false, ErrCacheUnavailable
	}
	fullkey := redis.Key(lockPrefix, key)
	return redis.Client().SetNX(ctx, fullkey, value, ttl).Result()
}

func Unlock(ctx context.Context, key string) error {
	if !redis.Ready() {
		return ErrCacheUnavailable
	}
	fullkey := redis.Key(lockPrefix, key)
	return redis.Client().Del(ctx, fullkey).Err()
}

// Extend 覆盖占位值并刷新过期时间
func Extend(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !redis.Ready() {
		return ErrCacheUnavailable
	}
	fullkey := redis.Key(lockPrefix, key)
	return redis.Client().Set(ctx, fullkey, value, ttl).Err()
}
