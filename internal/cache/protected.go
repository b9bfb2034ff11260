package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/goccy/go-json"
	ri "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"TourRoute/pkg/logger"
	"TourRoute/storage/redis"
)

const (
	// 空值缓存标识
	emptyValueFlag = "__EMPTY__"
	// 空值缓存TTL，较短时间避免长期占用
	emptyValueTTL = 5 * time.Minute
	// 防雪崩随机延迟范围
	breakerRandomDelayMax = 50 * time.Millisecond
)

// ErrCacheUnavailable redis 未初始化
var ErrCacheUnavailable = errors.New("cache unavailable")

// ProtectedCache 带空值保护、随机延迟与熔断的缓存包装器
type ProtectedCache struct {
	keyPrefix string
	ttl       time.Duration
	emptyTTL  time.Duration
	jitter    time.Duration
}

func NewProtectedCache(keyPrefix string, ttl time.Duration) *ProtectedCache {
	return &ProtectedCache{
		keyPrefix: keyPrefix,
		ttl:       ttl,
		emptyTTL:  emptyValueTTL,
		jitter:    breakerRandomDelayMax,
	}
}

// Set value 为 nil 时写入空值标识
func (pc *ProtectedCache) Set(ctx context.Context, key string, value interface{}) error {
	if !redis.Ready() {
		return ErrCacheUnavailable
	}
	cacheKey := redis.Key(pc.keyPrefix, key)

	data, ttl := emptyValueFlag, pc.emptyTTL
	if value != nil {
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal cache value: %w", err)
		}
		data, ttl = string(b), pc.ttl
	}

	_, err := RedisBreaker.Execute(func() (string, error) {
		return "", redis.Client().Set(ctx, cacheKey, data, ttl).Err()
	})
	return err
}

// Get 命中返回 true；空值命中时 dest 保持不变
func (pc *ProtectedCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !redis.Ready() {
		return false, ErrCacheUnavailable
	}
	cacheKey := redis.Key(pc.keyPrefix, key)

	if err := pc.addBreakerDelay(ctx); err != nil {
		return false, err
	}

	data, err := RedisBreaker.Execute(func() (string, error) {
		v, err := redis.Client().Get(ctx, cacheKey).Result()
		if errors.Is(err, ri.Nil) {
			// 未命中不算失败
			return "", nil
		}
		return v, err
	})
	if err != nil {
		return false, fmt.Errorf("failed to get cache: %w", err)
	}
	if data == "" {
		return false, nil
	}
	if data == emptyValueFlag {
		return true, nil
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		logger.Logger.Warn("Drop undecodable cache value",
			zap.String("key", cacheKey),
			zap.Error(err),
		)
		_ = pc.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

func (pc *ProtectedCache) Delete(ctx context.Context, key string) error {
	if !redis.Ready() {
		return ErrCacheUnavailable
	}
	cacheKey := redis.Key(pc.keyPrefix, key)
	_, err := RedisBreaker.Execute(func() (string, error) {
		return "", redis.Client().Del(ctx, cacheKey).Err()
	})
	return err
}

// addBreakerDelay 添加防雪崩随机延迟
func (pc *ProtectedCache) addBreakerDelay(ctx context.Context) error {
	if pc.jitter <= 0 {
		return nil
	}
	delay := time.Duration(rand.Int63n(int64(pc.jitter)))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
