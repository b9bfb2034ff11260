package cache

import (
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"TourRoute/config"
	"TourRoute/pkg/logger"
)

// 半开状态允许的试探请求数
const halfOpenMaxRequests = 3

// NewBreaker 连续失败 maxFailures 次后熔断，openTimeout 后进入半开
func NewBreaker[T any](name string, maxFailures uint32, openTimeout time.Duration) *gobreaker.CircuitBreaker[T] {
	if maxFailures == 0 {
		maxFailures = 1
	}
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: halfOpenMaxRequests,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fields := []zap.Field{
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			}
			if to == gobreaker.StateOpen {
				logger.Logger.Warn("Circuit breaker transitioned to open",
					append(fields, zap.Duration("reset_timeout", openTimeout))...)
				return
			}
			logger.Logger.Info("Circuit breaker state changed", fields...)
		},
	})
}

// NewDefaultBreaker 使用配置中的熔断参数
func NewDefaultBreaker[T any](name string) *gobreaker.CircuitBreaker[T] {
	return NewBreaker[T](name, config.Cfg.BreakerMaxFailures, config.Cfg.BreakerOpenTimeout)
}

// RedisBreaker 统计缓存的 redis 熔断：连续失败 5 次后熔断，30 秒后尝试恢复
var RedisBreaker = NewBreaker[string]("redis_cache", 5, 30*time.Second)
