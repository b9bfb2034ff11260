package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"TourRoute/config"
	"TourRoute/pkg/errors"
	"TourRoute/pkg/logger"
	"TourRoute/pkg/response"
	"TourRoute/storage/redis"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// 限流键前缀
	KeyPrefix    string
	ErrorMessage string
	// 时间窗口
	Window time.Duration
	// 超限后的封禁时长，0 表示不封禁
	BlockDuration time.Duration
	// 时间窗口内最大请求数
	MaxRequests int
	// 是否按用户ID限流（需要认证）
	ByUserID bool
	// 是否按IP限流
	ByIP bool
}

// TraceRateLimitConfig 轨迹上报按用户限流
func TraceRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		KeyPrefix:    "rate:trace",
		ErrorMessage: "Too many trace reports, please slow down",
		Window:       config.Cfg.TraceRateLimitWindow,
		MaxRequests:  config.Cfg.TraceRateLimit,
		ByUserID:     true,
		ByIP:         true,
	}
}

// RateLimiter 限流器
type RateLimiter struct {
	config RateLimitConfig
}

func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	return &RateLimiter{
		config: config,
	}
}

// identifier 优先用户ID，未认证时退回 IP
func (rl *RateLimiter) identifier(ctx context.Context, c *app.RequestContext) string {
	if rl.config.ByUserID {
		if userID, exists := GetUserID(ctx, c); exists {
			return "user:" + strconv.FormatInt(userID, 10)
		}
	}
	if rl.config.ByIP {
		return "ip:" + c.ClientIP()
	}
	return "global"
}

// Allow 滑动窗口：zset 中保存窗口内每次请求的纳秒时间戳
func (rl *RateLimiter) Allow(ctx context.Context, id string) (bool, int, error) {
	key := redis.Key(rl.config.KeyPrefix, id)
	now := time.Now()
	windowStart := now.Add(-rl.config.Window)

	pipe := redis.Client().Pipeline()

	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, key, redislib.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	zcardCmd := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, rl.config.Window+10*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	count := int(zcardCmd.Val())
	return count <= rl.config.MaxRequests, count, nil
}

func (rl *RateLimiter) blockKey(id string) string {
	return redis.Key(rl.config.KeyPrefix, "block", id)
}

func (rl *RateLimiter) Block(ctx context.Context, id string) error {
	if rl.config.BlockDuration <= 0 {
		return nil
	}
	return redis.Client().Set(ctx, rl.blockKey(id), "1", rl.config.BlockDuration).Err()
}

func (rl *RateLimiter) IsBlocked(ctx context.Context, id string) (bool, error) {
	if rl.config.BlockDuration <= 0 {
		return false, nil
	}
	result, err := redis.Client().Exists(ctx, rl.blockKey(id)).Result()
	return result > 0, err
}

// RateLimitMiddleware 创建限流中间件，redis 不可用时放行
func RateLimitMiddleware(cfg RateLimitConfig) app.HandlerFunc {
	limiter := NewRateLimiter(cfg)
	tooMany := errors.TooManyRequests
	if cfg.ErrorMessage != "" {
		tooMany = tooMany.WithMessage(cfg.ErrorMessage)
	}

	return func(ctx context.Context, c *app.RequestContext) {
		if !config.Cfg.RateLimitEnabled || cfg.MaxRequests <= 0 || !redis.Ready() {
			c.Next(ctx)
			return
		}

		id := limiter.identifier(ctx, c)

		blocked, err := limiter.IsBlocked(ctx, id)
		if err != nil {
			logger.Logger.Warn("Failed to check block status", zap.Error(err))
			c.Next(ctx)
			return
		}
		if blocked {
			response.Error(ctx, c, tooMany)
			c.Abort()
			return
		}

		allowed, count, err := limiter.Allow(ctx, id)
		if err != nil {
			logger.Logger.Warn("Failed to check rate limit", zap.Error(err))
			c.Next(ctx)
			return
		}

		remaining := cfg.MaxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Response.Header.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(limiter.config.Window).Unix(), 10))

		if !allowed {
			if err := limiter.Block(ctx, id); err != nil {
				logger.Logger.Error("Failed to block client", zap.Error(err))
			}
			logger.Logger.Info("Rate limit exceeded",
				zap.String("key_prefix", cfg.KeyPrefix),
				zap.String("client", id),
				zap.Int("count", count),
			)
			response.Error(ctx, c, tooMany)
			c.Abort()
			return
		}

		c.Next(ctx)
	}
}

// TraceRateLimitMiddleware 轨迹上报限流
func TraceRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(TraceRateLimitConfig())
}
