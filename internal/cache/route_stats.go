package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"TourRoute/config"
	"TourRoute/internal/model/dto"
	"TourRoute/pkg/logger"
)

// RouteStatsCache 用户已完成路线列表与统计
// Key: tour:route:stats:{user_id}
type RouteStatsCache struct {
	pc *ProtectedCache
}

var (
	routeStats     *RouteStatsCache
	routeStatsOnce sync.Once
)

func RouteStats() *RouteStatsCache {
	routeStatsOnce.Do(func() {
		ttl := config.Cfg.StatsCacheTTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		routeStats = &RouteStatsCache{pc: NewProtectedCache("route:stats", ttl)}
	})
	return routeStats
}

// Get 缓存故障按未命中处理
func (c *RouteStatsCache) Get(ctx context.Context, userID int64) (*dto.CompletedRoutesResponse, bool) {
	var v dto.CompletedRoutesResponse
	hit, err := c.pc.Get(ctx, strconv.FormatInt(userID, 10), &v)
	if err != nil {
		if err != ErrCacheUnavailable {
			logger.Logger.Warn("Failed to read route stats cache",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
		return nil, false
	}
	if !hit || v.Routes == nil {
		return nil, false
	}
	return &v, true
}

func (c *RouteStatsCache) Set(ctx context.Context, userID int64, v *dto.CompletedRoutesResponse) {
	if v == nil {
		return
	}
	if err := c.pc.Set(ctx, strconv.FormatInt(userID, 10), v); err != nil && err != ErrCacheUnavailable {
		logger.Logger.Warn("Failed to write route stats cache",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}

// Invalidate 幂等，可被 worker 重复调用
func (c *RouteStatsCache) Invalidate(ctx context.Context, userID int64) {
	if err := c.pc.Delete(ctx, strconv.FormatInt(userID, 10)); err != nil && err != ErrCacheUnavailable {
		logger.Logger.Warn("Failed to invalidate route stats cache",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}
