package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TourRoute/internal/model/dto"
	"TourRoute/storage/redis"
)

func TestCacheDegradesWithoutRedis(t *testing.T) {
	require.False(t, redis.Ready())
	ctx := context.Background()

	ok, err := TryLock(ctx, "route:1", "owner", time.Second)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrCacheUnavailable)
	assert.ErrorIs(t, Unlock(ctx, "route:1"), ErrCacheUnavailable)
	assert.ErrorIs(t, Extend(ctx, "route:1", "owner", time.Second), ErrCacheUnavailable)

	_, err = TryMarkMessageProcessing(ctx, "route_event_1", 0)
	assert.ErrorIs(t, err, ErrCacheUnavailable)

	pc := NewProtectedCache("test", time.Minute)
	assert.ErrorIs(t, pc.Set(ctx, "k", 1), ErrCacheUnavailable)
	var v int
	hit, err := pc.Get(ctx, "k", &v)
	assert.False(t, hit)
	assert.ErrorIs(t, err, ErrCacheUnavailable)
}

func TestRouteStatsMissesWithoutRedis(t *testing.T) {
	ctx := context.Background()
	stats := RouteStats()

	stats.Set(ctx, 7, &dto.CompletedRoutesResponse{Routes: []dto.CompletedRouteItem{}})
	got, ok := stats.Get(ctx, 7)
	assert.False(t, ok)
	assert.Nil(t, got)

	assert.NotPanics(t, func() { stats.Invalidate(ctx, 7) })
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewBreaker[int]("test", 2, time.Minute)
	boom := assert.AnError

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, boom })
		assert.ErrorIs(t, err, boom)
	}

	called := false
	_, err := cb.Execute(func() (int, error) {
		called = true
		return 1, nil
	})
	assert.Error(t, err)
	assert.False(t, called, "open breaker short-circuits the call")
}
