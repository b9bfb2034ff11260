package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"TourRoute/internal/cache"
	"TourRoute/internal/model"
	"TourRoute/internal/model/dto"
	"TourRoute/internal/queue"
	"TourRoute/internal/repository"
	"TourRoute/pkg/logger"
	"TourRoute/pkg/metrics"
	"TourRoute/storage/database"
)

// CompletionEffects 完成副作用的结果，失败的一项为 nil
type CompletionEffects struct {
	AlbumID *int64
	Points  *dto.PointsAwarded
}

// CompletionDispatcher 路线状态变化后的副作用，全部尽力而为，不返回错误
type CompletionDispatcher interface {
	OnRouteCompleted(ctx context.Context, route *model.Route, target model.RouteTarget) CompletionEffects
	OnRouteReverted(ctx context.Context, route *model.Route, target model.RouteTarget)
	OnRouteSaved(ctx context.Context, route *model.Route, target model.RouteTarget)
}

// EventPublisher 路线事件投递
type EventPublisher interface {
	PublishRouteEvent(ctx context.Context, msg model.RouteEventMessage) error
}

type EventPublisherFunc func(ctx context.Context, msg model.RouteEventMessage) error

func (f EventPublisherFunc) PublishRouteEvent(ctx context.Context, msg model.RouteEventMessage) error {
	return f(ctx, msg)
}

type noopDispatcher struct{}

func (noopDispatcher) OnRouteCompleted(context.Context, *model.Route, model.RouteTarget) CompletionEffects {
	return CompletionEffects{}
}
func (noopDispatcher) OnRouteReverted(context.Context, *model.Route, model.RouteTarget) {}
func (noopDispatcher) OnRouteSaved(context.Context, *model.Route, model.RouteTarget)    {}

// SideEffectDispatcher 相册、积分与事件投递，各自一个熔断器
type SideEffectDispatcher struct {
	store        repository.Store
	albums       *AlbumService
	gamification *GamificationService
	publisher    EventPublisher
	stats        StatsCache
	now          func() time.Time

	albumBreaker  *gobreaker.CircuitBreaker[*int64]
	pointsBreaker *gobreaker.CircuitBreaker[*dto.PointsAwarded]
	eventBreaker  *gobreaker.CircuitBreaker[struct{}]
}

var (
	dispatcher     *SideEffectDispatcher
	dispatcherOnce sync.Once
)

func Dispatcher() *SideEffectDispatcher {
	dispatcherOnce.Do(func() {
		dispatcher = NewSideEffectDispatcher(
			repository.NewStore(database.DB()),
			Album(),
			Gamification(),
			EventPublisherFunc(queue.PublishRouteEvent),
			cache.RouteStats(),
		)
	})
	return dispatcher
}

func NewSideEffectDispatcher(
	store repository.Store,
	albums *AlbumService,
	gamification *GamificationService,
	publisher EventPublisher,
	stats StatsCache,
) *SideEffectDispatcher {
	return &SideEffectDispatcher{
		store:         store,
		albums:        albums,
		gamification:  gamification,
		publisher:     publisher,
		stats:         stats,
		now:           time.Now,
		albumBreaker:  cache.NewDefaultBreaker[*int64]("dispatcher_album"),
		pointsBreaker: cache.NewDefaultBreaker[*dto.PointsAwarded]("dispatcher_points"),
		eventBreaker:  cache.NewDefaultBreaker[struct{}]("dispatcher_event"),
	}
}

// OnRouteCompleted 相册与积分互不影响，任一失败只记日志
func (d *SideEffectDispatcher) OnRouteCompleted(
	ctx context.Context,
	route *model.Route,
	target model.RouteTarget,
) CompletionEffects {
	var effects CompletionEffects

	if target.IsCircuit() {
		albumID, err := d.buildAlbum(ctx, route, target)
		if err != nil {
			d.logFailure("album", route, err)
		} else {
			effects.AlbumID = albumID
		}
	}

	if target.Kind == model.TargetFixed {
		points, err := d.awardPoints(ctx, route, target)
		if err != nil {
			d.logFailure("points", route, err)
		} else {
			effects.Points = points
		}
	}

	msg := d.newEvent(model.RouteEventCompleted, route, target)
	msg.AlbumID = effects.AlbumID
	if effects.Points != nil {
		msg.Points = effects.Points.PointsAwarded
	}
	d.publish(ctx, msg)

	return effects
}

// OnRouteReverted 退回 Active 不撤销相册和积分，只通知统计失效
func (d *SideEffectDispatcher) OnRouteReverted(ctx context.Context, route *model.Route, target model.RouteTarget) {
	d.publish(ctx, d.newEvent(model.RouteEventReverted, route, target))
}

func (d *SideEffectDispatcher) OnRouteSaved(ctx context.Context, route *model.Route, target model.RouteTarget) {
	msg := d.newEvent(model.RouteEventSaved, route, target)
	msg.Points = route.PointsEarned
	d.publish(ctx, msg)
}

func (d *SideEffectDispatcher) buildAlbum(
	ctx context.Context,
	route *model.Route,
	target model.RouteTarget,
) (*int64, error) {
	start := time.Now()
	albumID, err := d.albumBreaker.Execute(func() (*int64, error) {
		visited, err := d.store.Routes().VisitedPOIIDs(ctx, route.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load visited pois: %w", err)
		}

		completedAt := d.now()
		if route.CompletedAt != nil {
			completedAt = *route.CompletedAt
		}
		routeID := route.ID
		id, err := d.albums.CreateAlbum(ctx, route.UserID, AlbumName(target.ID, completedAt), &routeID)
		if err != nil {
			return nil, err
		}
		if _, err := d.albums.AttachMedia(ctx, id, visited); err != nil {
			return nil, err
		}
		return &id, nil
	})
	metrics.RecordSideEffect(ctx, "album", time.Since(start).Seconds(), err)
	return albumID, err
}

func (d *SideEffectDispatcher) awardPoints(
	ctx context.Context,
	route *model.Route,
	target model.RouteTarget,
) (*dto.PointsAwarded, error) {
	start := time.Now()
	points, err := d.pointsBreaker.Execute(func() (*dto.PointsAwarded, error) {
		circuits, err := d.store.Circuits().FindCircuitsByIDs(ctx, []int64{target.ID})
		if err != nil {
			return nil, fmt.Errorf("failed to load circuit: %w", err)
		}
		isPremium := len(circuits) > 0 && circuits[0].IsPremium
		return d.gamification.AwardCircuitCompletion(ctx, route.UserID, route.ID, target.ID, isPremium)
	})
	metrics.RecordSideEffect(ctx, "points", time.Since(start).Seconds(), err)
	return points, err
}

// publish 投递失败时直接让统计缓存失效
func (d *SideEffectDispatcher) publish(ctx context.Context, msg model.RouteEventMessage) {
	if d.publisher == nil {
		d.invalidateStats(ctx, msg.UserID)
		return
	}

	start := time.Now()
	_, err := d.eventBreaker.Execute(func() (struct{}, error) {
		return struct{}{}, d.publisher.PublishRouteEvent(ctx, msg)
	})
	metrics.RecordSideEffect(ctx, "event", time.Since(start).Seconds(), err)
	if err != nil {
		logger.Logger.Warn("Failed to publish route event",
			zap.String("event_type", string(msg.EventType)),
			zap.Int64("route_id", msg.RouteID),
			zap.Error(err),
		)
		d.invalidateStats(ctx, msg.UserID)
	}
}

func (d *SideEffectDispatcher) invalidateStats(ctx context.Context, userID int64) {
	if d.stats != nil {
		d.stats.Invalidate(ctx, userID)
	}
}

func (d *SideEffectDispatcher) newEvent(
	eventType model.RouteEventType,
	route *model.Route,
	target model.RouteTarget,
) model.RouteEventMessage {
	return model.RouteEventMessage{
		EventType:  eventType,
		TargetKind: target.Kind,
		OccurredAt: d.now().UTC().Format(time.RFC3339),
		RouteID:    route.ID,
		UserID:     route.UserID,
		TargetID:   target.ID,
	}
}

func (d *SideEffectDispatcher) logFailure(effect string, route *model.Route, err error) {
	logger.Logger.Error("Route side effect failed",
		zap.String("effect", effect),
		zap.Int64("route_id", route.ID),
		zap.Int64("user_id", route.UserID),
		zap.Error(err),
	)
}
