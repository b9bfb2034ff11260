package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"TourRoute/internal/model"
)

type routeRepo struct {
	db *gorm.DB
}

func (r routeRepo) CreateRoute(ctx context.Context, route *model.Route) error {
	return r.db.WithContext(ctx).Create(route).Error
}

func (r routeRepo) LockRoute(ctx context.Context, routeID, userID int64) (*model.Route, error) {
	var route model.Route
	err := forUpdate(r.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", routeID, userID).
		First(&route).Error
	if err != nil {
		return nil, err
	}
	return &route, nil
}

func (r routeRepo) GetRoute(ctx context.Context, routeID, userID int64) (*model.Route, error) {
	var route model.Route
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", routeID, userID).
		First(&route).Error
	if err != nil {
		return nil, err
	}
	return &route, nil
}

func (r routeRepo) SaveCompletion(ctx context.Context, route *model.Route) error {
	return r.db.WithContext(ctx).
		Model(&model.Route{}).
		Where("id = ?", route.ID).
		Updates(map[string]interface{}{
			"is_completed": route.IsCompleted,
			"completed_at": route.CompletedAt,
		}).Error
}

func (r routeRepo) ListCompletedRoutes(ctx context.Context, userID int64) ([]model.Route, error) {
	var routes []model.Route
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_completed = ?", userID, true).
		Order("completed_at DESC NULLS LAST").
		Order("id DESC").
		Find(&routes).Error
	return routes, err
}

func (r routeRepo) AppendVisitedTrace(ctx context.Context, trace *model.VisitedTrace) error {
	return r.db.WithContext(ctx).Create(trace).Error
}

// ListVisitedTraces 自增主键即插入顺序
func (r routeRepo) ListVisitedTraces(ctx context.Context, routeID int64) ([]model.VisitedTrace, error) {
	var traces []model.VisitedTrace
	err := r.db.WithContext(ctx).
		Where("route_id = ?", routeID).
		Order("id ASC").
		Find(&traces).Error
	return traces, err
}

func (r routeRepo) VisitedPOIIDs(ctx context.Context, routeID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.VisitedTrace{}).
		Where("route_id = ? AND poi_id IS NOT NULL", routeID).
		Distinct().
		Pluck("poi_id", &ids).Error
	return ids, err
}

func (r routeRepo) FindRemoval(ctx context.Context, routeID, poiID int64) (*model.RemovedTrace, error) {
	var removal model.RemovedTrace
	err := r.db.WithContext(ctx).
		Where("route_id = ? AND poi_id = ?", routeID, poiID).
		First(&removal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &removal, nil
}

func (r routeRepo) CreateRemoval(ctx context.Context, removal *model.RemovedTrace) error {
	return r.db.WithContext(ctx).Create(removal).Error
}

func (r routeRepo) DeleteRemoval(ctx context.Context, removalID int64) error {
	return r.db.WithContext(ctx).Delete(&model.RemovedTrace{}, removalID).Error
}

func (r routeRepo) ListRemovals(ctx context.Context, routeID int64) ([]model.RemovedTrace, error) {
	var removals []model.RemovedTrace
	err := r.db.WithContext(ctx).
		Where("route_id = ?", routeID).
		Order("id ASC").
		Find(&removals).Error
	return removals, err
}

func (r routeRepo) VisitedPOICounts(ctx context.Context, routeIDs []int64) (map[int64]int, error) {
	if len(routeIDs) == 0 {
		return map[int64]int{}, nil
	}
	var rows []idCount
	err := r.db.WithContext(ctx).
		Model(&model.VisitedTrace{}).
		Select("route_id AS id, COUNT(DISTINCT poi_id) AS count").
		Where("route_id IN ? AND poi_id IS NOT NULL", routeIDs).
		Group("route_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

func (r routeRepo) RemovalCounts(ctx context.Context, routeIDs []int64) (map[int64]int, error) {
	if len(routeIDs) == 0 {
		return map[int64]int{}, nil
	}
	var rows []idCount
	err := r.db.WithContext(ctx).
		Model(&model.RemovedTrace{}).
		Select("route_id AS id, COUNT(*) AS count").
		Where("route_id IN ?", routeIDs).
		Group("route_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}
