package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"TourRoute/config"
	"TourRoute/internal/cache"
	"TourRoute/internal/model"
	"TourRoute/internal/model/dto"
	"TourRoute/internal/repository"
	pkgerrors "TourRoute/pkg/errors"
	"TourRoute/pkg/logger"
	"TourRoute/pkg/metrics"
	"TourRoute/pkg/validation"
	"TourRoute/storage/database"
)

// 路线状态机：Active -> Completed，只有加回 POI 能把 Completed 退回 Active。
// 每个写操作都在一个事务里先锁住路线行，再读取集合并判定完成，
// 副作用在事务提交之后执行，失败不会回滚完成状态。

// StatsCache 用户已完成路线统计缓存
type StatsCache interface {
	Get(ctx context.Context, userID int64) (*dto.CompletedRoutesResponse, bool)
	Set(ctx context.Context, userID int64, v *dto.CompletedRoutesResponse)
	Invalidate(ctx context.Context, userID int64)
}

type RouteService struct {
	store            repository.Store
	dispatcher       CompletionDispatcher
	stats            StatsCache
	now              func() time.Time
	navigationPoints int
}

var (
	routeService *RouteService
	routeOnce    sync.Once
)

func Route() *RouteService {
	routeOnce.Do(func() {
		routeService = NewRouteService(
			repository.NewStore(database.DB()),
			Dispatcher(),
			cache.RouteStats(),
		)
	})
	return routeService
}

// NewRouteService dispatcher 与 stats 可以为 nil
func NewRouteService(store repository.Store, dispatcher CompletionDispatcher, stats StatsCache) *RouteService {
	if dispatcher == nil {
		dispatcher = noopDispatcher{}
	}
	return &RouteService{
		store:            store,
		dispatcher:       dispatcher,
		stats:            stats,
		now:              time.Now,
		navigationPoints: config.Cfg.PointsNavigationDefault,
	}
}

// StartRoute 开始一条线路，首条轨迹只记录起点，不带 POI
func (s *RouteService) StartRoute(
	ctx context.Context,
	userID int64,
	req dto.StartRouteRequest,
) (*dto.StartRouteResponse, error) {
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, err
	}

	target := model.RouteTarget{Kind: model.TargetFixed, ID: req.CircuitID}
	if req.IsCustomCircuit {
		target.Kind = model.TargetCustom
	}

	var resp *dto.StartRouteResponse
	err := s.store.Tx(ctx, func(tx repository.Stores) error {
		summary, err := loadCircuitSummary(ctx, tx, target)
		if err != nil {
			return err
		}

		route := &model.Route{UserID: userID, EndPoint: summary.EndPoint}
		route.SetTarget(target)
		if err := tx.Routes().CreateRoute(ctx, route); err != nil {
			return fmt.Errorf("failed to create route: %w", err)
		}

		first := &model.VisitedTrace{
			RouteID:   route.ID,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		}
		if err := tx.Routes().AppendVisitedTrace(ctx, first); err != nil {
			return fmt.Errorf("failed to create first trace: %w", err)
		}

		resp = &dto.StartRouteResponse{
			Circuit:    *summary,
			FirstTrace: toTraceItem(*first),
			RouteID:    route.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordRouteStarted(ctx, string(target.Kind))
	logger.Logger.Info("Route started",
		zap.Int64("user_id", userID),
		zap.Int64("route_id", resp.RouteID),
		zap.String("target_kind", string(target.Kind)),
		zap.Int64("target_id", target.ID),
	)
	return resp, nil
}

// RecordTrace 追加一条轨迹，带 POI 时重新判定完成
func (s *RouteService) RecordTrace(
	ctx context.Context,
	userID int64,
	req dto.RecordTraceRequest,
) (*dto.RecordTraceResponse, error) {
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, err
	}

	var poiID *int64
	if len(req.POIs) > 0 {
		id := req.POIs[0]
		poiID = &id
	}

	var (
		resp      dto.RecordTraceResponse
		completed *model.Route
		target    model.RouteTarget
	)
	err := s.store.Tx(ctx, func(tx repository.Stores) error {
		route, err := lockRoute(ctx, tx, req.RouteID, userID)
		if err != nil {
			return err
		}
		if route.IsCompleted {
			return pkgerrors.RouteCompleted
		}
		if target, err = routeTarget(route); err != nil {
			return err
		}

		trace := &model.VisitedTrace{
			RouteID:   route.ID,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			POIID:     poiID,
		}
		if err := tx.Routes().AppendVisitedTrace(ctx, trace); err != nil {
			return fmt.Errorf("failed to append trace: %w", err)
		}

		if poiID != nil {
			required, visited, err := completionSets(ctx, tx, route.ID, target)
			if err != nil {
				return err
			}
			if Evaluate(required, visited) {
				route.MarkCompleted(s.now())
				if err := tx.Routes().SaveCompletion(ctx, route); err != nil {
					return fmt.Errorf("failed to complete route: %w", err)
				}
				completed = route
			}
		}

		traces, err := tx.Routes().ListVisitedTraces(ctx, route.ID)
		if err != nil {
			return fmt.Errorf("failed to list traces: %w", err)
		}

		resp.NewTrace = toTraceItem(*trace)
		resp.VisitedTraces = toTraceItems(traces)
		resp.IsRouteCompleted = completed != nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTrace(ctx, poiID != nil)
	if completed != nil {
		metrics.RecordRouteCompleted(ctx, string(target.Kind), "trace")
		logger.Logger.Info("Route completed",
			zap.Int64("user_id", userID),
			zap.Int64("route_id", completed.ID),
			zap.String("trigger", "trace"),
		)
		effects := s.dispatcher.OnRouteCompleted(ctx, completed, target)
		resp.AlbumID = effects.AlbumID
		resp.PointsAwarded = effects.Points
	}
	return &resp, nil
}

// RemovePOI 把 POI 移出完成要求，重复移除直接返回已有记录
func (s *RouteService) RemovePOI(
	ctx context.Context,
	userID int64,
	req dto.RoutePOIRequest,
) (*dto.RemovePOIResponse, error) {
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, err
	}

	var (
		resp      dto.RemovePOIResponse
		completed *model.Route
		target    model.RouteTarget
	)
	err := s.store.Tx(ctx, func(tx repository.Stores) error {
		route, err := lockRoute(ctx, tx, req.RouteID, userID)
		if err != nil {
			return err
		}
		if route.IsCompleted {
			return pkgerrors.RouteNotActive
		}
		if target, err = routeTarget(route); err != nil {
			return err
		}
		if err := ensureMember(ctx, tx, target, req.POIID); err != nil {
			return err
		}

		existing, err := tx.Routes().FindRemoval(ctx, route.ID, req.POIID)
		if err != nil {
			return fmt.Errorf("failed to query removal: %w", err)
		}
		if existing != nil {
			resp.RemovedTrace = toRemovedItem(*existing)
			resp.AlreadyRemoved = true
			return nil
		}

		removal := &model.RemovedTrace{RouteID: route.ID, POIID: req.POIID, UserID: userID}
		if err := tx.Routes().CreateRemoval(ctx, removal); err != nil {
			return fmt.Errorf("failed to create removal: %w", err)
		}
		resp.RemovedTrace = toRemovedItem(*removal)

		required, visited, err := completionSets(ctx, tx, route.ID, target)
		if err != nil {
			return err
		}
		if EvaluateRelaxed(required, visited) {
			route.MarkCompleted(s.now())
			if err := tx.Routes().SaveCompletion(ctx, route); err != nil {
				return fmt.Errorf("failed to complete route: %w", err)
			}
			completed = route
		}
		resp.IsRouteCompleted = completed != nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	if resp.AlreadyRemoved {
		return &resp, nil
	}

	metrics.RecordPOIRemoved(ctx)
	if completed != nil {
		metrics.RecordRouteCompleted(ctx, string(target.Kind), "remove_poi")
		logger.Logger.Info("Route completed",
			zap.Int64("user_id", userID),
			zap.Int64("route_id", completed.ID),
			zap.String("trigger", "remove_poi"),
		)
		effects := s.dispatcher.OnRouteCompleted(ctx, completed, target)
		resp.AlbumID = effects.AlbumID
		resp.PointsAwarded = effects.Points
	}
	return &resp, nil
}

// AddPOIBack 撤销移除。已完成的路线也允许调用，
// 加回后必需 POI 数多于已到访数则退回 Active，completed_at 保持不变。
func (s *RouteService) AddPOIBack(
	ctx context.Context,
	userID int64,
	req dto.RoutePOIRequest,
) (*dto.AddPOIBackResponse, error) {
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, err
	}

	var (
		resp     dto.AddPOIBackResponse
		reverted *model.Route
		target   model.RouteTarget
	)
	err := s.store.Tx(ctx, func(tx repository.Stores) error {
		route, err := lockRoute(ctx, tx, req.RouteID, userID)
		if err != nil {
			return err
		}
		if target, err = routeTarget(route); err != nil {
			return err
		}
		if err := ensureMember(ctx, tx, target, req.POIID); err != nil {
			return err
		}

		existing, err := tx.Routes().FindRemoval(ctx, route.ID, req.POIID)
		if err != nil {
			return fmt.Errorf("failed to query removal: %w", err)
		}
		if existing == nil {
			resp.IsRouteCompleted = route.IsCompleted
			return nil
		}

		if err := tx.Routes().DeleteRemoval(ctx, existing.ID); err != nil {
			return fmt.Errorf("failed to delete removal: %w", err)
		}
		removedItem := toRemovedItem(*existing)
		resp.RemovedTrace = &removedItem
		resp.WasRemoved = true

		if route.IsCompleted {
			required, visited, err := completionSets(ctx, tx, route.ID, target)
			if err != nil {
				return err
			}
			if ShouldRevert(required, visited) {
				route.IsCompleted = false
				if err := tx.Routes().SaveCompletion(ctx, route); err != nil {
					return fmt.Errorf("failed to revert route: %w", err)
				}
				reverted = route
			}
		}

		resp.Reverted = reverted != nil
		resp.IsRouteCompleted = route.IsCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	if reverted != nil {
		metrics.RecordRouteReverted(ctx, string(target.Kind))
		logger.Logger.Info("Route reverted to active",
			zap.Int64("user_id", userID),
			zap.Int64("route_id", reverted.ID),
			zap.Int64("poi_id", req.POIID),
		)
		s.dispatcher.OnRouteReverted(ctx, reverted, target)
	}
	return &resp, nil
}

// ReorderCustomCircuitPOIs 调整自定义线路的 POI 顺序，只能是现有集合的一个排列
func (s *RouteService) ReorderCustomCircuitPOIs(
	ctx context.Context,
	userID int64,
	req dto.ReorderPOIsRequest,
) (*dto.ReorderPOIsResponse, error) {
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, err
	}

	var resp *dto.ReorderPOIsResponse
	err := s.store.Tx(ctx, func(tx repository.Stores) error {
		route, err := lockRoute(ctx, tx, req.RouteID, userID)
		if err != nil {
			return err
		}
		if route.IsCompleted {
			return pkgerrors.RouteNotActive
		}
		target, err := routeTarget(route)
		if err != nil {
			return err
		}
		if target.Kind != model.TargetCustom {
			return pkgerrors.RouteNotCustom
		}

		cc, err := tx.CustomCircuits().LockCustomCircuit(ctx, target.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.CustomCircuitNotFound
			}
			return fmt.Errorf("failed to lock custom circuit: %w", err)
		}
		if cc.UserID != userID {
			return pkgerrors.CustomCircuitNotFound
		}

		if !IsPermutation(cc.SelectedPOIs, req.OrderedPOIIDs) {
			return pkgerrors.POIOrderMismatch
		}

		ordered := make(model.POIIDList, len(req.OrderedPOIIDs))
		copy(ordered, req.OrderedPOIIDs)
		if err := tx.CustomCircuits().UpdateSelectedPOIs(ctx, cc.ID, ordered); err != nil {
			return fmt.Errorf("failed to update poi order: %w", err)
		}

		resp = &dto.ReorderPOIsResponse{
			OrderedPOIIDs:   ordered,
			CustomCircuitID: cc.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Logger.Info("Custom circuit reordered",
		zap.Int64("user_id", userID),
		zap.Int64("route_id", req.RouteID),
		zap.Int64("custom_circuit_id", resp.CustomCircuitID),
	)
	return resp, nil
}

// SaveNavigationRoute 保存一条已完成的单点导航路线
func (s *RouteService) SaveNavigationRoute(
	ctx context.Context,
	userID int64,
	req dto.SaveRouteRequest,
) (*dto.RouteItem, error) {
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, err
	}

	mode := req.TransportMode
	if mode == "" {
		mode = model.TransportFoot
	}
	points := s.navigationPoints
	if req.PointsEarned != nil {
		points = *req.PointsEarned
	}

	route := &model.Route{
		UserID:        userID,
		StartLocation: req.StartLocation,
		EndLocation:   req.EndLocation,
		RouteGeoJSON:  model.JSONB(req.RouteGeoJSON),
		POIName:       req.POIName,
		POIImage:      req.POIImage,
		TransportMode: mode,
		Distance:      req.Distance,
		Duration:      req.Duration,
		PointsEarned:  points,
	}
	target := model.RouteTarget{Kind: model.TargetPOI, ID: req.POIID}
	route.SetTarget(target)
	route.MarkCompleted(s.now())

	err := s.store.Tx(ctx, func(tx repository.Stores) error {
		pois, err := tx.Circuits().FindPOIs(ctx, []int64{req.POIID})
		if err != nil {
			return fmt.Errorf("failed to query poi: %w", err)
		}
		if len(pois) == 0 {
			return pkgerrors.POINotFound
		}
		if route.POIName == "" {
			route.POIName = pois[0].Name
		}
		if err := tx.Routes().CreateRoute(ctx, route); err != nil {
			return fmt.Errorf("failed to save route: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 只有客户端明确给出积分时才入账
	if req.PointsEarned != nil && *req.PointsEarned > 0 {
		if _, err := s.store.Points().Credit(ctx, userID, *req.PointsEarned); err != nil {
			logger.Logger.Warn("Failed to credit navigation points",
				zap.Int64("user_id", userID),
				zap.Int64("route_id", route.ID),
				zap.Error(err),
			)
		}
	}

	s.dispatcher.OnRouteSaved(ctx, route, target)

	item := toRouteItem(route, target)
	return &item, nil
}

// lockRoute 路线不存在与不属于该用户对外表现一致
func lockRoute(ctx context.Context, tx repository.Stores, routeID, userID int64) (*model.Route, error) {
	route, err := tx.Routes().LockRoute(ctx, routeID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.RouteNotFound
		}
		return nil, fmt.Errorf("failed to lock route: %w", err)
	}
	return route, nil
}

func routeTarget(route *model.Route) (model.RouteTarget, error) {
	target, err := route.Target()
	if err != nil {
		logger.Logger.Error("Route has invalid target",
			zap.Int64("route_id", route.ID),
			zap.Error(err),
		)
		return model.RouteTarget{}, pkgerrors.RouteTargetBroken
	}
	return target, nil
}

func ensureMember(ctx context.Context, s repository.Stores, target model.RouteTarget, poiID int64) error {
	ok, err := s.Circuits().IsPOIMember(ctx, target, poiID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return targetNotFound(target)
		}
		return fmt.Errorf("failed to check poi membership: %w", err)
	}
	if !ok {
		return pkgerrors.POINotInCircuit
	}
	return nil
}

// completionSets 在调用方的事务内读取必需集合与到访集合
func completionSets(
	ctx context.Context,
	s repository.Stores,
	routeID int64,
	target model.RouteTarget,
) (required, visited POISet, err error) {
	original, err := s.Circuits().OriginalPOIIDs(ctx, target)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, targetNotFound(target)
		}
		return nil, nil, fmt.Errorf("failed to load circuit pois: %w", err)
	}

	removals, err := s.Routes().ListRemovals(ctx, routeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load removals: %w", err)
	}
	removed := make([]int64, 0, len(removals))
	for _, r := range removals {
		removed = append(removed, r.POIID)
	}

	visitedIDs, err := s.Routes().VisitedPOIIDs(ctx, routeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load visited pois: %w", err)
	}

	return RequiredSet(original, removed), NewPOISet(visitedIDs...), nil
}

func targetNotFound(target model.RouteTarget) error {
	switch target.Kind {
	case model.TargetCustom:
		return pkgerrors.CustomCircuitNotFound
	case model.TargetPOI:
		return pkgerrors.POINotFound
	default:
		return pkgerrors.CircuitNotFound
	}
}

func toTraceItem(t model.VisitedTrace) dto.TraceItem {
	return dto.TraceItem{
		CreatedAt: t.CreatedAt,
		POIID:     t.POIID,
		ID:        t.ID,
		RouteID:   t.RouteID,
		Latitude:  t.Latitude,
		Longitude: t.Longitude,
	}
}

func toTraceItems(traces []model.VisitedTrace) []dto.TraceItem {
	items := make([]dto.TraceItem, 0, len(traces))
	for _, t := range traces {
		items = append(items, toTraceItem(t))
	}
	return items
}

func toRemovedItem(r model.RemovedTrace) dto.RemovedTraceItem {
	return dto.RemovedTraceItem{
		CreatedAt: r.CreatedAt,
		ID:        r.ID,
		RouteID:   r.RouteID,
		POIID:     r.POIID,
	}
}

func toRouteItem(r *model.Route, target model.RouteTarget) dto.RouteItem {
	return dto.RouteItem{
		CreatedAt:     r.CreatedAt,
		CompletedAt:   r.CompletedAt,
		StartLocation: r.StartLocation,
		EndLocation:   r.EndLocation,
		Target:        target,
		TransportMode: r.TransportMode,
		POIName:       r.POIName,
		POIImage:      r.POIImage,
		ID:            r.ID,
		Distance:      r.Distance,
		Duration:      r.Duration,
		PointsEarned:  r.PointsEarned,
		IsCompleted:   r.IsCompleted,
	}
}
