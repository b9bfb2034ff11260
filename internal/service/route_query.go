package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"TourRoute/internal/model"
	"TourRoute/internal/model/dto"
	"TourRoute/internal/repository"
	pkgerrors "TourRoute/pkg/errors"
	"TourRoute/pkg/geo"
	"TourRoute/pkg/logger"
)

// GetRouteDetail 路线详情：全部原始 POI（带移除标记）、移除记录、按时间排序的轨迹
func (s *RouteService) GetRouteDetail(ctx context.Context, userID, routeID int64) (*dto.RouteDetail, error) {
	ro := s.store.ReadOnly()

	route, err := ro.Routes().GetRoute(ctx, routeID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.RouteNotFound
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}
	target, err := routeTarget(route)
	if err != nil {
		return nil, err
	}

	var (
		traces   []model.VisitedTrace
		removals []model.RemovedTrace
		summary  *dto.CircuitSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		traces, err = ro.Routes().ListVisitedTraces(gctx, route.ID)
		return err
	})
	g.Go(func() error {
		var err error
		removals, err = ro.Routes().ListRemovals(gctx, route.ID)
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = loadCircuitSummary(gctx, ro, target)
		if _, ok := pkgerrors.As(err); ok {
			// 线路已被删除时仍返回轨迹
			logger.Logger.Warn("Route target no longer available",
				zap.Int64("route_id", route.ID),
				zap.String("target_kind", string(target.Kind)),
				zap.Int64("target_id", target.ID),
			)
			summary = nil
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load route detail: %w", err)
	}

	removedItems := make([]dto.RemovedTraceItem, 0, len(removals))
	removed := make(POISet, len(removals))
	for _, r := range removals {
		removedItems = append(removedItems, toRemovedItem(r))
		removed[r.POIID] = struct{}{}
	}
	if summary != nil {
		for i := range summary.POIs {
			summary.POIs[i].Removed = removed.Has(summary.POIs[i].ID)
		}
	}

	path := make([]geo.Point, 0, len(traces))
	for _, t := range traces {
		path = append(path, geo.Point{Lat: t.Latitude, Lon: t.Longitude})
	}

	return &dto.RouteDetail{
		Circuit:       summary,
		VisitedTraces: toTraceItems(traces),
		RemovedTraces: removedItems,
		Route:         toRouteItem(route, target),
		PathLength:    geo.PathLength(path),
	}, nil
}

// ListCompletedRoutes 已完成路线及汇总统计，结果按用户缓存
func (s *RouteService) ListCompletedRoutes(ctx context.Context, userID int64) (*dto.CompletedRoutesResponse, error) {
	if s.stats != nil {
		if cached, ok := s.stats.Get(ctx, userID); ok {
			return cached, nil
		}
	}

	ro := s.store.ReadOnly()
	routes, err := ro.Routes().ListCompletedRoutes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed routes: %w", err)
	}

	routeIDs := make([]int64, 0, len(routes))
	targets := make([]model.RouteTarget, len(routes))
	var circuitIDs, customIDs []int64
	for i := range routes {
		routeIDs = append(routeIDs, routes[i].ID)
		target, err := routes[i].Target()
		if err != nil {
			logger.Logger.Warn("Skip route with invalid target",
				zap.Int64("route_id", routes[i].ID),
				zap.Error(err),
			)
			continue
		}
		targets[i] = target
		switch target.Kind {
		case model.TargetFixed:
			circuitIDs = append(circuitIDs, target.ID)
		case model.TargetCustom:
			customIDs = append(customIDs, target.ID)
		}
	}

	var (
		visitedCounts map[int64]int
		removedCounts map[int64]int
		poiCounts     map[int64]int
		circuits      []model.Circuit
		customs       []model.CustomCircuit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		visitedCounts, err = ro.Routes().VisitedPOICounts(gctx, routeIDs)
		return
	})
	g.Go(func() (err error) {
		removedCounts, err = ro.Routes().RemovalCounts(gctx, routeIDs)
		return
	})
	if len(circuitIDs) > 0 {
		g.Go(func() (err error) {
			poiCounts, err = ro.Circuits().CountCircuitPOIs(gctx, circuitIDs)
			return
		})
		g.Go(func() (err error) {
			circuits, err = ro.Circuits().FindCircuitsByIDs(gctx, circuitIDs)
			return
		})
	}
	if len(customIDs) > 0 {
		g.Go(func() (err error) {
			customs, err = ro.CustomCircuits().FindCustomCircuitsByIDs(gctx, customIDs)
			return
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load route statistics: %w", err)
	}

	circuitByID := make(map[int64]model.Circuit, len(circuits))
	for _, c := range circuits {
		circuitByID[c.ID] = c
	}
	customByID := make(map[int64]model.CustomCircuit, len(customs))
	for _, c := range customs {
		customByID[c.ID] = c
	}

	resp := &dto.CompletedRoutesResponse{Routes: make([]dto.CompletedRouteItem, 0, len(routes))}
	for i := range routes {
		route := &routes[i]
		target := targets[i]
		if target.Kind == "" {
			continue
		}

		item := dto.CompletedRouteItem{
			RouteItem:    toRouteItem(route, target),
			Type:         "navigation",
			VisitedCount: visitedCounts[route.ID],
			RemovedCount: removedCounts[route.ID],
		}

		switch target.Kind {
		case model.TargetFixed:
			item.Type = "circuit"
			item.TotalPOIs = poiCounts[target.ID]
			if c, ok := circuitByID[target.ID]; ok {
				item.CircuitName = c.Name
				if item.Distance == 0 {
					item.Distance = c.Distance
				}
				if item.Duration == 0 {
					item.Duration = c.Duration
				}
			}
		case model.TargetCustom:
			item.Type = "circuit"
			if c, ok := customByID[target.ID]; ok {
				item.CircuitName = c.Name
				item.TotalPOIs = len(c.SelectedPOIs)
			}
		}

		item.CompletionPercentage = completionPercentage(item.VisitedCount, item.RemovedCount, item.TotalPOIs)
		if remaining := item.TotalPOIs - item.VisitedCount - item.RemovedCount; remaining > 0 {
			item.RemainingCount = remaining
		}

		accumulateStats(&resp.Stats, item)
		resp.Routes = append(resp.Routes, item)
	}

	if s.stats != nil {
		s.stats.Set(ctx, userID, resp)
	}
	return resp, nil
}

// completionPercentage 已处理（到访 + 移除）占总数的百分比，封顶 100
func completionPercentage(visited, removed, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(float64(visited+removed) / float64(total) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}

func accumulateStats(stats *dto.RouteStats, item dto.CompletedRouteItem) {
	stats.TotalRoutes++
	stats.TotalPoints += item.PointsEarned
	stats.TotalDistance += item.Distance
	stats.TotalPOIsVisited += item.VisitedCount
	stats.TotalPOIsRemoved += item.RemovedCount
	if item.Type == "circuit" {
		stats.CircuitRoutes++
	} else {
		stats.NavigationRoutes++
	}
}

// loadCircuitSummary 解析路线目标并按线路顺序列出 POI
func loadCircuitSummary(ctx context.Context, s repository.Stores, target model.RouteTarget) (*dto.CircuitSummary, error) {
	summary := &dto.CircuitSummary{Kind: target.Kind, ID: target.ID}

	var (
		ids   []int64
		order = make(map[int64]model.CircuitPOI)
	)

	switch target.Kind {
	case model.TargetFixed:
		circuit, err := s.Circuits().FindCircuit(ctx, target.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.CircuitNotFound
			}
			return nil, fmt.Errorf("failed to get circuit: %w", err)
		}
		summary.Name = circuit.Name
		summary.EndPoint = circuit.EndPoint
		summary.IsPremium = circuit.IsPremium

		links, err := s.Circuits().CircuitPOIs(ctx, circuit.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get circuit pois: %w", err)
		}
		for _, l := range links {
			ids = append(ids, l.POIID)
			order[l.POIID] = l
		}

	case model.TargetCustom:
		cc, err := s.CustomCircuits().FindCustomCircuit(ctx, target.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.CustomCircuitNotFound
			}
			return nil, fmt.Errorf("failed to get custom circuit: %w", err)
		}
		summary.Name = cc.Name
		summary.EndPoint = cc.EndPoint
		ids = append(ids, cc.SelectedPOIs...)
		for i, id := range cc.SelectedPOIs {
			order[id] = model.CircuitPOI{POIID: id, Order: i + 1}
		}

	case model.TargetPOI:
		ids = []int64{target.ID}
		order[target.ID] = model.CircuitPOI{POIID: target.ID, Order: 1}

	default:
		return nil, pkgerrors.RouteTargetBroken
	}

	pois, err := s.Circuits().FindPOIs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get pois: %w", err)
	}
	if target.Kind == model.TargetPOI && len(pois) == 0 {
		return nil, pkgerrors.POINotFound
	}
	images, err := s.Circuits().CoverImages(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get poi images: %w", err)
	}

	byID := make(map[int64]model.POI, len(pois))
	for _, p := range pois {
		byID[p.ID] = p
	}

	// 已删除的 POI 不出现在列表里
	summary.POIs = make([]dto.CircuitPOIItem, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			continue
		}
		item := dto.CircuitPOIItem{
			EstimatedTime: order[id].EstimatedTime,
			Name:          p.Name,
			ID:            p.ID,
			Latitude:      p.Latitude,
			Longitude:     p.Longitude,
			Order:         order[id].Order,
		}
		if img, ok := images[id]; ok {
			img := img
			item.InitialImage = &img
		}
		summary.POIs = append(summary.POIs, item)
	}

	if target.Kind == model.TargetPOI {
		summary.Name = summary.POIs[0].Name
	}
	if summary.EndPoint == nil && len(summary.POIs) > 0 {
		last := summary.POIs[len(summary.POIs)-1]
		summary.EndPoint = &model.GeoPoint{Latitude: last.Latitude, Longitude: last.Longitude}
	}
	return summary, nil
}
