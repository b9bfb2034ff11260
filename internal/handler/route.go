package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"TourRoute/internal/model/dto"
	"TourRoute/pkg/response"
)

// RouteOperations 路线相关业务
type RouteOperations interface {
	StartRoute(ctx context.Context, userID int64, req dto.StartRouteRequest) (*dto.StartRouteResponse, error)
	RecordTrace(ctx context.Context, userID int64, req dto.RecordTraceRequest) (*dto.RecordTraceResponse, error)
	RemovePOI(ctx context.Context, userID int64, req dto.RoutePOIRequest) (*dto.RemovePOIResponse, error)
	AddPOIBack(ctx context.Context, userID int64, req dto.RoutePOIRequest) (*dto.AddPOIBackResponse, error)
	ReorderCustomCircuitPOIs(ctx context.Context, userID int64, req dto.ReorderPOIsRequest) (*dto.ReorderPOIsResponse, error)
	SaveNavigationRoute(ctx context.Context, userID int64, req dto.SaveRouteRequest) (*dto.RouteItem, error)
	ListCompletedRoutes(ctx context.Context, userID int64) (*dto.CompletedRoutesResponse, error)
	GetRouteDetail(ctx context.Context, userID, routeID int64) (*dto.RouteDetail, error)
}

type RouteHandler struct {
	routes RouteOperations
}

func NewRouteHandler(routes RouteOperations) *RouteHandler {
	return &RouteHandler{routes: routes}
}

// StartRoute 开始线路
// POST /v1/routes/start
func (h *RouteHandler) StartRoute(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}
	var req dto.StartRouteRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	resp, err := h.routes.StartRoute(ctx, userID, req)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// RecordTrace 上报轨迹
// POST /v1/routes/trace
func (h *RouteHandler) RecordTrace(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}
	var req dto.RecordTraceRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	resp, err := h.routes.RecordTrace(ctx, userID, req)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// RemovePOI 移除 POI
// POST /v1/routes/remove-poi
func (h *RouteHandler) RemovePOI(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}
	var req dto.RoutePOIRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	resp, err := h.routes.RemovePOI(ctx, userID, req)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// AddPOIBack 加回 POI
// POST /v1/routes/add-poi
func (h *RouteHandler) AddPOIBack(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}
	var req dto.RoutePOIRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	resp, err := h.routes.AddPOIBack(ctx, userID, req)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// ReorderPOIs 自定义线路重排
// POST /v1/routes/reorder-pois
func (h *RouteHandler) ReorderPOIs(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}
	var req dto.ReorderPOIsRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	resp, err := h.routes.ReorderCustomCircuitPOIs(ctx, userID, req)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// SaveRoute 保存导航路线
// POST /v1/routes/save
func (h *RouteHandler) SaveRoute(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}
	var req dto.SaveRouteRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	resp, err := h.routes.SaveNavigationRoute(ctx, userID, req)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Created(ctx, c, resp)
}

// ListCompletedRoutes 已完成路线与统计
// GET /v1/routes/user
func (h *RouteHandler) ListCompletedRoutes(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	resp, err := h.routes.ListCompletedRoutes(ctx, userID)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// GetRouteDetail 路线详情
// GET /v1/routes/:id
func (h *RouteHandler) GetRouteDetail(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}
	routeID, ok := pathID(ctx, c)
	if !ok {
		return
	}

	resp, err := h.routes.GetRouteDetail(ctx, userID, routeID)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}
