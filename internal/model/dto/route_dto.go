package dto

import (
	"time"

	"TourRoute/internal/model"
)

// ========== Route 相关 DTO ==========

// StartRouteRequest 开始路线请求
type StartRouteRequest struct {
	CircuitID       int64   `json:"circuit_id" validate:"required,gt=0"`
	Latitude        float64 `json:"latitude" validate:"latitude"`
	Longitude       float64 `json:"longitude" validate:"longitude"`
	IsCustomCircuit bool    `json:"is_custom_circuit"`
	// POIs 会被忽略，首条轨迹始终不带 POI
	POIs []int64 `json:"pois,omitempty"`
}

// RecordTraceRequest 上报轨迹请求，POIs[0] 为到访的 POI
type RecordTraceRequest struct {
	POIs      []int64 `json:"pois,omitempty" validate:"omitempty,dive,gt=0"`
	RouteID   int64   `json:"route_id" validate:"required,gt=0"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// RoutePOIRequest 移除 / 加回 POI 请求
type RoutePOIRequest struct {
	RouteID int64 `json:"route_id" validate:"required,gt=0"`
	POIID   int64 `json:"poi_id" validate:"required,gt=0"`
}

// ReorderPOIsRequest 自定义线路 POI 重排请求
type ReorderPOIsRequest struct {
	OrderedPOIIDs []int64 `json:"ordered_poi_ids" validate:"required,min=1,dive,gt=0"`
	RouteID       int64   `json:"route_id" validate:"required,gt=0"`
}

// SaveRouteRequest 保存单点导航路线请求
type SaveRouteRequest struct {
	StartLocation *model.GeoPoint        `json:"start_location" validate:"required"`
	EndLocation   *model.GeoPoint        `json:"end_location" validate:"required"`
	RouteGeoJSON  map[string]interface{} `json:"route_geojson,omitempty"`
	PointsEarned  *int                   `json:"points_earned,omitempty" validate:"omitempty,gte=0"`
	POIName       string                 `json:"poi_name" validate:"max=255"`
	POIImage      string                 `json:"poi_image" validate:"max=512"`
	TransportMode string                 `json:"transport_mode" validate:"omitempty,oneof=foot bike car public_transport"`
	POIID         int64                  `json:"poi_id" validate:"required,gt=0"`
	Distance      float64                `json:"distance" validate:"gt=0"`
	Duration      float64                `json:"duration" validate:"gt=0"`
}

// TraceItem 轨迹点
type TraceItem struct {
	CreatedAt time.Time `json:"created_at"`
	POIID     *int64    `json:"poi_id"`
	ID        int64     `json:"id"`
	RouteID   int64     `json:"route_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

// RemovedTraceItem 移除记录
type RemovedTraceItem struct {
	CreatedAt time.Time `json:"created_at"`
	ID        int64     `json:"id"`
	RouteID   int64     `json:"route_id"`
	POIID     int64     `json:"poi_id"`
}

// PointsAwarded 积分发放结果
type PointsAwarded struct {
	PointsAwarded int `json:"points_awarded"`
	TotalPoints   int `json:"total_points"`
}

// CircuitPOIItem 线路中的 POI
type CircuitPOIItem struct {
	InitialImage  *string `json:"initial_image"`
	EstimatedTime *int    `json:"estimated_time,omitempty"`
	Name          string  `json:"name"`
	ID            int64   `json:"id"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Order         int     `json:"order"`
	Removed       bool    `json:"removed"`
}

// CircuitSummary 路线目标的概要
type CircuitSummary struct {
	EndPoint  *model.GeoPoint  `json:"end_point,omitempty"`
	Kind      model.TargetKind `json:"kind"`
	Name      string           `json:"name"`
	POIs      []CircuitPOIItem `json:"pois"`
	ID        int64            `json:"id"`
	IsPremium bool             `json:"is_premium"`
}

// StartRouteResponse 开始路线响应
type StartRouteResponse struct {
	Circuit          CircuitSummary `json:"circuit"`
	FirstTrace       TraceItem      `json:"first_trace"`
	RouteID          int64          `json:"route_id"`
	IsRouteCompleted bool           `json:"is_route_completed"`
}

// RecordTraceResponse 上报轨迹响应
type RecordTraceResponse struct {
	AlbumID          *int64         `json:"album_id"`
	PointsAwarded    *PointsAwarded `json:"points_awarded"`
	VisitedTraces    []TraceItem    `json:"visited_traces"`
	NewTrace         TraceItem      `json:"new_trace"`
	IsRouteCompleted bool           `json:"is_route_completed"`
}

// RemovePOIResponse 移除 POI 响应
type RemovePOIResponse struct {
	AlbumID          *int64           `json:"album_id"`
	PointsAwarded    *PointsAwarded   `json:"points_awarded"`
	RemovedTrace     RemovedTraceItem `json:"removed_trace"`
	AlreadyRemoved   bool             `json:"already_removed"`
	IsRouteCompleted bool             `json:"is_route_completed"`
}

// AddPOIBackResponse 加回 POI 响应
type AddPOIBackResponse struct {
	RemovedTrace     *RemovedTraceItem `json:"removed_trace"`
	WasRemoved       bool              `json:"was_removed"`
	Reverted         bool              `json:"reverted"`
	IsRouteCompleted bool              `json:"is_route_completed"`
}

// ReorderPOIsResponse 重排响应
type ReorderPOIsResponse struct {
	OrderedPOIIDs   []int64 `json:"ordered_poi_ids"`
	CustomCircuitID int64   `json:"custom_circuit_id"`
}

// RouteItem 路线基础信息
type RouteItem struct {
	CreatedAt     time.Time        `json:"created_at"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
	StartLocation *model.GeoPoint  `json:"start_location,omitempty"`
	EndLocation   *model.GeoPoint  `json:"end_location,omitempty"`
	Target        model.RouteTarget `json:"target"`
	TransportMode string           `json:"transport_mode,omitempty"`
	POIName       string           `json:"poi_name,omitempty"`
	POIImage      string           `json:"poi_image,omitempty"`
	ID            int64            `json:"id"`
	Distance      float64          `json:"distance"`
	Duration      float64          `json:"duration"`
	PointsEarned  int              `json:"points_earned"`
	IsCompleted   bool             `json:"is_completed"`
}

// RouteDetail 路线详情
type RouteDetail struct {
	Circuit       *CircuitSummary    `json:"circuit"`
	VisitedTraces []TraceItem        `json:"visited_traces"`
	RemovedTraces []RemovedTraceItem `json:"removed_traces"`
	Route         RouteItem          `json:"route"`
	PathLength    float64            `json:"path_length"` // 米
}

// CompletedRouteItem 已完成路线列表项
type CompletedRouteItem struct {
	RouteItem
	Type                 string `json:"type"` // circuit / navigation
	CircuitName          string `json:"circuit_name,omitempty"`
	TotalPOIs            int    `json:"total_pois"`
	VisitedCount         int    `json:"visited_count"`
	RemovedCount         int    `json:"removed_count"`
	RemainingCount       int    `json:"remaining_count"`
	CompletionPercentage int    `json:"completion_percentage"`
}

// RouteStats 用户路线统计
type RouteStats struct {
	TotalPoints      int     `json:"total_points"`
	TotalRoutes      int     `json:"total_routes"`
	TotalDistance    float64 `json:"total_distance"`
	TotalPOIsVisited int     `json:"total_pois_visited"`
	TotalPOIsRemoved int     `json:"total_pois_removed"`
	CircuitRoutes    int     `json:"circuit_routes"`
	NavigationRoutes int     `json:"navigation_routes"`
}

// CompletedRoutesResponse 已完成路线列表
type CompletedRoutesResponse struct {
	Routes []CompletedRouteItem `json:"routes"`
	Stats  RouteStats           `json:"stats"`
}
