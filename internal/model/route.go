package model

import (
	"errors"
	"time"
)

// TargetKind 路线目标类型
type TargetKind string

const (
	TargetFixed  TargetKind = "fixed"  // 官方线路
	TargetCustom TargetKind = "custom" // 用户自定义线路
	TargetPOI    TargetKind = "poi"    // 单点导航
)

// RouteTarget 路线目标，三种外键有且只有一个
type RouteTarget struct {
	Kind TargetKind `json:"kind"`
	ID   int64      `json:"id"`
}

// IsCircuit 是否为线路（官方或自定义）
func (t RouteTarget) IsCircuit() bool {
	return t.Kind == TargetFixed || t.Kind == TargetCustom
}

var ErrRouteTargetInvalid = errors.New("route must reference exactly one of circuit, custom circuit or poi")

// TransportMode 出行方式
const (
	TransportFoot = "foot"
)

// Route 用户对某条线路（或单个 POI）的一次游览
type Route struct {
	BaseModel
	CompletedAt     *time.Time `gorm:"type:timestamptz" json:"completed_at,omitempty"`
	CircuitID       *int64     `gorm:"index" json:"circuit_id,omitempty"`
	CustomCircuitID *int64     `gorm:"index" json:"custom_circuit_id,omitempty"`
	POIID           *int64     `gorm:"column:poi_id;index" json:"poi_id,omitempty"`
	EndPoint        *GeoPoint  `gorm:"type:jsonb" json:"end_point,omitempty"`

	// 单点导航路线的行程数据
	StartLocation *GeoPoint `gorm:"type:jsonb" json:"start_location,omitempty"`
	EndLocation   *GeoPoint `gorm:"type:jsonb" json:"end_location,omitempty"`
	RouteGeoJSON  JSONB     `gorm:"column:route_geojson;type:jsonb" json:"route_geojson,omitempty"`
	POIName       string    `gorm:"column:poi_name;type:varchar(255)" json:"poi_name,omitempty"`
	POIImage      string    `gorm:"column:poi_image;type:varchar(512)" json:"poi_image,omitempty"`
	TransportMode string    `gorm:"type:varchar(16)" json:"transport_mode,omitempty"`
	Distance      float64   `gorm:"not null;default:0" json:"distance"` // 米
	Duration      float64   `gorm:"not null;default:0" json:"duration"` // 秒
	PointsEarned  int       `gorm:"not null;default:0" json:"points_earned"`

	UserID      int64 `gorm:"not null;index:idx_routes_user_completed" json:"user_id"`
	IsCompleted bool  `gorm:"not null;default:false;index:idx_routes_user_completed" json:"is_completed"`
}

// TableName 指定表名
func (Route) TableName() string {
	return "routes"
}

// Target 解析路线目标
func (r *Route) Target() (RouteTarget, error) {
	var (
		target RouteTarget
		n      int
	)
	if r.CircuitID != nil {
		target = RouteTarget{Kind: TargetFixed, ID: *r.CircuitID}
		n++
	}
	if r.CustomCircuitID != nil {
		target = RouteTarget{Kind: TargetCustom, ID: *r.CustomCircuitID}
		n++
	}
	if r.POIID != nil {
		target = RouteTarget{Kind: TargetPOI, ID: *r.POIID}
		n++
	}
	if n != 1 {
		return RouteTarget{}, ErrRouteTargetInvalid
	}
	return target, nil
}

// SetTarget 按目标类型设置外键，其余置空
func (r *Route) SetTarget(t RouteTarget) {
	r.CircuitID, r.CustomCircuitID, r.POIID = nil, nil, nil
	id := t.ID
	switch t.Kind {
	case TargetFixed:
		r.CircuitID = &id
	case TargetCustom:
		r.CustomCircuitID = &id
	case TargetPOI:
		r.POIID = &id
	}
}

// MarkCompleted 标记完成
func (r *Route) MarkCompleted(at time.Time) {
	r.IsCompleted = true
	r.CompletedAt = &at
}
