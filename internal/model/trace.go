package model

// VisitedTrace GPS 轨迹点，POIID 非空表示到访该 POI
type VisitedTrace struct {
	AppendOnlyModel
	POIID     *int64  `gorm:"column:poi_id;index:idx_visited_traces_route_poi" json:"poi_id"`
	RouteID   int64   `gorm:"not null;index:idx_visited_traces_route_poi" json:"route_id"`
	Latitude  float64 `gorm:"type:double precision;not null" json:"latitude"`
	Longitude float64 `gorm:"type:double precision;not null" json:"longitude"`
}

// TableName 指定表名
func (VisitedTrace) TableName() string {
	return "visited_traces"
}

// RemovedTrace 被用户移出路线要求的 POI，加回时物理删除
type RemovedTrace struct {
	AppendOnlyModel
	RouteID int64 `gorm:"not null;uniqueIndex:uk_removed_traces_route_poi" json:"route_id"`
	POIID   int64 `gorm:"column:poi_id;not null;uniqueIndex:uk_removed_traces_route_poi" json:"poi_id"`
	UserID  int64 `gorm:"not null;index" json:"user_id"`
}

// TableName 指定表名
func (RemovedTrace) TableName() string {
	return "removed_traces"
}
