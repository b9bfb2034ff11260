package repository

import (
	"context"

	"TourRoute/internal/model"
)

// 数据访问接口，gorm 实现见 gorm_*.go。
// 查询不到记录时返回 gorm.ErrRecordNotFound。

// RouteRepo 路线与轨迹
type RouteRepo interface {
	CreateRoute(ctx context.Context, route *model.Route) error
	// LockRoute 按 (id, user_id) 读取并加行锁，只能在事务内调用
	LockRoute(ctx context.Context, routeID, userID int64) (*model.Route, error)
	GetRoute(ctx context.Context, routeID, userID int64) (*model.Route, error)
	// SaveCompletion 只写 is_completed 和 completed_at
	SaveCompletion(ctx context.Context, route *model.Route) error
	ListCompletedRoutes(ctx context.Context, userID int64) ([]model.Route, error)

	AppendVisitedTrace(ctx context.Context, trace *model.VisitedTrace) error
	// ListVisitedTraces 按创建顺序返回
	ListVisitedTraces(ctx context.Context, routeID int64) ([]model.VisitedTrace, error)
	VisitedPOIIDs(ctx context.Context, routeID int64) ([]int64, error)

	// FindRemoval 不存在时返回 nil, nil
	FindRemoval(ctx context.Context, routeID, poiID int64) (*model.RemovedTrace, error)
	CreateRemoval(ctx context.Context, removal *model.RemovedTrace) error
	DeleteRemoval(ctx context.Context, removalID int64) error
	ListRemovals(ctx context.Context, routeID int64) ([]model.RemovedTrace, error)

	// VisitedPOICounts route_id -> 到访过的不同 POI 数
	VisitedPOICounts(ctx context.Context, routeIDs []int64) (map[int64]int, error)
	// RemovalCounts route_id -> 当前移除的 POI 数
	RemovalCounts(ctx context.Context, routeIDs []int64) (map[int64]int, error)
}

// CircuitSource 线路成员的只读来源，覆盖官方线路、自定义线路与单点
type CircuitSource interface {
	// FindCircuit 不返回已删除线路
	FindCircuit(ctx context.Context, circuitID int64) (*model.Circuit, error)
	// OriginalPOIIDs 目标的原始 POI，按线路顺序
	OriginalPOIIDs(ctx context.Context, target model.RouteTarget) ([]int64, error)
	IsPOIMember(ctx context.Context, target model.RouteTarget, poiID int64) (bool, error)
	// CircuitPOIs 官方线路的 POI 关联及排序
	CircuitPOIs(ctx context.Context, circuitID int64) ([]model.CircuitPOI, error)
	FindPOIs(ctx context.Context, poiIDs []int64) ([]model.POI, error)
	// CoverImages poi_id -> 第一张 image 类型文件地址
	CoverImages(ctx context.Context, poiIDs []int64) (map[int64]string, error)
	CountCircuitPOIs(ctx context.Context, circuitIDs []int64) (map[int64]int, error)
	// FindCircuitsByIDs 包含已删除线路，用于历史路线展示
	FindCircuitsByIDs(ctx context.Context, circuitIDs []int64) ([]model.Circuit, error)
}

// CustomCircuitRepo 自定义线路
type CustomCircuitRepo interface {
	// FindCustomCircuit 不返回已删除线路
	FindCustomCircuit(ctx context.Context, id int64) (*model.CustomCircuit, error)
	// LockCustomCircuit 加行锁读取，只能在事务内调用
	LockCustomCircuit(ctx context.Context, id int64) (*model.CustomCircuit, error)
	FindOwnedCustomCircuit(ctx context.Context, id, userID int64) (*model.CustomCircuit, error)
	ListCustomCircuits(ctx context.Context, userID int64) ([]model.CustomCircuit, error)
	CreateCustomCircuit(ctx context.Context, cc *model.CustomCircuit) error
	SaveCustomCircuit(ctx context.Context, cc *model.CustomCircuit) error
	UpdateSelectedPOIs(ctx context.Context, id int64, ids model.POIIDList) error
	SoftDeleteCustomCircuit(ctx context.Context, id, userID int64) error
	// FindCustomCircuitsByIDs 包含已删除线路，用于历史路线展示
	FindCustomCircuitsByIDs(ctx context.Context, ids []int64) ([]model.CustomCircuit, error)
	CountExistingPOIs(ctx context.Context, ids []int64) (int64, error)
}

// AlbumRepo 相册
type AlbumRepo interface {
	CreateAlbum(ctx context.Context, album *model.Album) error
	// AlbumFiles 指定 POI 的相册素材（imageAlbum）
	AlbumFiles(ctx context.Context, poiIDs []int64) ([]model.POIFile, error)
	AttachFiles(ctx context.Context, items []model.AlbumPOI) error
}

// PointsRepo 积分
type PointsRepo interface {
	// Award 按 source_key 幂等发放，重复发放返回 awarded=false
	Award(ctx context.Context, award *model.PointAward) (total int, awarded bool, err error)
	// Credit 直接累加，不记流水
	Credit(ctx context.Context, userID int64, points int) (total int, err error)
}

// Stores 一组共享同一连接（或同一事务）的仓储
type Stores interface {
	Routes() RouteRepo
	Circuits() CircuitSource
	CustomCircuits() CustomCircuitRepo
	Albums() AlbumRepo
	Points() PointsRepo
}

// Store 可开启事务的仓储入口
type Store interface {
	Stores
	// Tx fn 返回错误时整体回滚
	Tx(ctx context.Context, fn func(tx Stores) error) error
	// ReadOnly 读副本，未配置副本时与主库相同
	ReadOnly() Stores
}
