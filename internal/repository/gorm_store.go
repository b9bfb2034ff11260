package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

// gormStores 所有仓储共用同一个 *gorm.DB（可能是事务）
type gormStores struct {
	db *gorm.DB
}

func (s gormStores) Routes() RouteRepo                 { return routeRepo{s.db} }
func (s gormStores) Circuits() CircuitSource           { return circuitRepo{s.db} }
func (s gormStores) CustomCircuits() CustomCircuitRepo { return customCircuitRepo{s.db} }
func (s gormStores) Albums() AlbumRepo                 { return albumRepo{s.db} }
func (s gormStores) Points() PointsRepo                { return pointsRepo{s.db} }

// GormStore Store 的 gorm 实现
type GormStore struct {
	gormStores
}

func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{gormStores{db: db}}
}

// Tx 事务内的写操作与行锁都走主库
func (s *GormStore) Tx(ctx context.Context, fn func(tx Stores) error) error {
	return s.db.WithContext(ctx).Clauses(dbresolver.Write).Transaction(func(tx *gorm.DB) error {
		return fn(gormStores{db: tx})
	})
}

// ReadOnly 未注册 dbresolver 时该子句不生效，仍然使用主库
func (s *GormStore) ReadOnly() Stores {
	return gormStores{db: s.db.Clauses(dbresolver.Read)}
}

// forUpdate SELECT ... FOR UPDATE
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// notDeleted 软删除标记与 gorm 的 deleted_at 两者都要过滤
func notDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false)
}

type idCount struct {
	ID    int64
	Count int
}

func toCountMap(rows []idCount) map[int64]int {
	m := make(map[int64]int, len(rows))
	for _, r := range rows {
		m[r.ID] = r.Count
	}
	return m
}

var _ Store = (*GormStore)(nil)
