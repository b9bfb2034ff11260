package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"TourRoute/internal/model"
)

type circuitRepo struct {
	db *gorm.DB
}

// "order" 是保留字，交给 gorm 加引号
var byCircuitOrder = clause.OrderByColumn{Column: clause.Column{Table: "circuit_pois", Name: "order"}}

// liveCircuitPOIs 线路下未删除的 POI 关联
func liveCircuitPOIs(db *gorm.DB, circuitID int64) *gorm.DB {
	return db.Model(&model.CircuitPOI{}).
		Joins("JOIN pois ON pois.id = circuit_pois.poi_id AND pois.is_deleted = ? AND pois.deleted_at IS NULL", false).
		Where("circuit_pois.circuit_id = ?", circuitID)
}

func (r circuitRepo) FindCircuit(ctx context.Context, circuitID int64) (*model.Circuit, error) {
	var c model.Circuit
	err := notDeleted(r.db.WithContext(ctx)).
		Where("id = ?", circuitID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r circuitRepo) OriginalPOIIDs(ctx context.Context, target model.RouteTarget) ([]int64, error) {
	switch target.Kind {
	case model.TargetFixed:
		// 线路下架后进行中的路线仍按原 POI 判定
		var c model.Circuit
		err := r.db.WithContext(ctx).Unscoped().
			Select("id").
			Where("id = ?", target.ID).
			First(&c).Error
		if err != nil {
			return nil, err
		}
		var ids []int64
		err = liveCircuitPOIs(r.db.WithContext(ctx), target.ID).
			Order(byCircuitOrder).
			Pluck("circuit_pois.poi_id", &ids).Error
		return ids, err

	case model.TargetCustom:
		// 线路删除后进行中的路线仍按原选择判定
		var cc model.CustomCircuit
		err := r.db.WithContext(ctx).Unscoped().
			Select("id", "selected_pois").
			Where("id = ?", target.ID).
			First(&cc).Error
		if err != nil {
			return nil, err
		}
		return []int64(cc.SelectedPOIs), nil

	case model.TargetPOI:
		return []int64{target.ID}, nil
	}
	return nil, fmt.Errorf("unknown target kind %q", target.Kind)
}

func (r circuitRepo) IsPOIMember(ctx context.Context, target model.RouteTarget, poiID int64) (bool, error) {
	switch target.Kind {
	case model.TargetFixed:
		var n int64
		err := liveCircuitPOIs(r.db.WithContext(ctx), target.ID).
			Where("circuit_pois.poi_id = ?", poiID).
			Count(&n).Error
		return n > 0, err

	case model.TargetCustom:
		ids, err := r.OriginalPOIIDs(ctx, target)
		if err != nil {
			return false, err
		}
		return model.POIIDList(ids).Contains(poiID), nil

	case model.TargetPOI:
		return target.ID == poiID, nil
	}
	return false, fmt.Errorf("unknown target kind %q", target.Kind)
}

func (r circuitRepo) CircuitPOIs(ctx context.Context, circuitID int64) ([]model.CircuitPOI, error) {
	var links []model.CircuitPOI
	err := r.db.WithContext(ctx).
		Where("circuit_id = ?", circuitID).
		Order(byCircuitOrder).
		Find(&links).Error
	return links, err
}

func (r circuitRepo) FindPOIs(ctx context.Context, poiIDs []int64) ([]model.POI, error) {
	if len(poiIDs) == 0 {
		return nil, nil
	}
	var pois []model.POI
	err := notDeleted(r.db.WithContext(ctx)).
		Where("id IN ?", poiIDs).
		Find(&pois).Error
	return pois, err
}

func (r circuitRepo) CoverImages(ctx context.Context, poiIDs []int64) (map[int64]string, error) {
	images := make(map[int64]string, len(poiIDs))
	if len(poiIDs) == 0 {
		return images, nil
	}
	var files []model.POIFile
	err := r.db.WithContext(ctx).
		Where("poi_id IN ? AND type = ?", poiIDs, model.POIFileImage).
		Order("id ASC").
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, ok := images[f.POIID]; !ok {
			images[f.POIID] = f.FileURL
		}
	}
	return images, nil
}

func (r circuitRepo) CountCircuitPOIs(ctx context.Context, circuitIDs []int64) (map[int64]int, error) {
	if len(circuitIDs) == 0 {
		return map[int64]int{}, nil
	}
	var rows []idCount
	err := r.db.WithContext(ctx).
		Model(&model.CircuitPOI{}).
		Select("circuit_id AS id, COUNT(*) AS count").
		Where("circuit_id IN ?", circuitIDs).
		Group("circuit_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

func (r circuitRepo) FindCircuitsByIDs(ctx context.Context, circuitIDs []int64) ([]model.Circuit, error) {
	if len(circuitIDs) == 0 {
		return nil, nil
	}
	var circuits []model.Circuit
	err := r.db.WithContext(ctx).Unscoped().
		Where("id IN ?", circuitIDs).
		Find(&circuits).Error
	return circuits, err
}
