package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"TourRoute/internal/model"
)

type albumRepo struct {
	db *gorm.DB
}

func (r albumRepo) CreateAlbum(ctx context.Context, album *model.Album) error {
	return r.db.WithContext(ctx).Create(album).Error
}

func (r albumRepo) AlbumFiles(ctx context.Context, poiIDs []int64) ([]model.POIFile, error) {
	if len(poiIDs) == 0 {
		return nil, nil
	}
	var files []model.POIFile
	err := r.db.WithContext(ctx).
		Where("poi_id IN ? AND type = ?", poiIDs, model.POIFileImageAlbum).
		Order("id ASC").
		Find(&files).Error
	return files, err
}

// AttachFiles 批量插入，重复条目忽略
func (r albumRepo) AttachFiles(ctx context.Context, items []model.AlbumPOI) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(items, 100).Error
}
