package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"TourRoute/internal/model"
	"TourRoute/pkg/logger"
)

// Migrate 运行数据库迁移，创建所有表
func Migrate() error {
	db := DB()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	logger.Logger.Info("Starting database migration...")

	err := db.AutoMigrate(
		&model.Circuit{},
		&model.CircuitPOI{},
		&model.POI{},
		&model.POIFile{},
		&model.CustomCircuit{},
		&model.Route{},
		&model.VisitedTrace{},
		&model.RemovedTrace{},
		&model.Album{},
		&model.AlbumPOI{},
		&model.UserPoints{},
		&model.PointAward{},
	)
	if err != nil {
		logger.Logger.Error("Database migration failed", zap.Error(err))
		return err
	}

	logger.Logger.Info("Database migration completed successfully")
	return nil
}
