package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"TourRoute/internal/model"
)

type pointsRepo struct {
	db *gorm.DB
}

func (r pointsRepo) Award(ctx context.Context, award *model.PointAward) (int, bool, error) {
	var (
		total   int
		awarded bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_key"}},
			DoNothing: true,
		}).Create(award)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var err error
			total, err = currentTotal(tx, award.UserID)
			return err
		}

		awarded = true
		if err := addPoints(tx, award.UserID, award.Points); err != nil {
			return err
		}
		var err error
		total, err = currentTotal(tx, award.UserID)
		return err
	})
	return total, awarded, err
}

func (r pointsRepo) Credit(ctx context.Context, userID int64, points int) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := addPoints(tx, userID, points); err != nil {
			return err
		}
		var err error
		total, err = currentTotal(tx, userID)
		return err
	})
	return total, err
}

func addPoints(tx *gorm.DB, userID int64, points int) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_points": gorm.Expr("user_points.total_points + ?", points),
			"updated_at":   gorm.Expr("now()"),
		}),
	}).Create(&model.UserPoints{UserID: userID, TotalPoints: points, Level: 1}).Error
}

func currentTotal(tx *gorm.DB, userID int64) (int, error) {
	var totals []int
	err := tx.Model(&model.UserPoints{}).
		Where("user_id = ?", userID).
		Pluck("total_points", &totals).Error
	if err != nil || len(totals) == 0 {
		return 0, err
	}
	return totals[0], nil
}
