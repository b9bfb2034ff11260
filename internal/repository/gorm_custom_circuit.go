package repository

import (
	"context"

	"gorm.io/gorm"

	"TourRoute/internal/model"
)

type customCircuitRepo struct {
	db *gorm.DB
}

func (r customCircuitRepo) FindCustomCircuit(ctx context.Context, id int64) (*model.CustomCircuit, error) {
	var cc model.CustomCircuit
	err := notDeleted(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&cc).Error
	if err != nil {
		return nil, err
	}
	return &cc, nil
}

func (r customCircuitRepo) LockCustomCircuit(ctx context.Context, id int64) (*model.CustomCircuit, error) {
	var cc model.CustomCircuit
	err := notDeleted(forUpdate(r.db.WithContext(ctx))).
		Where("id = ?", id).
		First(&cc).Error
	if err != nil {
		return nil, err
	}
	return &cc, nil
}

func (r customCircuitRepo) FindOwnedCustomCircuit(ctx context.Context, id, userID int64) (*model.CustomCircuit, error) {
	var cc model.CustomCircuit
	err := notDeleted(r.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", id, userID).
		First(&cc).Error
	if err != nil {
		return nil, err
	}
	return &cc, nil
}

func (r customCircuitRepo) ListCustomCircuits(ctx context.Context, userID int64) ([]model.CustomCircuit, error) {
	var list []model.CustomCircuit
	err := notDeleted(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r customCircuitRepo) CreateCustomCircuit(ctx context.Context, cc *model.CustomCircuit) error {
	return r.db.WithContext(ctx).Create(cc).Error
}

func (r customCircuitRepo) SaveCustomCircuit(ctx context.Context, cc *model.CustomCircuit) error {
	return r.db.WithContext(ctx).Save(cc).Error
}

func (r customCircuitRepo) UpdateSelectedPOIs(ctx context.Context, id int64, ids model.POIIDList) error {
	return r.db.WithContext(ctx).
		Model(&model.CustomCircuit{}).
		Where("id = ?", id).
		Update("selected_pois", ids).Error
}

// SoftDeleteCustomCircuit 同时写 is_deleted 与 deleted_at
func (r customCircuitRepo) SoftDeleteCustomCircuit(ctx context.Context, id, userID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.CustomCircuit{}).
			Where("id = ? AND user_id = ?", id, userID).
			Update("is_deleted", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.CustomCircuit{}).Error
	})
}

func (r customCircuitRepo) FindCustomCircuitsByIDs(ctx context.Context, ids []int64) ([]model.CustomCircuit, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []model.CustomCircuit
	err := r.db.WithContext(ctx).Unscoped().
		Where("id IN ?", ids).
		Find(&list).Error
	return list, err
}

func (r customCircuitRepo) CountExistingPOIs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := notDeleted(r.db.WithContext(ctx).Model(&model.POI{})).
		Where("id IN ?", ids).
		Count(&n).Error
	return n, err
}
