package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"TourRoute/internal/model"
	"TourRoute/internal/model/dto"
	"TourRoute/internal/repository"
	pkgerrors "TourRoute/pkg/errors"
	"TourRoute/pkg/logger"
	"TourRoute/pkg/validation"
	"TourRoute/storage/database"
)

type CustomCircuitService struct {
	store repository.Store
}

var (
	customCircuitService *CustomCircuitService
	customCircuitOnce    sync.Once
)

func CustomCircuit() *CustomCircuitService {
	customCircuitOnce.Do(func() {
		customCircuitService = NewCustomCircuitService(repository.NewStore(database.DB()))
	})
	return customCircuitService
}

func NewCustomCircuitService(store repository.Store) *CustomCircuitService {
	return &CustomCircuitService{store: store}
}

// IsPermutation ordered 与 current 元素互不重复且集合相同
func IsPermutation(current, ordered []int64) bool {
	if len(current) != len(ordered) {
		return false
	}
	want := make(map[int64]struct{}, len(current))
	for _, id := range current {
		want[id] = struct{}{}
	}
	if len(want) != len(current) {
		return false
	}
	seen := make(map[int64]struct{}, len(ordered))
	for _, id := range ordered {
		if _, ok := want[id]; !ok {
			return false
		}
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}

func hasDuplicate(ids []int64) bool {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}

// checkSelection 不允许重复，且每个 POI 都必须存在
func (s *CustomCircuitService) checkSelection(ctx context.Context, ids []int64) error {
	if hasDuplicate(ids) {
		return pkgerrors.DuplicatePOI
	}
	n, err := s.store.CustomCircuits().CountExistingPOIs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to check pois: %w", err)
	}
	if n != int64(len(ids)) {
		return pkgerrors.POINotFound.WithMessage("One or more selected POIs do not exist")
	}
	return nil
}

func (s *CustomCircuitService) Create(
	ctx context.Context,
	userID int64,
	req dto.CreateCustomCircuitRequest,
) (*dto.CustomCircuitItem, error) {
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if err := s.checkSelection(ctx, req.SelectedPOIs); err != nil {
		return nil, err
	}

	cc := &model.CustomCircuit{
		StartDate:         req.StartDate,
		StartPoint:        req.StartPoint,
		EndPoint:          req.EndPoint,
		Name:              req.Name,
		Description:       req.Description,
		SelectedPOIs:      model.POIIDList(req.SelectedPOIs),
		UserID:            userID,
		EstimatedDuration: req.EstimatedDuration,
	}
	if err := s.store.CustomCircuits().CreateCustomCircuit(ctx, cc); err != nil {
		return nil, fmt.Errorf("failed to create custom circuit: %w", err)
	}

	logger.Logger.Info("Custom circuit created",
		zap.Int64("user_id", userID),
		zap.Int64("custom_circuit_id", cc.ID),
		zap.Int("pois", len(cc.SelectedPOIs)),
	)
	item := toCustomCircuitItem(cc)
	return &item, nil
}

func (s *CustomCircuitService) ListMine(ctx context.Context, userID int64) ([]dto.CustomCircuitItem, error) {
	list, err := s.store.CustomCircuits().ListCustomCircuits(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom circuits: %w", err)
	}
	items := make([]dto.CustomCircuitItem, 0, len(list))
	for i := range list {
		items = append(items, toCustomCircuitItem(&list[i]))
	}
	return items, nil
}

func (s *CustomCircuitService) Get(ctx context.Context, userID, id int64) (*dto.CustomCircuitItem, error) {
	cc, err := s.findOwned(ctx, s.store, id, userID)
	if err != nil {
		return nil, err
	}
	item := toCustomCircuitItem(cc)
	return &item, nil
}

// Update 只修改请求中给出的字段
func (s *CustomCircuitService) Update(
	ctx context.Context,
	userID, id int64,
	req dto.UpdateCustomCircuitRequest,
) (*dto.CustomCircuitItem, error) {
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if req.SelectedPOIs != nil {
		if err := s.checkSelection(ctx, req.SelectedPOIs); err != nil {
			return nil, err
		}
	}

	var cc *model.CustomCircuit
	err := s.store.Tx(ctx, func(tx repository.Stores) error {
		locked, err := tx.CustomCircuits().LockCustomCircuit(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.CustomCircuitNotFound
			}
			return fmt.Errorf("failed to lock custom circuit: %w", err)
		}
		if locked.UserID != userID {
			return pkgerrors.CustomCircuitNotFound
		}

		if req.Name != nil {
			locked.Name = *req.Name
		}
		if req.Description != nil {
			locked.Description = *req.Description
		}
		if req.EstimatedDuration != nil {
			locked.EstimatedDuration = *req.EstimatedDuration
		}
		if req.StartDate != nil {
			locked.StartDate = req.StartDate
		}
		if req.StartPoint != nil {
			locked.StartPoint = req.StartPoint
		}
		if req.EndPoint != nil {
			locked.EndPoint = req.EndPoint
		}
		if req.SelectedPOIs != nil {
			locked.SelectedPOIs = model.POIIDList(req.SelectedPOIs)
		}

		if err := tx.CustomCircuits().SaveCustomCircuit(ctx, locked); err != nil {
			return fmt.Errorf("failed to update custom circuit: %w", err)
		}
		cc = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	item := toCustomCircuitItem(cc)
	return &item, nil
}

// Delete 软删除，已有路线仍可查看历史
func (s *CustomCircuitService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.findOwned(ctx, s.store, id, userID); err != nil {
		return err
	}
	if err := s.store.CustomCircuits().SoftDeleteCustomCircuit(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to delete custom circuit: %w", err)
	}
	logger.Logger.Info("Custom circuit deleted",
		zap.Int64("user_id", userID),
		zap.Int64("custom_circuit_id", id),
	)
	return nil
}

func (s *CustomCircuitService) findOwned(
	ctx context.Context,
	stores repository.Stores,
	id, userID int64,
) (*model.CustomCircuit, error) {
	cc, err := stores.CustomCircuits().FindOwnedCustomCircuit(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.CustomCircuitNotFound
		}
		return nil, fmt.Errorf("failed to get custom circuit: %w", err)
	}
	return cc, nil
}

func toCustomCircuitItem(cc *model.CustomCircuit) dto.CustomCircuitItem {
	selected := make([]int64, len(cc.SelectedPOIs))
	copy(selected, cc.SelectedPOIs)
	return dto.CustomCircuitItem{
		CreatedAt:         cc.CreatedAt,
		UpdatedAt:         cc.UpdatedAt,
		StartDate:         cc.StartDate,
		StartPoint:        cc.StartPoint,
		EndPoint:          cc.EndPoint,
		Name:              cc.Name,
		Description:       cc.Description,
		SelectedPOIs:      selected,
		ID:                cc.ID,
		EstimatedDuration: cc.EstimatedDuration,
	}
}
