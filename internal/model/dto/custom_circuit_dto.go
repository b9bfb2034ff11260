package dto

import (
	"time"

	"TourRoute/internal/model"
)

// ========== CustomCircuit 相关 DTO ==========

// CreateCustomCircuitRequest 创建自定义线路请求
type CreateCustomCircuitRequest struct {
	StartDate         *time.Time      `json:"start_date,omitempty"`
	StartPoint        *model.GeoPoint `json:"start_point,omitempty"`
	EndPoint          *model.GeoPoint `json:"end_point,omitempty"`
	Name              string          `json:"name" validate:"required,max=255"`
	Description       string          `json:"description" validate:"max=2000"`
	SelectedPOIs      []int64         `json:"selected_pois" validate:"required,min=1,dive,gt=0"`
	EstimatedDuration int             `json:"estimated_duration" validate:"gte=0"`
}

// UpdateCustomCircuitRequest 更新自定义线路请求
type UpdateCustomCircuitRequest struct {
	StartDate         *time.Time      `json:"start_date,omitempty"`
	StartPoint        *model.GeoPoint `json:"start_point,omitempty"`
	EndPoint          *model.GeoPoint `json:"end_point,omitempty"`
	Name              *string         `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description       *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	EstimatedDuration *int            `json:"estimated_duration,omitempty" validate:"omitempty,gte=0"`
	SelectedPOIs      []int64         `json:"selected_pois,omitempty" validate:"omitempty,min=1,dive,gt=0"`
}

// CustomCircuitItem 自定义线路
type CustomCircuitItem struct {
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	StartDate         *time.Time      `json:"start_date,omitempty"`
	StartPoint        *model.GeoPoint `json:"start_point,omitempty"`
	EndPoint          *model.GeoPoint `json:"end_point,omitempty"`
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	SelectedPOIs      []int64         `json:"selected_pois"`
	ID                int64           `json:"id"`
	EstimatedDuration int             `json:"estimated_duration"`
}
