package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"TourRoute/internal/model/dto"
	"TourRoute/pkg/response"
)

// CustomCircuitOperations 自定义线路 CRUD
type CustomCircuitOperations interface {
	Create(ctx context.Context, userID int64, req dto.CreateCustomCircuitRequest) (*dto.CustomCircuitItem, error)
	ListMine(ctx context.Context, userID int64) ([]dto.CustomCircuitItem, error)
	Get(ctx context.Context, userID, id int64) (*dto.CustomCircuitItem, error)
	Update(ctx context.Context, userID, id int64, req dto.UpdateCustomCircuitRequest) (*dto.CustomCircuitItem, error)
	Delete(ctx context.Context, userID, id int64) error
}

type CustomCircuitHandler struct {
	circuits CustomCircuitOperations
}

func NewCustomCircuitHandler(circuits CustomCircuitOperations) *CustomCircuitHandler {
	return &CustomCircuitHandler{circuits: circuits}
}

// Create POST /v1/custom-circuits
func (h *CustomCircuitHandler) Create(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}
	var req dto.CreateCustomCircuitRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	item, err := h.circuits.Create(ctx, userID, req)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Created(ctx, c, item)
}

// ListMine GET /v1/custom-circuits/user
func (h *CustomCircuitHandler) ListMine(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	items, err := h.circuits.ListMine(ctx, userID)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.SuccessWithMeta(ctx, c, items, map[string]interface{}{"total": len(items)})
}

// Get GET /v1/custom-circuits/:id
func (h *CustomCircuitHandler) Get(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}
	id, ok := pathID(ctx, c)
	if !ok {
		return
	}

	item, err := h.circuits.Get(ctx, userID, id)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Success(ctx, c, item)
}

// Update PUT /v1/custom-circuits/:id
func (h *CustomCircuitHandler) Update(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}
	id, ok := pathID(ctx, c)
	if !ok {
		return
	}
	var req dto.UpdateCustomCircuitRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	item, err := h.circuits.Update(ctx, userID, id, req)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Success(ctx, c, item)
}

// Delete DELETE /v1/custom-circuits/:id
func (h *CustomCircuitHandler) Delete(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}
	id, ok := pathID(ctx, c)
	if !ok {
		return
	}

	if err := h.circuits.Delete(ctx, userID, id); err != nil {
		writeError(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}
