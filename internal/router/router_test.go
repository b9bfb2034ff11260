package router

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TourRoute/internal/handler"
	"TourRoute/internal/middleware"
	"TourRoute/internal/model"
	"TourRoute/internal/model/dto"
	"TourRoute/pkg/errors"
	"TourRoute/pkg/response"
	"TourRoute/pkg/validation"
)

const testUserID int64 = 7

type fakeRoutes struct {
	lastUser  int64
	lastRoute int64
	traceErr  error
}

func (f *fakeRoutes) StartRoute(_ context.Context, userID int64, req dto.StartRouteRequest) (*dto.StartRouteResponse, error) {
	f.lastUser = userID
	return &dto.StartRouteResponse{
		Circuit:    dto.CircuitSummary{Kind: model.TargetFixed, ID: req.CircuitID, Name: "Louvre tour"},
		FirstTrace: dto.TraceItem{ID: 1, RouteID: 11},
		RouteID:    11,
	}, nil
}

func (f *fakeRoutes) RecordTrace(_ context.Context, userID int64, req dto.RecordTraceRequest) (*dto.RecordTraceResponse, error) {
	f.lastUser = userID
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if f.traceErr != nil {
		return nil, f.traceErr
	}
	return &dto.RecordTraceResponse{IsRouteCompleted: true}, nil
}

func (f *fakeRoutes) RemovePOI(_ context.Context, _ int64, req dto.RoutePOIRequest) (*dto.RemovePOIResponse, error) {
	return &dto.RemovePOIResponse{RemovedTrace: dto.RemovedTraceItem{RouteID: req.RouteID, POIID: req.POIID}}, nil
}

func (f *fakeRoutes) AddPOIBack(_ context.Context, _ int64, _ dto.RoutePOIRequest) (*dto.AddPOIBackResponse, error) {
	return &dto.AddPOIBackResponse{}, nil
}

func (f *fakeRoutes) ReorderCustomCircuitPOIs(_ context.Context, _ int64, _ dto.ReorderPOIsRequest) (*dto.ReorderPOIsResponse, error) {
	return nil, errors.RouteNotCustom
}

func (f *fakeRoutes) SaveNavigationRoute(_ context.Context, _ int64, req dto.SaveRouteRequest) (*dto.RouteItem, error) {
	return &dto.RouteItem{ID: 12, Target: model.RouteTarget{Kind: model.TargetPOI, ID: req.POIID}, IsCompleted: true}, nil
}

func (f *fakeRoutes) ListCompletedRoutes(_ context.Context, _ int64) (*dto.CompletedRoutesResponse, error) {
	return &dto.CompletedRoutesResponse{Routes: []dto.CompletedRouteItem{}, Stats: dto.RouteStats{TotalRoutes: 0}}, nil
}

func (f *fakeRoutes) GetRouteDetail(_ context.Context, _ int64, routeID int64) (*dto.RouteDetail, error) {
	f.lastRoute = routeID
	if routeID == 404 {
		return nil, errors.RouteNotFound
	}
	return &dto.RouteDetail{Route: dto.RouteItem{ID: routeID}}, nil
}

type fakeCustomCircuits struct {
	deleted []int64
}

func (f *fakeCustomCircuits) Create(_ context.Context, _ int64, req dto.CreateCustomCircuitRequest) (*dto.CustomCircuitItem, error) {
	return &dto.CustomCircuitItem{ID: 31, Name: req.Name, SelectedPOIs: req.SelectedPOIs}, nil
}

func (f *fakeCustomCircuits) ListMine(_ context.Context, _ int64) ([]dto.CustomCircuitItem, error) {
	return []dto.CustomCircuitItem{{ID: 31}, {ID: 32}}, nil
}

func (f *fakeCustomCircuits) Get(_ context.Context, _ int64, id int64) (*dto.CustomCircuitItem, error) {
	return nil, errors.CustomCircuitNotFound
}

func (f *fakeCustomCircuits) Update(_ context.Context, _ int64, id int64, _ dto.UpdateCustomCircuitRequest) (*dto.CustomCircuitItem, error) {
	return &dto.CustomCircuitItem{ID: id}, nil
}

func (f *fakeCustomCircuits) Delete(_ context.Context, _ int64, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

// fakeAuth 有 X-Test-User 头时视为已登录
func fakeAuth(ctx context.Context, c *app.RequestContext) {
	if len(c.GetHeader("X-Test-User")) == 0 {
		response.Error(ctx, c, errors.Unauthorized)
		c.Abort()
		return
	}
	c.Set(middleware.IdentityKey, testUserID)
	c.Next(ctx)
}

func newTestServer(routes *fakeRoutes, circuits *fakeCustomCircuits) *server.Hertz {
	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	Register(h, Handlers{
		Routes:         handler.NewRouteHandler(routes),
		CustomCircuits: handler.NewCustomCircuitHandler(circuits),
	}, fakeAuth)
	return h
}

func perform(h *server.Hertz, method, path, body string) *ut.ResponseRecorder {
	headers := []ut.Header{
		{Key: "Content-Type", Value: "application/json"},
		{Key: "X-Test-User", Value: "7"},
	}
	var reqBody *ut.Body
	if body != "" {
		reqBody = &ut.Body{Body: bytes.NewBufferString(body), Len: len(body)}
	}
	return ut.PerformRequest(h.Engine, method, path, reqBody, headers...)
}

func decodeError(t *testing.T, w *ut.ResponseRecorder) response.ErrorDetail {
	t.Helper()
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Result().Body(), &resp))
	return resp.Error
}

func TestHealthz(t *testing.T) {
	h := newTestServer(&fakeRoutes{}, &fakeCustomCircuits{})
	w := ut.PerformRequest(h.Engine, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Result().StatusCode())
	assert.Contains(t, string(w.Result().Body()), `"status":"ok"`)
}

func TestRequiresAuthentication(t *testing.T) {
	h := newTestServer(&fakeRoutes{}, &fakeCustomCircuits{})
	w := ut.PerformRequest(h.Engine, http.MethodGet, "/v1/routes/user", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode())
	assert.Equal(t, errors.Unauthorized.Code, decodeError(t, w).Code)
}

func TestRouteEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"start", http.MethodPost, "/v1/routes/start", `{"circuit_id":100,"latitude":48.86,"longitude":2.33}`, http.StatusOK, ""},
		{"trace", http.MethodPost, "/v1/routes/trace", `{"route_id":11,"pois":[3]}`, http.StatusOK, ""},
		{"trace validation", http.MethodPost, "/v1/routes/trace", `{"pois":[3]}`, http.StatusBadRequest, errors.ValidationFailed.Code},
		{"trace malformed body", http.MethodPost, "/v1/routes/trace", `{"route_id":`, http.StatusBadRequest, errors.InvalidRequest.Code},
		{"remove poi", http.MethodPost, "/v1/routes/remove-poi", `{"route_id":11,"poi_id":3}`, http.StatusOK, ""},
		{"add poi back", http.MethodPost, "/v1/routes/add-poi", `{"route_id":11,"poi_id":3}`, http.StatusOK, ""},
		{"reorder on fixed circuit", http.MethodPost, "/v1/routes/reorder-pois", `{"route_id":11,"ordered_poi_ids":[1,2]}`, http.StatusBadRequest, errors.RouteNotCustom.Code},
		{"save navigation", http.MethodPost, "/v1/routes/save", `{"poi_id":1,"distance":10,"duration":5}`, http.StatusCreated, ""},
		{"list completed", http.MethodGet, "/v1/routes/user", "", http.StatusOK, ""},
		{"detail", http.MethodGet, "/v1/routes/11", "", http.StatusOK, ""},
		{"detail not found", http.MethodGet, "/v1/routes/404", "", http.StatusNotFound, errors.RouteNotFound.Code},
		{"detail bad id", http.MethodGet, "/v1/routes/abc", "", http.StatusBadRequest, errors.InvalidRequest.Code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routes := &fakeRoutes{}
			h := newTestServer(routes, &fakeCustomCircuits{})

			w := perform(h, tt.method, tt.path, tt.body)
			require.Equal(t, tt.wantStatus, w.Result().StatusCode(), string(w.Result().Body()))
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
			}
		})
	}
}

func TestTraceValidationDetails(t *testing.T) {
	h := newTestServer(&fakeRoutes{}, &fakeCustomCircuits{})

	w := perform(h, http.MethodPost, "/v1/routes/trace", `{"pois":[3]}`)
	require.Equal(t, http.StatusBadRequest, w.Result().StatusCode())
	detail := decodeError(t, w)
	assert.Equal(t, "route_id", detail.Details["field"])
	assert.Equal(t, "required", detail.Details["tag"])
}

func TestInternalErrorsAreMasked(t *testing.T) {
	routes := &fakeRoutes{traceErr: context.DeadlineExceeded}
	h := newTestServer(routes, &fakeCustomCircuits{})

	w := perform(h, http.MethodPost, "/v1/routes/trace", `{"route_id":11}`)
	require.Equal(t, http.StatusInternalServerError, w.Result().StatusCode())
	detail := decodeError(t, w)
	assert.Equal(t, errors.Internal.Code, detail.Code)
	assert.Equal(t, errors.Internal.Message, detail.Message)
}

func TestStartRoutePassesUser(t *testing.T) {
	routes := &fakeRoutes{}
	h := newTestServer(routes, &fakeCustomCircuits{})

	w := perform(h, http.MethodPost, "/v1/routes/start", `{"circuit_id":100}`)
	require.Equal(t, http.StatusOK, w.Result().StatusCode())
	assert.Equal(t, testUserID, routes.lastUser)

	var body struct {
		Data dto.StartRouteResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Result().Body(), &body))
	assert.Equal(t, int64(11), body.Data.RouteID)
	assert.Equal(t, "Louvre tour", body.Data.Circuit.Name)
}

func TestCustomCircuitEndpoints(t *testing.T) {
	circuits := &fakeCustomCircuits{}
	h := newTestServer(&fakeRoutes{}, circuits)

	w := perform(h, http.MethodPost, "/v1/custom-circuits", `{"name":"Morning","selected_pois":[1,2]}`)
	assert.Equal(t, http.StatusCreated, w.Result().StatusCode())

	w = perform(h, http.MethodGet, "/v1/custom-circuits/user", "")
	require.Equal(t, http.StatusOK, w.Result().StatusCode())
	var list struct {
		Data []dto.CustomCircuitItem `json:"data"`
		Meta map[string]interface{}  `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Result().Body(), &list))
	assert.Len(t, list.Data, 2)
	assert.EqualValues(t, 2, list.Meta["total"])

	w = perform(h, http.MethodGet, "/v1/custom-circuits/31", "")
	assert.Equal(t, http.StatusNotFound, w.Result().StatusCode())

	w = perform(h, http.MethodPut, "/v1/custom-circuits/31", `{"name":"Evening"}`)
	assert.Equal(t, http.StatusOK, w.Result().StatusCode())

	w = perform(h, http.MethodDelete, "/v1/custom-circuits/31", "")
	assert.Equal(t, http.StatusNoContent, w.Result().StatusCode())
	assert.Equal(t, []int64{31}, circuits.deleted)
}
