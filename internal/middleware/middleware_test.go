package middleware

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TourRoute/pkg/errors"
	"TourRoute/pkg/response"
)

func newEngine(handlers ...app.HandlerFunc) *server.Hertz {
	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	h.Use(handlers...)
	return h
}

func TestGetUserID(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		set    bool
		wantID int64
		wantOK bool
	}{
		{"missing", nil, false, 0, false},
		{"int64", int64(42), true, 42, true},
		{"zero", int64(0), true, 0, false},
		{"wrong type", "42", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := app.NewContext(0)
			if tt.set {
				c.Set(IdentityKey, tt.value)
			}
			id, ok := GetUserID(context.Background(), c)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestRateLimitPassesThroughWithoutRedis(t *testing.T) {
	h := newEngine(RateLimitMiddleware(RateLimitConfig{
		KeyPrefix:   "test",
		Window:      time.Minute,
		MaxRequests: 1,
		ByIP:        true,
	}))
	h.POST("/trace", func(ctx context.Context, c *app.RequestContext) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := ut.PerformRequest(h.Engine, http.MethodPost, "/trace", nil)
		assert.Equal(t, http.StatusOK, w.Result().StatusCode())
		assert.Empty(t, w.Result().Header.Get("X-RateLimit-Limit"))
	}
}

func TestRecoverMiddleware(t *testing.T) {
	h := newEngine(RecoverMiddlewareWithConfig(RecoverConfig{}))
	h.GET("/boom", func(ctx context.Context, c *app.RequestContext) {
		panic("nil map write")
	})

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/boom", nil)
	require.Equal(t, http.StatusInternalServerError, w.Result().StatusCode())

	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Result().Body(), &body))
	assert.Equal(t, errors.Internal.Code, body.Error.Code)
	assert.NotEmpty(t, body.Error.Details["reference"])
	assert.NotContains(t, string(w.Result().Body()), "nil map write")
}

func TestCORSMiddleware(t *testing.T) {
	h := newEngine(CORSMiddleware())
	h.GET("/ping", func(ctx context.Context, c *app.RequestContext) {
		c.Status(http.StatusOK)
	})

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/ping", nil, ut.Header{Key: "Origin", Value: "https://app.example.com"})
	assert.Equal(t, http.StatusOK, w.Result().StatusCode())
	assert.Equal(t, "https://app.example.com", w.Result().Header.Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Result().Header.Get("Access-Control-Allow-Credentials"))

	w = ut.PerformRequest(h.Engine, http.MethodGet, "/ping", nil)
	assert.Equal(t, "*", w.Result().Header.Get("Access-Control-Allow-Origin"))
}
