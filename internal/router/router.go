package router

import (
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"

	"TourRoute/internal/handler"
	"TourRoute/internal/middleware"
)

// Handlers 路由依赖的业务处理器
type Handlers struct {
	Routes         *handler.RouteHandler
	CustomCircuits *handler.CustomCircuitHandler
}

// Register auth 为 /v1 分组的鉴权中间件，测试时可替换
func Register(h *server.Hertz, hs Handlers, auth app.HandlerFunc) {
	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())

	h.GET("/healthz", handler.Healthz)

	v1 := h.Group("/v1", auth, middleware.HTTPMetricsMiddleware())

	routes := v1.Group("/routes")
	{
		routes.POST("/start", hs.Routes.StartRoute)
		routes.POST("/trace", middleware.TraceRateLimitMiddleware(), hs.Routes.RecordTrace)
		routes.POST("/remove-poi", hs.Routes.RemovePOI)
		routes.POST("/add-poi", hs.Routes.AddPOIBack)
		routes.POST("/reorder-pois", hs.Routes.ReorderPOIs)
		routes.POST("/save", hs.Routes.SaveRoute)
		routes.GET("/user", hs.Routes.ListCompletedRoutes)
		routes.GET("/:id", hs.Routes.GetRouteDetail)
	}

	customCircuits := v1.Group("/custom-circuits")
	{
		customCircuits.POST("", hs.CustomCircuits.Create)
		customCircuits.GET("/user", hs.CustomCircuits.ListMine)
		customCircuits.GET("/:id", hs.CustomCircuits.Get)
		customCircuits.PUT("/:id", hs.CustomCircuits.Update)
		customCircuits.DELETE("/:id", hs.CustomCircuits.Delete)
	}
}
