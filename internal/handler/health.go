package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

var startedAt = time.Now()

// Healthz 存活检查，不依赖外部服务
// GET /healthz
func Healthz(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": int64(time.Since(startedAt).Seconds()),
	})
}
