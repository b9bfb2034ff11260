package handler

import (
	"context"
	stderrors "errors"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"TourRoute/internal/middleware"
	"TourRoute/pkg/errors"
	"TourRoute/pkg/response"
	"TourRoute/pkg/validation"
)

// currentUser 鉴权中间件写入的用户ID，缺失时直接返回 401
func currentUser(ctx context.Context, c *app.RequestContext) (int64, bool) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return 0, false
	}
	return userID, true
}

// pathID 解析路径中的 :id
func pathID(ctx context.Context, c *app.RequestContext) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(ctx, c, errors.InvalidRequest.WithMessage("Invalid path parameter: id"))
		return 0, false
	}
	return id, true
}

// bindJSON 请求体解析失败统一返回 INVALID_REQUEST
func bindJSON(ctx context.Context, c *app.RequestContext, req interface{}) bool {
	if err := c.BindJSON(req); err != nil {
		response.BindError(ctx, c, err)
		return false
	}
	return true
}

// writeError 校验错误附带字段详情
func writeError(ctx context.Context, c *app.RequestContext, err error) {
	var verr *validation.RequestValidationError
	if stderrors.As(err, &verr) {
		response.ErrorWithDetails(ctx, c, err, verr.Details())
		return
	}
	response.Error(ctx, c, err)
}
