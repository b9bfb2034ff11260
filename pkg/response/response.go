package response

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"TourRoute/pkg/errors"
	"TourRoute/pkg/logger"
)

// ErrorResponse 统一的错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Details map[string]interface{} `json:"details,omitempty"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
}

// SuccessResponse 统一的成功响应格式
type SuccessResponse struct {
	Data interface{}            `json:"data"`
	Meta map[string]interface{} `json:"meta,omitempty"`
}

func kindToHTTPStatus(kind errors.Kind) int {
	switch kind {
	case errors.KindValidation, errors.KindInvalidOperation:
		return http.StatusBadRequest // 400
	case errors.KindUnauthorized:
		return http.StatusUnauthorized // 401
	case errors.KindNotFound:
		return http.StatusNotFound // 404
	case errors.KindConflict:
		return http.StatusConflict // 409
	case errors.KindTooManyRequests:
		return http.StatusTooManyRequests // 429
	default:
		return http.StatusInternalServerError // 500
	}
}

// resolve 非业务错误统一为 INTERNAL_ERROR，原始信息只写日志
func resolve(c *app.RequestContext, err error) (int, errors.Definition) {
	def, ok := errors.As(err)
	if !ok {
		logger.Logger.Error("Unhandled internal error",
			zap.String("path", string(c.Request.URI().Path())),
			zap.String("method", string(c.Method())),
			zap.Error(err),
		)
		return http.StatusInternalServerError, errors.Internal
	}

	status := kindToHTTPStatus(def.Kind)
	if status == http.StatusInternalServerError {
		logger.Logger.Error("Internal business error",
			zap.String("path", string(c.Request.URI().Path())),
			zap.String("code", def.Code),
			zap.Error(err),
		)
		return status, errors.Internal
	}
	return status, def
}

// Error 返回错误响应
func Error(ctx context.Context, c *app.RequestContext, err error) {
	ErrorWithDetails(ctx, c, err, nil)
}

func ErrorWithDetails(ctx context.Context, c *app.RequestContext, err error, details map[string]interface{}) {
	statusCode, def := resolve(c, err)

	c.JSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    def.Code,
			Message: def.Message,
			Details: details,
		},
	})
}

func Success(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
	})
}

// Created 返回 201
func Created(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Data: data,
	})
}

func SuccessWithMeta(ctx context.Context, c *app.RequestContext, data interface{}, meta map[string]interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

func BindError(ctx context.Context, c *app.RequestContext, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    errors.InvalidRequest.Code,
			Message: err.Error(),
		},
	})
}

// NoContent 返回 204 No Content（用于 DELETE 等操作）
func NoContent(ctx context.Context, c *app.RequestContext) {
	c.Status(http.StatusNoContent)
}
