package api

import (
	"errors"
	"net/http"

	"stockroom/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 错误码定义
const (
	// 通用错误码
	ErrCodeInvalidRequest     = "ERR_INVALID_REQUEST"
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodeInternalError      = "ERR_INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"

	// 认证错误码
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeEmailExists        = "ERR_EMAIL_EXISTS"
	ErrCodeUserDisabled       = "ERR_USER_DISABLED"
	ErrCodeSessionExpired     = "ERR_SESSION_EXPIRED"
	ErrCodeRateLimited        = "ERR_RATE_LIMITED"

	// 资源错误码
	ErrCodeUserNotFound = "ERR_USER_NOT_FOUND"
	ErrCodeItemNotFound = "ERR_ITEM_NOT_FOUND"

	// 业务逻辑错误码
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeMissingField = "ERR_MISSING_FIELD"
)

// APIError 统一的 API 错误响应结构
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse 返回统一格式的错误响应
func ErrorResponse(c *gin.Context, status int, code string, message string) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
	})
}

// ErrorResponseWithDetails 返回带详情的错误响应
func ErrorResponseWithDetails(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// 常用错误响应快捷函数

// BadRequest 400 错误请求
func BadRequest(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401 未授权
func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden 403 禁止访问
func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// NotFound 404 资源不存在
func NotFound(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusNotFound, code, message)
}

// InternalError 500 服务器内部错误
func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// ServiceUnavailable 503 服务不可用
func ServiceUnavailable(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message)
}

// TooManyRequests 429 触发限流
func TooManyRequests(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusTooManyRequests, ErrCodeRateLimited, message)
}

// InvalidPayload 无效的请求体
func InvalidPayload(c *gin.Context) {
	ErrorResponse(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request payload")
}

// RespondServiceError 将业务层错误映射为 HTTP 响应。notFoundCode 用于区分
// 用户与商品两类资源的 404。并发冲突对客户端同样表现为 404,但单独记一条日志。
func RespondServiceError(c *gin.Context, err error, notFoundCode string) {
	switch {
	case err == nil:
		return
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, notFoundCode, "resource not found")
	case errors.Is(err, service.ErrConflict):
		logrus.WithField("path", c.Request.URL.Path).Warn("conditional write lost a race")
		NotFound(c, notFoundCode, "resource not found")
	case errors.Is(err, service.ErrForbidden):
		Forbidden(c, "insufficient permissions")
	case errors.Is(err, service.ErrEmailExists):
		BadRequest(c, ErrCodeEmailExists, "email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		ErrorResponse(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid email or password")
	default:
		if ve, ok := service.AsValidation(err); ok {
			BadRequest(c, ErrCodeValidation, ve.Message)
			return
		}
		logrus.WithError(err).Error("request failed")
		InternalError(c, "internal server error")
	}
}
