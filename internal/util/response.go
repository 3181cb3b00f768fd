package util

import (
	"errors"
	"intervention_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Success: true,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带提示信息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 请求参数错误
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound 资源不存在
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	Error(c, http.StatusNotFound, message)
}

// InternalServerError 服务器内部错误
func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

// LogInternalError 记录错误日志并返回500
func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err), zap.String("path", c.FullPath()))
	InternalServerError(c)
}

// HandleError 根据错误类型返回对应的HTTP状态码
func HandleError(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		LogInternalError(c, err)
		return
	}
	switch appErr.Kind {
	case KindValidation:
		BadRequest(c, appErr.Message)
	case KindNotFound:
		NotFound(c, appErr.Message)
	default:
		LogInternalError(c, err)
	}
}
