package util

import (
	"errors"
	"learnhire_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构，业务字段平铺在顶层
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func envelope(success bool, message string, data gin.H) gin.H {
	body := gin.H{"success": success}
	if message != "" {
		body["message"] = message
	}
	for k, v := range data {
		body[k] = v
	}
	return body
}

func Success(c *gin.Context, data gin.H) {
	c.JSON(http.StatusOK, envelope(true, "", data))
}

func SuccessMessage(c *gin.Context, message string, data ...gin.H) {
	var extra gin.H
	if len(data) > 0 {
		extra = data[0]
	}
	c.JSON(http.StatusOK, envelope(true, message, extra))
}

func Created(c *gin.Context, message string, data gin.H) {
	c.JSON(http.StatusCreated, envelope(true, message, data))
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{Success: false, Message: message})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

// StatusOf 错误分类到 HTTP 状态码
func StatusOf(err error) int {
	var verr *ValidationError
	var perr *ProviderError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotEligible):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.As(err, &perr):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// HandleError 统一把业务错误转换为 {success:false, message}
func HandleError(c *gin.Context, err error) {
	code := StatusOf(err)
	if code >= http.StatusInternalServerError {
		logger.Log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	Error(c, code, err.Error())
}
