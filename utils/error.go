package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic", zap.Any("error", err), zap.String("path", c.FullPath()))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error:   "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// ContextLogger returns the request-scoped logger stored under LoggerKey, or the global one.
func ContextLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get(LoggerKey); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return GetLogger()
}

// JSONError sends a standardized JSON error response. Details are always
// logged but only returned to the client for statuses below 500.
func JSONError(c *gin.Context, status int, code, message, details string) {
	fields := []zap.Field{zap.Int("status", status), zap.String("path", c.FullPath())}
	if code != "" {
		fields = append(fields, zap.String("code", code))
	}
	if details != "" {
		fields = append(fields, zap.String("details", details))
	}

	resp := ErrorResponse{Error: message, Code: code}
	if status >= http.StatusInternalServerError {
		ContextLogger(c).Error(message, fields...)
	} else {
		ContextLogger(c).Warn(message, fields...)
		resp.Details = details
	}
	c.AbortWithStatusJSON(status, resp)
}
