package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lifecode-recipe/internal/pkg/common"
)

// RequestContext 把 requestid 產生的 ID 放進 request context，讓下游日誌能帶上
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := requestid.Get(c); id != "" {
			c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), id))
		}
		c.Next()
	}
}

// Logger 請求日誌
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.String("user-agent", c.Request.UserAgent()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", common.RequestIDFrom(c.Request.Context())),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			common.LogError("伺服器錯誤", append(fields, zap.String("error_type", "server_error"))...)
		case status >= http.StatusBadRequest:
			common.LogWarn("用戶端錯誤", append(fields, zap.String("error_type", "client_error"))...)
		default:
			common.LogInfo("請求完成", fields...)
		}
	}
}

// Recovery 捕捉 panic 並回傳 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				common.LogError("Panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.String("request_id", common.RequestIDFrom(c.Request.Context())),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, common.ErrorResponse{
					Code:    common.ErrCodeInternalError,
					Message: "internal server error",
				})
			}
		}()
		c.Next()
	}
}
