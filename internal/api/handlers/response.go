// Package handlers 放各個 handler 共用的回應格式
package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lifecode-recipe/internal/pkg/common"
)

// RespondError 依錯誤類型回傳狀態碼與 ErrorResponse；debug 時附上底層錯誤
func RespondError(c *gin.Context, err error, debug bool) {
	status := common.StatusOf(err)
	if status >= 500 {
		common.LogError("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("code", common.CodeOf(err)),
			zap.String("request_id", common.RequestIDFrom(c.Request.Context())),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, common.ErrorBody(err, debug))
}

// BadRequest 請求格式錯誤
func BadRequest(c *gin.Context, err error, debug bool) {
	RespondError(c, common.ErrInvalidRequest.Wrap(err), debug)
}
