package session

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lifecode-recipe/internal/api/handlers"
	"lifecode-recipe/internal/core/session"
	"lifecode-recipe/internal/pkg/common"
)

// HistoryResponse session 對話紀錄
type HistoryResponse struct {
	SessionID string            `json:"session_id"`
	Messages  []session.Message `json:"messages"`
}

// Handler session 處理程序
type Handler struct {
	sessions *session.Registry
	debug    bool
}

// NewHandler 創建 session 處理程序
func NewHandler(r *session.Registry, debug bool) *Handler {
	return &Handler{sessions: r, debug: debug}
}

// Register 註冊路由
func (h *Handler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/sessions")
	g.GET("/:id/history", h.HandleHistory)
	g.DELETE("/:id", h.HandleDelete)
}

// HandleHistory 取得對話紀錄
func (h *Handler) HandleHistory(c *gin.Context) {
	id := c.Param("id")
	s, ok := h.sessions.Get(id)
	if !ok {
		handlers.RespondError(c, common.ErrSessionNotFound, h.debug)
		return
	}
	msgs := s.History()
	if msgs == nil {
		msgs = []session.Message{}
	}
	c.JSON(http.StatusOK, HistoryResponse{SessionID: id, Messages: msgs})
}

// HandleDelete 結束 session
func (h *Handler) HandleDelete(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.sessions.Get(id); !ok {
		handlers.RespondError(c, common.ErrSessionNotFound, h.debug)
		return
	}
	h.sessions.Delete(id)
	c.Status(http.StatusNoContent)
}
