package health

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lifecode-recipe/internal/core/recipe"
	"lifecode-recipe/internal/pkg/common"
)

// probeKey 就緒檢查時查詢的 key，不會存在於儲存中
const probeKey = "__readiness_probe__"

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Store     string                 `json:"store"`
	Provider  string                 `json:"llm_provider"`
	Sessions  int                    `json:"sessions"`
	Runtime   map[string]interface{} `json:"runtime"`
}

// Info 健康檢查需要的服務資訊
type Info struct {
	Version  string
	Store    string
	Provider string
	// Sessions 目前的 session 數量，可為 nil
	Sessions func() int
}

// Handler 健康檢查處理器
type Handler struct {
	info    Info
	store   recipe.Store
	started time.Time
}

// NewHandler 創建健康檢查處理器
func NewHandler(info Info, store recipe.Store) *Handler {
	return &Handler{info: info, store: store, started: time.Now()}
}

// Register 註冊 /health、/ready、/live
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/health", h.HealthCheck)
	r.GET("/ready", h.ReadinessCheck)
	r.GET("/live", h.LivenessCheck)
}

// HealthCheck 服務狀態與執行期資訊
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	sessions := 0
	if h.info.Sessions != nil {
		sessions = h.info.Sessions()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.info.Version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Store:     h.info.Store,
		Provider:  h.info.Provider,
		Sessions:  sessions,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	})
}

// ReadinessCheck 確認儲存可讀取
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.store != nil {
		_, err := h.store.Lookup(ctx, probeKey)
		if err != nil && !errors.Is(err, recipe.ErrRecordNotFound) {
			common.LogWarn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"store":  h.info.Store,
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
