package recipe

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lifecode-recipe/internal/api/handlers"
	recipeService "lifecode-recipe/internal/core/recipe"
	"lifecode-recipe/internal/core/session"
	"lifecode-recipe/internal/infrastructure/metrics"
	"lifecode-recipe/internal/infrastructure/store"
	"lifecode-recipe/internal/pkg/common"
)

// 請求標頭
const (
	HeaderSessionID = "X-Session-ID"
	HeaderAPIKey    = "X-LLM-API-Key"
)

// LookupRequest 以菜名查詢食譜
type LookupRequest struct {
	DishName string `json:"dish_name"`
}

// LookupResponse 查詢結果；寫入儲存失敗時 Warning 會帶上原因
type LookupResponse struct {
	SessionID string                      `json:"session_id"`
	LookupKey string                      `json:"lookup_key"`
	Fresh     bool                        `json:"fresh"`
	Record    *recipeService.RecipeRecord `json:"record"`
	Markdown  string                      `json:"markdown"`
	Warning   *common.ErrorResponse       `json:"warning,omitempty"`
}

// ListResponse 食譜清單
type ListResponse struct {
	Count   int                           `json:"count"`
	Recipes []*recipeService.RecipeRecord `json:"recipes"`
}

// Handler 食譜處理程序
type Handler struct {
	service  *recipeService.Service
	store    store.Store
	sessions *session.Registry
	metrics  *metrics.Collector
	debug    bool
}

// NewHandler 創建食譜處理程序
func NewHandler(svc *recipeService.Service, st store.Store, sessions *session.Registry, m *metrics.Collector, debug bool) *Handler {
	return &Handler{service: svc, store: st, sessions: sessions, metrics: m, debug: debug}
}

// Register 註冊路由
func (h *Handler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/recipes")
	g.POST("/lookup", h.HandleLookup)
	g.GET("", h.HandleList)
	g.GET("/:key", h.HandleGet)
}

// HandleLookup 查詢或生成食譜
func (h *Handler) HandleLookup(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err, h.debug)
		return
	}

	sess := h.sessions.GetOrCreate(c.GetHeader(HeaderSessionID))
	if key := c.GetHeader(HeaderAPIKey); key != "" {
		sess.SetAPIKey(key)
	}
	h.metrics.SessionsActive(h.sessions.Len())
	c.Header(HeaderSessionID, sess.ID)

	common.LogInfo("開始處理食譜查詢",
		zap.String("dish_name", req.DishName),
		zap.String("session_id", sess.ID),
		zap.String("request_id", common.RequestIDFrom(c.Request.Context())),
	)

	res, err := h.service.Lookup(c.Request.Context(), sess, req.DishName)
	if err != nil && (res == nil || !errors.Is(err, common.ErrStoreWriteFailed)) {
		handlers.RespondError(c, err, h.debug)
		return
	}

	resp := LookupResponse{
		SessionID: sess.ID,
		LookupKey: res.Record.LookupKey,
		Fresh:     res.Fresh,
		Record:    res.Record,
		Markdown:  res.Markdown,
	}
	if err != nil {
		warning := common.ErrorBody(err, h.debug)
		resp.Warning = &warning
	}
	c.JSON(http.StatusOK, resp)
}

// HandleList 列出所有已儲存的食譜
func (h *Handler) HandleList(c *gin.Context) {
	recs, err := h.store.List(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, common.ErrInternalError.Wrap(err), h.debug)
		return
	}
	if recs == nil {
		recs = []*recipeService.RecipeRecord{}
	}
	c.JSON(http.StatusOK, ListResponse{Count: len(recs), Recipes: recs})
}

// HandleGet 以 lookup key 或菜名取得食譜，不會呼叫 LLM
func (h *Handler) HandleGet(c *gin.Context) {
	key := c.Param("key")
	rec, err := h.store.Lookup(c.Request.Context(), key)
	if errors.Is(err, store.ErrNotFound) {
		rec, err = h.service.Find(c.Request.Context(), key)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) && !errors.Is(err, common.ErrNotFound) {
			err = common.ErrNotFound.Wrap(err)
		}
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, rec)
}
