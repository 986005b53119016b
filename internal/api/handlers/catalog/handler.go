package catalog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lifecode-recipe/internal/api/handlers"
	"lifecode-recipe/internal/core/catalog"
	"lifecode-recipe/internal/core/matching"
	"lifecode-recipe/internal/core/recipe"
)

// maxMatchLines 單次比對的行數上限
const maxMatchLines = 200

// MatchRequest 食材行比對請求
type MatchRequest struct {
	Lines []string `json:"lines"`
}

// MatchResponse 比對與計價結果
type MatchResponse struct {
	Matched      []matching.Grocery `json:"matched"`
	Unmatched    []matching.Grocery `json:"unmatched"`
	TotalCost    float64            `json:"total_cost"`
	ReportedCost string             `json:"reported_cost"`
}

// ListResponse 目錄內容
type ListResponse struct {
	Count            int             `json:"count"`
	PerPersonDivisor float64         `json:"per_person_divisor"`
	MatchThreshold   float64         `json:"match_threshold"`
	Entries          []catalog.Entry `json:"entries"`
}

// Handler 食材目錄處理程序
type Handler struct {
	catalog   *catalog.Catalog
	estimator *matching.Estimator
	debug     bool
}

// NewHandler 創建目錄處理程序
func NewHandler(c *catalog.Catalog, e *matching.Estimator, debug bool) *Handler {
	return &Handler{catalog: c, estimator: e, debug: debug}
}

// Register 註冊路由
func (h *Handler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/catalog")
	g.GET("", h.HandleList)
	g.POST("/match", h.HandleMatch)
}

// HandleList 列出核准食材；可用 ?q= 依子字串篩選
func (h *Handler) HandleList(c *gin.Context) {
	entries := h.catalog.Search(c.Query("q"))
	if entries == nil {
		entries = []catalog.Entry{}
	}
	c.JSON(http.StatusOK, ListResponse{
		Count:            len(entries),
		PerPersonDivisor: h.estimator.Divisor(),
		MatchThreshold:   h.estimator.Threshold(),
		Entries:          entries,
	})
}

// HandleMatch 比對食材行並估算每人成本
func (h *Handler) HandleMatch(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err, h.debug)
		return
	}
	if len(req.Lines) == 0 {
		handlers.BadRequest(c, errors.New("lines must not be empty"), h.debug)
		return
	}
	if len(req.Lines) > maxMatchLines {
		handlers.BadRequest(c, errors.New("too many lines"), h.debug)
		return
	}

	res := h.estimator.MatchAndCost(req.Lines)
	total := matching.Round2(res.Total)
	c.JSON(http.StatusOK, MatchResponse{
		Matched:      res.Matched,
		Unmatched:    res.Unmatched,
		TotalCost:    total,
		ReportedCost: recipe.FormatCost(total),
	})
}
