package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	catalogHandler "lifecode-recipe/internal/api/handlers/catalog"
	recipeHandler "lifecode-recipe/internal/api/handlers/recipe"
	sessionHandler "lifecode-recipe/internal/api/handlers/session"
	"lifecode-recipe/internal/core/catalog"
	"lifecode-recipe/internal/core/recipe"
	"lifecode-recipe/internal/core/session"
	"lifecode-recipe/internal/infrastructure/config"
	"lifecode-recipe/internal/infrastructure/metrics"
	"lifecode-recipe/internal/infrastructure/store"
	"lifecode-recipe/internal/pkg/common"
)

const ragiKaliResponse = `1. Recipe Name (traditional Tamil): Ragi Kali
2. Standard Portion Assumed (Per Person): 1 plate
3. Ingredients (with unit quantity):
• Ragi Flour - 60g
• Almonds (Whole) - 10g
• Water - 250ml
6. Suitable Accompaniment (if any): Kara kuzhambu
8. Response:
1. Boil the water.
2. Stir in the ragi flour.`

type stubGenerator struct {
	calls   atomic.Int32
	err     error
	lastKey atomic.Value
}

func (g *stubGenerator) Generate(_ context.Context, _, apiKey string) (string, error) {
	g.calls.Add(1)
	g.lastKey.Store(apiKey)
	if g.err != nil {
		return "", g.err
	}
	return ragiKaliResponse, nil
}

type RouterSuite struct {
	suite.Suite
	cfg      *config.Config
	gen      *stubGenerator
	store    *store.MemoryStore
	sessions *session.Registry
	router   *gin.Engine
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.cfg = &config.Config{
		App:    config.AppConfig{Version: "test", Env: "test", Debug: true},
		Server: config.ServerConfig{MaxBodyBytes: 1 << 20},
		LLM:    config.LLMConfig{Timeout: 5 * time.Second},
		Store:  config.StoreConfig{Driver: config.StoreMemory},
	}
	s.gen = &stubGenerator{}
	s.store = store.NewMemoryStore()
	s.sessions = session.NewRegistry(time.Hour)
	s.router = s.build()
}

func (s *RouterSuite) build() *gin.Engine {
	m := metrics.New(prometheus.NewRegistry())
	c := catalog.Default()
	svc := recipe.NewService(s.store, s.gen, c, recipe.WithMetrics(m))
	r, err := SetupRouter(Dependencies{
		Config:   s.cfg,
		Service:  svc,
		Store:    s.store,
		Catalog:  c,
		Sessions: s.sessions,
		Metrics:  m,
		Provider: "stub",
	})
	s.Require().NoError(err)
	return r
}

func (s *RouterSuite) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			s.Require().NoError(json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder, v interface{}) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (s *RouterSuite) TestHealthEndpoints() {
	for _, path := range []string{"/health", "/ready", "/live"} {
		w := s.do(http.MethodGet, path, nil, nil)
		s.Equal(http.StatusOK, w.Code, path)
	}

	w := s.do(http.MethodGet, "/health", nil, nil)
	var body map[string]interface{}
	s.decode(w, &body)
	s.Equal("test", body["version"])
	s.Equal(config.StoreMemory, body["store"])
	s.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (s *RouterSuite) TestLookupThenRemembered() {
	w := s.do(http.MethodPost, "/api/v1/recipes/lookup", recipeHandler.LookupRequest{DishName: "Ragi Kali"}, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var first recipeHandler.LookupResponse
	s.decode(w, &first)
	s.True(first.Fresh)
	s.Nil(first.Warning)
	s.Equal(103.2, first.Record.TotalCost)
	s.Contains(first.Markdown, "₹ 103.20")
	sessionID := w.Header().Get(recipeHandler.HeaderSessionID)
	s.Equal(first.SessionID, sessionID)

	w = s.do(http.MethodPost, "/api/v1/recipes/lookup",
		recipeHandler.LookupRequest{DishName: "ragi  kali"},
		map[string]string{recipeHandler.HeaderSessionID: sessionID})
	s.Require().Equal(http.StatusOK, w.Code)
	var second recipeHandler.LookupResponse
	s.decode(w, &second)
	s.False(second.Fresh)
	s.Equal(first.Record.ID, second.Record.ID)
	s.Equal(int32(1), s.gen.calls.Load())

	w = s.do(http.MethodGet, "/api/v1/sessions/"+sessionID+"/history", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var hist sessionHandler.HistoryResponse
	s.decode(w, &hist)
	s.Len(hist.Messages, 4)
	s.Equal(session.RoleUser, hist.Messages[0].Role)
	s.Equal("Ragi Kali", hist.Messages[0].Content)
}

func (s *RouterSuite) TestLookupPassesSessionAPIKey() {
	w := s.do(http.MethodPost, "/api/v1/recipes/lookup",
		recipeHandler.LookupRequest{DishName: "Idli"},
		map[string]string{recipeHandler.HeaderAPIKey: "sk-session"})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("sk-session", s.gen.lastKey.Load())
}

func (s *RouterSuite) TestLookupValidation() {
	w := s.do(http.MethodPost, "/api/v1/recipes/lookup", recipeHandler.LookupRequest{DishName: "   "}, nil)
	s.Equal(http.StatusBadRequest, w.Code)
	var body common.ErrorResponse
	s.decode(w, &body)
	s.Equal(common.ErrCodeInvalidDishName, body.Code)

	w = s.do(http.MethodPost, "/api/v1/recipes/lookup", "{not json", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.decode(w, &body)
	s.Equal(common.ErrCodeInvalidRequest, body.Code)
	s.Equal(int32(0), s.gen.calls.Load())
}

func (s *RouterSuite) TestLookupLLMFailure() {
	s.gen.err = errors.New("upstream down")
	w := s.do(http.MethodPost, "/api/v1/recipes/lookup", recipeHandler.LookupRequest{DishName: "Dosa"}, nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)

	var body common.ErrorResponse
	s.decode(w, &body)
	s.Equal(common.ErrCodeRecipeUnavailable, body.Code)
	s.Contains(body.Details, "upstream down")

	list, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *RouterSuite) TestListAndGetRecipes() {
	w := s.do(http.MethodGet, "/api/v1/recipes", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list recipeHandler.ListResponse
	s.decode(w, &list)
	s.Equal(0, list.Count)
	s.NotNil(list.Recipes)

	w = s.do(http.MethodPost, "/api/v1/recipes/lookup", recipeHandler.LookupRequest{DishName: "Ragi Kali"}, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var res recipeHandler.LookupResponse
	s.decode(w, &res)

	w = s.do(http.MethodGet, "/api/v1/recipes", nil, nil)
	s.decode(w, &list)
	s.Equal(1, list.Count)

	w = s.do(http.MethodGet, "/api/v1/recipes/"+url.PathEscape(res.LookupKey), nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var rec recipe.RecipeRecord
	s.decode(w, &rec)
	s.Equal(res.Record.ID, rec.ID)

	// 以菜名查詢也可以
	w = s.do(http.MethodGet, "/api/v1/recipes/"+url.PathEscape("Ragi Kali"), nil, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/recipes/pongal", nil, nil)
	s.Equal(http.StatusNotFound, w.Code)
	var body common.ErrorResponse
	s.decode(w, &body)
	s.Equal(common.ErrCodeNotFound, body.Code)
	s.Equal(int32(1), s.gen.calls.Load())
}

func (s *RouterSuite) TestCatalogEndpoints() {
	w := s.do(http.MethodGet, "/api/v1/catalog", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list catalogHandler.ListResponse
	s.decode(w, &list)
	s.Equal(catalog.Default().Len(), list.Count)
	s.Equal(10.0, list.PerPersonDivisor)

	w = s.do(http.MethodGet, "/api/v1/catalog?q=ragi", nil, nil)
	s.decode(w, &list)
	s.NotZero(list.Count)
	for _, e := range list.Entries {
		s.Contains(strings.ToLower(e.Name), "ragi")
	}

	w = s.do(http.MethodPost, "/api/v1/catalog/match",
		catalogHandler.MatchRequest{Lines: []string{"Ragi Flour - 60g", "Moon Cheese - 10g"}}, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var match catalogHandler.MatchResponse
	s.decode(w, &match)
	s.Len(match.Matched, 1)
	s.Len(match.Unmatched, 1)
	s.Equal(9.2, match.TotalCost)
	s.Equal("₹ 9.20", match.ReportedCost)

	w = s.do(http.MethodPost, "/api/v1/catalog/match", catalogHandler.MatchRequest{}, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestSessionEndpoints() {
	w := s.do(http.MethodGet, "/api/v1/sessions/nobody/history", nil, nil)
	s.Equal(http.StatusNotFound, w.Code)
	var body common.ErrorResponse
	s.decode(w, &body)
	s.Equal(common.ErrCodeSessionNotFound, body.Code)

	s.sessions.GetOrCreate("s-1")
	w = s.do(http.MethodGet, "/api/v1/sessions/s-1/history", nil, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/sessions/s-1", nil, nil)
	s.Equal(http.StatusNoContent, w.Code)
	_, ok := s.sessions.Get("s-1")
	s.False(ok)
}

func (s *RouterSuite) TestBodySizeLimit() {
	s.cfg.Server.MaxBodyBytes = 16
	s.router = s.build()
	w := s.do(http.MethodPost, "/api/v1/catalog/match",
		catalogHandler.MatchRequest{Lines: []string{"Ragi Flour - 60g", "Water - 250ml"}}, nil)
	s.Equal(http.StatusRequestEntityTooLarge, w.Code)
}

func (s *RouterSuite) TestRateLimit() {
	s.cfg.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Hour}
	s.router = s.build()

	for i := 0; i < 2; i++ {
		s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/v1/catalog", nil, nil).Code)
	}
	w := s.do(http.MethodGet, "/api/v1/catalog", nil, nil)
	s.Equal(http.StatusTooManyRequests, w.Code)
	s.NotEmpty(w.Header().Get("Retry-After"))

	// 健康檢查不受限流影響
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/live", nil, nil).Code)
}

func (s *RouterSuite) TestMetricsEndpoint() {
	s.do(http.MethodGet, "/api/v1/catalog", nil, nil)
	w := s.do(http.MethodGet, "/metrics", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "lifecode_recipe_http_requests_total")
}

func (s *RouterSuite) TestSetupRouterRequiresDependencies() {
	_, err := SetupRouter(Dependencies{Config: s.cfg})
	s.Error(err)
}
