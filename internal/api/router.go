package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogHandler "lifecode-recipe/internal/api/handlers/catalog"
	"lifecode-recipe/internal/api/handlers/health"
	recipeHandler "lifecode-recipe/internal/api/handlers/recipe"
	sessionHandler "lifecode-recipe/internal/api/handlers/session"
	"lifecode-recipe/internal/api/middleware"
	"lifecode-recipe/internal/core/catalog"
	"lifecode-recipe/internal/core/matching"
	"lifecode-recipe/internal/core/recipe"
	"lifecode-recipe/internal/core/session"
	"lifecode-recipe/internal/infrastructure/config"
	"lifecode-recipe/internal/infrastructure/metrics"
	"lifecode-recipe/internal/infrastructure/store"
	"lifecode-recipe/internal/pkg/common"
)

// requestTimeoutMargin 請求逾時比 LLM 逾時多留的時間
const requestTimeoutMargin = 30 * time.Second

// Dependencies 路由需要的服務
type Dependencies struct {
	Config    *config.Config
	Service   *recipe.Service
	Store     store.Store
	Catalog   *catalog.Catalog
	Estimator *matching.Estimator
	Sessions  *session.Registry
	Metrics   *metrics.Collector
	Provider  string
}

// SetupRouter 設置路由
func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	if cfg == nil || deps.Service == nil || deps.Store == nil || deps.Catalog == nil || deps.Sessions == nil {
		return nil, errors.New("router dependencies are incomplete")
	}
	if deps.Estimator == nil {
		deps.Estimator = matching.NewEstimator(deps.Catalog, nil)
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.RequestContext())
	router.Use(middleware.Logger())
	if deps.Metrics != nil {
		router.Use(deps.Metrics.HTTPMiddleware())
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID",
			recipeHandler.HeaderSessionID, recipeHandler.HeaderAPIKey,
		},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID", recipeHandler.HeaderSessionID},
		MaxAge:        12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	router.Use(requestTimeout(cfg.LLM.Timeout + requestTimeoutMargin))

	health.NewHandler(health.Info{
		Version:  cfg.App.Version,
		Store:    cfg.Store.Driver,
		Provider: deps.Provider,
		Sessions: deps.Sessions.Len,
	}, deps.Store).Register(router)

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		v1.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	recipeHandler.NewHandler(deps.Service, deps.Store, deps.Sessions, deps.Metrics, cfg.App.Debug).Register(v1)
	catalogHandler.NewHandler(deps.Catalog, deps.Estimator, cfg.App.Debug).Register(v1)
	sessionHandler.NewHandler(deps.Sessions, cfg.App.Debug).Register(v1)

	common.LogInfo("Router setup completed successfully",
		zap.String("store", cfg.Store.Driver),
		zap.String("llm_provider", deps.Provider),
		zap.Int("catalog_size", deps.Catalog.Len()),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)
	return router, nil
}

// requestTimeout 為每個請求設定逾時；handler 未回應就逾時時回傳 504
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", common.RequestIDFrom(ctx)),
				zap.Duration("timeout", d),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrorBody(common.ErrGatewayTimeout, false))
		}
	}
}
