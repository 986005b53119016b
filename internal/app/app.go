// Package app 組裝食譜服務的各個元件，HTTP 服務與 CLI 共用
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	aiservice "lifecode-recipe/internal/core/ai/service"
	"lifecode-recipe/internal/core/catalog"
	"lifecode-recipe/internal/core/matching"
	"lifecode-recipe/internal/core/normalize"
	"lifecode-recipe/internal/core/recipe"
	"lifecode-recipe/internal/core/session"
	"lifecode-recipe/internal/infrastructure/cache"
	"lifecode-recipe/internal/infrastructure/config"
	"lifecode-recipe/internal/infrastructure/metrics"
	"lifecode-recipe/internal/infrastructure/store"
	"lifecode-recipe/internal/pkg/common"
)

// App 已組裝好的服務元件
type App struct {
	Config     *config.Config
	Catalog    *catalog.Catalog
	Normalizer *normalize.Normalizer
	Estimator  *matching.Estimator
	Store      store.Store
	AI         *aiservice.Service
	Recipes    *recipe.Service
	Sessions   *session.Registry
	Metrics    *metrics.Collector
}

// Option 組裝選項
type Option func(*options)

type options struct {
	registry  *prometheus.Registry
	generator recipe.Generator
}

// WithRegistry 指定 Prometheus registry
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithGenerator 以自訂的生成器取代設定中的 LLM 供應商
func WithGenerator(g recipe.Generator) Option {
	return func(o *options) { o.generator = g }
}

// New 依設定建立所有元件；失敗時已開啟的資源會被關閉
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Metrics: metrics.New(o.registry)}

	cat, err := LoadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	a.Catalog = cat

	if cfg.Normalizer.Transliterate {
		a.Normalizer = normalize.New()
	} else {
		a.Normalizer = normalize.New(normalize.WithoutTransliteration())
	}

	a.Estimator = NewEstimator(cat, cfg.Catalog)

	st, err := store.Open(cfg.Store, store.WithKeyFunc(a.Normalizer.Normalize))
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}
	rc, err := cache.New(cfg.Cache)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("initializing record cache: %w", err)
	}
	a.Store = store.NewCachedStore(st, rc, a.Metrics)

	gen := o.generator
	if gen == nil {
		a.AI, err = aiservice.NewFromConfig(cfg.LLM, a.Metrics)
		if err != nil {
			_ = a.Store.Close()
			return nil, fmt.Errorf("initializing llm provider: %w", err)
		}
		gen = a.AI
	}

	a.Recipes = recipe.NewService(a.Store, gen, cat,
		recipe.WithNormalizer(a.Normalizer),
		recipe.WithEstimator(a.Estimator),
		recipe.WithMetrics(a.Metrics),
		recipe.WithTimeout(cfg.LLM.Timeout),
	)
	a.Sessions = session.NewRegistry(cfg.Session.TTL)

	if cfg.LLM.Key() == "" && o.generator == nil {
		common.LogWarn("No default LLM API key configured; lookups need a per-session key")
	}
	common.LogInfo("服務元件已初始化",
		zap.Int("catalog_size", cat.Len()),
		zap.String("store", cfg.Store.Driver),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.String("llm_provider", a.ProviderName()),
		zap.Bool("transliterate", cfg.Normalizer.Transliterate),
	)
	return a, nil
}

// LoadCatalog 未指定檔案時使用內建目錄
func LoadCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	if cfg.File == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	common.LogInfo("已載入自訂食材目錄", zap.String("file", cfg.File), zap.Int("size", cat.Len()))
	return cat, nil
}

// NewEstimator 依設定的門檻與除數建立估算器
func NewEstimator(cat *catalog.Catalog, cfg config.CatalogConfig) *matching.Estimator {
	return matching.NewEstimator(cat, nil,
		matching.WithThreshold(cfg.MatchThreshold),
		matching.WithDivisor(cfg.PerPersonDivisor),
	)
}

// ProviderName LLM 供應商名稱；使用自訂生成器時為 "custom"
func (a *App) ProviderName() string {
	if a.AI == nil {
		return "custom"
	}
	return a.AI.Provider()
}

// SweepSessions 定期清除閒置的 session，直到 ctx 結束
func (a *App) SweepSessions(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := a.Sessions.Sweep(now); n > 0 {
				common.LogDebug("Expired sessions removed", zap.Int("count", n))
			}
			a.Metrics.SessionsActive(a.Sessions.Len())
		}
	}
}

// Close 釋放 LLM 連線與儲存
func (a *App) Close() error {
	var errs []error
	if a.AI != nil {
		errs = append(errs, a.AI.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
