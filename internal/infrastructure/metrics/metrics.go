// Package metrics 食譜服務的 Prometheus 指標
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lifecode_recipe"

// Collector 指標收集器；nil 接收者的方法皆為 no-op，方便在測試或 CLI 中省略
type Collector struct {
	gatherer prometheus.Gatherer

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	lookupsTotal     *prometheus.CounterVec
	recipesCreated   prometheus.Counter
	storeWriteErrors prometheus.Counter
	groceryLines     *prometheus.CounterVec
	llmRequestsTotal *prometheus.CounterVec
	llmDuration      *prometheus.HistogramVec
	cacheOperations  *prometheus.CounterVec
	sessionsActive   prometheus.Gauge
}

// New 在指定 registry 上註冊所有指標；reg 為 nil 時使用獨立的新 registry
func New(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Collector{
		gatherer: reg,

		httpRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		lookupsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipe_lookups_total",
			Help:      "Recipe lookups by outcome (hit, generated, failed)",
		}, []string{"outcome"}),
		recipesCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipes_created_total",
			Help:      "Recipe records persisted to the store",
		}),
		storeWriteErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_write_errors_total",
			Help:      "Failed recipe store appends",
		}),
		groceryLines: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grocery_lines_total",
			Help:      "Ingredient lines processed by the SKU matcher",
		}, []string{"result"}),
		llmRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "LLM generation calls by provider and status",
		}, []string{"provider", "status"}),
		llmDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM generation latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"provider"}),
		cacheOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_cache_operations_total",
			Help:      "Record cache lookups by result",
		}, []string{"driver", "result"}),
		sessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Chat sessions held in memory",
		}),
	}
}

// Handler 回傳 /metrics 處理器
func (m *Collector) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// HTTPMiddleware gin 請求指標中間件
func (m *Collector) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Lookup 記錄一次查詢結果
func (m *Collector) Lookup(outcome string) {
	if m == nil {
		return
	}
	m.lookupsTotal.WithLabelValues(outcome).Inc()
}

// RecipeCreated 記錄新寫入的食譜
func (m *Collector) RecipeCreated() {
	if m == nil {
		return
	}
	m.recipesCreated.Inc()
}

// StoreWriteFailed 記錄寫入失敗
func (m *Collector) StoreWriteFailed() {
	if m == nil {
		return
	}
	m.storeWriteErrors.Inc()
}

// GroceryLines 記錄比對成功與失敗的行數
func (m *Collector) GroceryLines(matched, unmatched int) {
	if m == nil {
		return
	}
	m.groceryLines.WithLabelValues("matched").Add(float64(matched))
	m.groceryLines.WithLabelValues("unmatched").Add(float64(unmatched))
}

// LLMRequest 記錄 LLM 呼叫
func (m *Collector) LLMRequest(provider, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.llmRequestsTotal.WithLabelValues(provider, status).Inc()
	m.llmDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// CacheResult 記錄快取命中或未命中
func (m *Collector) CacheResult(driver string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheOperations.WithLabelValues(driver, result).Inc()
}

// SessionsActive 更新記憶體中的 session 數量
func (m *Collector) SessionsActive(n int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(n))
}
