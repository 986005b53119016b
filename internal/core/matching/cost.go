package matching

import (
	"math"

	"lifecode-recipe/internal/core/catalog"
	"lifecode-recipe/internal/pkg/common"
)

const (
	// DefaultThreshold 模糊比對的接受門檻
	DefaultThreshold = 0.6
	// DefaultDivisor 每人份估算：每公斤/公升單價除以此值
	DefaultDivisor = 10.0
)

// Grocery 單一食材行的比對結果；未比對成功時 SKU 為空、Cost 為 0
type Grocery struct {
	Line      string    `json:"line"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku,omitempty"`
	Exact     bool      `json:"exact,omitempty"`
	Score     float64   `json:"score"`
	UnitPrice float64   `json:"unit_price,omitempty"`
	Cost      float64   `json:"cost"`
	Quantity  *Quantity `json:"quantity,omitempty"`
}

// Result 比對與計價結果；Total 未四捨五入
type Result struct {
	Matched   []Grocery `json:"matched"`
	Unmatched []Grocery `json:"unmatched"`
	Total     float64   `json:"total"`
}

// Estimator 食材比對與成本估算，無狀態、可併發使用
type Estimator struct {
	catalog   *catalog.Catalog
	names     []string
	matcher   Matcher
	threshold float64
	divisor   float64
}

// EstimatorOption 估算器選項
type EstimatorOption func(*Estimator)

// WithThreshold 設定接受門檻（0~1）
func WithThreshold(t float64) EstimatorOption {
	return func(e *Estimator) {
		if t > 0 && t <= 1 {
			e.threshold = t
		}
	}
}

// WithDivisor 設定每人份除數
func WithDivisor(d float64) EstimatorOption {
	return func(e *Estimator) {
		if d > 0 {
			e.divisor = d
		}
	}
}

// NewEstimator 建立估算器；matcher 為 nil 時使用序列相似度
func NewEstimator(c *catalog.Catalog, matcher Matcher, opts ...EstimatorOption) *Estimator {
	if matcher == nil {
		matcher = NewSequenceMatcher()
	}
	e := &Estimator{
		catalog:   c,
		names:     c.Names(),
		matcher:   matcher,
		threshold: DefaultThreshold,
		divisor:   DefaultDivisor,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Threshold 目前的接受門檻
func (e *Estimator) Threshold() float64 { return e.threshold }

// Divisor 目前的每人份除數
func (e *Estimator) Divisor() float64 { return e.divisor }

// MatchAndCost 逐行比對並累加成本。名稱為空的行直接略過，
// 不列入 matched 或 unmatched。
func (e *Estimator) MatchAndCost(lines []string) Result {
	res := Result{Matched: []Grocery{}, Unmatched: []Grocery{}}
	for _, line := range lines {
		g, ok := e.MatchLine(line)
		if !ok {
			continue
		}
		if g.SKU == "" {
			res.Unmatched = append(res.Unmatched, g)
			continue
		}
		res.Matched = append(res.Matched, g)
		res.Total += g.Cost
	}
	return res
}

// MatchLine 比對單一食材行；名稱為空時回傳 false
func (e *Estimator) MatchLine(line string) (Grocery, bool) {
	name := ExtractName(line)
	if name == "" {
		return Grocery{}, false
	}

	g := Grocery{Line: line, Name: name}
	if q, ok := ParseQuantity(line); ok {
		g.Quantity = &q
	}

	if e.catalog.Contains(name) {
		g.SKU, g.Exact, g.Score = name, true, 1
	} else if m, ok := e.matcher.BestMatch(name, e.names); ok {
		g.Score = m.Score
		if m.Score >= e.threshold {
			g.SKU = m.Candidate
		}
	}

	if g.SKU != "" {
		g.UnitPrice = e.catalog.Price(g.SKU)
		g.Cost = g.UnitPrice / e.divisor
	}
	common.LogSKUMatch(line, g.SKU, g.Score, g.UnitPrice)
	return g, true
}

// Round2 四捨五入到小數點後兩位
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
