package recipe

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"lifecode-recipe/internal/core/catalog"
	"lifecode-recipe/internal/core/matching"
	"lifecode-recipe/internal/core/normalize"
	"lifecode-recipe/internal/core/session"
	"lifecode-recipe/internal/infrastructure/metrics"
	"lifecode-recipe/internal/pkg/common"
)

// DefaultGenerateTimeout LLM 生成的預設逾時
const DefaultGenerateTimeout = 90 * time.Second

// Service 食譜查詢流程：正規化 → 查詢儲存 → 未命中時生成、解析、比對、計價、寫入
type Service struct {
	store      Store
	generator  Generator
	catalog    *catalog.Catalog
	normalizer *normalize.Normalizer
	estimator  *matching.Estimator
	metrics    *metrics.Collector
	timeout    time.Duration
	now        func() time.Time

	// 同一 lookup key 同時間只會有一次生成
	group singleflight.Group
}

// Option 服務選項
type Option func(*Service)

// WithNormalizer 指定名稱正規化器
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(s *Service) { s.normalizer = n }
}

// WithEstimator 指定比對與計價器
func WithEstimator(e *matching.Estimator) Option {
	return func(s *Service) { s.estimator = e }
}

// WithMetrics 指定指標收集器
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTimeout 指定 LLM 生成逾時
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock 指定時間來源
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService 創建食譜服務
func NewService(store Store, generator Generator, c *catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		store:     store,
		generator: generator,
		catalog:   c,
		timeout:   DefaultGenerateTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.normalizer == nil {
		s.normalizer = normalize.New()
	}
	if s.estimator == nil {
		s.estimator = matching.NewEstimator(c, nil)
	}
	return s
}

// Key 取得菜名對應的 lookup key
func (s *Service) Key(dish string) string {
	return s.normalizer.Normalize(dish)
}

type outcome struct {
	record   *RecipeRecord
	fresh    bool
	writeErr error
}

// Lookup 查詢或生成食譜。寫入失敗時仍回傳結果，並附帶包裝 ErrStoreWriteFailed 的錯誤；
// LLM 失敗時回傳包裝 ErrRecipeUnavailable 的錯誤且不寫入任何紀錄。
// 同一道菜的並行查詢共用第一個請求的生成，也就使用第一個 session 的 API key；
// 之後加入的 session 金鑰不會被使用。
func (s *Service) Lookup(ctx context.Context, sess *session.Session, dish string) (*LookupResult, error) {
	name := strings.Join(strings.Fields(dish), " ")
	if name == "" {
		return nil, common.ErrInvalidDishName
	}
	key := s.Key(name)
	sess.AddUser(name)

	var out *outcome
	if rec, ok := s.find(ctx, key); ok {
		common.LogCacheHit("store", key)
		s.metrics.Lookup("hit")
		out = &outcome{record: rec}
	} else {
		common.LogCacheMiss("store", key)
		v, err, shared := s.group.Do(key, func() (interface{}, error) {
			return s.generate(context.WithoutCancel(ctx), key, name, sess.APIKey())
		})
		if err != nil {
			s.metrics.Lookup("failed")
			return nil, err
		}
		out = v.(*outcome)
		if shared {
			common.LogDebug("Joined in-flight recipe generation", zap.String("lookup_key", key))
		}
	}

	res := &LookupResult{
		Record:   out.record,
		Fresh:    out.fresh,
		Markdown: RenderMarkdown(out.record, out.fresh),
	}
	sess.AddAssistant(res.Markdown)
	if out.writeErr != nil {
		return res, out.writeErr
	}
	return res, nil
}

// Find 依菜名查詢已儲存的食譜，不呼叫 LLM
func (s *Service) Find(ctx context.Context, dish string) (*RecipeRecord, error) {
	key := s.Key(dish)
	if key == "" {
		return nil, common.ErrInvalidDishName
	}
	rec, err := s.store.Lookup(ctx, key)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, common.ErrNotFound.Wrap(err)
	}
	return rec, err
}

func (s *Service) find(ctx context.Context, key string) (*RecipeRecord, bool) {
	rec, err := s.store.Lookup(ctx, key)
	if err == nil && rec != nil {
		return rec, true
	}
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		common.LogWarn("Recipe store lookup failed", zap.String("lookup_key", key), zap.Error(err))
	}
	return nil, false
}

func (s *Service) generate(ctx context.Context, key, name, apiKey string) (*outcome, error) {
	// 等待期間可能已有其他請求寫入
	if rec, ok := s.find(ctx, key); ok {
		return &outcome{record: rec}, nil
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.generator.Generate(genCtx, BuildPrompt(name, s.catalog), apiKey)
	if err == nil && strings.TrimSpace(raw) == "" {
		err = errors.New("empty response")
	}
	if err != nil {
		common.LogError("Recipe generation failed", zap.String("dish", name), zap.Error(err))
		return nil, common.ErrRecipeUnavailable.Wrap(err)
	}

	rec := s.Build(name, key, raw)
	if err := s.store.Append(ctx, rec); err != nil {
		if errors.Is(err, ErrRecordExists) {
			if existing, ok := s.find(ctx, key); ok {
				return &outcome{record: existing}, nil
			}
		}
		s.metrics.StoreWriteFailed()
		s.metrics.Lookup("generated")
		common.LogError("Failed to persist recipe", zap.String("lookup_key", key), zap.Error(err))
		return &outcome{record: rec, fresh: true, writeErr: common.ErrStoreWriteFailed.Wrap(err)}, nil
	}

	s.metrics.RecipeCreated()
	s.metrics.Lookup("generated")
	common.LogInfo("Recipe stored",
		zap.String("lookup_key", key),
		zap.Int("matched", len(rec.MatchedGroceries)),
		zap.Int("unmatched", len(rec.UnmatchedGroceries)),
		zap.Float64("total_cost", rec.TotalCost),
	)
	return &outcome{record: rec, fresh: true}, nil
}

// Build 由 LLM 原始回應建立完整紀錄（解析、比對、計價），不寫入儲存
func (s *Service) Build(name, key, raw string) *RecipeRecord {
	parsed := Parse(raw, name)
	lines := parsed.IngredientLines()

	texts := make([]string, 0, len(lines))
	for _, l := range lines {
		texts = append(texts, l.Text())
	}
	res := s.estimator.MatchAndCost(texts)
	s.metrics.GroceryLines(len(res.Matched), len(res.Unmatched))

	rec := &RecipeRecord{
		ID:                 uuid.New().String(),
		Name:               name,
		LookupKey:          key,
		Title:              parsed.Title,
		Portion:            parsed.Portion,
		Ingredients:        lines,
		MatchedGroceries:   res.Matched,
		UnmatchedGroceries: res.Unmatched,
		Accompaniment:      parsed.Accompaniment,
		TotalCost:          matching.Round2(res.Total),
		PreparationSteps:   parsed.PreparationSteps,
		ReportedGroceries:  parsed.Groceries,
		ReportedUnmatched:  parsed.ReportedUnmatched,
		ReportedCost:       parsed.ReportedCost,
		CreatedAt:          s.now().UTC(),
	}
	if rec.Ingredients == nil {
		rec.Ingredients = []IngredientLine{}
	}
	if len(parsed.Extra) > 0 {
		rec.Extra = parsed.Extra
	}
	return rec
}
