package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"lifecode-recipe/internal/core/ai/gemini"
	"lifecode-recipe/internal/core/ai/openrouter"
	"lifecode-recipe/internal/core/ai/provider"
	"lifecode-recipe/internal/infrastructure/config"
	"lifecode-recipe/internal/infrastructure/metrics"
	"lifecode-recipe/internal/pkg/common"
)

// DefaultMaxConcurrent 同時進行的 LLM 請求上限
const DefaultMaxConcurrent = 4

// Service AI 服務：逾時、並發上限、空回應判定、日誌與指標
type Service struct {
	provider provider.Provider
	timeout  time.Duration
	slots    *semaphore.Weighted
	metrics  *metrics.Collector
}

// Option 服務選項
type Option func(*Service)

// WithTimeout 單次生成逾時
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxConcurrent 同時進行的請求上限
func WithMaxConcurrent(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.slots = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithMetrics 指定指標收集器
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService 創建 AI 服務
func NewService(p provider.Provider, opts ...Option) *Service {
	s := &Service{
		provider: p,
		timeout:  60 * time.Second,
		slots:    semaphore.NewWeighted(DefaultMaxConcurrent),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewProvider 依設定建立供應商
func NewProvider(cfg config.LLMConfig) (provider.Provider, error) {
	pc := provider.Config{
		APIKey:      cfg.Key(),
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		MaxRetries:  cfg.MaxRetries,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.NewClient(pc), nil
	case config.ProviderOpenRouter:
		return openrouter.NewClient(pc), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

// NewFromConfig 依設定建立完整的 AI 服務
func NewFromConfig(cfg config.LLMConfig, m *metrics.Collector) (*Service, error) {
	p, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewService(p, WithTimeout(cfg.Timeout), WithMetrics(m)), nil
}

// Provider 取得目前使用的供應商名稱
func (s *Service) Provider() string { return s.provider.Name() }

// Generate 送出提示詞並回傳原始文字；apiKey 不為空時取代設定中的金鑰。
// 逾時、空回應與供應商錯誤都回傳 error。
func (s *Service) Generate(ctx context.Context, prompt, apiKey string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.slots.Acquire(ctx, 1); err != nil {
		err = fmt.Errorf("waiting for LLM slot: %w", err)
		s.observe(ctx, start, err)
		return "", err
	}
	defer s.slots.Release(1)

	resp, err := s.provider.Generate(ctx, &provider.Request{Prompt: prompt, APIKey: apiKey})
	if err == nil && strings.TrimSpace(resp.Content) == "" {
		err = provider.ErrEmptyResponse
	}
	s.observe(ctx, start, err)
	if err != nil {
		return "", err
	}

	common.LogDebug("LLM usage",
		zap.String("provider", s.provider.Name()),
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return resp.Content, nil
}

func (s *Service) observe(ctx context.Context, start time.Time, err error) {
	d := time.Since(start)
	common.LogAICall(s.provider.Name(), d, err, common.RequestIDFrom(ctx))
	s.metrics.LLMRequest(s.provider.Name(), status(err), d)
}

// status 將錯誤分類為指標標籤
func status(err error) string {
	var se *provider.StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, provider.ErrEmptyResponse):
		return "empty"
	case errors.Is(err, provider.ErrMissingAPIKey):
		return "no_key"
	case errors.As(err, &se):
		return fmt.Sprintf("http_%d", se.StatusCode)
	default:
		return "error"
	}
}

// Close 關閉供應商連線
func (s *Service) Close() error {
	return s.provider.Close()
}
