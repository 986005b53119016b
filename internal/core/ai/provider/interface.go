package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// 供應商共用錯誤
var (
	ErrMissingAPIKey = errors.New("missing API key")
	ErrEmptyResponse = errors.New("empty response")
)

// Request 表示發送到 AI 提供者的請求
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
	// APIKey 不為空時取代設定中的金鑰（例如使用者自行輸入的 key）
	APIKey string
}

// Usage token 使用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response 表示從 AI 提供者收到的響應
type Response struct {
	Content string
	Model   string
	Usage   Usage
}

// Provider 定義 AI 提供者介面
type Provider interface {
	// Name 供應商名稱，用於日誌與指標
	Name() string

	// Generate 生成 AI 響應
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Close 關閉提供者連接
	Close() error
}

// Config 定義 AI 提供者配置
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	MaxTokens   int
	Temperature float64
}

// StatusError 供應商回傳非 2xx 狀態
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// ResolveKey 取得本次請求使用的金鑰
func ResolveKey(req *Request, cfg Config) (string, error) {
	if req != nil && req.APIKey != "" {
		return req.APIKey, nil
	}
	if cfg.APIKey != "" {
		return cfg.APIKey, nil
	}
	return "", ErrMissingAPIKey
}

// Truncate 截斷錯誤訊息中的回應內容
func Truncate(body string, n int) string {
	if len(body) <= n {
		return body
	}
	return body[:n] + "...(truncated)"
}

// Retryable 判斷狀態碼是否值得重試
func Retryable(status int) bool {
	return status == 429 || status >= 500
}
