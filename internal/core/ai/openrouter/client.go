package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"lifecode-recipe/internal/core/ai/provider"
	"lifecode-recipe/internal/pkg/common"
)

const (
	// DefaultBaseURL OpenRouter API 位址
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultModel 未設定模型時使用
	DefaultModel = "google/gemini-2.0-flash-001"
)

// Client OpenRouter API 客戶端
type Client struct {
	client *resty.Client
	config provider.Config
}

// Message 消息結構
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request 表示 API 請求
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Response OpenRouter 響應結構
type Response struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []Choice       `json:"choices"`
	Usage   provider.Usage `json:"usage"`
	Error   *APIError      `json:"error,omitempty"`
}

// Choice 選擇結構
type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// APIError 表示 API 錯誤
type APIError struct {
	Message string      `json:"message"`
	Code    interface{} `json:"code"`
}

// NewClient 創建新的 OpenRouter 客戶端
func NewClient(cfg provider.Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("HTTP-Referer", "https://lifecode.in").
		SetHeader("X-Title", "Lifecode Chef").
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && r != nil && provider.Retryable(r.StatusCode())
		})
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Client{client: client, config: cfg}
}

// Name 供應商名稱
func (c *Client) Name() string { return "openrouter" }

// Generate 呼叫 /chat/completions 並回傳第一個 choice 的內容
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	key, err := provider.ResolveKey(req, c.config)
	if err != nil {
		return nil, err
	}

	body := Request{
		Model:       c.config.Model,
		Messages:    []Message{{Role: "user", Content: req.Prompt}},
		MaxTokens:   firstPositive(req.MaxTokens, c.config.MaxTokens),
		Temperature: req.Temperature,
	}
	if body.Temperature == 0 {
		body.Temperature = c.config.Temperature
	}

	common.LogDebug("Sending request to OpenRouter",
		zap.String("model", body.Model),
		zap.Int("prompt_length", len(req.Prompt)),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+key).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.IsError() {
		return nil, &provider.StatusError{
			Provider:   c.Name(),
			StatusCode: resp.StatusCode(),
			Body:       provider.Truncate(resp.String(), 512),
		}
	}

	var result Response
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("OpenRouter error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no choices in OpenRouter response: %w", provider.ErrEmptyResponse)
	}

	content := result.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, provider.ErrEmptyResponse
	}

	model := result.Model
	if model == "" {
		model = body.Model
	}
	return &provider.Response{Content: content, Model: model, Usage: result.Usage}, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
