package gemini

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
	// DefaultBaseURL Gemini REST API 位址
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultModel 未設定模型時使用
	DefaultModel = "gemini-1.5-flash-latest"
)

// Client Gemini generateContent 客戶端
type Client struct {
	client *resty.Client
	config provider.Config
}

// Part 內容片段
type Part struct {
	Text string `json:"text"`
}

// Content 對話內容
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerationConfig 生成參數
type GenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

// Request generateContent 請求
type Request struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// Candidate 候選回應
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

// Response generateContent 回應
type Response struct {
	Candidates     []Candidate `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

// NewClient 創建 Gemini 客戶端
func NewClient(cfg provider.Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	cfg.Model = strings.TrimPrefix(cfg.Model, "models/")

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
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
func (c *Client) Name() string { return "gemini" }

// Generate 呼叫 models/{model}:generateContent，合併第一個候選的所有文字片段
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	key, err := provider.ResolveKey(req, c.config)
	if err != nil {
		return nil, err
	}

	body := Request{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: req.Prompt}}}},
		GenerationConfig: GenerationConfig{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     req.Temperature,
		},
	}
	if body.GenerationConfig.MaxOutputTokens <= 0 {
		body.GenerationConfig.MaxOutputTokens = c.config.MaxTokens
	}
	if body.GenerationConfig.Temperature == 0 {
		body.GenerationConfig.Temperature = c.config.Temperature
	}

	common.LogDebug("Sending request to Gemini",
		zap.String("model", c.config.Model),
		zap.Int("prompt_length", len(req.Prompt)),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", key).
		SetPathParam("model", c.config.Model).
		SetBody(body).
		Post("/models/{model}:generateContent")
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Gemini: %w", err)
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
		return nil, fmt.Errorf("failed to parse Gemini response: %w", err)
	}
	if reason := result.PromptFeedback.BlockReason; reason != "" {
		return nil, fmt.Errorf("prompt blocked by Gemini: %s", reason)
	}
	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in Gemini response: %w", provider.ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	content := sb.String()
	if strings.TrimSpace(content) == "" {
		return nil, provider.ErrEmptyResponse
	}

	model := result.ModelVersion
	if model == "" {
		model = c.config.Model
	}
	return &provider.Response{
		Content: content,
		Model:   model,
		Usage: provider.Usage{
			PromptTokens:     result.UsageMetadata.PromptTokenCount,
			CompletionTokens: result.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      result.UsageMetadata.TotalTokenCount,
		},
	}, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}
