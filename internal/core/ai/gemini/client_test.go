package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifecode-recipe/internal/core/ai/provider"
)

func TestGenerateContent(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "gk-123", r.Header.Get("x-goog-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "1. Recipe Name: "}, {"text": "Ragi Kali"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 100, "candidatesTokenCount": 20, "totalTokenCount": 120},
			"modelVersion": "gemini-1.5-flash-002"
		}`))
	}))
	defer srv.Close()

	c := NewClient(provider.Config{APIKey: "gk-123", BaseURL: srv.URL + "/", Model: "models/gemini-1.5-flash", MaxTokens: 1024, Temperature: 0.4})
	resp, err := c.Generate(context.Background(), &provider.Request{Prompt: "Dish Name: Ragi Kali"})
	require.NoError(t, err)

	assert.Equal(t, "1. Recipe Name: Ragi Kali", resp.Content)
	assert.Equal(t, "gemini-1.5-flash-002", resp.Model)
	assert.Equal(t, 120, resp.Usage.TotalTokens)
	assert.Equal(t, 20, resp.Usage.CompletionTokens)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "Dish Name: Ragi Kali", got.Contents[0].Parts[0].Text)
	assert.Equal(t, 1024, got.GenerationConfig.MaxOutputTokens)
	assert.Equal(t, 0.4, got.GenerationConfig.Temperature)
}

func TestGenerateBlockedPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback": {"blockReason": "SAFETY"}}`))
	}))
	defer srv.Close()

	c := NewClient(provider.Config{APIKey: "k", BaseURL: srv.URL})
	_, err := c.Generate(context.Background(), &provider.Request{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGenerateNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	c := NewClient(provider.Config{APIKey: "k", BaseURL: srv.URL})
	_, err := c.Generate(context.Background(), &provider.Request{Prompt: "p"})
	assert.ErrorIs(t, err, provider.ErrEmptyResponse)
}

func TestGenerateQuotaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"code": 429, "message": "Resource has been exhausted"}}`))
	}))
	defer srv.Close()

	c := NewClient(provider.Config{APIKey: "k", BaseURL: srv.URL})
	_, err := c.Generate(context.Background(), &provider.Request{Prompt: "p"})

	var se *provider.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, "gemini", se.Provider)
}

func TestGenerateRequestKeyOverridesConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "from-session", r.Header.Get("x-goog-api-key"))
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "ok"}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient(provider.Config{BaseURL: srv.URL})
	resp, err := c.Generate(context.Background(), &provider.Request{Prompt: "p", APIKey: "from-session"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, resp.Model)
}
