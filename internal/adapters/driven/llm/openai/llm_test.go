package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
	"github.com/custodia-labs/contracta-cli/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(LLMConfig{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		RequestsPerSecond: 1000,
	})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestComplete(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "What is the rent?", req.Messages[0].Content)
		assert.Equal(t, 500, req.MaxTokens)
		assert.Nil(t, req.ResponseFormat)

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "The rent is SGD $3,500."}},
			},
			"usage": map[string]any{
				"prompt_tokens":     100,
				"completion_tokens": 12,
				"total_tokens":      112,
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	completion, err := svc.Complete(context.Background(), "What is the rent?",
		driven.GenerateOptions{MaxTokens: 500, Temperature: 0.1})
	require.NoError(t, err)

	assert.Equal(t, "The rent is SGD $3,500.", completion.Text)
	assert.Equal(t, 112, completion.Usage.TotalTokens)
	assert.Equal(t, 100, completion.Usage.PromptTokens)
}

func TestComplete_JSONMode(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"ok":true}`}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	completion, err := svc.Complete(context.Background(), "extract",
		driven.GenerateOptions{JSONMode: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, completion.Text)
}

func TestComplete_RateLimited(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_exceeded"}}`))
	})

	_, err := svc.Complete(context.Background(), "q", driven.GenerateOptions{})
	require.ErrorIs(t, err, domain.ErrRateLimited)

	var rle *domain.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, 12*time.Second, rle.RetryAfter)
}

func TestComplete_QuotaExceeded(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"no credits","type":"insufficient_quota"}}`))
	})

	_, err := svc.Complete(context.Background(), "q", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
}

func TestComplete_ServerError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := svc.Complete(context.Background(), "q", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestComplete_NoChoices(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := svc.Complete(context.Background(), "q", driven.GenerateOptions{})
	assert.Error(t, err)
}

func TestComplete_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	svc, err := NewLLMService(LLMConfig{
		APIKey:            "k",
		BaseURL:           server.URL,
		RequestsPerSecond: 1000,
	})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), "q", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}
