package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// anthropicServer answers every Messages call with status and body, and
// hands back the decoded request bodies it saw.
func anthropicServer(t *testing.T, status int, header http.Header, body any) (*AnthropicProvider, *[]map[string]any) {
	t.Helper()
	var seen []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		seen = append(seen, req)
		for k, v := range header {
			w.Header()[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return newAnthropicProvider("claude-haiku", option.WithAPIKey("test-key"), option.WithBaseURL(server.URL)), &seen
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}

func anthropicError(kind string) map[string]any {
	return map[string]any{"type": "error", "error": map[string]any{"type": kind, "message": kind}}
}

func TestAnthropicProvider_Generate(t *testing.T) {
	p, seen := anthropicServer(t, http.StatusOK, nil,
		anthropicMessage(`{"answer":"Bypass lets you skip a lesson you already know."}`, "end_turn"))

	resp, err := p.Generate(context.Background(), Request{
		System:    "You are a patient course assistant.",
		Messages:  []Message{{Role: RoleUser, Content: "What does bypass mean?"}, {Role: RoleAssistant, Content: "..."}},
		Schema:    answerSchema(),
		MaxTokens: 256,
	})
	require.NoError(t, err)
	assert.Equal(t, Usage{InputTokens: 50, OutputTokens: 30, TotalTokens: 80}, resp.Usage)
	assert.Equal(t, "end", resp.StopReason)
	assert.Equal(t, "claude-haiku-4-5-20251001", resp.Model)

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Equal(t, "claude-haiku-4-5-20251001", req["model"])
	assert.EqualValues(t, 256, req["max_tokens"])
	assert.Len(t, req["messages"], 2)
	assert.NotNil(t, req["system"])
}

func TestAnthropicProvider_Failures(t *testing.T) {
	t.Run("rate limit with retry-after", func(t *testing.T) {
		p, seen := anthropicServer(t, http.StatusTooManyRequests, http.Header{"Retry-After": {"7"}}, anthropicError("rate_limit_error"))
		_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "q"}}, MaxTokens: 10})

		var rl *ErrRateLimit
		require.ErrorAs(t, err, &rl)
		assert.Equal(t, 7*time.Second, rl.RetryAfter)
		assert.Len(t, *seen, 1, "the SDK must not retry on its own")
	})

	t.Run("server error", func(t *testing.T) {
		p, _ := anthropicServer(t, http.StatusInternalServerError, nil, anthropicError("api_error"))
		_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "q"}}, MaxTokens: 10})

		var unavail *ErrProviderUnavailable
		assert.ErrorAs(t, err, &unavail)
	})

	t.Run("truncated structured output", func(t *testing.T) {
		p, _ := anthropicServer(t, http.StatusOK, nil, anthropicMessage(`{"answer":"Bypass lets`, "max_tokens"))
		_, err := p.Generate(context.Background(), Request{Schema: answerSchema(), MaxTokens: 64})

		var maxTok *ErrMaxTokensExceeded
		assert.ErrorAs(t, err, &maxTok)
	})
}

func TestAnthropicModels(t *testing.T) {
	assert.Equal(t, "claude-sonnet-4-5-20250929", resolveModel("claude-sonnet", anthropicModels))
	assert.Equal(t, "claude-haiku-4-5-20251001", resolveModel("claude-haiku", anthropicModels))
	assert.Equal(t, "claude-opus-4-1", resolveModel("claude-opus-4-1", anthropicModels))

	p, err := NewAnthropicProvider(ModelConfig{APIKey: "k", Model: "claude-sonnet"})
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5-20250929", p.ModelID())

	_, err = NewAnthropicProvider(ModelConfig{Model: "claude-sonnet"})
	assert.Error(t, err)
}

func TestAPIFailure(t *testing.T) {
	var rl *ErrRateLimit
	require.ErrorAs(t, apiFailure(http.StatusTooManyRequests, "", nil), &rl)
	assert.Zero(t, rl.RetryAfter)
	require.ErrorAs(t, apiFailure(http.StatusTooManyRequests, " 3 ", nil), &rl)
	assert.Equal(t, 3*time.Second, rl.RetryAfter)
	require.ErrorAs(t, apiFailure(http.StatusTooManyRequests, "Wed, 21 Oct 2015 07:28:00 GMT", nil), &rl)
	assert.Zero(t, rl.RetryAfter, "HTTP dates are not parsed")

	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, apiFailure(http.StatusBadGateway, "5", nil), &unavail)
}
