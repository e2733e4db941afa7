package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ask(q string) Request {
	return Request{System: "sys", Messages: []Message{{Role: RoleUser, Content: q}}}
}

func TestMockProvider_Script(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5}},
		MockResponse{Err: &ErrRateLimit{}},
	)
	ctx := context.Background()

	resp, err := mock.Generate(ctx, ask("first"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(resp.Content))
	assert.Equal(t, Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, resp.Usage)
	assert.Equal(t, "end", resp.StopReason)
	assert.Equal(t, "mock", resp.Model)

	_, err = mock.Generate(ctx, ask("second"))
	var rl *ErrRateLimit
	assert.ErrorAs(t, err, &rl)

	_, err = mock.Generate(ctx, ask("third"))
	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail, "an exhausted script fails")

	assert.Equal(t, 3, mock.CallCount())
	last, ok := mock.LastCall()
	require.True(t, ok)
	assert.Equal(t, "third", last.Messages[0].Content)
	assert.Equal(t, "sys", mock.Calls[0].System)
}

func TestMockProvider_ValidatesSchema(t *testing.T) {
	mock := NewMockProvider(MockJSON(map[string]any{"reply": "wrong"}))
	mock.AddResponse(MockJSON(map[string]any{"answer": "ok"}))
	req := Request{Schema: answerSchema()}

	_, err := mock.Generate(context.Background(), req)
	var inv *ErrInvalidResponse
	require.ErrorAs(t, err, &inv)

	resp, err := mock.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"ok"}`, string(resp.Content))
}

func TestMockProvider_Offline(t *testing.T) {
	mock := NewMockProvider(MockJSON(map[string]any{"answer": "scripted"})).Offline()
	req := ask("what is a token?")
	req.Schema = answerSchema()

	resp, err := mock.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"scripted"}`, string(resp.Content), "the script comes first")

	resp, err = mock.Generate(context.Background(), req)
	require.NoError(t, err)
	var out map[string]string
	require.NoError(t, json.Unmarshal(resp.Content, &out))
	assert.Contains(t, out["answer"], "offline")
	assert.Contains(t, out["answer"], "what is a token?")

	plain, err := NewMockProvider().Offline().Generate(context.Background(), Request{})
	require.NoError(t, err)
	var text string
	require.NoError(t, json.Unmarshal(plain.Content, &text))
	assert.Contains(t, text, "offline")
}
