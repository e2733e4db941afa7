package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockResponse is one scripted reply of a MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockJSON scripts a reply whose content is v encoded as JSON.
func MockJSON(v any) MockResponse {
	data, err := json.Marshal(v)
	if err != nil {
		return MockResponse{Err: err}
	}
	return MockResponse{Content: data, Usage: Usage{InputTokens: 10, OutputTokens: len(data) / 4}}
}

// MockProvider replays scripted replies in order and records every
// request. Replies are checked against the request schema the way a real
// provider's are. Once the script runs out it fails with
// ErrProviderUnavailable, unless it was made Offline.
type MockProvider struct {
	mu      sync.Mutex
	script  []MockResponse
	next    int
	offline bool
	Calls   []Request
}

// NewMockProvider creates a MockProvider that replays script.
func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{script: script}
}

// Offline makes m answer from a placeholder once its script runs out, so
// the "mock" provider setting works without a network.
func (m *MockProvider) Offline() *MockProvider {
	m.mu.Lock()
	m.offline = true
	m.mu.Unlock()
	return m
}

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	var r MockResponse
	switch {
	case m.next < len(m.script):
		r = m.script[m.next]
		m.next++
	case m.offline:
		r = offlineReply(req)
	default:
		m.mu.Unlock()
		return nil, &ErrProviderUnavailable{Err: fmt.Errorf("mock script exhausted after %d replies", len(m.script))}
	}
	m.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	return finish(req, r.Content, r.Usage, "mock", "end")
}

// offlineReply fills the first required string field of the request
// schema with a notice quoting the learner's question and leaves the
// other required strings empty. Without a schema it answers in plain text.
func offlineReply(req Request) MockResponse {
	question := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			question = req.Messages[i].Content
			break
		}
	}
	notice := "The assistant is running offline, so it cannot answer yet."
	if question != "" {
		notice += fmt.Sprintf(" You asked: %q", question)
	}
	if req.Schema == nil {
		return MockJSON(notice)
	}

	props, _ := req.Schema.Definition["properties"].(map[string]any)
	required, _ := req.Schema.Definition["required"].([]any)
	out := make(map[string]any, len(required))
	for _, f := range required {
		name, _ := f.(string)
		prop, _ := props[name].(map[string]any)
		if prop["type"] != "string" {
			continue
		}
		if len(out) == 0 {
			out[name] = notice
		} else {
			out[name] = ""
		}
	}
	return MockJSON(out)
}

func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a reply to the script.
func (m *MockProvider) AddResponse(r MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, r)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent request.
func (m *MockProvider) LastCall() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return Request{}, false
	}
	return m.Calls[len(m.Calls)-1], true
}
