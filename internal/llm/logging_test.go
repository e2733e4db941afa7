package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/ladder/internal/store"
)

func openLedger(t *testing.T) store.EventRepo {
	t.Helper()
	s, err := store.Open("file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s.EventRepo()
}

func TestLoggingProvider_RecordsRequests(t *testing.T) {
	repo := openLedger(t)
	mock := NewMockProvider(
		MockJSON(map[string]any{"answer": "A module is a group of lessons."}),
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
	)
	p := WithLogging(mock, ProviderMock, repo, nil)

	ctx := WithPurpose(context.Background(), PurposeAsk)
	req := Request{
		System:   "You are a course assistant.",
		Messages: []Message{{Role: RoleUser, Content: "What is a module?"}},
		Schema:   answerSchema(),
	}
	if _, err := p.Generate(ctx, req); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := p.Generate(WithPurpose(context.Background(), PurposeExplain), Request{}); err == nil {
		t.Fatal("second call should fail")
	}

	events, err := repo.QueryLLMEvents(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}

	// Newest first.
	failed, ok := events[0], events[1]
	if failed.Success || failed.Purpose != PurposeExplain || failed.ErrorMessage == "" {
		t.Errorf("failed event = %+v", failed.LLMRequestEventData)
	}
	if !ok.Success || ok.Purpose != PurposeAsk || ok.Provider != ProviderMock || ok.Model != "mock" {
		t.Errorf("ok event = %+v", ok.LLMRequestEventData)
	}
	for _, want := range []string{"[system]", "[user]", "What is a module?", "[schema: test-answer]"} {
		if !strings.Contains(ok.RequestBody, want) {
			t.Errorf("request body missing %q:\n%s", want, ok.RequestBody)
		}
	}
	if !strings.Contains(ok.ResponseBody, "group of lessons") {
		t.Errorf("response body = %q", ok.ResponseBody)
	}
}

func TestLoggingProvider_ModelIDDelegates(t *testing.T) {
	p := WithLogging(NewMockProvider(), ProviderMock, openLedger(t), nil)
	if p.ModelID() != "mock" {
		t.Fatalf("ModelID() = %q, want mock", p.ModelID())
	}
}

func TestNewProvider(t *testing.T) {
	repo := openLedger(t)

	p, err := NewProvider(context.Background(), Config{Provider: ProviderMock, Retry: RetryConfig{MaxAttempts: 1}}, repo, nil)
	if err != nil {
		t.Fatalf("NewProvider(mock) error = %v", err)
	}
	if p.ModelID() != "mock" {
		t.Errorf("ModelID() = %q", p.ModelID())
	}

	_, err = NewProvider(context.Background(), Config{}, repo, nil)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("NewProvider(empty) error = %v, want ErrNotConfigured", err)
	}

	cfg := DefaultConfig()
	cfg.Provider = ProviderOpenRouter
	cfg.OpenRouter.APIKey = "sk-or"
	if _, err := NewProvider(context.Background(), cfg, nil, nil); err != nil {
		t.Errorf("NewProvider(openrouter) error = %v", err)
	}
}
