package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, geminiModels); got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(answerSchema().Definition)

	if s.Type != genai.TypeObject {
		t.Fatalf("Type = %s, want OBJECT", s.Type)
	}
	if len(s.Properties) != 4 {
		t.Fatalf("properties = %d, want 4", len(s.Properties))
	}
	if s.Properties["answer"].Type != genai.TypeString {
		t.Errorf("answer type = %s", s.Properties["answer"].Type)
	}
	if got := s.Properties["tone"].Enum; len(got) != 2 || got[0] != "calm" {
		t.Errorf("tone enum = %v", got)
	}
	if s.Properties["refs"].Type != genai.TypeArray || s.Properties["refs"].Items.Type != genai.TypeInteger {
		t.Errorf("refs = %+v", s.Properties["refs"])
	}
	if len(s.Required) != 1 || s.Required[0] != "answer" {
		t.Errorf("Required = %v", s.Required)
	}
}

func TestGeminiSchema_StringSlices(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type":     "object",
		"required": []string{"a", "b"},
		"properties": map[string]any{
			"a": map[string]any{"type": "mystery"},
		},
	})
	if len(s.Required) != 2 {
		t.Errorf("Required = %v", s.Required)
	}
	if s.Properties["a"].Type != genai.TypeString {
		t.Errorf("unknown type should fall back to STRING, got %s", s.Properties["a"].Type)
	}
}
