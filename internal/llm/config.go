package llm

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Provider names.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderMock       = "mock"
)

// ErrNotConfigured means no provider credentials were found. The
// assistant is disabled in that case rather than failing the app.
var ErrNotConfigured = errors.New("no LLM provider configured")

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects the backend: anthropic, openai, openrouter,
	// gemini or mock. Empty means discover from standard API key vars.
	Provider string

	Anthropic  ModelConfig
	OpenAI     ModelConfig
	OpenRouter ModelConfig
	Gemini     ModelConfig
	Retry      RetryConfig

	// Timeout bounds a single assistant request including retries.
	Timeout time.Duration
}

// ModelConfig holds one provider's credentials and model.
type ModelConfig struct {
	APIKey  string
	Model   string
	BaseURL string // OpenAI-compatible providers only
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// DefaultConfig returns a Config with sensible defaults and no provider.
func DefaultConfig() Config {
	return Config{
		Anthropic:  ModelConfig{Model: "claude-haiku"},
		OpenAI:     ModelConfig{Model: "gpt-4o-mini"},
		OpenRouter: ModelConfig{Model: "google/gemini-2.0-flash-001", BaseURL: defaultOpenRouterBaseURL},
		Gemini:     ModelConfig{Model: "gemini-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// ConfigFromEnv builds a Config from LADDER_LLM_* variables. When no
// provider is named, the first standard API key variable found picks one.
func ConfigFromEnv() Config {
	return configFrom(os.Getenv)
}

func configFrom(getenv func(string) string) Config {
	cfg := DefaultConfig()

	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Provider, "LADDER_LLM_PROVIDER")

	set(&cfg.Anthropic.APIKey, "LADDER_ANTHROPIC_API_KEY")
	set(&cfg.Anthropic.Model, "LADDER_ANTHROPIC_MODEL")
	set(&cfg.OpenAI.APIKey, "LADDER_OPENAI_API_KEY")
	set(&cfg.OpenAI.Model, "LADDER_OPENAI_MODEL")
	set(&cfg.OpenAI.BaseURL, "LADDER_OPENAI_BASE_URL")
	set(&cfg.OpenRouter.APIKey, "LADDER_OPENROUTER_API_KEY")
	set(&cfg.OpenRouter.Model, "LADDER_OPENROUTER_MODEL")
	set(&cfg.Gemini.APIKey, "LADDER_GEMINI_API_KEY")
	set(&cfg.Gemini.Model, "LADDER_GEMINI_MODEL")

	if v := getenv("LADDER_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}

	if cfg.Provider == "" {
		cfg.discover(getenv)
	}
	return cfg
}

// discover probes standard API key variables in priority order and
// selects the first provider whose key is found.
func (c *Config) discover(getenv func(string) string) {
	probes := []struct {
		provider string
		env      string
		dst      *ModelConfig
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY", &c.Anthropic},
		{ProviderOpenAI, "OPENAI_API_KEY", &c.OpenAI},
		{ProviderGemini, "GEMINI_API_KEY", &c.Gemini},
		{ProviderOpenRouter, "OPENROUTER_API_KEY", &c.OpenRouter},
	}
	for _, p := range probes {
		if p.dst.APIKey != "" {
			c.Provider = p.provider
			return
		}
	}
	for _, p := range probes {
		if k := getenv(p.env); k != "" {
			c.Provider = p.provider
			p.dst.APIKey = k
			return
		}
	}
}

// Selected returns the model settings of the chosen provider.
func (c Config) Selected() ModelConfig {
	switch c.Provider {
	case ProviderAnthropic:
		return c.Anthropic
	case ProviderOpenAI:
		return c.OpenAI
	case ProviderOpenRouter:
		return c.OpenRouter
	case ProviderGemini:
		return c.Gemini
	}
	return ModelConfig{Model: ProviderMock}
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "":
		return ErrNotConfigured
	case ProviderMock:
		return nil
	case ProviderAnthropic, ProviderOpenAI, ProviderOpenRouter, ProviderGemini:
		if c.Selected().APIKey == "" {
			return fmt.Errorf("%w: an API key is required for the %s provider", ErrNotConfigured, c.Provider)
		}
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
}
