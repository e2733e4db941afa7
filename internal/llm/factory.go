package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abhisek/ladder/internal/store"
)

// NewProvider creates a Provider from configuration, wrapped with retry
// and request logging. repo may be nil to skip the request ledger.
func NewProvider(ctx context.Context, cfg Config, repo store.EventRepo, logger *slog.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	var base Provider
	var err error
	sel := cfg.Selected()

	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(sel)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(ProviderOpenAI, sel)
	case ProviderOpenRouter:
		if sel.BaseURL == "" {
			sel.BaseURL = defaultOpenRouterBaseURL
		}
		base, err = NewOpenAIProvider(ProviderOpenRouter, sel)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, sel)
	case ProviderMock:
		base = NewMockProvider().Offline()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → retry → logging → base
	p := base
	if repo != nil {
		p = WithLogging(p, cfg.Provider, repo, logger)
	}
	return WithRetry(p, cfg.Retry, logger), nil
}
