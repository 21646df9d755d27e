package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/neuroquiz/internal/logger"
	"github.com/abhisek/neuroquiz/internal/store"
)

// build constructs the bare vendor provider named by cfg.Provider.
func build(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		return NewOpenRouterProvider(cfg.OpenRouter)
	}
	return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
}

// NewProvider builds the configured provider as caller → retry → audit →
// vendor. Each retry attempt is audited separately. A nil eventRepo skips
// auditing; the mock provider is returned undecorated and the offline
// provider is audited but never retried.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log *logger.Logger) (Provider, error) {
	switch cfg.Provider {
	case "mock":
		return NewMockProvider(), nil
	case "offline":
		var p Provider = NewOfflineProvider()
		if eventRepo != nil {
			p = WithLogging(p, eventRepo, cfg.Provider, log)
		}
		return p, nil
	}
	p, err := build(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	if eventRepo != nil {
		p = WithLogging(p, eventRepo, cfg.Provider, log)
	}
	return WithRetry(p, cfg.Retry), nil
}

// NewProviderFromEnv is NewProvider over ResolveConfig. It returns
// ErrNotConfigured when no credentials are present.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo, log *logger.Logger) (Provider, error) {
	cfg, err := ResolveConfig()
	if err != nil {
		return nil, err
	}
	return NewProvider(ctx, cfg, eventRepo, log)
}
