package embedding

import (
	"context"
	"fmt"
)

// Config selects and configures an embedder.
type Config struct {
	// Provider is one of "hash", "openai", "gemini". Default: "hash".
	Provider string

	// Dimensions is the vector size shared by index build and queries.
	Dimensions int

	OpenAI OpenAIConfig
	Gemini GeminiConfig

	// RequestsPerSecond throttles remote providers. Zero disables.
	RequestsPerSecond float64
}

// New builds the configured embedder. Remote providers are wrapped with
// the rate limiter.
func New(ctx context.Context, cfg Config) (Embedder, error) {
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = DefaultDimensions
	}

	switch cfg.Provider {
	case "", "hash":
		return NewHashEmbedder(dims), nil
	case "openai":
		oc := cfg.OpenAI
		oc.Dimensions = dims
		e, err := NewOpenAIEmbedder(oc)
		if err != nil {
			return nil, fmt.Errorf("initializing openai embedder: %w", err)
		}
		return WithRateLimit(e, cfg.RequestsPerSecond, 1), nil
	case "gemini":
		gc := cfg.Gemini
		gc.Dimensions = dims
		e, err := NewGeminiEmbedder(ctx, gc)
		if err != nil {
			return nil, fmt.Errorf("initializing gemini embedder: %w", err)
		}
		return WithRateLimit(e, cfg.RequestsPerSecond, 1), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}
