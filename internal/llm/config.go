package llm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider is one of "anthropic", "openai", "gemini", "openrouter",
	// "offline" or "mock".
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string
	Model   string // Default: "claude-haiku"
	BaseURL string // Optional. Used by tests and proxies.
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey  string
	Model   string // Default: "gemini-flash"
	BaseURL string
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.0-flash-exp"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig keeps retries short: explanations run under their own
// deadline.
func DefaultConfig() Config {
	return Config{
		Provider:   "anthropic",
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     4 * time.Second,
			Multiplier:  2.0,
		},
	}
}

// vendorSettings points at the fields one vendor reads from the
// environment.
type vendorSettings struct {
	apiKey  *string
	model   *string
	baseURL *string
}

// vendorOrder is also the discovery priority.
var vendorOrder = []string{"gemini", "openai", "anthropic", "openrouter"}

func (c *Config) vendor(name string) (vendorSettings, bool) {
	switch name {
	case "anthropic":
		return vendorSettings{&c.Anthropic.APIKey, &c.Anthropic.Model, &c.Anthropic.BaseURL}, true
	case "openai":
		return vendorSettings{&c.OpenAI.APIKey, &c.OpenAI.Model, &c.OpenAI.BaseURL}, true
	case "gemini":
		return vendorSettings{&c.Gemini.APIKey, &c.Gemini.Model, &c.Gemini.BaseURL}, true
	case "openrouter":
		return vendorSettings{&c.OpenRouter.APIKey, &c.OpenRouter.Model, &c.OpenRouter.BaseURL}, true
	}
	return vendorSettings{}, false
}

// envVar names a NEUROQUIZ_<VENDOR>_<SUFFIX> variable.
func envVar(vendor, suffix string) string {
	return "NEUROQUIZ_" + strings.ToUpper(vendor) + "_" + suffix
}

func setFromEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// ConfigFromEnv reads NEUROQUIZ_LLM_PROVIDER plus, for every vendor,
// NEUROQUIZ_<VENDOR>_API_KEY, _MODEL and _BASE_URL. Unset values keep
// their defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	setFromEnv(&cfg.Provider, "NEUROQUIZ_LLM_PROVIDER")

	for _, name := range vendorOrder {
		v, _ := cfg.vendor(name)
		setFromEnv(v.apiKey, envVar(name, "API_KEY"))
		setFromEnv(v.model, envVar(name, "MODEL"))
		setFromEnv(v.baseURL, envVar(name, "BASE_URL"))
	}

	if n, err := strconv.Atoi(os.Getenv("NEUROQUIZ_LLM_MAX_ATTEMPTS")); err == nil && n > 0 {
		cfg.Retry.MaxAttempts = n
	}
	return cfg
}

// DiscoverConfig checks the vendors' standard key variables (GEMINI_API_KEY,
// OPENAI_API_KEY, ...) in vendorOrder and selects the first one found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	for _, name := range vendorOrder {
		key := os.Getenv(strings.ToUpper(name) + "_API_KEY")
		if key == "" {
			continue
		}
		v, _ := cfg.vendor(name)
		*v.apiKey = key
		cfg.Provider = name
		return cfg, true
	}
	return Config{}, false
}

// ResolveConfig prefers an explicit NEUROQUIZ_LLM_PROVIDER and falls back
// to DiscoverConfig.
func ResolveConfig() (Config, error) {
	if os.Getenv("NEUROQUIZ_LLM_PROVIDER") != "" {
		cfg := ConfigFromEnv()
		return cfg, cfg.Validate()
	}
	if cfg, ok := DiscoverConfig(); ok {
		return cfg, nil
	}
	return Config{}, ErrNotConfigured
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	if c.Provider == "mock" || c.Provider == "offline" {
		return nil
	}
	v, ok := c.vendor(c.Provider)
	if !ok {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if *v.apiKey == "" {
		return fmt.Errorf("%s is required for the %s provider", envVar(c.Provider, "API_KEY"), c.Provider)
	}
	return nil
}
