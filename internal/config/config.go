// Package config assembles service settings from the environment. An
// optional .env file is loaded first; real environment variables win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/neuroquiz/internal/embedding"
	"github.com/abhisek/neuroquiz/internal/explain"
	"github.com/abhisek/neuroquiz/internal/orchestrator"
	"github.com/abhisek/neuroquiz/internal/policy"
	"github.com/abhisek/neuroquiz/internal/store/redisstore"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config holds every non-LLM setting. LLM providers are configured by
// llm.ResolveConfig.
type Config struct {
	LogMode string

	DBPath     string
	CorpusPath string

	Store string
	Redis redisstore.Config

	Embedding embedding.Config

	RetrievalK         int
	ExplainProbability float64
	ExplainTimeout     time.Duration

	HTTPAddr     string
	AllowOrigins []string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogMode:    "dev",
		CorpusPath: "data/questions.json",
		Store:      StoreSQLite,
		Redis: redisstore.Config{
			Addr:      "localhost:6379",
			KeyPrefix: redisstore.DefaultKeyPrefix,
		},
		Embedding: embedding.Config{
			Provider:          "hash",
			Dimensions:        embedding.DefaultDimensions,
			RequestsPerSecond: 5,
		},
		RetrievalK:         explain.DefaultK,
		ExplainProbability: policy.DefaultExplainProbability,
		ExplainTimeout:     orchestrator.DefaultExplanationTimeout,
		HTTPAddr:           ":8000",
		AllowOrigins:       []string{"http://localhost:3000"},
	}
}

// Load reads envFile (".env" when empty) if present, then builds the
// configuration from the environment.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	return FromEnv()
}

// FromEnv builds a Config from NEUROQUIZ_* variables over Default.
func FromEnv() (Config, error) {
	cfg := Default()
	var errs []string

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = f
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = d
		}
	}

	str("NEUROQUIZ_LOG_MODE", &cfg.LogMode)
	str("NEUROQUIZ_DB", &cfg.DBPath)
	str("NEUROQUIZ_CORPUS", &cfg.CorpusPath)
	str("NEUROQUIZ_STORE", &cfg.Store)

	str("NEUROQUIZ_REDIS_ADDR", &cfg.Redis.Addr)
	str("NEUROQUIZ_REDIS_PASSWORD", &cfg.Redis.Password)
	num("NEUROQUIZ_REDIS_DB", &cfg.Redis.DB)
	str("NEUROQUIZ_REDIS_PREFIX", &cfg.Redis.KeyPrefix)

	str("NEUROQUIZ_EMBEDDING_PROVIDER", &cfg.Embedding.Provider)
	num("NEUROQUIZ_EMBEDDING_DIM", &cfg.Embedding.Dimensions)
	float("NEUROQUIZ_EMBEDDING_RPS", &cfg.Embedding.RequestsPerSecond)
	str("NEUROQUIZ_EMBEDDING_MODEL", &cfg.Embedding.OpenAI.Model)
	cfg.Embedding.Gemini.Model = cfg.Embedding.OpenAI.Model
	cfg.Embedding.OpenAI.APIKey = firstEnv("NEUROQUIZ_OPENAI_API_KEY", "OPENAI_API_KEY")
	str("NEUROQUIZ_OPENAI_BASE_URL", &cfg.Embedding.OpenAI.BaseURL)
	cfg.Embedding.Gemini.APIKey = firstEnv("NEUROQUIZ_GEMINI_API_KEY", "GEMINI_API_KEY")

	num("NEUROQUIZ_RETRIEVAL_K", &cfg.RetrievalK)
	float("NEUROQUIZ_EXPLAIN_PROBABILITY", &cfg.ExplainProbability)
	dur("NEUROQUIZ_EXPLAIN_TIMEOUT", &cfg.ExplainTimeout)

	str("NEUROQUIZ_HTTP_ADDR", &cfg.HTTPAddr)
	if v := strings.TrimSpace(os.Getenv("NEUROQUIZ_ALLOW_ORIGINS")); v != "" {
		cfg.AllowOrigins = splitList(v)
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreSQLite, StoreRedis)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.RetrievalK <= 0 {
		return fmt.Errorf("retrieval k must be positive, got %d", c.RetrievalK)
	}
	if c.ExplainProbability < 0 || c.ExplainProbability > 1 {
		return fmt.Errorf("explain probability must be within [0, 1], got %v", c.ExplainProbability)
	}
	if c.ExplainTimeout <= 0 {
		return fmt.Errorf("explain timeout must be positive, got %s", c.ExplainTimeout)
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
