// Package explain produces short tutoring explanations grounded in
// questions retrieved from the corpus.
package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/neuroquiz/internal/corpus"
	"github.com/abhisek/neuroquiz/internal/llm"
	"github.com/abhisek/neuroquiz/internal/logger"
	"github.com/abhisek/neuroquiz/internal/vectorindex"
)

// DefaultK is the number of neighbours placed in the prompt.
const DefaultK = 2

// Fallback texts returned instead of an error.
const (
	ContextUnavailable    = "Explanation unavailable: context unavailable."
	GenerationUnavailable = unavailablePrefix + "no LLM provider configured"
	unavailablePrefix     = "Explanation unavailable: "
)

var errNoQuestion = errors.New("question text is empty")

// Request describes the answer being explained.
type Request struct {
	QuestionText string
	Answer       string
	ErrorType    corpus.ErrorType
}

// Result is the pipeline outcome. Degraded results carry a fixed
// "unavailable" text.
type Result struct {
	Text     string
	Contexts []corpus.Question
	Degraded bool
}

// Config tunes the pipeline.
type Config struct {
	K           int
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the standard retrieval and generation settings.
func DefaultConfig() Config {
	return Config{K: DefaultK, MaxTokens: 400, Temperature: 0.4}
}

// Pipeline retrieves context, builds the prompt and calls the model.
type Pipeline struct {
	index    vectorindex.Index
	provider llm.Provider
	cfg      Config
	log      *logger.Logger
}

// NewPipeline builds a pipeline. A nil index or provider is allowed and
// yields degraded results.
func NewPipeline(index vectorindex.Index, provider llm.Provider, cfg Config, log *logger.Logger) *Pipeline {
	if cfg.K <= 0 {
		cfg.K = DefaultK
	}
	return &Pipeline{index: index, provider: provider, cfg: cfg, log: logger.OrNop(log)}
}

// Explain never returns an error. Retrieval problems yield
// ContextUnavailable and generation problems an "unavailable" text naming
// the cause.
func (p *Pipeline) Explain(ctx context.Context, req Request) Result {
	contexts, err := p.retrieve(ctx, req)
	if err != nil {
		p.log.Warn("explanation context unavailable", "error", err)
		return Result{Text: ContextUnavailable, Degraded: true}
	}

	if p.provider == nil {
		return Result{Text: GenerationUnavailable, Contexts: contexts, Degraded: true}
	}

	text, err := p.generate(ctx, req, contexts)
	if err != nil {
		p.log.Warn("explanation generation failed", "error", err)
		return Result{Text: unavailablePrefix + err.Error(), Contexts: contexts, Degraded: true}
	}
	return Result{Text: text, Contexts: contexts}
}

// BuildPrompt returns the generation request for req given the retrieved
// contexts.
func (p *Pipeline) BuildPrompt(req Request, contexts []corpus.Question) llm.Request {
	r := llm.UserPrompt(explanationSystemPrompt, buildUserMessage(req, FormatContext(contexts)), p.cfg.MaxTokens)
	r.Temperature = p.cfg.Temperature
	return r
}

func (p *Pipeline) retrieve(ctx context.Context, req Request) ([]corpus.Question, error) {
	if strings.TrimSpace(req.QuestionText) == "" {
		return nil, errNoQuestion
	}
	if p.index == nil || p.index.Len() == 0 {
		return nil, errors.New("index is empty")
	}
	hits, err := p.index.Search(ctx, req.QuestionText, p.cfg.K)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	out := make([]corpus.Question, len(hits))
	for i, h := range hits {
		out[i] = h.Question
	}
	return out, nil
}

func (p *Pipeline) generate(ctx context.Context, req Request, contexts []corpus.Question) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeExplanation)
	resp, err := p.provider.Generate(ctx, p.BuildPrompt(req, contexts))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("timed out: %w", ctxErr)
		}
		return "", err
	}
	return resp.Content, nil
}
