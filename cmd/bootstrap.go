package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/neuroquiz/internal/config"
	"github.com/abhisek/neuroquiz/internal/corpus"
	"github.com/abhisek/neuroquiz/internal/diagnosis"
	"github.com/abhisek/neuroquiz/internal/embedding"
	"github.com/abhisek/neuroquiz/internal/explain"
	"github.com/abhisek/neuroquiz/internal/llm"
	"github.com/abhisek/neuroquiz/internal/logger"
	"github.com/abhisek/neuroquiz/internal/mastery"
	"github.com/abhisek/neuroquiz/internal/orchestrator"
	"github.com/abhisek/neuroquiz/internal/policy"
	"github.com/abhisek/neuroquiz/internal/store"
	"github.com/abhisek/neuroquiz/internal/store/redisstore"
	"github.com/abhisek/neuroquiz/internal/vectorindex"
)

// resetter wipes learner data in whichever backend holds it.
type resetter interface {
	Reset(ctx context.Context) error
}

// learnerBackend is what a learner-state backend has to provide.
type learnerBackend interface {
	mastery.StateStore
	store.MistakeLog
	resetter
}

// app holds the wired components shared by the subcommands.
type app struct {
	cfg    config.Config
	log    *logger.Logger
	corpus *corpus.Corpus
	index  *vectorindex.Flat

	// db always backs the LLM audit log. Learner data lives in learners,
	// which is db itself unless Redis is selected.
	db       *store.Store
	learners learnerBackend

	mastery *mastery.Service
	orch    *orchestrator.Orchestrator

	closers []func() error
}

// bootstrapOptions trims what a subcommand needs.
type bootstrapOptions struct {
	// withLLM builds the explanation provider.
	withLLM bool
}

func bootstrap(ctx context.Context, cmd *cobra.Command, opts bootstrapOptions) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, func() error { log.Sync(); return nil })

	a.corpus = loadCorpus(cfg.CorpusPath, log)

	if err := a.buildIndex(ctx); err != nil {
		a.Close()
		return nil, err
	}

	if err := a.openStores(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var provider llm.Provider
	if opts.withLLM {
		provider, err = llm.NewProviderFromEnv(ctx, a.db.EventRepo(), log)
		switch {
		case errors.Is(err, llm.ErrNotConfigured):
			log.Warn("no LLM provider configured, explanations will echo retrieved context")
			provider, err = llm.NewProvider(ctx, llm.Config{Provider: "offline"}, a.db.EventRepo(), log)
			if err != nil {
				a.Close()
				return nil, fmt.Errorf("init offline provider: %w", err)
			}
		case err != nil:
			a.Close()
			return nil, fmt.Errorf("init llm provider: %w", err)
		default:
			log.Info("llm provider ready", "model", provider.ModelID())
		}
	}

	explainer := explain.NewPipeline(a.index, provider, explain.Config{
		K:           cfg.RetrievalK,
		MaxTokens:   explain.DefaultConfig().MaxTokens,
		Temperature: explain.DefaultConfig().Temperature,
	}, log)

	a.mastery = mastery.NewService(a.learners, mastery.WithLogger(log))
	a.orch = orchestrator.New(orchestrator.Deps{
		Mastery:            a.mastery,
		Diagnosis:          diagnosis.NewService(),
		Policy:             policy.NewRandom(a.corpus, policy.WithExplainProbability(cfg.ExplainProbability)),
		Explainer:          explainer,
		Mistakes:           a.learners,
		Corpus:             a.corpus,
		Logger:             log,
		ExplanationTimeout: cfg.ExplainTimeout,
	})
	return a, nil
}

// loadCorpus falls back to an empty corpus so the policy keeps serving the
// emergency question instead of refusing to start. Dropped records are
// logged one by one.
func loadCorpus(path string, log *logger.Logger) *corpus.Corpus {
	questions, skipped, err := corpus.LoadReport(path)
	for _, s := range skipped {
		log.Warn("skipping invalid question record", "path", path, "index", s.Index, "id", s.ID, "reason", s.Reason)
	}
	if err != nil {
		log.Error("failed to load question bank, serving fallback question", "path", path, "error", err)
		return corpus.New(nil)
	}
	log.Info("question bank loaded", "path", path, "questions", len(questions), "skipped", len(skipped))
	return corpus.New(questions)
}

func (a *app) buildIndex(ctx context.Context) error {
	emb, err := embedding.New(ctx, a.cfg.Embedding)
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}
	idx, err := vectorindex.Build(ctx, a.corpus.Questions(), emb, vectorindex.BuildOptions{})
	if err != nil {
		return fmt.Errorf("build retrieval index: %w", err)
	}
	a.index = idx
	a.log.Info("retrieval index built", "model", emb.ModelName(), "dimensions", idx.Dimensions(), "entries", idx.Len())
	return nil
}

func (a *app) openStores(ctx context.Context) error {
	db, err := store.Open(a.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	switch a.cfg.Store {
	case config.StoreRedis:
		rs, err := redisstore.Open(ctx, a.cfg.Redis)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, rs.Close)
		a.learners = rs
		a.log.Info("learner store ready", "backend", "redis", "addr", a.cfg.Redis.Addr)
	default:
		a.learners = db
		a.log.Info("learner store ready", "backend", "sqlite", "path", a.cfg.DBPath)
	}
	return nil
}

// Close waits for background writes and releases resources in reverse order.
func (a *app) Close() {
	if a.orch != nil {
		a.orch.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}
