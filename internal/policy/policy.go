// Package policy decides what the learner sees next.
package policy

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/abhisek/neuroquiz/internal/corpus"
	"github.com/abhisek/neuroquiz/internal/mastery"
)

// DefaultExplainProbability is the chance that a decision requests an
// explanation.
const DefaultExplainProbability = 0.2

// Decision is the outcome of one policy step.
type Decision struct {
	Question        corpus.Question
	NeedExplanation bool
}

// Policy picks the next question for a learner.
type Policy interface {
	Decide(view mastery.View) Decision
}

// Selector chooses a question from a non-empty corpus. Implementations may
// use the learner view; UniformSelector ignores it.
type Selector interface {
	Select(c *corpus.Corpus, view mastery.View, rng *rand.Rand) corpus.Question
}

// UniformSelector picks any question with equal probability.
type UniformSelector struct{}

func (UniformSelector) Select(c *corpus.Corpus, _ mastery.View, rng *rand.Rand) corpus.Question {
	return c.At(rng.IntN(c.Len()))
}

// Random is the baseline policy: a uniformly chosen question and a
// fixed-probability explanation flag.
type Random struct {
	corpus      *corpus.Corpus
	selector    Selector
	probability float64

	mu  sync.Mutex
	rng *rand.Rand
}

var _ Policy = (*Random)(nil)

// Option configures a Random policy.
type Option func(*Random)

// WithRand injects the randomness source. Tests pass a seeded generator.
func WithRand(rng *rand.Rand) Option {
	return func(r *Random) { r.rng = rng }
}

// WithSelector replaces the question selection step.
func WithSelector(s Selector) Option {
	return func(r *Random) { r.selector = s }
}

// WithExplainProbability sets the explanation probability. Values outside
// [0, 1] are clamped.
func WithExplainProbability(p float64) Option {
	return func(r *Random) { r.probability = min(1, max(0, p)) }
}

// NewRandom builds the baseline policy over c. A nil or empty corpus is
// allowed; Decide then serves the emergency question.
func NewRandom(c *corpus.Corpus, opts ...Option) *Random {
	r := &Random{
		corpus:      c,
		selector:    UniformSelector{},
		probability: DefaultExplainProbability,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		seed := uint64(time.Now().UnixNano())
		r.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return r
}

// Decide draws the next question and whether to explain the last answer.
func (r *Random) Decide(view mastery.View) Decision {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := corpus.Emergency()
	if r.corpus.Len() > 0 {
		q = r.selector.Select(r.corpus, view, r.rng)
	}
	return Decision{
		Question:        q,
		NeedExplanation: r.rng.Float64() < r.probability,
	}
}

// Probability returns the configured explanation probability.
func (r *Random) Probability() float64 {
	return r.probability
}
