// Package vectorindex provides nearest-neighbour retrieval over the
// question corpus.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/neuroquiz/internal/corpus"
	"github.com/abhisek/neuroquiz/internal/embedding"
)

// ErrDimensionMismatch means an embedder produced vectors whose size differs
// from the index dimension. It is a configuration error.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Hit is one retrieval result.
type Hit struct {
	Question corpus.Question
	// Distance is the squared Euclidean distance to the query.
	Distance float64
	// Position is the question's insertion position in the index.
	Position int
}

// Index answers k-nearest-neighbour queries over free text.
type Index interface {
	Search(ctx context.Context, text string, k int) ([]Hit, error)
	Len() int
}

// BuildOptions tunes index construction.
type BuildOptions struct {
	// BatchSize is the number of texts per EmbedBatch call. Default: 64.
	BatchSize int
	// Concurrency caps in-flight EmbedBatch calls. Default: 4.
	Concurrency int
}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = 64
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	return o
}

// Flat is an exact index: every query is compared against every vector.
// It is immutable after Build and safe for concurrent searches.
type Flat struct {
	embedder  embedding.Embedder
	dim       int
	vectors   [][]float32
	questions []corpus.Question
}

var _ Index = (*Flat)(nil)

// CanonicalText is the representation of a question that gets embedded.
func CanonicalText(q corpus.Question) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(q.Text)
	b.WriteString(" Answer: ")
	b.WriteString(q.Correct)
	b.WriteString(" Topic: ")
	b.WriteString(q.Topic)
	b.WriteString(" Misconception: ")
	b.WriteString(q.Misconception)
	return b.String()
}

// Build embeds every question and returns the index. Any embedding failure
// aborts the build; a vector of the wrong size returns ErrDimensionMismatch.
func Build(ctx context.Context, questions []corpus.Question, e embedding.Embedder, opts BuildOptions) (*Flat, error) {
	opts = opts.withDefaults()
	idx := &Flat{
		embedder:  e,
		dim:       e.Dimensions(),
		vectors:   make([][]float32, len(questions)),
		questions: make([]corpus.Question, len(questions)),
	}
	copy(idx.questions, questions)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for start := 0; start < len(questions); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(questions))
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, q := range questions[start:end] {
				texts = append(texts, CanonicalText(q))
			}
			vecs, err := e.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed questions %d-%d: %w", start, end-1, err)
			}
			if len(vecs) != len(texts) {
				return fmt.Errorf("embed questions %d-%d: got %d vectors", start, end-1, len(vecs))
			}
			for i, v := range vecs {
				if len(v) != idx.dim {
					return fmt.Errorf("%w: question %q has %d, index expects %d",
						ErrDimensionMismatch, questions[start+i].ID, len(v), idx.dim)
				}
				// Each goroutine owns a disjoint range of the slice.
				idx.vectors[start+i] = v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Len returns the number of indexed questions.
func (f *Flat) Len() int { return len(f.questions) }

// Dimensions returns the vector size of the index.
func (f *Flat) Dimensions() int { return f.dim }

// Search embeds text and returns at most k hits in ascending distance,
// ties ordered by insertion position.
func (f *Flat) Search(ctx context.Context, text string, k int) ([]Hit, error) {
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil
	}
	q, err := f.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return f.SearchVector(q, k)
}

// SearchVector is Search for an already-embedded query.
func (f *Flat) SearchVector(query []float32, k int) ([]Hit, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has %d, index expects %d", ErrDimensionMismatch, len(query), f.dim)
	}
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil
	}
	k = min(k, len(f.vectors))

	hits := make([]Hit, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = Hit{Position: i, Distance: squaredL2(query, v)}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Distance < hits[b].Distance
	})

	hits = hits[:k]
	for i := range hits {
		hits[i].Question = f.questions[hits[i].Position]
	}
	return hits, nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
