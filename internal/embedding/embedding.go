// Package embedding turns text into fixed-dimension dense vectors.
//
// All embedders in this package return unit-length vectors, so squared
// Euclidean distance between two embeddings is 2 - 2*cosine.
package embedding

import (
	"context"
	"math"
)

// Embedder generates vector embeddings from text. Implementations must be
// deterministic for identical input within a process lifetime and safe for
// concurrent use.
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts, returning vectors in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector size every call produces.
	Dimensions() int

	// ModelName identifies the embedding model.
	ModelName() string
}

// Normalize scales v to unit length in place and returns it. A zero vector
// is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}
