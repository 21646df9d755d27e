package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// DefaultDimensions matches the sentence-embedding size the corpus tooling
// was built around.
const DefaultDimensions = 384

// HashEmbedder is an offline embedder based on signed feature hashing of
// word tokens and character trigrams. It needs no network access, is fully
// deterministic, and places texts that share vocabulary close together.
type HashEmbedder struct {
	dims int
}

var _ Embedder = (*HashEmbedder)(nil)

// NewHashEmbedder creates a hashing embedder producing vectors of size dims.
// Non-positive dims select DefaultDimensions.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

const (
	tokenWeight   = 1.0
	trigramWeight = 0.35
)

func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, h.dims)
	for _, tok := range tokenize(text) {
		h.add(v, "w:"+tok, tokenWeight)
		padded := "^" + tok + "$"
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			h.add(v, "c:"+string(runes[i:i+3]), trigramWeight)
		}
	}
	return Normalize(v), nil
}

func (h *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := h.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (h *HashEmbedder) Dimensions() int { return h.dims }

func (h *HashEmbedder) ModelName() string { return "feature-hash" }

// add folds one feature into v. The low bits pick the bucket and the top
// bit picks the sign, which keeps collisions from biasing every bucket
// upwards.
func (h *HashEmbedder) add(v []float32, feature string, weight float32) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(feature))
	sum := f.Sum64()
	bucket := int(sum % uint64(len(v)))
	if sum>>63 == 1 {
		weight = -weight
	}
	v[bucket] += weight
}

// stopwords are dropped so template words in canonical texts ("question",
// "answer", ...) and function words do not dominate similarity.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "is": true, "are": true,
	"in": true, "on": true, "to": true, "and": true, "or": true, "for": true,
	"what": true, "which": true, "by": true, "with": true, "as": true,
	"question": true, "answer": true, "topic": true, "misconception": true,
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if !stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}
