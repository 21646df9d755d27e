package policy

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/abhisek/neuroquiz/internal/corpus"
	"github.com/abhisek/neuroquiz/internal/mastery"
)

func testCorpus(n int) *corpus.Corpus {
	qs := make([]corpus.Question, n)
	for i := range qs {
		qs[i] = corpus.Question{
			ID:      fmt.Sprintf("Q%03d", i),
			Topic:   "Cell Biology",
			Text:    fmt.Sprintf("question %d", i),
			Options: []string{"a", "b"},
			Correct: "a",
		}
	}
	return corpus.New(qs)
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestRandom_EmptyCorpusServesEmergency(t *testing.T) {
	for _, c := range []*corpus.Corpus{nil, corpus.New(nil)} {
		d := NewRandom(c, WithRand(seeded(1))).Decide(mastery.View{})
		if d.Question.ID != corpus.EmergencyID {
			t.Fatalf("expected %s, got %s", corpus.EmergencyID, d.Question.ID)
		}
		if d.Question.Text != "What is the powerhouse of the cell?" {
			t.Fatalf("unexpected emergency text %q", d.Question.Text)
		}
	}
}

func TestRandom_SelectsFromCorpus(t *testing.T) {
	c := testCorpus(5)
	p := NewRandom(c, WithRand(seeded(7)))

	seen := make(map[string]bool)
	for range 200 {
		d := p.Decide(mastery.View{})
		if _, ok := c.ByID(d.Question.ID); !ok {
			t.Fatalf("question %q not in corpus", d.Question.ID)
		}
		seen[d.Question.ID] = true
	}
	if len(seen) != 5 {
		t.Fatalf("expected all 5 questions over 200 draws, saw %d", len(seen))
	}
}

func TestRandom_SeedIsReproducible(t *testing.T) {
	c := testCorpus(20)
	a := NewRandom(c, WithRand(seeded(42)))
	b := NewRandom(c, WithRand(seeded(42)))
	for i := range 50 {
		da, db := a.Decide(mastery.View{}), b.Decide(mastery.View{})
		if da.Question.ID != db.Question.ID || da.NeedExplanation != db.NeedExplanation {
			t.Fatalf("draw %d diverged: %+v vs %+v", i, da, db)
		}
	}
}

func TestRandom_ExplainProbability(t *testing.T) {
	tests := []struct {
		name   string
		prob   float64
		lo, hi int
	}{
		{"never", 0, 0, 0},
		{"always", 1, 1000, 1000},
		{"default", DefaultExplainProbability, 140, 260},
		{"clamped above", 3, 1000, 1000},
		{"clamped below", -1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewRandom(testCorpus(3), WithRand(seeded(9)), WithExplainProbability(tt.prob))
			n := 0
			for range 1000 {
				if p.Decide(mastery.View{}).NeedExplanation {
					n++
				}
			}
			if n < tt.lo || n > tt.hi {
				t.Fatalf("explanations = %d, want in [%d, %d]", n, tt.lo, tt.hi)
			}
		})
	}
}

func TestRandom_DefaultProbability(t *testing.T) {
	if got := NewRandom(nil).Probability(); got != 0.2 {
		t.Fatalf("Probability() = %v, want 0.2", got)
	}
}

type firstSelector struct{ calls int }

func (s *firstSelector) Select(c *corpus.Corpus, _ mastery.View, _ *rand.Rand) corpus.Question {
	s.calls++
	return c.At(0)
}

func TestRandom_CustomSelector(t *testing.T) {
	sel := &firstSelector{}
	p := NewRandom(testCorpus(4), WithSelector(sel))
	for range 3 {
		if d := p.Decide(mastery.View{}); d.Question.ID != "Q000" {
			t.Fatalf("selector ignored, got %s", d.Question.ID)
		}
	}
	if sel.calls != 3 {
		t.Fatalf("selector calls = %d", sel.calls)
	}
}

func TestRandom_ConcurrentDecide(t *testing.T) {
	p := NewRandom(testCorpus(10), WithRand(seeded(3)))
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				p.Decide(mastery.View{})
			}
		}()
	}
	wg.Wait()
}
