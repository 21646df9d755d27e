package diagnosis

import (
	"testing"

	"github.com/abhisek/neuroquiz/internal/corpus"
)

func TestSpeedRushClassifier(t *testing.T) {
	tests := []struct {
		ms   int
		want Signal
	}{
		{1500, SignalSpeedRush},
		{1, SignalSpeedRush},
		{2000, ""},
		{3000, ""},
		{0, ""}, // not reported
	}
	c := &SpeedRushClassifier{}
	for _, tt := range tests {
		sig, _ := c.Classify(&ClassifyInput{ResponseTimeMs: tt.ms})
		if sig != tt.want {
			t.Errorf("%dms: got %q, want %q", tt.ms, sig, tt.want)
		}
	}
}

func TestLowConfidenceClassifier(t *testing.T) {
	c := &LowConfidenceClassifier{}
	if sig, conf := c.Classify(&ClassifyInput{Confidence: 0.1}); sig != SignalLowConfidence || conf != 0.7 {
		t.Errorf("got %q/%f", sig, conf)
	}
	if sig, _ := c.Classify(&ClassifyInput{Confidence: 0.3}); sig != "" {
		t.Errorf("got %q at threshold, want empty", sig)
	}
}

func TestOverconfidentClassifier(t *testing.T) {
	c := &OverconfidentClassifier{}
	if sig, _ := c.Classify(&ClassifyInput{Confidence: 0.8}); sig != SignalOverconfident {
		t.Errorf("got %q at threshold, want %q", sig, SignalOverconfident)
	}
	if sig, _ := c.Classify(&ClassifyInput{Confidence: 0.79}); sig != "" {
		t.Errorf("got %q, want empty", sig)
	}
}

func TestRunClassifiers_SpeedRushPriority(t *testing.T) {
	// Fast and overconfident: speed-rush wins.
	input := &ClassifyInput{ResponseTimeMs: 900, Confidence: 0.95}
	sig, _, name := RunClassifiers(DefaultClassifiers(), input)
	if sig != SignalSpeedRush || name != "speed-rush" {
		t.Errorf("got %q from %q, want speed-rush", sig, name)
	}
}

func TestRunClassifiers_NoMatch(t *testing.T) {
	sig, conf, name := RunClassifiers(DefaultClassifiers(), &ClassifyInput{ResponseTimeMs: 5000, Confidence: 0.5})
	if sig != "" || conf != 0 || name != "" {
		t.Errorf("got (%q, %f, %q), want no match", sig, conf, name)
	}
}

func TestDefaultClassifiers_Order(t *testing.T) {
	want := []string{"speed-rush", "low-confidence", "overconfident"}
	got := DefaultClassifiers()
	if len(got) != len(want) {
		t.Fatalf("got %d classifiers, want %d", len(got), len(want))
	}
	for i, c := range got {
		if c.Name() != want[i] {
			t.Errorf("classifier %d is %q, want %q", i, c.Name(), want[i])
		}
	}
}

func TestService_Diagnose(t *testing.T) {
	svc := NewService()
	tests := []struct {
		name  string
		input ClassifyInput
		want  Signal
		by    string
	}{
		{"rushed", ClassifyInput{ResponseTimeMs: 1200, Confidence: 0.5}, SignalSpeedRush, "speed-rush"},
		{"guess", ClassifyInput{ResponseTimeMs: 8000, Confidence: 0.2}, SignalLowConfidence, "low-confidence"},
		{"sure but wrong", ClassifyInput{ResponseTimeMs: 8000, Confidence: 0.9}, SignalOverconfident, "overconfident"},
		{"falls back to error type", ClassifyInput{ResponseTimeMs: 8000, Confidence: 0.5, ErrorType: corpus.ErrorCalculation}, Signal("calculation"), "error-type"},
		{"defaults to conceptual", ClassifyInput{ResponseTimeMs: 8000, Confidence: 0.5}, Signal("conceptual"), "error-type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.Diagnose(&tt.input)
			if res.Signal != tt.want || res.ClassifierName != tt.by {
				t.Errorf("got %q from %q, want %q from %q", res.Signal, res.ClassifierName, tt.want, tt.by)
			}
		})
	}
}

func TestNewServiceWith_EmptyChain(t *testing.T) {
	res := NewServiceWith().Diagnose(&ClassifyInput{ResponseTimeMs: 10, ErrorType: corpus.ErrorFactRecall})
	if res.Signal != Signal(corpus.ErrorFactRecall) {
		t.Fatalf("got %q", res.Signal)
	}
}
