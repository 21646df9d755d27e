package diagnosis

import "github.com/abhisek/neuroquiz/internal/corpus"

// Signal classifies a wrong answer. It is what gets appended to a learner's
// error pattern.
type Signal string

const (
	SignalSpeedRush     Signal = "speed-rush"
	SignalLowConfidence Signal = "low-confidence"
	SignalOverconfident Signal = "overconfident"
)

// ClassifyInput holds the context for classification.
type ClassifyInput struct {
	ResponseTimeMs int
	Confidence     float64 // Self-reported, 0.0–1.0
	ErrorType      corpus.ErrorType
}

// Result is the output of classifying a wrong answer.
type Result struct {
	Signal         Signal
	Confidence     float64 // How sure the classifier is, 0.0–1.0
	ClassifierName string
}
