package diagnosis

const (
	// LowConfidenceThreshold is the reported confidence (exclusive) below
	// which a wrong answer counts as a guess.
	LowConfidenceThreshold = 0.3

	// OverconfidenceThreshold is the reported confidence (inclusive) at
	// which a wrong answer points at a firmly held misconception.
	OverconfidenceThreshold = 0.8
)

// LowConfidenceClassifier flags wrong answers the learner was unsure about.
type LowConfidenceClassifier struct{}

func (c *LowConfidenceClassifier) Name() string { return "low-confidence" }

func (c *LowConfidenceClassifier) Classify(input *ClassifyInput) (Signal, float64) {
	if input.Confidence < LowConfidenceThreshold {
		return SignalLowConfidence, 0.7
	}
	return "", 0
}

// OverconfidentClassifier flags wrong answers given with high confidence.
type OverconfidentClassifier struct{}

func (c *OverconfidentClassifier) Name() string { return "overconfident" }

func (c *OverconfidentClassifier) Classify(input *ClassifyInput) (Signal, float64) {
	if input.Confidence >= OverconfidenceThreshold {
		return SignalOverconfident, 0.8
	}
	return "", 0
}
