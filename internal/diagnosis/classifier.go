package diagnosis

// Classifier is a rule-based error classifier.
// Returns a signal and confidence (0.0–1.0), or ("", 0) if the rule doesn't apply.
type Classifier interface {
	Name() string
	Classify(input *ClassifyInput) (Signal, float64)
}

// DefaultClassifiers returns classifiers in priority order.
// Speed-rush comes first: a rushed answer says little about what the
// learner believes, whatever confidence they reported.
func DefaultClassifiers() []Classifier {
	return []Classifier{
		&SpeedRushClassifier{},
		&LowConfidenceClassifier{},
		&OverconfidentClassifier{},
	}
}

// RunClassifiers executes rule-based classifiers in order.
// Returns the first match, or ("", 0, "") if no rules apply.
func RunClassifiers(classifiers []Classifier, input *ClassifyInput) (Signal, float64, string) {
	for _, c := range classifiers {
		sig, conf := c.Classify(input)
		if sig != "" {
			return sig, conf, c.Name()
		}
	}
	return "", 0, ""
}
