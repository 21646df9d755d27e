package diagnosis

import "github.com/abhisek/neuroquiz/internal/corpus"

// Service classifies wrong answers into error signals.
type Service struct {
	classifiers []Classifier
}

// NewService creates a diagnosis service with the default rule chain.
func NewService() *Service {
	return &Service{classifiers: DefaultClassifiers()}
}

// NewServiceWith creates a diagnosis service with a custom rule chain.
func NewServiceWith(classifiers ...Classifier) *Service {
	return &Service{classifiers: classifiers}
}

// Diagnose classifies a wrong answer. When no rule applies the signal falls
// back to the question's error type.
func (s *Service) Diagnose(input *ClassifyInput) *Result {
	sig, conf, name := RunClassifiers(s.classifiers, input)
	if sig != "" {
		return &Result{Signal: sig, Confidence: conf, ClassifierName: name}
	}

	et := input.ErrorType
	if et == "" {
		et = corpus.ErrorConceptual
	}
	return &Result{
		Signal:         Signal(et),
		Confidence:     0.5,
		ClassifierName: "error-type",
	}
}
