package corpus

// ErrorType tags the kind of mistake a question usually provokes.
type ErrorType string

const (
	ErrorConceptual  ErrorType = "conceptual"
	ErrorCalculation ErrorType = "calculation"
	ErrorFactRecall  ErrorType = "fact_recall"
)

// ParseErrorType maps free text to an ErrorType. Unknown or empty values
// resolve to ErrorConceptual.
func ParseErrorType(s string) ErrorType {
	switch ErrorType(s) {
	case ErrorCalculation, ErrorFactRecall:
		return ErrorType(s)
	default:
		return ErrorConceptual
	}
}

// UnknownAnswer marks a question whose correct option was never resolved
// by the importer.
const UnknownAnswer = "unknown"

// Question is one immutable quiz item.
type Question struct {
	ID            string    `json:"id"`
	Topic         string    `json:"topic"`
	Difficulty    int       `json:"difficulty"`
	Text          string    `json:"question"`
	Options       []string  `json:"options"`
	Correct       string    `json:"correct"`
	Misconception string    `json:"misconception,omitempty"`
	ErrorType     ErrorType `json:"error_type,omitempty"`
}

// HasOption reports whether answer is one of the question's options.
func (q Question) HasOption(answer string) bool {
	for _, o := range q.Options {
		if o == answer {
			return true
		}
	}
	return false
}

// EmergencyID identifies the built-in question served when no corpus is
// available.
const EmergencyID = "FALLBACK_001"

// Emergency returns the single built-in question.
func Emergency() Question {
	return Question{
		ID:         EmergencyID,
		Topic:      "Cell Biology",
		Difficulty: 1,
		Text:       "What is the powerhouse of the cell?",
		Options:    []string{"Mitochondria", "Nucleus", "Ribosome", "Golgi"},
		Correct:    "Mitochondria",
		ErrorType:  ErrorFactRecall,
	}
}
