package explain

import (
	"fmt"
	"strings"

	"github.com/abhisek/neuroquiz/internal/corpus"
)

const explanationSystemPrompt = `You are an expert tutor.

RULES:
- Use only retrieved context
- Explain misconception simply
- Do NOT give final answer directly
- Encourage conceptual clarity`

// FormatContext renders retrieved questions, one line each, in rank order.
func FormatContext(questions []corpus.Question) string {
	var b strings.Builder
	for i, q := range questions {
		misconception := q.Misconception
		if misconception == "" {
			misconception = "None"
		}
		fmt.Fprintf(&b, "Context %d: [Topic: %s] Q: %s -> Correct Answer: %s. Misconception: %s\n",
			i+1, q.Topic, q.Text, q.Correct, misconception)
	}
	return b.String()
}

// buildUserMessage fills the explanation template for one answer.
func buildUserMessage(req Request, contextBlock string) string {
	errorType := req.ErrorType
	if errorType == "" {
		errorType = corpus.ErrorConceptual
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", req.QuestionText)
	fmt.Fprintf(&b, "Student Answer: %s\n", req.Answer)
	fmt.Fprintf(&b, "Mistake Pattern: %s\n", errorType)
	b.WriteString("Context:\n")
	b.WriteString(contextBlock)
	return b.String()
}
