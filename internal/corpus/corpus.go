// Package corpus holds the question bank. A Corpus is loaded once at
// startup and is safe for concurrent reads.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrInvalidCorpus reports a dataset that fails validation.
var ErrInvalidCorpus = errors.New("invalid corpus")

// Corpus is an immutable, ordered collection of questions.
type Corpus struct {
	questions []Question
	byID      map[string]int
}

// New builds a Corpus from questions. The slice is copied.
func New(questions []Question) *Corpus {
	qs := make([]Question, len(questions))
	copy(qs, questions)
	byID := make(map[string]int, len(qs))
	for i, q := range qs {
		byID[q.ID] = i
	}
	return &Corpus{questions: qs, byID: byID}
}

// Len returns the number of questions. A nil Corpus is empty.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.questions)
}

// At returns the question at position i.
func (c *Corpus) At(i int) Question {
	return c.questions[i]
}

// Questions returns a copy of all questions in load order.
func (c *Corpus) Questions() []Question {
	if c == nil {
		return nil
	}
	out := make([]Question, len(c.questions))
	copy(out, c.questions)
	return out
}

// ByID looks a question up by its identifier.
func (c *Corpus) ByID(id string) (Question, bool) {
	if c == nil {
		return Question{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Question{}, false
	}
	return c.questions[i], true
}

// Skipped is a question bank record that was dropped while parsing.
type Skipped struct {
	// Index is the record's position in the file.
	Index  int
	ID     string
	Reason string
}

// Load reads and validates a JSON question bank. Invalid records are
// dropped; see LoadReport.
func Load(path string) ([]Question, error) {
	questions, _, err := LoadReport(path)
	return questions, err
}

// LoadReport is Load that also returns the records it dropped.
func LoadReport(path string) ([]Question, []Skipped, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read corpus %s: %w", filepath.Base(path), err)
	}
	return ParseReport(raw)
}

// Parse is ParseReport without the list of dropped records.
func Parse(raw []byte) ([]Question, error) {
	questions, _, err := ParseReport(raw)
	return questions, err
}

// ParseReport decodes a question bank. Each record is validated against
// the question schema on its own. A record that fails it, repeats an
// earlier id, or names a correct answer that is not among its options is
// skipped and reported. The bank is rejected only when the file is not a
// JSON array or when every record was skipped.
//
// Difficulty defaults to 1 and ErrorType to conceptual when absent.
func ParseReport(raw []byte) ([]Question, []Skipped, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, nil, fmt.Errorf("%w: expected a JSON array of questions: %v", ErrInvalidCorpus, err)
	}
	if records == nil {
		return nil, nil, fmt.Errorf("%w: expected a JSON array of questions", ErrInvalidCorpus)
	}

	questions := make([]Question, 0, len(records))
	var skipped []Skipped
	seen := make(map[string]bool, len(records))
	for i, rec := range records {
		q, err := parseQuestion(rec)
		if err == nil && seen[q.ID] {
			err = fmt.Errorf("duplicate id %q", q.ID)
		}
		if err != nil {
			skipped = append(skipped, Skipped{Index: i, ID: recordID(rec), Reason: err.Error()})
			continue
		}
		seen[q.ID] = true
		questions = append(questions, q)
	}

	if len(questions) == 0 && len(skipped) > 0 {
		return nil, skipped, fmt.Errorf("%w: all %d records skipped, first: record %d: %s",
			ErrInvalidCorpus, len(skipped), skipped[0].Index, skipped[0].Reason)
	}
	return questions, skipped, nil
}

func parseQuestion(rec json.RawMessage) (Question, error) {
	if err := validateQuestion(rec); err != nil {
		return Question{}, err
	}
	var q Question
	if err := json.Unmarshal(rec, &q); err != nil {
		return Question{}, fmt.Errorf("decode question: %w", err)
	}
	if q.Correct != UnknownAnswer && !q.HasOption(q.Correct) {
		return Question{}, fmt.Errorf("correct answer %q is not an option", q.Correct)
	}
	if q.Difficulty == 0 {
		q.Difficulty = 1
	}
	q.ErrorType = ParseErrorType(string(q.ErrorType))
	return q, nil
}

// recordID pulls the id out of a record that may not be a valid question.
func recordID(rec json.RawMessage) string {
	var head struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(rec, &head); err != nil || head.ID == nil {
		return ""
	}
	return fmt.Sprint(head.ID)
}
