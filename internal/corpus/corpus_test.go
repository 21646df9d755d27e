package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleBank = `[
  {"id": "BIO_001", "topic": "Cell Biology", "difficulty": 2,
   "question": "Which organelle produces ATP?",
   "options": ["Mitochondria", "Nucleus", "Ribosome", "Golgi"],
   "correct": "Mitochondria",
   "misconception": "Students confuse the nucleus as the energy centre.",
   "error_type": "conceptual"},
  {"id": "CHEM_001", "topic": "Chemistry",
   "question": "What is the pH of pure water at 25C?",
   "options": ["5", "7", "9", "14"],
   "correct": "7"},
  {"id": "PHY_001", "topic": "Physics", "difficulty": 3,
   "question": "Unit of force?",
   "options": ["Joule", "Newton", "Watt", "Pascal"],
   "correct": "unknown",
   "error_type": "fact_recall"}
]`

func TestParse_ValidBank(t *testing.T) {
	qs, err := Parse([]byte(sampleBank))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(qs) != 3 {
		t.Fatalf("len = %d, want 3", len(qs))
	}

	tests := []struct {
		idx        int
		id         string
		difficulty int
		errType    ErrorType
	}{
		{0, "BIO_001", 2, ErrorConceptual},
		{1, "CHEM_001", 1, ErrorConceptual}, // defaults applied
		{2, "PHY_001", 3, ErrorFactRecall},
	}
	for _, tt := range tests {
		q := qs[tt.idx]
		if q.ID != tt.id {
			t.Errorf("[%d] ID = %q, want %q", tt.idx, q.ID, tt.id)
		}
		if q.Difficulty != tt.difficulty {
			t.Errorf("[%d] Difficulty = %d, want %d", tt.idx, q.Difficulty, tt.difficulty)
		}
		if q.ErrorType != tt.errType {
			t.Errorf("[%d] ErrorType = %q, want %q", tt.idx, q.ErrorType, tt.errType)
		}
	}
	if qs[0].Text != "Which organelle produces ATP?" {
		t.Errorf("Text = %q", qs[0].Text)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"not an array", `{"id":"x"}`},
		{"null", `null`},
		{"missing question", `[{"id":"a","topic":"t","options":["x","y"],"correct":"x"}]`},
		{"too few options", `[{"id":"a","topic":"t","question":"q","options":["x"],"correct":"x"}]`},
		{"difficulty out of range", `[{"id":"a","topic":"t","question":"q","options":["x","y"],"correct":"x","difficulty":9}]`},
		{"bad error type", `[{"id":"a","topic":"t","question":"q","options":["x","y"],"correct":"x","error_type":"guess"}]`},
		{"correct not an option", `[{"id":"a","topic":"t","question":"q","options":["x","y"],"correct":"z"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidCorpus) {
				t.Errorf("expected ErrInvalidCorpus, got %v", err)
			}
		})
	}
}

func TestParse_EmptyArray(t *testing.T) {
	qs, skipped, err := ParseReport([]byte(`[]`))
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if len(qs) != 0 || len(skipped) != 0 {
		t.Fatalf("got %d questions, %d skipped", len(qs), len(skipped))
	}
}

func TestParseReport_SkipsBadRecords(t *testing.T) {
	tests := []struct {
		name    string
		bad     string
		skipID  string
		keepIDs []string
	}{
		{
			name:    "correct not an option",
			bad:     `{"id":"BAD_001","topic":"t","question":"q","options":["x","y"],"correct":"z"}`,
			skipID:  "BAD_001",
			keepIDs: []string{"GOOD_001", "GOOD_002"},
		},
		{
			name:    "duplicate id keeps the first",
			bad:     `{"id":"GOOD_001","topic":"t","question":"again","options":["x","y"],"correct":"y"}`,
			skipID:  "GOOD_001",
			keepIDs: []string{"GOOD_001", "GOOD_002"},
		},
		{
			name:    "schema violation",
			bad:     `{"id":"BAD_002","topic":"t","question":"q","options":["x"],"correct":"x"}`,
			skipID:  "BAD_002",
			keepIDs: []string{"GOOD_001", "GOOD_002"},
		},
		{
			name:    "not an object",
			bad:     `"stray"`,
			skipID:  "",
			keepIDs: []string{"GOOD_001", "GOOD_002"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `[
				{"id":"GOOD_001","topic":"t","question":"q1","options":["x","y"],"correct":"x"},
				` + tt.bad + `,
				{"id":"GOOD_002","topic":"t","question":"q2","options":["x","y"],"correct":"y"}
			]`
			qs, skipped, err := ParseReport([]byte(raw))
			if err != nil {
				t.Fatalf("ParseReport: %v", err)
			}
			if len(qs) != len(tt.keepIDs) {
				t.Fatalf("kept %d questions, want %d", len(qs), len(tt.keepIDs))
			}
			for i, id := range tt.keepIDs {
				if qs[i].ID != id {
					t.Errorf("[%d] ID = %q, want %q", i, qs[i].ID, id)
				}
			}
			if qs[0].Text != "q1" {
				t.Errorf("first record must win, got text %q", qs[0].Text)
			}
			if len(skipped) != 1 {
				t.Fatalf("skipped = %+v, want one record", skipped)
			}
			if skipped[0].Index != 1 || skipped[0].ID != tt.skipID || skipped[0].Reason == "" {
				t.Errorf("skipped = %+v", skipped[0])
			}
		})
	}
}

func TestParseReport_AllSkipped(t *testing.T) {
	raw := `[
		{"id":"a","topic":"t","question":"q","options":["x","y"],"correct":"z"},
		{"id":"b","topic":"t","question":"q","options":["x"],"correct":"x"}
	]`
	qs, skipped, err := ParseReport([]byte(raw))
	if !errors.Is(err, ErrInvalidCorpus) {
		t.Fatalf("err = %v, want ErrInvalidCorpus", err)
	}
	if qs != nil || len(skipped) != 2 {
		t.Fatalf("got %d questions, %d skipped", len(qs), len(skipped))
	}
}

func TestLoadReport_KeepsGoodRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	bank := `[
		{"id":"a","topic":"t","question":"q","options":["x","y"],"correct":"x"},
		{"id":"b","topic":"t","question":"q","options":["x","y"],"correct":"nope"}
	]`
	if err := os.WriteFile(path, []byte(bank), 0o644); err != nil {
		t.Fatal(err)
	}
	qs, skipped, err := LoadReport(path)
	if err != nil {
		t.Fatalf("LoadReport: %v", err)
	}
	if len(qs) != 1 || qs[0].ID != "a" {
		t.Fatalf("questions = %+v", qs)
	}
	if len(skipped) != 1 || skipped[0].ID != "b" {
		t.Fatalf("skipped = %+v", skipped)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	if err := os.WriteFile(path, []byte(sampleBank), 0o644); err != nil {
		t.Fatal(err)
	}
	qs, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c := New(qs)
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	q, ok := c.ByID("CHEM_001")
	if !ok || q.Correct != "7" {
		t.Fatalf("ByID(CHEM_001) = %+v, %v", q, ok)
	}
	if _, ok := c.ByID("missing"); ok {
		t.Fatal("expected miss for unknown id")
	}
}

func TestCorpus_NilIsEmpty(t *testing.T) {
	var c *Corpus
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0", c.Len())
	}
	if c.Questions() != nil {
		t.Fatal("expected nil questions")
	}
}

func TestCorpus_CopiesInput(t *testing.T) {
	qs := []Question{{ID: "a", Text: "one"}}
	c := New(qs)
	qs[0].Text = "mutated"
	if c.At(0).Text != "one" {
		t.Fatal("corpus must not alias the caller's slice")
	}
}

func TestEmergency(t *testing.T) {
	q := Emergency()
	if q.ID != EmergencyID {
		t.Fatalf("ID = %q, want %q", q.ID, EmergencyID)
	}
	if !q.HasOption(q.Correct) {
		t.Fatal("emergency question must have its answer among the options")
	}
}

func TestParseErrorType(t *testing.T) {
	tests := map[string]ErrorType{
		"":            ErrorConceptual,
		"conceptual":  ErrorConceptual,
		"calculation": ErrorCalculation,
		"fact_recall": ErrorFactRecall,
		"other":       ErrorConceptual,
	}
	for in, want := range tests {
		if got := ParseErrorType(in); got != want {
			t.Errorf("ParseErrorType(%q) = %q, want %q", in, got, want)
		}
	}
}
