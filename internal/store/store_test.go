package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/neuroquiz/internal/mastery"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is checked in TestOpen_FileDatabase.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		if err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestOpen_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	// Reopening runs the migrations again without error.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	s2.Close()
}

func TestLearnerState_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.GetState(ctx, 42); !errors.Is(err, mastery.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	st := mastery.NewLearnerState(42, now)
	st.TopicMastery["Genetics"] = 0.73
	st.ErrorPattern = []string{"speed-rush", "conceptual"}
	if err := s.PutState(ctx, st); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetState(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	if got.TopicMastery["Genetics"] != 0.73 || got.TopicMastery[mastery.DefaultTopic] != 0.5 {
		t.Errorf("TopicMastery = %v", got.TopicMastery)
	}
	if got.ConfidenceAvg != 0.5 {
		t.Errorf("ConfidenceAvg = %f", got.ConfidenceAvg)
	}
	if len(got.ErrorPattern) != 2 || got.ErrorPattern[0] != "speed-rush" {
		t.Errorf("ErrorPattern = %v", got.ErrorPattern)
	}
	if !got.LastUpdated.Equal(now) {
		t.Errorf("LastUpdated = %v, want %v", got.LastUpdated, now)
	}

	// Put replaces.
	st.ConfidenceAvg = 0.9
	if err := s.PutState(ctx, st); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetState(ctx, 42)
	if got.ConfidenceAvg != 0.9 {
		t.Errorf("ConfidenceAvg after replace = %f", got.ConfidenceAvg)
	}
}

func TestUpdateState_ErrorRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := s.UpdateState(ctx, 1, func(cur *mastery.LearnerState) (*mastery.LearnerState, error) {
		if cur != nil {
			t.Errorf("expected nil state for new user")
		}
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := s.GetState(ctx, 1); !errors.Is(err, mastery.ErrNotFound) {
		t.Fatalf("state written despite error: %v", err)
	}
}

func TestMasteryService_ConcurrentUpdates(t *testing.T) {
	s := openTestStore(t)
	svc := mastery.NewService(s)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			topic := "A"
			if i%2 == 1 {
				topic = "B"
			}
			v := svc.Update(ctx, mastery.Update{UserID: 5, Topic: topic, IsCorrect: true, Confidence: 0.5})
			if v.Degraded() {
				t.Errorf("degraded update: %v", v.Err)
			}
		}()
	}
	wg.Wait()

	st, err := s.GetState(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	want := mastery.InitialScore
	for range 10 {
		want = mastery.Apply(want, true)
	}
	for _, topic := range []string{"A", "B"} {
		if diff := st.TopicMastery[topic] - want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s = %f, want %f", topic, st.TopicMastery[topic], want)
		}
	}
}

func TestMistakes_AppendAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := range 3 {
		m := &Mistake{
			UserID:        7,
			QuestionID:    fmt.Sprintf("Q%d", i),
			Topic:         "Physics",
			QuestionText:  "What is the SI unit of force?",
			UserAnswer:    "Joule",
			CorrectAnswer: "Newton",
		}
		if err := s.AppendMistake(ctx, m); err != nil {
			t.Fatal(err)
		}
		if m.ID == "" || m.Timestamp.IsZero() {
			t.Fatalf("mistake not prepared: %+v", m)
		}
	}
	if err := s.AppendMistake(ctx, &Mistake{UserID: 8, QuestionID: "other"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListMistakes(ctx, 7, QueryOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d mistakes, want 3", len(got))
	}
	if got[0].QuestionID != "Q2" || got[2].QuestionID != "Q0" {
		t.Errorf("expected newest first, got %s..%s", got[0].QuestionID, got[2].QuestionID)
	}

	limited, err := s.ListMistakes(ctx, 7, QueryOpts{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limit ignored: %d", len(limited))
	}
}

func TestReset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutState(ctx, mastery.NewLearnerState(1, time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendMistake(ctx, &Mistake{UserID: 1, QuestionID: "Q"}); err != nil {
		t.Fatal(err)
	}
	if err := s.EventRepo().AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "explanation", Success: true}); err != nil {
		t.Fatal(err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetState(ctx, 1); !errors.Is(err, mastery.ErrNotFound) {
		t.Errorf("state survived reset: %v", err)
	}
	if ms, _ := s.ListMistakes(ctx, 1, QueryOpts{}); len(ms) != 0 {
		t.Errorf("mistakes survived reset: %d", len(ms))
	}
	if evs, _ := s.EventRepo().QueryLLMEvents(ctx, QueryOpts{}); len(evs) != 1 {
		t.Errorf("LLM events should be kept, got %d", len(evs))
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "anthropic", Model: "claude-haiku-4-5", Purpose: "explanation", InputTokens: 100, OutputTokens: 40, LatencyMs: 300, Success: true,
			RequestBody: "[user]\nQuestion: ...", ResponseBody: "Think about energy."},
		{Provider: "anthropic", Model: "claude-haiku-4-5", Purpose: "explanation", InputTokens: 50, OutputTokens: 10, LatencyMs: 100, Success: false,
			ErrorMessage: "rate limited"},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "mnemonic", InputTokens: 20, OutputTokens: 5, LatencyMs: 50, Success: true},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Purpose != "mnemonic" {
		t.Fatalf("unexpected events %+v", all)
	}
	for i := 1; i < len(all); i++ {
		if all[i].Sequence >= all[i-1].Sequence {
			t.Fatalf("events not newest first")
		}
	}

	after, err := repo.QueryLLMEvents(ctx, QueryOpts{After: all[1].Sequence})
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 1 || after[0].Sequence != all[0].Sequence {
		t.Errorf("After filter returned %d events", len(after))
	}

	explained, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "explanation", Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(explained) != 1 || explained[0].Purpose != "explanation" || explained[0].Sequence != all[1].Sequence {
		t.Errorf("Purpose filter returned %+v", explained)
	}

	first := all[2]
	got, err := repo.GetLLMEvent(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ResponseBody != "Think about energy." || !got.Success {
		t.Errorf("GetLLMEvent = %+v", got)
	}
	if missing, err := repo.GetLLMEvent(ctx, 9999); err != nil || missing != nil {
		t.Errorf("missing event: %+v, %v", missing, err)
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(byPurpose) != 2 || byPurpose[0].Purpose != "explanation" {
		t.Fatalf("usage by purpose = %+v", byPurpose)
	}
	if byPurpose[0].Calls != 2 || byPurpose[0].InputTokens != 150 || byPurpose[0].AvgLatencyMs != 200 {
		t.Errorf("explanation usage = %+v", byPurpose[0])
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(byModel) != 2 || byModel[1].Model != "gpt-4o-mini" || byModel[1].OutputTokens != 5 {
		t.Errorf("usage by model = %+v", byModel)
	}
}

func TestNextSequence_Monotonic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	prev := int64(0)
	for range 5 {
		n, err := nextSequence(ctx, s.db)
		if err != nil {
			t.Fatal(err)
		}
		if n <= prev {
			t.Fatalf("sequence went from %d to %d", prev, n)
		}
		prev = n
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("NEUROQUIZ_DB", filepath.Join(dir, "env", "x.db"))
	p, err := DefaultDBPath()
	if err != nil || p != filepath.Join(dir, "env", "x.db") {
		t.Fatalf("env path = %q, %v", p, err)
	}

	t.Setenv("NEUROQUIZ_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err = DefaultDBPath()
	if err != nil || p != filepath.Join(dir, "neuroquiz", "neuroquiz.db") {
		t.Fatalf("xdg path = %q, %v", p, err)
	}
}
