package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/neuroquiz/internal/corpus"
	"github.com/abhisek/neuroquiz/internal/mastery"
	"github.com/abhisek/neuroquiz/internal/orchestrator"
	"github.com/abhisek/neuroquiz/internal/policy"
	"github.com/abhisek/neuroquiz/internal/store"
)

type recordingAnswers struct {
	mu     sync.Mutex
	events []orchestrator.AnswerEvent
	result orchestrator.Result
}

func (r *recordingAnswers) HandleAnswer(_ context.Context, ev orchestrator.AnswerEvent) orchestrator.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.result
}

type memMistakes struct {
	mu       sync.Mutex
	mistakes []store.Mistake
	err      error
}

func (m *memMistakes) AppendMistake(_ context.Context, mk *store.Mistake) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	mk.ID = "11111111-2222-3333-4444-555555555555"
	m.mistakes = append(m.mistakes, *mk)
	return nil
}

type fakeResetter struct {
	calls int
	err   error
}

func (f *fakeResetter) Reset(context.Context) error {
	f.calls++
	return f.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	r := NewRouter(RouterConfig{})
	for _, path := range []string{"/", "/health"} {
		rec := do(t, r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", decode(t, rec)["status"])
	}
}

func TestNext_ParsesLoosePayload(t *testing.T) {
	explanation := "Think about energy."
	answers := &recordingAnswers{result: orchestrator.Result{
		NextQuestion: corpus.Emergency(),
		Explanation:  &explanation,
		LearnerState: orchestrator.StateView{TopicMastery: map[string]float64{"General": 0.5}, ConfidenceAvg: 0.5},
	}}
	r := NewRouter(RouterConfig{Answers: answers})

	rec := do(t, r, http.MethodPost, "/quiz/next", `{"user_id":"12","topic":"Cell Biology","is_correct":false,"confidence":0.2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, answers.events, 1)
	ev := answers.events[0]
	assert.Equal(t, int64(12), ev.UserID)
	assert.Equal(t, "Cell Biology", ev.Topic)
	assert.InDelta(t, 0.2, ev.Confidence, 1e-9)

	body := decode(t, rec)
	assert.Equal(t, explanation, body["explanation"])
	next := body["next_question"].(map[string]any)
	assert.Equal(t, corpus.EmergencyID, next["id"])
	state := body["learner_state"].(map[string]any)
	assert.Contains(t, state, "topic_mastery")
}

func TestNext_InvalidJSON(t *testing.T) {
	r := NewRouter(RouterConfig{Answers: &recordingAnswers{}})
	rec := do(t, r, http.MethodPost, "/quiz/next", `{oops`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_payload", decode(t, rec)["error"].(map[string]any)["code"])
}

func TestNext_EndToEnd(t *testing.T) {
	c := corpus.New([]corpus.Question{{
		ID: "BIO_001", Topic: "Cell Biology", Text: "Which organelle is the powerhouse of the cell?",
		Options: []string{"Mitochondria", "Nucleus"}, Correct: "Mitochondria",
	}})
	orch := orchestrator.New(orchestrator.Deps{
		Mastery: mastery.NewService(mastery.NewMemoryStore()),
		Policy:  policy.NewRandom(c, policy.WithExplainProbability(0)),
		Corpus:  c,
	})
	r := NewRouter(RouterConfig{Answers: orch})

	rec := do(t, r, http.MethodPost, "/quiz/next", `{"user_id":1,"topic":"Cell Biology","is_correct":true,"confidence":0.9}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Nil(t, body["explanation"])
	state := body["learner_state"].(map[string]any)
	scores := state["topic_mastery"].(map[string]any)
	assert.InDelta(t, 0.56, scores["Cell Biology"], 1e-9)
	assert.InDelta(t, 0.7, state["confidence_avg"], 1e-9)
	assert.Equal(t, "BIO_001", body["next_question"].(map[string]any)["id"])
}

func TestLogMistake(t *testing.T) {
	ml := &memMistakes{}
	r := NewRouter(RouterConfig{Mistakes: ml})

	rec := do(t, r, http.MethodPost, "/quiz/log_mistake",
		`{"question_id":"BIO_001","topic":"Cell Biology","question_text":"Q","user_answer":"Nucleus","correct_answer":"Mitochondria"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "saved", body["status"])
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", body["id"])

	require.Len(t, ml.mistakes, 1)
	assert.Equal(t, orchestrator.DefaultUserID, ml.mistakes[0].UserID)
	assert.Equal(t, "Nucleus", ml.mistakes[0].UserAnswer)
}

func TestLogMistake_Errors(t *testing.T) {
	rec := do(t, NewRouter(RouterConfig{Mistakes: &memMistakes{}}), http.MethodPost, "/quiz/log_mistake", `{"topic":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, NewRouter(RouterConfig{Mistakes: &memMistakes{err: errors.New("disk full")}}), http.MethodPost,
		"/quiz/log_mistake", `{"user_id":4,"question_id":"Q1","user_answer":"a"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk full")

	rec = do(t, NewRouter(RouterConfig{}), http.MethodPost, "/quiz/log_mistake", `{"question_id":"Q1","user_answer":"a"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGenerateMnemonic(t *testing.T) {
	r := NewRouter(RouterConfig{Rand: rand.New(rand.NewPCG(1, 1))})

	rec := do(t, r, http.MethodPost, "/quiz/generate_mnemonic", `{"topic":"Mitochondria","fact":"ATP production"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t,
		"A surreal, memorable, cartoon mnemonics image to remember that Mitochondria involves ATP production. Use visual puns.",
		body["alt_text"])
	assert.Contains(t, mnemonicPlaceholders, body["image_url"])

	rec = do(t, r, http.MethodPost, "/quiz/generate_mnemonic", `{"topic":"Mitochondria"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReset(t *testing.T) {
	rs := &fakeResetter{}
	r := NewRouter(RouterConfig{Resetter: rs})
	rec := do(t, r, http.MethodPost, "/admin/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reset", decode(t, rec)["status"])
	assert.Equal(t, 1, rs.calls)

	rec = do(t, NewRouter(RouterConfig{Resetter: &fakeResetter{err: errors.New("locked")}}), http.MethodPost, "/admin/reset", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	r := NewRouter(RouterConfig{AllowOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest(http.MethodOptions, "/quiz/next", bytes.NewReader(nil))
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	s := NewServer(RouterConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()
	require.NoError(t, <-done)
}
