// Package orchestrator turns one answer event into the learner's next step:
// update mastery, pick the next question and optionally explain the
// mistake.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/abhisek/neuroquiz/internal/corpus"
	"github.com/abhisek/neuroquiz/internal/diagnosis"
	"github.com/abhisek/neuroquiz/internal/explain"
	"github.com/abhisek/neuroquiz/internal/logger"
	"github.com/abhisek/neuroquiz/internal/mastery"
	"github.com/abhisek/neuroquiz/internal/policy"
	"github.com/abhisek/neuroquiz/internal/store"
)

// DefaultExplanationTimeout bounds how long a response waits for the
// explanation.
const DefaultExplanationTimeout = 20 * time.Second

const mistakeWriteTimeout = 5 * time.Second

// Explainer generates an explanation for a wrong answer.
type Explainer interface {
	Explain(ctx context.Context, req explain.Request) explain.Result
}

// StateView is the learner state returned to callers.
type StateView struct {
	TopicMastery  map[string]float64 `json:"topic_mastery"`
	ConfidenceAvg float64            `json:"confidence_avg"`
	Error         string             `json:"error,omitempty"`
}

// Result is the combined response to one answer.
type Result struct {
	NextQuestion corpus.Question `json:"next_question"`
	Explanation  *string         `json:"explanation"`
	LearnerState StateView       `json:"learner_state"`
}

// Deps are the collaborators of an Orchestrator. Explainer, Mistakes and
// Corpus are optional.
type Deps struct {
	Mastery   *mastery.Service
	Diagnosis *diagnosis.Service
	Policy    policy.Policy
	Explainer Explainer
	Mistakes  store.MistakeLog
	Corpus    *corpus.Corpus
	Logger    *logger.Logger

	ExplanationTimeout time.Duration
}

// Orchestrator handles answer events. It is safe for concurrent use.
type Orchestrator struct {
	deps Deps
	log  *logger.Logger

	// background tracks fire-and-forget mistake writes.
	background sync.WaitGroup
}

// New creates an Orchestrator.
func New(deps Deps) *Orchestrator {
	if deps.Diagnosis == nil {
		deps.Diagnosis = diagnosis.NewService()
	}
	if deps.ExplanationTimeout <= 0 {
		deps.ExplanationTimeout = DefaultExplanationTimeout
	}
	return &Orchestrator{deps: deps, log: logger.OrNop(deps.Logger)}
}

// HandleAnswer processes one answer. It never fails: persistence, retrieval
// and generation problems degrade parts of the Result instead.
func (o *Orchestrator) HandleAnswer(ctx context.Context, ev AnswerEvent) Result {
	o.enrich(&ev)

	u := mastery.Update{
		UserID:     ev.UserID,
		Topic:      ev.Topic,
		IsCorrect:  ev.IsCorrect,
		Confidence: ev.Confidence,
	}
	if !ev.IsCorrect {
		d := o.deps.Diagnosis.Diagnose(&diagnosis.ClassifyInput{
			ResponseTimeMs: ev.TimeTakenMs,
			Confidence:     ev.Confidence,
			ErrorType:      ev.ErrorType,
		})
		u.Signal = string(d.Signal)
		o.logMistake(ctx, ev)
	}

	view := o.deps.Mastery.Update(ctx, u)
	decision := o.deps.Policy.Decide(view)

	res := Result{
		NextQuestion: decision.Question,
		LearnerState: stateView(view),
	}
	if decision.NeedExplanation {
		text := o.explain(ctx, ev)
		res.Explanation = &text
	}

	o.log.Debug("answer handled",
		"user_id", ev.UserID,
		"topic", ev.Topic,
		"correct", ev.IsCorrect,
		"next", decision.Question.ID,
		"explained", decision.NeedExplanation,
	)
	return res
}

// Wait blocks until background mistake writes have finished.
func (o *Orchestrator) Wait() {
	o.background.Wait()
}

func (o *Orchestrator) explain(ctx context.Context, ev AnswerEvent) string {
	if o.deps.Explainer == nil {
		return explain.GenerationUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, o.deps.ExplanationTimeout)
	defer cancel()

	r := o.deps.Explainer.Explain(ctx, explain.Request{
		QuestionText: ev.QuestionText,
		Answer:       ev.Answer,
		ErrorType:    ev.ErrorType,
	})
	return r.Text
}

// enrich fills question details the caller left out from the corpus.
func (o *Orchestrator) enrich(ev *AnswerEvent) {
	if ev.QuestionID == "" {
		return
	}
	q, ok := o.deps.Corpus.ByID(ev.QuestionID)
	if !ok {
		return
	}
	if ev.QuestionText == "" {
		ev.QuestionText = q.Text
	}
	if ev.CorrectAnswer == "" && q.Correct != corpus.UnknownAnswer {
		ev.CorrectAnswer = q.Correct
	}
}

func (o *Orchestrator) logMistake(ctx context.Context, ev AnswerEvent) {
	if o.deps.Mistakes == nil {
		return
	}
	m := &store.Mistake{
		UserID:        ev.UserID,
		QuestionID:    ev.QuestionID,
		Topic:         ev.Topic,
		QuestionText:  ev.QuestionText,
		UserAnswer:    ev.Answer,
		CorrectAnswer: ev.CorrectAnswer,
	}

	o.background.Add(1)
	go func() {
		defer o.background.Done()
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mistakeWriteTimeout)
		defer cancel()
		if err := o.deps.Mistakes.AppendMistake(wctx, m); err != nil {
			o.log.Warn("failed to log mistake", "user_id", ev.UserID, "question_id", ev.QuestionID, "error", err)
		}
	}()
}

func stateView(v mastery.View) StateView {
	sv := StateView{TopicMastery: v.TopicMastery, ConfidenceAvg: v.ConfidenceAvg}
	if sv.TopicMastery == nil {
		sv.TopicMastery = map[string]float64{}
	}
	if v.Err != nil {
		sv.Error = v.Err.Error()
	}
	return sv
}
