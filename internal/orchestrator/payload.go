package orchestrator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/abhisek/neuroquiz/internal/corpus"
	"github.com/abhisek/neuroquiz/internal/logger"
	"github.com/abhisek/neuroquiz/internal/mastery"
)

// DefaultUserID is used when a payload carries no usable user id.
const DefaultUserID int64 = 0

// DefaultConfidence is assumed when the learner reports none.
const DefaultConfidence = 0.5

// AnswerPayload is the loosely typed inbound answer. Optional fields are
// pointers so absence can be told apart from a zero value. Clients report
// time_taken in seconds.
type AnswerPayload struct {
	UserID        any      `json:"user_id"`
	QuestionID    string   `json:"question_id"`
	QuestionText  string   `json:"question_text"`
	Topic         string   `json:"topic"`
	Answer        string   `json:"answer"`
	IsCorrect     *bool    `json:"is_correct"`
	TimeTakenSec  *float64 `json:"time_taken"`
	Confidence    *float64 `json:"confidence"`
	ErrorType     *string  `json:"error_type"`
	CorrectAnswer string   `json:"correct_answer"`
}

// AnswerEvent is a normalized answer with every default applied.
type AnswerEvent struct {
	UserID        int64            `json:"user_id"`
	QuestionID    string           `json:"question_id"`
	QuestionText  string           `json:"question_text"`
	Topic         string           `json:"topic"`
	Answer        string           `json:"answer"`
	IsCorrect     bool             `json:"is_correct"`
	TimeTakenMs   int              `json:"time_taken_ms"`
	Confidence    float64          `json:"confidence"`
	ErrorType     corpus.ErrorType `json:"error_type"`
	CorrectAnswer string           `json:"correct_answer,omitempty"`
}

// ParsePayload decodes raw JSON into an AnswerEvent. Only undecodable JSON
// is an error; bad or missing fields fall back to their defaults.
func ParsePayload(raw []byte, log *logger.Logger) (AnswerEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	log = logger.OrNop(log)

	var p AnswerPayload
	if err := dec.Decode(&p); err != nil {
		// A mistyped field is skipped; the rest of the payload still decodes.
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return AnswerEvent{}, fmt.Errorf("decode answer payload: %w", err)
		}
		log.Warn("ignoring mistyped answer payload field", "field", typeErr.Field, "error", err)
	}
	return p.Event(log), nil
}

// Event applies defaults and returns the normalized event.
func (p AnswerPayload) Event(log *logger.Logger) AnswerEvent {
	ev := AnswerEvent{
		UserID:        coerceUserID(p.UserID, logger.OrNop(log)),
		QuestionID:    p.QuestionID,
		QuestionText:  p.QuestionText,
		Topic:         strings.TrimSpace(p.Topic),
		Answer:        p.Answer,
		Confidence:    DefaultConfidence,
		ErrorType:     corpus.ErrorConceptual,
		CorrectAnswer: p.CorrectAnswer,
	}
	if ev.Topic == "" {
		ev.Topic = mastery.DefaultTopic
	}
	if p.IsCorrect != nil {
		ev.IsCorrect = *p.IsCorrect
	}
	if p.TimeTakenSec != nil {
		ev.TimeTakenMs = secondsToMs(*p.TimeTakenSec)
	}
	if p.Confidence != nil && !math.IsNaN(*p.Confidence) {
		ev.Confidence = min(1, max(0, *p.Confidence))
	}
	if p.ErrorType != nil {
		ev.ErrorType = corpus.ParseErrorType(*p.ErrorType)
	}
	return ev
}

// secondsToMs converts a reported duration. Zero, negative, NaN and
// absurdly large values mean "not reported".
func secondsToMs(sec float64) int {
	ms := math.Round(sec * 1000)
	if math.IsNaN(ms) || ms <= 0 || ms >= math.MaxInt32 {
		return 0
	}
	return int(ms)
}

// coerceUserID accepts integers, integral floats and numeric strings.
// Anything else resolves to DefaultUserID and is logged.
func coerceUserID(raw any, log *logger.Logger) int64 {
	switch v := raw.(type) {
	case nil:
		log.Warn("answer payload has no user id, using default", "default", DefaultUserID)
		return DefaultUserID
	case json.Number:
		if id, err := v.Int64(); err == nil {
			return id
		}
		if f, err := v.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
			return int64(f)
		}
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < math.MaxInt64 {
			return int64(v)
		}
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return id
		}
	}
	log.Warn("unusable user id in answer payload, using default", "user_id", raw, "default", DefaultUserID)
	return DefaultUserID
}
