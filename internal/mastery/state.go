package mastery

import "time"

// DefaultTopic is the topic used when an answer event carries none.
const DefaultTopic = "General"

const (
	// InitialScore is the mastery assumed for a topic never seen before.
	InitialScore = 0.5

	// InitialConfidence seeds the confidence moving average.
	InitialConfidence = 0.5

	// MaxErrorPattern bounds the stored error signal history.
	MaxErrorPattern = 20
)

// LearnerState is the persisted proficiency record for one user.
type LearnerState struct {
	UserID        int64              `json:"user_id"`
	TopicMastery  map[string]float64 `json:"topic_mastery"`
	ConfidenceAvg float64            `json:"confidence_avg"`
	ErrorPattern  []string           `json:"error_pattern"`
	LastUpdated   time.Time          `json:"last_updated"`
}

// NewLearnerState returns the state a user starts with.
func NewLearnerState(userID int64, now time.Time) *LearnerState {
	return &LearnerState{
		UserID:        userID,
		TopicMastery:  map[string]float64{DefaultTopic: InitialScore},
		ConfidenceAvg: InitialConfidence,
		ErrorPattern:  []string{},
		LastUpdated:   now,
	}
}

// Clone returns a deep copy.
func (s *LearnerState) Clone() *LearnerState {
	c := *s
	c.TopicMastery = make(map[string]float64, len(s.TopicMastery))
	for k, v := range s.TopicMastery {
		c.TopicMastery[k] = v
	}
	c.ErrorPattern = append([]string(nil), s.ErrorPattern...)
	return &c
}

// RecordError appends an error signal, keeping the newest MaxErrorPattern.
func (s *LearnerState) RecordError(signal string) {
	s.ErrorPattern = append(s.ErrorPattern, signal)
	if n := len(s.ErrorPattern); n > MaxErrorPattern {
		s.ErrorPattern = append([]string(nil), s.ErrorPattern[n-MaxErrorPattern:]...)
	}
}

// View is the result of a mastery update as seen by the rest of the
// pipeline. An empty TopicMastery with a non-nil Err means the state could
// not be read or written; it must be treated as "unavailable", never as
// zero mastery.
type View struct {
	UserID        int64              `json:"-"`
	TopicMastery  map[string]float64 `json:"topic_mastery"`
	ConfidenceAvg float64            `json:"confidence_avg"`
	Err           error              `json:"-"`
}

// Degraded reports whether the view stands in for unavailable state.
func (v View) Degraded() bool {
	return v.Err != nil
}

func viewOf(s *LearnerState) View {
	m := make(map[string]float64, len(s.TopicMastery))
	for k, v := range s.TopicMastery {
		m[k] = v
	}
	return View{UserID: s.UserID, TopicMastery: m, ConfidenceAvg: s.ConfidenceAvg}
}

func degradedView(userID int64, err error) View {
	return View{UserID: userID, TopicMastery: map[string]float64{}, Err: err}
}
