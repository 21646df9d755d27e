package mastery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/neuroquiz/internal/logger"
)

// Update is one graded answer applied to a learner's state.
type Update struct {
	UserID     int64
	Topic      string
	IsCorrect  bool
	Confidence float64

	// Signal is the diagnosed error signal for an incorrect answer. It is
	// appended to the error pattern when non-empty.
	Signal string
}

// Service applies answer events to persisted learner states.
type Service struct {
	store StateStore
	locks *keyedMutex
	now   Clock
	log   *logger.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the clock used for LastUpdated.
func WithClock(c Clock) ServiceOption {
	return func(s *Service) { s.now = c }
}

// WithLogger sets the logger used for degraded updates.
func WithLogger(l *logger.Logger) ServiceOption {
	return func(s *Service) { s.log = logger.OrNop(l) }
}

// NewService creates a mastery service over the given store.
func NewService(store StateStore, opts ...ServiceOption) *Service {
	s := &Service{
		store: store,
		locks: newKeyedMutex(),
		now:   time.Now,
		log:   logger.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Update fetches or creates the learner's state, applies the answer and
// persists the result. Persistence failures never surface as errors: the
// returned View is degraded instead.
func (s *Service) Update(ctx context.Context, u Update) View {
	if u.Topic == "" {
		u.Topic = DefaultTopic
	}

	unlock := s.locks.Lock(u.UserID)
	defer unlock()

	apply := func(cur *LearnerState) (*LearnerState, error) {
		next := s.applyTo(cur, u)
		return next, nil
	}

	var (
		st  *LearnerState
		err error
	)
	if au, ok := s.store.(AtomicUpdater); ok {
		st, err = au.UpdateState(ctx, u.UserID, apply)
	} else {
		st, err = s.readModifyWrite(ctx, u.UserID, apply)
	}
	if err != nil {
		s.log.Warn("mastery update degraded", "user_id", u.UserID, "topic", u.Topic, "error", err)
		return degradedView(u.UserID, err)
	}
	return viewOf(st)
}

func (s *Service) readModifyWrite(ctx context.Context, userID int64, fn UpdateFunc) (*LearnerState, error) {
	cur, err := s.store.GetState(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get state: %w", err)
	}
	next, err := fn(cur)
	if err != nil {
		return nil, err
	}
	if err := s.store.PutState(ctx, next); err != nil {
		return nil, fmt.Errorf("put state: %w", err)
	}
	return next, nil
}

func (s *Service) applyTo(cur *LearnerState, u Update) *LearnerState {
	now := s.now()
	var next *LearnerState
	if cur == nil {
		next = NewLearnerState(u.UserID, now)
	} else {
		next = cur.Clone()
		if next.TopicMastery == nil {
			next.TopicMastery = make(map[string]float64)
		}
	}

	score, ok := next.TopicMastery[u.Topic]
	if !ok {
		score = InitialScore
	}
	next.TopicMastery[u.Topic] = Apply(score, u.IsCorrect)
	next.ConfidenceAvg = BlendConfidence(next.ConfidenceAvg, u.Confidence)
	if !u.IsCorrect && u.Signal != "" {
		next.RecordError(u.Signal)
	}
	next.LastUpdated = now
	return next
}

// State returns the stored state for a user, or ErrNotFound.
func (s *Service) State(ctx context.Context, userID int64) (*LearnerState, error) {
	return s.store.GetState(ctx, userID)
}
