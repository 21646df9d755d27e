package mastery

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned by a StateStore when no state exists for a user.
var ErrNotFound = errors.New("learner state not found")

// StateStore persists learner states.
type StateStore interface {
	// GetState returns ErrNotFound when the user has no state yet.
	GetState(ctx context.Context, userID int64) (*LearnerState, error)
	PutState(ctx context.Context, st *LearnerState) error
}

// UpdateFunc receives the current state (nil for a new user) and returns
// the state to persist.
type UpdateFunc func(cur *LearnerState) (*LearnerState, error)

// AtomicUpdater is implemented by stores that can run a read-modify-write
// for one user atomically across processes. Service prefers it over
// GetState/PutState when available.
type AtomicUpdater interface {
	UpdateState(ctx context.Context, userID int64, fn UpdateFunc) (*LearnerState, error)
}

// MemoryStore is an in-process StateStore, used in tests and when no
// database is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[int64]*LearnerState
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[int64]*LearnerState)}
}

func (m *MemoryStore) GetState(_ context.Context, userID int64) (*LearnerState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return st.Clone(), nil
}

func (m *MemoryStore) PutState(_ context.Context, st *LearnerState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[st.UserID] = st.Clone()
	return nil
}

func (m *MemoryStore) UpdateState(_ context.Context, userID int64, fn UpdateFunc) (*LearnerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var cur *LearnerState
	if st, ok := m.states[userID]; ok {
		cur = st.Clone()
	}
	next, err := fn(cur)
	if err != nil {
		return nil, err
	}
	m.states[userID] = next.Clone()
	return next, nil
}

var (
	_ StateStore    = (*MemoryStore)(nil)
	_ AtomicUpdater = (*MemoryStore)(nil)
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time
