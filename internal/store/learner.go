package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/neuroquiz/internal/mastery"
)

var (
	_ mastery.StateStore    = (*Store)(nil)
	_ mastery.AtomicUpdater = (*Store)(nil)
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetState returns the learner state for userID, or mastery.ErrNotFound.
func (s *Store) GetState(ctx context.Context, userID int64) (*mastery.LearnerState, error) {
	return getState(ctx, s.db, userID)
}

// PutState inserts or replaces a learner state.
func (s *Store) PutState(ctx context.Context, st *mastery.LearnerState) error {
	return putState(ctx, s.db, st)
}

// UpdateState runs fn over the current state inside one transaction.
func (s *Store) UpdateState(ctx context.Context, userID int64, fn mastery.UpdateFunc) (*mastery.LearnerState, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	cur, err := getState(ctx, tx, userID)
	if err != nil && !errors.Is(err, mastery.ErrNotFound) {
		return nil, err
	}
	next, err := fn(cur)
	if err != nil {
		return nil, err
	}
	if err := putState(ctx, tx, next); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return next, nil
}

func getState(ctx context.Context, q querier, userID int64) (*mastery.LearnerState, error) {
	query, args := builder().
		Select("user_id", "topic_mastery", "confidence_avg", "error_pattern", "last_updated").
		From(entsql.Table(tableLearnerStates)).
		Where(entsql.EQ("user_id", userID)).
		Query()

	var (
		st                    mastery.LearnerState
		masteryJSON, errsJSON string
		updated               int64
	)
	err := q.QueryRowContext(ctx, query, args...).
		Scan(&st.UserID, &masteryJSON, &st.ConfidenceAvg, &errsJSON, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, mastery.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load learner state %d: %w", userID, err)
	}

	if err := json.Unmarshal([]byte(masteryJSON), &st.TopicMastery); err != nil {
		return nil, fmt.Errorf("decode topic mastery for %d: %w", userID, err)
	}
	if err := json.Unmarshal([]byte(errsJSON), &st.ErrorPattern); err != nil {
		return nil, fmt.Errorf("decode error pattern for %d: %w", userID, err)
	}
	st.LastUpdated = time.UnixMilli(updated)
	return &st, nil
}

func putState(ctx context.Context, q querier, st *mastery.LearnerState) error {
	topicMastery := st.TopicMastery
	if topicMastery == nil {
		topicMastery = map[string]float64{}
	}
	masteryJSON, err := json.Marshal(topicMastery)
	if err != nil {
		return fmt.Errorf("encode topic mastery: %w", err)
	}
	errorPattern := st.ErrorPattern
	if errorPattern == nil {
		errorPattern = []string{}
	}
	errsJSON, err := json.Marshal(errorPattern)
	if err != nil {
		return fmt.Errorf("encode error pattern: %w", err)
	}

	query, args := builder().Insert(tableLearnerStates).
		Columns("user_id", "topic_mastery", "confidence_avg", "error_pattern", "last_updated").
		Values(st.UserID, string(masteryJSON), st.ConfidenceAvg, string(errsJSON), st.LastUpdated.UnixMilli()).
		OnConflict(
			entsql.ConflictColumns("user_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save learner state %d: %w", st.UserID, err)
	}
	return nil
}
