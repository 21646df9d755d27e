package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// Mistake is one logged incorrect answer.
type Mistake struct {
	ID            string    `json:"id"`
	UserID        int64     `json:"user_id"`
	QuestionID    string    `json:"question_id"`
	Topic         string    `json:"topic"`
	QuestionText  string    `json:"question_text"`
	UserAnswer    string    `json:"user_answer"`
	CorrectAnswer string    `json:"correct_answer"`
	Timestamp     time.Time `json:"timestamp"`
}

// Prepare fills the ID and Timestamp of m when unset.
func (m *Mistake) Prepare(now time.Time) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = now
	}
}

var _ MistakeLog = (*Store)(nil)

// AppendMistake records m. ID and Timestamp are assigned when empty.
func (s *Store) AppendMistake(ctx context.Context, m *Mistake) error {
	m.Prepare(time.Now())

	err := insertSequenced(ctx, s.db, func(seq int64) (string, []any) {
		return builder().Insert(tableMistakes).
			Columns("id", "sequence", "user_id", "question_id", "topic",
				"question_text", "user_answer", "correct_answer", "timestamp").
			Values(m.ID, seq, m.UserID, m.QuestionID, m.Topic,
				m.QuestionText, m.UserAnswer, m.CorrectAnswer, m.Timestamp.UnixMilli()).
			Query()
	})
	if err != nil {
		return fmt.Errorf("save mistake: %w", err)
	}
	return nil
}

// ListMistakes returns a user's mistakes, newest first.
func (s *Store) ListMistakes(ctx context.Context, userID int64, opts QueryOpts) ([]Mistake, error) {
	sel := builder().
		Select("id", "user_id", "question_id", "topic", "question_text",
			"user_answer", "correct_answer", "timestamp").
		From(entsql.Table(tableMistakes)).
		Where(entsql.EQ("user_id", userID))
	applyQueryOpts(sel, opts)
	sel.OrderBy(entsql.Desc("sequence"))

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query mistakes: %w", err)
	}
	defer rows.Close()

	var out []Mistake
	for rows.Next() {
		var (
			m  Mistake
			ts int64
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.QuestionID, &m.Topic, &m.QuestionText,
			&m.UserAnswer, &m.CorrectAnswer, &ts); err != nil {
			return nil, fmt.Errorf("scan mistake: %w", err)
		}
		m.Timestamp = time.UnixMilli(ts)
		out = append(out, m)
	}
	return out, rows.Err()
}
