package store

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	tableLearnerStates = "learner_states"
	tableMistakes      = "mistakes"
	tableLLMEvents     = "llm_request_events"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS global_sequence (
		id       INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`,
	`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`,
	`CREATE TABLE IF NOT EXISTS learner_states (
		user_id        INTEGER PRIMARY KEY,
		topic_mastery  TEXT    NOT NULL,
		confidence_avg REAL    NOT NULL,
		error_pattern  TEXT    NOT NULL,
		last_updated   INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS mistakes (
		id             TEXT    PRIMARY KEY,
		sequence       INTEGER NOT NULL,
		user_id        INTEGER NOT NULL,
		question_id    TEXT    NOT NULL,
		topic          TEXT    NOT NULL,
		question_text  TEXT    NOT NULL,
		user_answer    TEXT    NOT NULL,
		correct_answer TEXT    NOT NULL,
		timestamp      INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS mistakes_user_id ON mistakes (user_id, sequence)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL,
		timestamp     INTEGER NOT NULL,
		provider      TEXT    NOT NULL,
		model         TEXT    NOT NULL,
		purpose       TEXT    NOT NULL,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       INTEGER NOT NULL,
		error_message TEXT    NOT NULL DEFAULT '',
		request_body  TEXT    NOT NULL DEFAULT '',
		response_body TEXT    NOT NULL DEFAULT ''
	)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
