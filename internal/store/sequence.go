package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Mistakes and LLM events draw positions from one shared counter, so rows
// order across both tables and page with QueryOpts.After/Before. A
// position is allocated in the same transaction as its row, so a failed
// insert leaves no gap.

const nextSequenceSQL = `UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`

func nextSequence(ctx context.Context, q querier) (int64, error) {
	var seq int64
	if err := q.QueryRowContext(ctx, nextSequenceSQL).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// insertSequenced runs the insert built for the next position.
func insertSequenced(ctx context.Context, db *sql.DB, build func(seq int64) (string, []any)) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	seq, err := nextSequence(ctx, tx)
	if err != nil {
		return err
	}
	query, args := build(seq)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	return tx.Commit()
}
