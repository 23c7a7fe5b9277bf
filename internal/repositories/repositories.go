package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// execQuerier is satisfied by both [sql.DB] and [sql.Tx].
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers give entities a human-readable ordering (playlist #15) independent of their UUIDs.
// Pass a transaction to tie the increment to the insert that consumes it.
func NextSequence(ctx context.Context, q execQuerier, table string) (int, error) {
	var sequence int
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)
	if err := q.QueryRowContext(ctx, query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}
	return sequence, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
