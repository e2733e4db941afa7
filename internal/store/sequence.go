package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	entsql "entgo.io/ent/dialect/sql"
)

// sequence numbers every ledger row across all ledger tables, so events
// of different kinds sort against each other. The last value handed out
// lives in a one-row table.
type sequence struct {
	mu sync.Mutex
	db *sql.DB
}

func newSequence(db *sql.DB) *sequence {
	return &sequence{db: db}
}

// Next returns the next sequence number, starting at 1.
func (s *sequence) Next(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var last int64
	q, args := builder().Select("last").From(entsql.Table(tableSequence)).Where(entsql.EQ("id", 1)).Query()
	switch err := tx.QueryRowContext(ctx, q, args...).Scan(&last); {
	case errors.Is(err, sql.ErrNoRows):
		q, args = builder().Insert(tableSequence).Columns("id", "last").Values(1, 1).Query()
	case err != nil:
		return 0, fmt.Errorf("read sequence: %w", err)
	default:
		q, args = builder().Update(tableSequence).Set("last", last+1).Where(entsql.EQ("id", 1)).Query()
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return 0, fmt.Errorf("advance sequence: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit sequence: %w", err)
	}
	return last + 1, nil
}
