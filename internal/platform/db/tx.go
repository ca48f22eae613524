package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Beginner starts transactions. *pgxpool.Pool satisfies it.
type Beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// WithTx executes a function within a transaction using the RepeatableRead isolation level.
func WithTx(ctx context.Context, db Beginner, fn func(pgx.Tx) error) error {
	return WithTxIso(ctx, db, pgx.RepeatableRead, fn)
}

// WithTxIso executes fn within a transaction at the given isolation level.
// Row-locking read-modify-write paths use ReadCommitted so that a waiting
// SELECT ... FOR UPDATE sees the committed row instead of failing to serialize.
func WithTxIso(ctx context.Context, db Beginner, iso pgx.TxIsoLevel, fn func(pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{IsoLevel: iso})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}
