package rating

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"

	"github.com/workbridge/workbridge/internal/platform/db"
	"github.com/workbridge/workbridge/internal/shared"
)

// Service applies ratings to users.
type Service struct {
	db      db.Beginner
	auditor shared.Auditor
}

// NewService constructs a Service. auditor may be nil.
func NewService(pool db.Beginner, auditor shared.Auditor) *Service {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	return &Service{db: pool, auditor: auditor}
}

// Rate folds value into the rating of userID and returns the stored result.
// The row is locked for the read-modify-write so concurrent ratings are
// applied one after another.
func (s *Service) Rate(ctx context.Context, userID int64, value float64) (float64, error) {
	if err := Validate(value); err != nil {
		return 0, err
	}
	var stored float64
	err := db.WithTxIso(ctx, s.db, pgx.ReadCommitted, func(tx pgx.Tx) error {
		var current float64
		err := tx.QueryRow(ctx, `SELECT rating FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: user %d not found", shared.ErrNotFound, userID)
			}
			return fmt.Errorf("rating: lock user: %w", err)
		}
		next, err := Aggregate(value, current)
		if err != nil {
			return err
		}
		stored = math.Round(next)
		if _, err := tx.Exec(ctx, `UPDATE users SET rating = $2 WHERE id = $1`, userID, stored); err != nil {
			return fmt.Errorf("rating: update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	entry := shared.AuditEntry(ctx, "rate", "user", userID)
	entry.Meta = map[string]any{"value": value, "rating": stored}
	_ = s.auditor.Record(ctx, entry)
	return stored, nil
}
