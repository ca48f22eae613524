package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements Repository with pgx.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const timelineQuery = `
SELECT id, occurred_at, actor_id, action, entity, entity_id, meta
FROM audit_logs
WHERE ($1::timestamptz IS NULL OR occurred_at >= $1)
  AND ($2::timestamptz IS NULL OR occurred_at < $2)
  AND ($3::bigint IS NULL OR actor_id = $3)
  AND ($4::text IS NULL OR entity = $4)
  AND ($5::text IS NULL OR action = $5)
ORDER BY occurred_at DESC, id DESC
OFFSET $6 LIMIT $7`

// Prune deletes rows recorded before the cutoff and reports how many went.
func (r *PGRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("audit: prune: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Window returns limit rows starting at offset.
func (r *PGRepository) Window(ctx context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	return r.query(ctx, f, offset, limit)
}

// All returns up to limit rows.
func (r *PGRepository) All(ctx context.Context, f TimelineFilters, limit int) ([]TimelineRow, error) {
	return r.query(ctx, f, 0, limit)
}

func (r *PGRepository) query(ctx context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, timelineQuery, args(f, offset, limit)...)
	if err != nil {
		return nil, fmt.Errorf("audit: query timeline: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (TimelineRow, error) {
		var t TimelineRow
		var meta []byte
		if err := row.Scan(&t.ID, &t.At, &t.ActorID, &t.Action, &t.Entity, &t.EntityID, &meta); err != nil {
			return TimelineRow{}, err
		}
		if len(meta) > 0 && string(meta) != "null" {
			t.Meta = meta
		}
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("audit: scan timeline: %w", err)
	}
	return out, nil
}

func args(f TimelineFilters, offset, limit int) []any {
	to := f.To
	if !to.IsZero() {
		// To is an inclusive calendar day.
		to = to.Add(24 * time.Hour)
	}
	return []any{
		toPgTime(f.From),
		toPgTime(to),
		optionalInt(f.ActorID),
		optionalText(f.Entity),
		optionalText(f.Action),
		offset,
		limit,
	}
}

func toPgTime(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func optionalText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}

func optionalInt(v int64) pgtype.Int8 {
	if v <= 0 {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: v, Valid: true}
}
