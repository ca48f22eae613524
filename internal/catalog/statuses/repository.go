package statuses

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workbridge/workbridge/internal/catalog"
)

// Repository persists statuses.
type Repository interface {
	List(ctx context.Context, filters catalog.ListFilters) ([]Status, error)
	Get(ctx context.Context, id int64) (Status, error)
	Create(ctx context.Context, req Request) (Status, error)
	Update(ctx context.Context, id int64, req Request) (Status, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func scan(row pgx.Row) (Status, error) {
	var s Status
	err := row.Scan(&s.ID, &s.Title, &s.Description)
	return s, err
}

func (r *repository) List(ctx context.Context, filters catalog.ListFilters) ([]Status, error) {
	query, args := catalog.Query(`SELECT id, title, description FROM statuses`, filters,
		catalog.OrderBy(filters, "id", "title"), "title")
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Status{}
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Status, error) {
	s, err := scan(r.pool.QueryRow(ctx, `SELECT id, title, description FROM statuses WHERE id = $1`, id))
	return s, catalog.Wrap(err, "status", id)
}

func (r *repository) Create(ctx context.Context, req Request) (Status, error) {
	s, err := scan(r.pool.QueryRow(ctx, `INSERT INTO statuses (title, description) VALUES ($1, $2)
		RETURNING id, title, description`, strings.TrimSpace(req.Title), req.Description))
	return s, catalog.Wrap(err, "status", 0)
}

func (r *repository) Update(ctx context.Context, id int64, req Request) (Status, error) {
	s, err := scan(r.pool.QueryRow(ctx, `UPDATE statuses SET title = $2, description = $3 WHERE id = $1
		RETURNING id, title, description`, id, strings.TrimSpace(req.Title), req.Description))
	return s, catalog.Wrap(err, "status", id)
}

// Delete fails with ErrInvalidInput while order history still references the status.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM statuses WHERE id = $1`, id)
	if err != nil {
		return catalog.Wrap(err, "status", id)
	}
	return catalog.Deleted(tag.RowsAffected(), "status", id)
}
