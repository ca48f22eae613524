package regions

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workbridge/workbridge/internal/catalog"
)

// Repository persists regions.
type Repository interface {
	List(ctx context.Context, filters catalog.ListFilters) ([]Region, error)
	Get(ctx context.Context, id int64) (Region, error)
	Create(ctx context.Context, req Request) (Region, error)
	Update(ctx context.Context, id int64, req Request) (Region, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id, alpha2, alpha3, name`

func scan(row pgx.Row) (Region, error) {
	var r Region
	err := row.Scan(&r.ID, &r.Alpha2, &r.Alpha3, &r.Name)
	return r, err
}

func (r *repository) List(ctx context.Context, filters catalog.ListFilters) ([]Region, error) {
	query, args := catalog.Query(`SELECT `+columns+` FROM regions`, filters,
		catalog.OrderBy(filters, "name", "name", "alpha2", "alpha3"), "name", "alpha2", "alpha3")
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Region{}
	for rows.Next() {
		reg, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Region, error) {
	reg, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM regions WHERE id = $1`, id))
	return reg, catalog.Wrap(err, "region", id)
}

func (r *repository) Create(ctx context.Context, req Request) (Region, error) {
	reg, err := scan(r.pool.QueryRow(ctx, `INSERT INTO regions (alpha2, alpha3, name) VALUES ($1, $2, $3)
		RETURNING `+columns, strings.ToUpper(req.Alpha2), strings.ToUpper(req.Alpha3), strings.TrimSpace(req.Name)))
	return reg, catalog.Wrap(err, "region", 0)
}

func (r *repository) Update(ctx context.Context, id int64, req Request) (Region, error) {
	reg, err := scan(r.pool.QueryRow(ctx, `UPDATE regions SET alpha2 = $2, alpha3 = $3, name = $4 WHERE id = $1
		RETURNING `+columns, id, strings.ToUpper(req.Alpha2), strings.ToUpper(req.Alpha3), strings.TrimSpace(req.Name)))
	return reg, catalog.Wrap(err, "region", id)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM regions WHERE id = $1`, id)
	if err != nil {
		return catalog.Wrap(err, "region", id)
	}
	return catalog.Deleted(tag.RowsAffected(), "region", id)
}
