package skills

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workbridge/workbridge/internal/catalog"
)

// Repository persists skills.
type Repository interface {
	List(ctx context.Context, filters catalog.ListFilters) ([]Skill, error)
	Get(ctx context.Context, id int64) (Skill, error)
	Create(ctx context.Context, req CreateRequest) (Skill, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (Skill, error)
	Delete(ctx context.Context, id int64) (image string, err error)
	SwapImage(ctx context.Context, id int64, key string) (old string, err error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id, title, COALESCE(image, ''), description, rating`

func scan(row pgx.Row) (Skill, error) {
	var s Skill
	err := row.Scan(&s.ID, &s.Title, &s.Image, &s.Description, &s.Rating)
	return s, err
}

func (r *repository) List(ctx context.Context, filters catalog.ListFilters) ([]Skill, error) {
	query, args := catalog.Query(`SELECT `+columns+` FROM skills`, filters,
		catalog.OrderBy(filters, "id", "title", "rating"), "title", "description")
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Skill{}
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Skill, error) {
	s, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM skills WHERE id = $1`, id))
	return s, catalog.Wrap(err, "skill", id)
}

func (r *repository) Create(ctx context.Context, req CreateRequest) (Skill, error) {
	rating := 0.0
	if req.Rating != nil {
		rating = *req.Rating
	}
	s, err := scan(r.pool.QueryRow(ctx, `INSERT INTO skills (title, description, rating)
		VALUES ($1, $2, $3) RETURNING `+columns, strings.TrimSpace(req.Title), req.Description, rating))
	return s, catalog.Wrap(err, "skill", 0)
}

func (r *repository) Update(ctx context.Context, id int64, req UpdateRequest) (Skill, error) {
	s, err := scan(r.pool.QueryRow(ctx, `UPDATE skills SET
		title = COALESCE($2, title),
		description = COALESCE($3, description),
		rating = COALESCE($4, rating)
		WHERE id = $1 RETURNING `+columns, id, req.Title, req.Description, req.Rating))
	return s, catalog.Wrap(err, "skill", id)
}

func (r *repository) Delete(ctx context.Context, id int64) (string, error) {
	var image string
	err := r.pool.QueryRow(ctx, `DELETE FROM skills WHERE id = $1 RETURNING COALESCE(image, '')`, id).Scan(&image)
	return image, catalog.Wrap(err, "skill", id)
}

func (r *repository) SwapImage(ctx context.Context, id int64, key string) (string, error) {
	var old string
	err := r.pool.QueryRow(ctx, `WITH prev AS (SELECT image FROM skills WHERE id = $1 FOR UPDATE)
		UPDATE skills SET image = NULLIF($2, '') WHERE id = $1
		RETURNING COALESCE((SELECT image FROM prev), '')`, id, key).Scan(&old)
	return old, catalog.Wrap(err, "skill", id)
}
