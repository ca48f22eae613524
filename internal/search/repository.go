package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs search queries against PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// where accumulates AND-ed conditions with positional arguments.
type where struct {
	conds []string
	args  []any
}

// add appends cond, replacing each ? with the next placeholder for arg.
func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) raw(cond string) { w.conds = append(w.conds, cond) }

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT/OFFSET placeholders and returns the clause with args.
func (w *where) page(limit, offset int) (string, []any) {
	n := len(w.args)
	args := append(append([]any{}, w.args...), limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2), args
}

func userFilter(q UserQuery) *where {
	w := &where{}
	w.raw(`u.role <> 'admin'`)
	if q.Text != "" {
		w.add(`(u.name ILIKE ? OR u.surname ILIKE ?)`, "%"+q.Text+"%")
	}
	if q.Region != "" {
		w.add(`u.region ILIKE ?`, "%"+q.Region+"%")
	}
	if q.Role != "" {
		w.add(`u.role = ?`, string(q.Role))
	}
	if q.MinRating != nil {
		w.add(`u.rating >= ?`, *q.MinRating)
	}
	if len(q.Skills) > 0 {
		w.add(`EXISTS (SELECT 1 FROM users_skills us WHERE us.user_id = u.id AND us.skill_id = ANY(?))`, q.Skills)
	}
	return w
}

// Users returns one page of matching users and the total match count.
func (r *Repository) Users(ctx context.Context, q UserQuery, offset int) ([]UserHit, int, error) {
	w := userFilter(q)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users u`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("search: count users: %w", err)
	}
	clause, args := w.page(q.Limit, offset)
	rows, err := r.pool.Query(ctx, `SELECT u.id, u.name, u.surname, u.email, u.role, u.region, u.rating, u.description
		FROM users u`+w.String()+` ORDER BY u.rating DESC, u.id`+clause, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search: users: %w", err)
	}
	hits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (UserHit, error) {
		var h UserHit
		err := row.Scan(&h.ID, &h.Name, &h.Surname, &h.Email, &h.Role, &h.Region, &h.Rating, &h.Description)
		return h, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search: scan users: %w", err)
	}
	return hits, total, nil
}

func orderFilter(q OrderQuery) *where {
	w := &where{}
	if q.Text != "" {
		w.add(`o.title ILIKE ?`, "%"+q.Text+"%")
	}
	if q.MinPrice != nil {
		w.add(`o.price >= ?`, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		w.add(`o.price <= ?`, *q.MaxPrice)
	}
	if q.Region != "" {
		w.add(`o.region = ?`, q.Region)
	}
	if q.Worktime != nil {
		w.add(`o.worktime = ?::date`, q.Worktime.Format("2006-01-02"))
	}
	if len(q.Skills) > 0 {
		w.add(`EXISTS (SELECT 1 FROM orders_skills os WHERE os.order_id = o.id AND os.skill_id = ANY(?))`, q.Skills)
	}
	return w
}

// Orders returns one page of matching orders, each with its skills.
func (r *Repository) Orders(ctx context.Context, q OrderQuery, offset int) ([]OrderHit, int, error) {
	w := orderFilter(q)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders o`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("search: count orders: %w", err)
	}
	clause, args := w.page(q.Limit, offset)
	rows, err := r.pool.Query(ctx, `SELECT o.id, o.user_id, o.status_id, o.title, o.price::float8, o.region, o.worktime::timestamptz, o.description
		FROM orders o`+w.String()+` ORDER BY o.created_at DESC, o.id DESC`+clause, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search: orders: %w", err)
	}
	hits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (OrderHit, error) {
		h := OrderHit{Skills: []SkillRef{}}
		err := row.Scan(&h.ID, &h.UserID, &h.StatusID, &h.Title, &h.Price, &h.Region, &h.Worktime, &h.Description)
		return h, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search: scan orders: %w", err)
	}
	if err := r.attachSkills(ctx, hits); err != nil {
		return nil, 0, err
	}
	return hits, total, nil
}

func (r *Repository) attachSkills(ctx context.Context, hits []OrderHit) error {
	if len(hits) == 0 {
		return nil
	}
	ids := make([]int64, len(hits))
	index := make(map[int64]int, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
		index[h.ID] = i
	}
	rows, err := r.pool.Query(ctx, `SELECT os.order_id, s.id, s.title FROM orders_skills os
		JOIN skills s ON s.id = os.skill_id WHERE os.order_id = ANY($1) ORDER BY s.title`, ids)
	if err != nil {
		return fmt.Errorf("search: order skills: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var orderID int64
		var s SkillRef
		if err := rows.Scan(&orderID, &s.ID, &s.Title); err != nil {
			return fmt.Errorf("search: scan order skill: %w", err)
		}
		i := index[orderID]
		hits[i].Skills = append(hits[i].Skills, s)
	}
	return rows.Err()
}
