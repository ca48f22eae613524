package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workbridge/workbridge/internal/platform/db"
	"github.com/workbridge/workbridge/internal/shared"
)

// Repository provides PostgreSQL backed persistence for orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orderColumns = `id, user_id, status_id, title, price::float8, region, worktime::timestamptz, description, created_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.StatusID, &o.Title, &o.Price, &o.Region, &o.Worktime, &o.Description, &o.CreatedAt)
	return o, err
}

func wrap(err error, what string, id int64) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%w: %s %d not found", shared.ErrNotFound, what, id)
	case shared.IsUniqueViolation(err):
		return fmt.Errorf("%w: %s already exists", shared.ErrDuplicate, what)
	case shared.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: referenced row does not exist", shared.ErrInvalidInput)
	}
	return err
}

// ListOrders returns all orders, newest first.
func (r *Repository) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetOrder returns one order.
func (r *Repository) GetOrder(ctx context.Context, id int64) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return Order{}, wrap(err, "order", id)
	}
	return o, nil
}

// CreateOrder inserts an order owned by ownerID.
func (r *Repository) CreateOrder(ctx context.Context, ownerID int64, req CreateOrderRequest) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `INSERT INTO orders (user_id, status_id, title, price, region, worktime, description)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7)
		RETURNING `+orderColumns,
		ownerID, req.StatusID, req.Title, *req.Price, req.Region, req.Worktime, req.Description))
	if err != nil {
		return Order{}, wrap(err, "order", 0)
	}
	return o, nil
}

// UpdateOrder applies the non-nil fields of req.
func (r *Repository) UpdateOrder(ctx context.Context, id int64, req UpdateOrderRequest) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `UPDATE orders SET
			title = COALESCE($2, title),
			price = COALESCE($3, price),
			status_id = COALESCE($4, status_id),
			region = COALESCE($5, region),
			worktime = COALESCE($6::date, worktime),
			description = COALESCE($7, description)
		WHERE id = $1
		RETURNING `+orderColumns,
		id, req.Title, req.Price, req.StatusID, req.Region, req.Worktime, req.Description))
	if err != nil {
		return Order{}, wrap(err, "order", id)
	}
	return o, nil
}

// DeleteOrder removes an order and, by cascade, its links and history.
func (r *Repository) DeleteOrder(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, `DELETE FROM orders WHERE id = $1`, "order", id)
}

func (r *Repository) deleteByID(ctx context.Context, sql, what string, id int64) error {
	tag, err := r.pool.Exec(ctx, sql, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %d not found", shared.ErrNotFound, what, id)
	}
	return nil
}

// ListOrdersSkills returns every order/skill link.
func (r *Repository) ListOrdersSkills(ctx context.Context) ([]OrdersSkill, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, skill_id FROM orders_skills ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []OrdersSkill{}
	for rows.Next() {
		var s OrdersSkill
		if err := rows.Scan(&s.ID, &s.OrderID, &s.SkillID); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetOrdersSkill returns one link.
func (r *Repository) GetOrdersSkill(ctx context.Context, id int64) (OrdersSkill, error) {
	var s OrdersSkill
	err := r.pool.QueryRow(ctx, `SELECT id, order_id, skill_id FROM orders_skills WHERE id = $1`, id).Scan(&s.ID, &s.OrderID, &s.SkillID)
	if err != nil {
		return OrdersSkill{}, wrap(err, "orders skill", id)
	}
	return s, nil
}

// CreateOrdersSkill inserts a link.
func (r *Repository) CreateOrdersSkill(ctx context.Context, req CreateOrdersSkillRequest) (OrdersSkill, error) {
	var s OrdersSkill
	err := r.pool.QueryRow(ctx, `INSERT INTO orders_skills (order_id, skill_id) VALUES ($1, $2) RETURNING id, order_id, skill_id`,
		req.OrderID, req.SkillID).Scan(&s.ID, &s.OrderID, &s.SkillID)
	if err != nil {
		return OrdersSkill{}, wrap(err, "orders skill", 0)
	}
	return s, nil
}

// UpdateOrdersSkill changes the linked skill.
func (r *Repository) UpdateOrdersSkill(ctx context.Context, id, skillID int64) (OrdersSkill, error) {
	var s OrdersSkill
	err := r.pool.QueryRow(ctx, `UPDATE orders_skills SET skill_id = $2 WHERE id = $1 RETURNING id, order_id, skill_id`,
		id, skillID).Scan(&s.ID, &s.OrderID, &s.SkillID)
	if err != nil {
		return OrdersSkill{}, wrap(err, "orders skill", id)
	}
	return s, nil
}

// DeleteOrdersSkill removes a link.
func (r *Repository) DeleteOrdersSkill(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, `DELETE FROM orders_skills WHERE id = $1`, "orders skill", id)
}

// ListHistory returns history entries, optionally for one order.
func (r *Repository) ListHistory(ctx context.Context, orderID int64) ([]HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, status_id, time FROM order_history
		WHERE $1 = 0 OR order_id = $1 ORDER BY time, id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []HistoryEntry{}
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.ID, &h.OrderID, &h.StatusID, &h.Time); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetHistory returns one entry.
func (r *Repository) GetHistory(ctx context.Context, id int64) (HistoryEntry, error) {
	var h HistoryEntry
	err := r.pool.QueryRow(ctx, `SELECT id, order_id, status_id, time FROM order_history WHERE id = $1`, id).
		Scan(&h.ID, &h.OrderID, &h.StatusID, &h.Time)
	if err != nil {
		return HistoryEntry{}, wrap(err, "order history", id)
	}
	return h, nil
}

// RecordStatus appends a history entry and moves the order to that status
// in one transaction.
func (r *Repository) RecordStatus(ctx context.Context, req CreateHistoryRequest) (HistoryEntry, error) {
	var h HistoryEntry
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO order_history (order_id, status_id) VALUES ($1, $2)
			RETURNING id, order_id, status_id, time`, req.OrderID, req.StatusID).
			Scan(&h.ID, &h.OrderID, &h.StatusID, &h.Time)
		if err != nil {
			return wrap(err, "order history", 0)
		}
		tag, err := tx.Exec(ctx, `UPDATE orders SET status_id = $2 WHERE id = $1`, req.OrderID, req.StatusID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: order %d not found", shared.ErrNotFound, req.OrderID)
		}
		return nil
	})
	return h, err
}

// UpdateHistory corrects the status of an entry.
func (r *Repository) UpdateHistory(ctx context.Context, id, statusID int64) (HistoryEntry, error) {
	var h HistoryEntry
	err := r.pool.QueryRow(ctx, `UPDATE order_history SET status_id = $2 WHERE id = $1
		RETURNING id, order_id, status_id, time`, id, statusID).Scan(&h.ID, &h.OrderID, &h.StatusID, &h.Time)
	if err != nil {
		return HistoryEntry{}, wrap(err, "order history", id)
	}
	return h, nil
}

// DeleteHistory removes an entry.
func (r *Repository) DeleteHistory(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, `DELETE FROM order_history WHERE id = $1`, "order history", id)
}

var _ RepositoryPort = (*Repository)(nil)
