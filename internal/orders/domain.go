// Package orders manages customer orders, the skills they require and their
// status history.
package orders

import "time"

// Order is a paid job posted by a customer.
type Order struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	StatusID    *int64     `json:"status_id,omitempty"`
	Title       string     `json:"title"`
	Price       float64    `json:"price"`
	Region      *string    `json:"region,omitempty"`
	Worktime    *time.Time `json:"worktime,omitempty"`
	Description *string    `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateOrderRequest is the payload of POST /api/orders. The owner is the
// caller; any user_id in the body is ignored.
type CreateOrderRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	StatusID    *int64   `json:"status_id" validate:"omitempty,gt=0"`
	Region      *string  `json:"region" validate:"omitempty,max=100"`
	Worktime    *string  `json:"worktime" validate:"omitempty,datetime=2006-01-02"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
}

// UpdateOrderRequest is a partial update. The owner cannot be changed.
type UpdateOrderRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	StatusID    *int64   `json:"status_id" validate:"omitempty,gt=0"`
	Region      *string  `json:"region" validate:"omitempty,max=100"`
	Worktime    *string  `json:"worktime" validate:"omitempty,datetime=2006-01-02"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
}

// OrdersSkill links an order to a required skill.
type OrdersSkill struct {
	ID      int64 `json:"id"`
	OrderID int64 `json:"order_id"`
	SkillID int64 `json:"skill_id"`
}

// CreateOrdersSkillRequest is the payload of POST /api/orders-skills.
type CreateOrdersSkillRequest struct {
	OrderID int64 `json:"order_id" validate:"required,gt=0"`
	SkillID int64 `json:"skill_id" validate:"required,gt=0"`
}

// UpdateOrdersSkillRequest changes the required skill of a link.
type UpdateOrdersSkillRequest struct {
	SkillID int64 `json:"skill_id" validate:"required,gt=0"`
}

// HistoryEntry records a status change of an order.
type HistoryEntry struct {
	ID       int64     `json:"id"`
	OrderID  int64     `json:"order_id"`
	StatusID int64     `json:"status_id"`
	Time     time.Time `json:"time"`
}

// CreateHistoryRequest is the payload of POST /api/order-history.
type CreateHistoryRequest struct {
	OrderID  int64 `json:"order_id" validate:"required,gt=0"`
	StatusID int64 `json:"status_id" validate:"required,gt=0"`
}

// UpdateHistoryRequest corrects the status of a history entry.
type UpdateHistoryRequest struct {
	StatusID int64 `json:"status_id" validate:"required,gt=0"`
}
