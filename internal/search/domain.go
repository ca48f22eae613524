// Package search answers the filtered, paginated user and order lookups of
// the marketplace browse pages.
package search

import (
	"time"

	"github.com/workbridge/workbridge/internal/shared"
)

// MaxLimit caps the page size.
const MaxLimit = 100

// UserQuery filters GET /api/search/users.
type UserQuery struct {
	Text      string
	Region    string
	MinRating *float64
	Role      shared.Role
	Skills    []int64
	Page      int
	Limit     int
}

// OrderQuery filters GET /api/search/orders.
type OrderQuery struct {
	Text     string
	MinPrice *float64
	MaxPrice *float64
	Region   string
	Worktime *time.Time
	Skills   []int64
	Page     int
	Limit    int
}

// UserHit is a user as shown in search results. Credentials never leave the
// repository.
type UserHit struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Surname     string      `json:"surname"`
	Email       string      `json:"email"`
	Role        shared.Role `json:"role"`
	Region      *string     `json:"region"`
	Rating      float64     `json:"rating"`
	Description *string     `json:"description"`
}

// SkillRef names a skill attached to an order.
type SkillRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// OrderHit is an order with its skills.
type OrderHit struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	StatusID    *int64     `json:"status_id"`
	Title       string     `json:"title"`
	Price       float64    `json:"price"`
	Region      *string    `json:"region"`
	Worktime    *time.Time `json:"worktime"`
	Description *string    `json:"description"`
	Skills      []SkillRef `json:"skills"`
}

// UsersPage is the response envelope of the user search.
type UsersPage struct {
	shared.Pagination
	Users []UserHit `json:"users"`
}

// OrdersPage is the response envelope of the order search.
type OrdersPage struct {
	shared.Pagination
	Orders []OrderHit `json:"orders"`
}
