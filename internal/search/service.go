package search

import (
	"context"

	"github.com/workbridge/workbridge/internal/shared"
)

// RepositoryPort defines the search queries.
type RepositoryPort interface {
	Users(ctx context.Context, q UserQuery, offset int) ([]UserHit, int, error)
	Orders(ctx context.Context, q OrderQuery, offset int) ([]OrderHit, int, error)
}

// Service wraps pagination around the search queries.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Users searches non-admin accounts.
func (s *Service) Users(ctx context.Context, q UserQuery) (UsersPage, error) {
	p := shared.NewPagination(q.Page, q.Limit, 0)
	q.Page, q.Limit = p.Page, p.Limit
	hits, total, err := s.repo.Users(ctx, q, p.Offset())
	if err != nil {
		return UsersPage{}, err
	}
	if hits == nil {
		hits = []UserHit{}
	}
	return UsersPage{Pagination: shared.NewPagination(p.Page, p.Limit, total), Users: hits}, nil
}

// Orders searches orders.
func (s *Service) Orders(ctx context.Context, q OrderQuery) (OrdersPage, error) {
	p := shared.NewPagination(q.Page, q.Limit, 0)
	q.Page, q.Limit = p.Page, p.Limit
	hits, total, err := s.repo.Orders(ctx, q, p.Offset())
	if err != nil {
		return OrdersPage{}, err
	}
	if hits == nil {
		hits = []OrderHit{}
	}
	return OrdersPage{Pagination: shared.NewPagination(p.Page, p.Limit, total), Orders: hits}, nil
}
