package orders

import (
	"context"
	"strings"

	"github.com/workbridge/workbridge/internal/shared"
)

// RepositoryPort defines data access methods for orders.
type RepositoryPort interface {
	ListOrders(ctx context.Context) ([]Order, error)
	GetOrder(ctx context.Context, id int64) (Order, error)
	CreateOrder(ctx context.Context, ownerID int64, req CreateOrderRequest) (Order, error)
	UpdateOrder(ctx context.Context, id int64, req UpdateOrderRequest) (Order, error)
	DeleteOrder(ctx context.Context, id int64) error

	ListOrdersSkills(ctx context.Context) ([]OrdersSkill, error)
	GetOrdersSkill(ctx context.Context, id int64) (OrdersSkill, error)
	CreateOrdersSkill(ctx context.Context, req CreateOrdersSkillRequest) (OrdersSkill, error)
	UpdateOrdersSkill(ctx context.Context, id, skillID int64) (OrdersSkill, error)
	DeleteOrdersSkill(ctx context.Context, id int64) error

	ListHistory(ctx context.Context, orderID int64) ([]HistoryEntry, error)
	GetHistory(ctx context.Context, id int64) (HistoryEntry, error)
	RecordStatus(ctx context.Context, req CreateHistoryRequest) (HistoryEntry, error)
	UpdateHistory(ctx context.Context, id, statusID int64) (HistoryEntry, error)
	DeleteHistory(ctx context.Context, id int64) error
}

// Service handles order business logic.
type Service struct {
	repo    RepositoryPort
	auditor shared.Auditor
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, auditor shared.Auditor) *Service {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	return &Service{repo: repo, auditor: auditor}
}

// ListOrders returns all orders.
func (s *Service) ListOrders(ctx context.Context) ([]Order, error) { return s.repo.ListOrders(ctx) }

// GetOrder returns one order.
func (s *Service) GetOrder(ctx context.Context, id int64) (Order, error) { return s.repo.GetOrder(ctx, id) }

// CreateOrder posts an order owned by the caller.
func (s *Service) CreateOrder(ctx context.Context, owner shared.Principal, req CreateOrderRequest) (Order, error) {
	req.Title = strings.TrimSpace(req.Title)
	return s.repo.CreateOrder(ctx, owner.ID, req)
}

// UpdateOrder applies a partial update.
func (s *Service) UpdateOrder(ctx context.Context, id int64, req UpdateOrderRequest) (Order, error) {
	return s.repo.UpdateOrder(ctx, id, req)
}

// DeleteOrder removes an order.
func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	if err := s.repo.DeleteOrder(ctx, id); err != nil {
		return err
	}
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "delete", "order", id))
	return nil
}

// ListOrdersSkills returns every link.
func (s *Service) ListOrdersSkills(ctx context.Context) ([]OrdersSkill, error) {
	return s.repo.ListOrdersSkills(ctx)
}

// GetOrdersSkill returns one link.
func (s *Service) GetOrdersSkill(ctx context.Context, id int64) (OrdersSkill, error) {
	return s.repo.GetOrdersSkill(ctx, id)
}

// AddSkill links a required skill to an order.
func (s *Service) AddSkill(ctx context.Context, req CreateOrdersSkillRequest) (OrdersSkill, error) {
	return s.repo.CreateOrdersSkill(ctx, req)
}

// ChangeSkill swaps the skill of a link.
func (s *Service) ChangeSkill(ctx context.Context, id int64, req UpdateOrdersSkillRequest) (OrdersSkill, error) {
	return s.repo.UpdateOrdersSkill(ctx, id, req.SkillID)
}

// RemoveSkill deletes a link.
func (s *Service) RemoveSkill(ctx context.Context, id int64) error {
	if err := s.repo.DeleteOrdersSkill(ctx, id); err != nil {
		return err
	}
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "delete", "orders_skill", id))
	return nil
}

// ListHistory returns history entries; orderID 0 lists all.
func (s *Service) ListHistory(ctx context.Context, orderID int64) ([]HistoryEntry, error) {
	return s.repo.ListHistory(ctx, orderID)
}

// GetHistory returns one entry.
func (s *Service) GetHistory(ctx context.Context, id int64) (HistoryEntry, error) {
	return s.repo.GetHistory(ctx, id)
}

// RecordStatus moves an order to a new status and logs the change.
func (s *Service) RecordStatus(ctx context.Context, req CreateHistoryRequest) (HistoryEntry, error) {
	return s.repo.RecordStatus(ctx, req)
}

// UpdateHistory corrects a history entry.
func (s *Service) UpdateHistory(ctx context.Context, id int64, req UpdateHistoryRequest) (HistoryEntry, error) {
	return s.repo.UpdateHistory(ctx, id, req.StatusID)
}

// DeleteHistory removes a history entry.
func (s *Service) DeleteHistory(ctx context.Context, id int64) error {
	if err := s.repo.DeleteHistory(ctx, id); err != nil {
		return err
	}
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "delete", "order_history", id))
	return nil
}
