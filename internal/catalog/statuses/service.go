package statuses

import (
	"context"

	"github.com/workbridge/workbridge/internal/catalog"
	"github.com/workbridge/workbridge/internal/shared"
)

type Service struct {
	repo    Repository
	auditor shared.Auditor
}

func NewService(repo Repository, auditor shared.Auditor) *Service {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	return &Service{repo: repo, auditor: auditor}
}

func (s *Service) List(ctx context.Context, filters catalog.ListFilters) ([]Status, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Status, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req Request) (Status, error) {
	st, err := s.repo.Create(ctx, req)
	if err != nil {
		return Status{}, err
	}
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "create", "status", st.ID))
	return st, nil
}

func (s *Service) Update(ctx context.Context, id int64, req Request) (Status, error) {
	st, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return Status{}, err
	}
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "update", "status", id))
	return st, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "delete", "status", id))
	return nil
}
