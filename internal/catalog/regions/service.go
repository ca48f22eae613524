package regions

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

func (s *Service) List(ctx context.Context, filters catalog.ListFilters) ([]Region, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Region, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req Request) (Region, error) {
	reg, err := s.repo.Create(ctx, req)
	if err != nil {
		return Region{}, err
	}
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "create", "region", reg.ID))
	return reg, nil
}

func (s *Service) Update(ctx context.Context, id int64, req Request) (Region, error) {
	reg, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return Region{}, err
	}
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "update", "region", id))
	return reg, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "delete", "region", id))
	return nil
}
