package audit

import (
	"context"
	"fmt"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
	maxExportRows   = 10000
)

// Repository reads audit_logs.
type Repository interface {
	Window(ctx context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error)
	All(ctx context.Context, f TimelineFilters, limit int) ([]TimelineRow, error)
}

// Service coordinates audit timeline reads.
type Service struct {
	repo Repository
}

// NewService builds the audit timeline service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline returns one page of the timeline, newest first. One extra row is
// fetched to learn whether a next page exists.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	rows, err := s.repo.Window(ctx, filters, (page-1)*pageSize, pageSize+1)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	if rows == nil {
		rows = []TimelineRow{}
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Export returns every matching row up to a fixed cap.
func (s *Service) Export(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	return s.repo.All(ctx, filters, maxExportRows)
}
