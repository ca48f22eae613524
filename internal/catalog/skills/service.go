package skills

import (
	"context"
	"net/http"

	"github.com/workbridge/workbridge/internal/catalog"
	"github.com/workbridge/workbridge/internal/files"
	"github.com/workbridge/workbridge/internal/shared"
)

// Uploads stores skill images.
type Uploads interface {
	Replace(ctx context.Context, r *http.Request, kind files.Kind, id int64, swap files.SwapFunc) (string, error)
	Clear(ctx context.Context, swap files.SwapFunc) error
	Remove(ctx context.Context, key string)
	URL(key string) string
}

// Service applies skill catalog rules.
type Service struct {
	repo    Repository
	uploads Uploads
	auditor shared.Auditor
}

// NewService builds Service instance.
func NewService(repo Repository, uploads Uploads, auditor shared.Auditor) *Service {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	return &Service{repo: repo, uploads: uploads, auditor: auditor}
}

func (s *Service) List(ctx context.Context, filters catalog.ListFilters) ([]Skill, error) {
	out, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Image = s.uploads.URL(out[i].Image)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Skill, error) {
	sk, err := s.repo.Get(ctx, id)
	if err != nil {
		return Skill{}, err
	}
	sk.Image = s.uploads.URL(sk.Image)
	return sk, nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Skill, error) {
	sk, err := s.repo.Create(ctx, req)
	if err != nil {
		return Skill{}, err
	}
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "create", "skill", sk.ID))
	return sk, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (Skill, error) {
	sk, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return Skill{}, err
	}
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "update", "skill", id))
	sk.Image = s.uploads.URL(sk.Image)
	return sk, nil
}

// Delete removes the skill and its stored image.
func (s *Service) Delete(ctx context.Context, id int64) error {
	image, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.uploads.Remove(ctx, image)
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "delete", "skill", id))
	return nil
}

// SetImage stores a new skill image and returns its URL.
func (s *Service) SetImage(ctx context.Context, r *http.Request, id int64) (string, error) {
	return s.uploads.Replace(ctx, r, files.SkillImage, id, s.swap(id))
}

// ClearImage removes the skill image.
func (s *Service) ClearImage(ctx context.Context, id int64) error {
	return s.uploads.Clear(ctx, s.swap(id))
}

func (s *Service) swap(id int64) files.SwapFunc {
	return func(ctx context.Context, key string) (string, error) {
		return s.repo.SwapImage(ctx, id, key)
	}
}
