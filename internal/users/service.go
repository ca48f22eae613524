package users

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/workbridge/workbridge/internal/auth"
	"github.com/workbridge/workbridge/internal/files"
	"github.com/workbridge/workbridge/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	UpdateUser(ctx context.Context, id int64, p userPatch) (User, error)
	DeleteUser(ctx context.Context, id int64) (file, image string, err error)
	SwapFile(ctx context.Context, id int64, column, key string) (string, error)
	LinkSkill(ctx context.Context, userID, skillID int64) (UsersSkill, error)
	UnlinkSkill(ctx context.Context, userID, skillID int64) error
	ListUsersSkills(ctx context.Context) ([]UsersSkill, error)
	GetUsersSkill(ctx context.Context, id int64) (UsersSkill, error)
	CreateUsersSkill(ctx context.Context, req CreateUsersSkillRequest) (UsersSkill, error)
	UpdateUsersSkill(ctx context.Context, id, skillID int64) (UsersSkill, error)
	DeleteUsersSkill(ctx context.Context, id int64) error
}

// Uploads stores and clears profile files.
type Uploads interface {
	Replace(ctx context.Context, r *http.Request, kind files.Kind, id int64, swap files.SwapFunc) (string, error)
	Clear(ctx context.Context, swap files.SwapFunc) error
	Remove(ctx context.Context, key string)
	URL(key string) string
}

// Service handles user business logic.
type Service struct {
	repo    RepositoryPort
	uploads Uploads
	auditor shared.Auditor
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, uploads Uploads, auditor shared.Auditor) *Service {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	return &Service{repo: repo, uploads: uploads, auditor: auditor}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		s.present(&users[i])
	}
	return users, nil
}

// GetUser returns one profile.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	s.present(&u)
	return u, nil
}

// Me returns the caller's identity as stored.
func (s *Service) Me(ctx context.Context, p shared.Principal) (Me, error) {
	u, err := s.repo.GetUser(ctx, p.ID)
	if err != nil {
		return Me{}, err
	}
	return Me{ID: u.ID, Name: u.Name, Surname: u.Surname, Role: u.Role, Email: u.Email}, nil
}

// UpdateUser applies a partial profile update.
func (s *Service) UpdateUser(ctx context.Context, id int64, req UpdateRequest) (User, error) {
	patch := userPatch{
		Name:        trimmed(req.Name),
		Surname:     trimmed(req.Surname),
		Description: req.Description,
		Region:      trimmed(req.Region),
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		patch.Email = &email
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password, bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		patch.PasswordHash = &hash
	}
	u, err := s.repo.UpdateUser(ctx, id, patch)
	if err != nil {
		return User{}, err
	}
	s.present(&u)
	return u, nil
}

// DeleteUser removes the account together with its uploads.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	file, image, err := s.repo.DeleteUser(ctx, id)
	if err != nil {
		return err
	}
	s.uploads.Remove(ctx, file)
	s.uploads.Remove(ctx, image)
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "delete", "user", id))
	return nil
}

// SetImage stores a new avatar.
func (s *Service) SetImage(ctx context.Context, r *http.Request, id int64) (string, error) {
	return s.uploads.Replace(ctx, r, files.UserImage, id, s.swap(id, "image"))
}

// ClearImage removes the avatar.
func (s *Service) ClearImage(ctx context.Context, id int64) error {
	return s.uploads.Clear(ctx, s.swap(id, "image"))
}

// SetPDF stores a new CV document.
func (s *Service) SetPDF(ctx context.Context, r *http.Request, id int64) (string, error) {
	return s.uploads.Replace(ctx, r, files.UserPDF, id, s.swap(id, "file"))
}

// ClearPDF removes the CV document.
func (s *Service) ClearPDF(ctx context.Context, id int64) error {
	return s.uploads.Clear(ctx, s.swap(id, "file"))
}

func (s *Service) swap(id int64, column string) files.SwapFunc {
	return func(ctx context.Context, key string) (string, error) {
		return s.repo.SwapFile(ctx, id, column, key)
	}
}

// LinkSkill attaches a skill to the user.
func (s *Service) LinkSkill(ctx context.Context, userID, skillID int64) (UsersSkill, error) {
	return s.repo.LinkSkill(ctx, userID, skillID)
}

// UnlinkSkill detaches a skill from the user.
func (s *Service) UnlinkSkill(ctx context.Context, userID, skillID int64) error {
	return s.repo.UnlinkSkill(ctx, userID, skillID)
}

// ListUsersSkills returns every link.
func (s *Service) ListUsersSkills(ctx context.Context) ([]UsersSkill, error) {
	return s.repo.ListUsersSkills(ctx)
}

// GetUsersSkill returns one link.
func (s *Service) GetUsersSkill(ctx context.Context, id int64) (UsersSkill, error) {
	return s.repo.GetUsersSkill(ctx, id)
}

// CreateUsersSkill inserts a link.
func (s *Service) CreateUsersSkill(ctx context.Context, req CreateUsersSkillRequest) (UsersSkill, error) {
	return s.repo.CreateUsersSkill(ctx, req)
}

// UpdateUsersSkill swaps the linked skill.
func (s *Service) UpdateUsersSkill(ctx context.Context, id int64, req UpdateUsersSkillRequest) (UsersSkill, error) {
	return s.repo.UpdateUsersSkill(ctx, id, req.SkillID)
}

// DeleteUsersSkill removes a link.
func (s *Service) DeleteUsersSkill(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUsersSkill(ctx, id); err != nil {
		return err
	}
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "delete", "users_skill", id))
	return nil
}

func (s *Service) present(u *User) {
	u.File = s.uploads.URL(u.File)
	u.Image = s.uploads.URL(u.Image)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
