package feedback

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/workbridge/workbridge/internal/platform/mail"
	"github.com/workbridge/workbridge/internal/shared"
)

// RepositoryPort defines data access methods for feedback.
type RepositoryPort interface {
	ListComplaints(ctx context.Context) ([]Complaint, error)
	GetComplaint(ctx context.Context, id int64) (Complaint, error)
	CreateComplaint(ctx context.Context, description string) (Complaint, error)
	UpdateComplaint(ctx context.Context, id int64, description string) (Complaint, error)
	DeleteComplaint(ctx context.Context, id int64) error

	ListUserComplaints(ctx context.Context) ([]UserComplaint, error)
	GetUserComplaint(ctx context.Context, id int64) (UserComplaint, error)
	CreateUserComplaint(ctx context.Context, req CreateUserComplaintRequest) (UserComplaint, error)
	UpdateUserComplaint(ctx context.Context, id int64, req UpdateUserComplaintRequest) (UserComplaint, error)
	DeleteUserComplaint(ctx context.Context, id int64) error

	ListComments(ctx context.Context) ([]Comment, error)
	GetComment(ctx context.Context, id int64) (Comment, error)
	CreateComment(ctx context.Context, req CreateCommentRequest) (Comment, error)
	UpdateComment(ctx context.Context, id int64, text string) (Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

// MailQueue schedules outgoing mail.
type MailQueue interface {
	EnqueueMail(ctx context.Context, msg mail.Message) error
}

// Service handles feedback business logic.
type Service struct {
	repo       RepositoryPort
	mail       MailQueue
	adminEmail string
	auditor    shared.Auditor
	logger     *slog.Logger
}

// NewService builds Service instance. New complaints are announced to
// adminEmail when both it and mailQueue are set.
func NewService(repo RepositoryPort, mailQueue MailQueue, adminEmail string, auditor shared.Auditor, logger *slog.Logger) *Service {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, mail: mailQueue, adminEmail: adminEmail, auditor: auditor, logger: logger}
}

func (s *Service) ListComplaints(ctx context.Context) ([]Complaint, error) {
	return s.repo.ListComplaints(ctx)
}

func (s *Service) GetComplaint(ctx context.Context, id int64) (Complaint, error) {
	return s.repo.GetComplaint(ctx, id)
}

// FileComplaint stores a complaint from p and notifies the administrator.
func (s *Service) FileComplaint(ctx context.Context, p shared.Principal, req ComplaintRequest) (Complaint, error) {
	c, err := s.repo.CreateComplaint(ctx, req.Description)
	if err != nil {
		return Complaint{}, err
	}
	s.notify(ctx, p, c)
	return c, nil
}

func (s *Service) notify(ctx context.Context, p shared.Principal, c Complaint) {
	if s.mail == nil || s.adminEmail == "" {
		return
	}
	msg := mail.Message{
		To:      s.adminEmail,
		Subject: fmt.Sprintf("New complaint #%d", c.ID),
		Body:    fmt.Sprintf("User %d (%s) filed a complaint at %s:\n\n%s\n", p.ID, p.Email, c.Time.Format("2006-01-02 15:04"), c.Description),
	}
	if err := s.mail.EnqueueMail(ctx, msg); err != nil {
		s.logger.Warn("enqueue complaint notice", slog.Int64("complaint_id", c.ID), slog.Any("error", err))
	}
}

func (s *Service) UpdateComplaint(ctx context.Context, id int64, req ComplaintRequest) (Complaint, error) {
	return s.repo.UpdateComplaint(ctx, id, req.Description)
}

func (s *Service) DeleteComplaint(ctx context.Context, id int64) error {
	if err := s.repo.DeleteComplaint(ctx, id); err != nil {
		return err
	}
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "delete", "complaint", id))
	return nil
}

func (s *Service) ListUserComplaints(ctx context.Context) ([]UserComplaint, error) {
	return s.repo.ListUserComplaints(ctx)
}

func (s *Service) GetUserComplaint(ctx context.Context, id int64) (UserComplaint, error) {
	return s.repo.GetUserComplaint(ctx, id)
}

func (s *Service) CreateUserComplaint(ctx context.Context, req CreateUserComplaintRequest) (UserComplaint, error) {
	return s.repo.CreateUserComplaint(ctx, req)
}

func (s *Service) UpdateUserComplaint(ctx context.Context, id int64, req UpdateUserComplaintRequest) (UserComplaint, error) {
	return s.repo.UpdateUserComplaint(ctx, id, req)
}

func (s *Service) DeleteUserComplaint(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUserComplaint(ctx, id); err != nil {
		return err
	}
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "delete", "user_complaint", id))
	return nil
}

func (s *Service) ListComments(ctx context.Context) ([]Comment, error) {
	return s.repo.ListComments(ctx)
}

func (s *Service) GetComment(ctx context.Context, id int64) (Comment, error) {
	return s.repo.GetComment(ctx, id)
}

func (s *Service) PostComment(ctx context.Context, req CreateCommentRequest) (Comment, error) {
	return s.repo.CreateComment(ctx, req)
}

func (s *Service) UpdateComment(ctx context.Context, id int64, req UpdateCommentRequest) (Comment, error) {
	return s.repo.UpdateComment(ctx, id, req.Text)
}

func (s *Service) DeleteComment(ctx context.Context, id int64) error {
	if err := s.repo.DeleteComment(ctx, id); err != nil {
		return err
	}
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "delete", "comment", id))
	return nil
}
