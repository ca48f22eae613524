package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/workbridge/workbridge/internal/platform/mail"
	"github.com/workbridge/workbridge/internal/shared"
)

// TokenEncoder issues bearer tokens.
type TokenEncoder interface {
	Encode(p shared.Principal) (string, error)
}

// MailQueue schedules outgoing mail.
type MailQueue interface {
	EnqueueMail(ctx context.Context, msg mail.Message) error
}

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens TokenEncoder
	mail   MailQueue
	logger *slog.Logger
	cost   int
}

// NewService constructs a new Service. mailQueue may be nil.
func NewService(repo Repository, tokens TokenEncoder, mailQueue MailQueue, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tokens: tokens, mail: mailQueue, logger: logger, cost: bcrypt.DefaultCost}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (string, error) {
	user, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return "", err
	}
	return s.issue(user)
}

// Register creates a customer or creator account and issues its first token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, string, error) {
	if !req.Role.SelfAssignable() {
		return nil, "", fmt.Errorf("%w: role must be customer or creator", shared.ErrInvalidInput)
	}
	hash, err := HashPassword(req.Password, s.cost)
	if err != nil {
		return nil, "", err
	}
	user, err := s.repo.Create(ctx, NewUser{
		Name:         strings.TrimSpace(req.Name),
		Surname:      strings.TrimSpace(req.Surname),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         req.Role,
	})
	if err != nil {
		return nil, "", err
	}
	token, err := s.issue(user)
	if err != nil {
		return nil, "", err
	}
	s.welcome(ctx, user)
	return user, token, nil
}

// SeedAdmin creates the admin account when no user holds email. It reports
// whether a row was inserted; an existing account is left untouched.
func (s *Service) SeedAdmin(ctx context.Context, email, password string) (*User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, false, fmt.Errorf("%w: admin email and password are required", shared.ErrInvalidInput)
	}
	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, shared.ErrNotFound):
		return nil, false, err
	}
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return nil, false, err
	}
	user, err := s.repo.Create(ctx, NewUser{Name: "admin", Surname: "admin", Email: email, PasswordHash: hash, Role: shared.RoleAdmin})
	if err != nil {
		return nil, false, err
	}
	s.logger.Info("admin account seeded", slog.Int64("user_id", user.ID))
	return user, true, nil
}

// IssueFor mints a token for an existing account without a password check.
// Only operator tooling calls it.
func (s *Service) IssueFor(ctx context.Context, email string) (string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return s.issue(user)
}

func (s *Service) issue(user *User) (string, error) {
	return s.tokens.Encode(shared.Principal{ID: user.ID, Email: user.Email, Role: user.Role})
}

// welcome is best effort; a full queue never fails a registration.
func (s *Service) welcome(ctx context.Context, user *User) {
	if s.mail == nil {
		return
	}
	msg := mail.Message{
		To:      user.Email,
		Subject: "Welcome to Workbridge",
		Body:    fmt.Sprintf("Hello %s,\n\nyour %s account is ready.\n", user.Name, user.Role),
	}
	if err := s.mail.EnqueueMail(ctx, msg); err != nil {
		s.logger.Warn("enqueue welcome mail", slog.Int64("user_id", user.ID), slog.Any("error", err))
	}
}

// HashPassword bcrypt-hashes password. bcrypt reads at most 72 bytes, so
// longer passwords are rejected rather than silently truncated.
func HashPassword(password string, cost int) (string, error) {
	if len(password) > 72 {
		return "", fmt.Errorf("%w: password longer than 72 bytes", shared.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}
