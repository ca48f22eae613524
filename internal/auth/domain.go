package auth

import (
	"time"

	"github.com/workbridge/workbridge/internal/shared"
)

// User is the credential view of an account.
type User struct {
	ID           int64
	Name         string
	Surname      string
	Email        string
	PasswordHash string
	Role         shared.Role
	CreatedAt    time.Time
}

// NewUser carries a validated registration.
type NewUser struct {
	Name         string
	Surname      string
	Email        string
	PasswordHash string
	Role         shared.Role
}

// RegisterRequest is the payload of POST /api/users.
type RegisterRequest struct {
	Name     string      `json:"name" validate:"required,max=100"`
	Surname  string      `json:"surname" validate:"required,max=100"`
	Email    string      `json:"email" validate:"required,email,max=254"`
	Password string      `json:"password" validate:"required,min=4,max=72"`
	Role     shared.Role `json:"role" validate:"required,oneof=customer creator"`
}

// LoginRequest is the payload of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by login and registration.
type TokenResponse struct {
	Success bool   `json:"success,omitempty"`
	Token   string `json:"token"`
}
