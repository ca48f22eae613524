package users

import (
	"time"

	"github.com/workbridge/workbridge/internal/shared"
)

// User is the public profile of an account.
type User struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Surname     string      `json:"surname"`
	Email       string      `json:"email"`
	Role        shared.Role `json:"role"`
	File        string      `json:"file,omitempty"`
	Image       string      `json:"image,omitempty"`
	Description *string     `json:"description,omitempty"`
	Rating      float64     `json:"rating"`
	Region      *string     `json:"region,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Me is the response of GET /api/users/me.
type Me struct {
	ID      int64       `json:"id"`
	Name    string      `json:"name"`
	Surname string      `json:"surname"`
	Role    shared.Role `json:"role"`
	Email   string      `json:"email"`
}

// UpdateRequest is a partial profile update. Role and rating are managed
// elsewhere and cannot be written here.
type UpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Surname     *string `json:"surname" validate:"omitempty,min=1,max=100"`
	Email       *string `json:"email" validate:"omitempty,email,max=254"`
	Password    *string `json:"password" validate:"omitempty,min=4,max=72"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Region      *string `json:"region" validate:"omitempty,max=100"`
}

// userPatch is the storage form of UpdateRequest.
type userPatch struct {
	Name         *string
	Surname      *string
	Email        *string
	PasswordHash *string
	Description  *string
	Region       *string
}

// UsersSkill links a user to a skill they offer.
type UsersSkill struct {
	ID      int64 `json:"id"`
	UserID  int64 `json:"user_id"`
	SkillID int64 `json:"skill_id"`
}

// CreateUsersSkillRequest is the payload of POST /api/users-skills.
type CreateUsersSkillRequest struct {
	UserID  int64 `json:"user_id" validate:"required,gt=0"`
	SkillID int64 `json:"skill_id" validate:"required,gt=0"`
}

// UpdateUsersSkillRequest changes the linked skill. The owning user is fixed.
type UpdateUsersSkillRequest struct {
	SkillID int64 `json:"skill_id" validate:"required,gt=0"`
}

// UploadResponse reports the public URL of a stored file.
type UploadResponse struct {
	URL string `json:"url"`
}
