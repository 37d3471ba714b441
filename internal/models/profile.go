package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles
const (
	RoleUser      = "USER"
	RoleAdmin     = "ADMIN"
	RoleModerator = "MODERATOR"
)

type Profile struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Username         *string   `json:"username,omitempty"`
	FullName         *string   `json:"full_name,omitempty"`
	AvatarURL        *string   `json:"avatar_url,omitempty"`
	ReputationScore  int       `json:"reputation_score"`
	IsVerifiedSeller bool      `json:"is_verified_seller"`
	Role             string    `json:"role"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
