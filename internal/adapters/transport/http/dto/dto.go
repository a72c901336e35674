package dto

import (
	"time"

	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/model"
	"github.com/google/uuid"
)

type RegisterDTO struct {
	DisplayName string  `json:"display_name" validate:"required,min=2,max=20"`
	Email       string  `json:"email"        validate:"required,email"`
	Password    *string `json:"password"     validate:"omitempty,min=6,max=128"`
}

// LoginDTO leaves Password unvalidated: a missing password is a credential
// failure, not a malformed request.
type LoginDTO struct {
	Email    string  `json:"email"    validate:"required,email"`
	Password *string `json:"password"`
}

type UpdateProfileDTO struct {
	DisplayName *string `json:"display_name" validate:"omitempty,min=2,max=20"`
	Email       *string `json:"email"        validate:"omitempty,email"`
	Password    *string `json:"password"     validate:"omitempty,min=6,max=128"`
}

type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	DisplayName string     `json:"display_name"`
	Email       string     `json:"email"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

func NewUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:          u.PublicID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		LastLogin:   u.LastLogin,
	}
}

type SessionResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
}

type AccessResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
