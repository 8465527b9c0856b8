package dto

import (
	"time"

	"github.com/codeforchange/hackportal/internal/models"
	"github.com/google/uuid"
)

type SignUpRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	DisplayName string `json:"display_name" binding:"required,max=100"`
}

type SignUpResponse struct {
	User                 UserResponse `json:"user"`
	ConfirmationRequired bool         `json:"confirmation_required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

type UserResponse struct {
	ID          uuid.UUID   `json:"id"`
	Email       string      `json:"email"`
	DisplayName string      `json:"display_name"`
	Role        models.Role `json:"role"`
	Confirmed   bool        `json:"confirmed"`
	CreatedAt   time.Time   `json:"created_at"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Confirmed:   u.IsConfirmed(),
		CreatedAt:   u.CreatedAt,
	}
}
