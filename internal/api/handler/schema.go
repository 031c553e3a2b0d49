package handler

import (
	"time"

	"github.com/shopmesh/platform/internal/core/domain"
)

// --- Request / Response types ---

type registerRequest struct {
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=8,max=72"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName"  validate:"max=100"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=8,max=72"`
}

type updateUserRequest struct {
	Email     *string `json:"email"     validate:"omitempty,email"`
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName"  validate:"omitempty,max=100"`
	IsActive  *bool   `json:"isActive"`
}

type updateProfileRequest struct {
	Email     *string `json:"email"     validate:"omitempty,email"`
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName"  validate:"omitempty,max=100"`
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin manager user"`
}

type listUsersQuery struct {
	Limit  int `query:"limit"  validate:"gte=0,lte=100"`
	Offset int `query:"offset" validate:"gte=0"`
}

type userResponse struct {
	User domain.SafeUser `json:"user"`
}

type loginResponse struct {
	User      domain.SafeUser `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

type profileResponse struct {
	Identity domain.RequestIdentity `json:"identity"`
	User     domain.SafeUser        `json:"user"`
}

type listUsersResponse struct {
	Users  []domain.SafeUser `json:"users"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type messageResponse struct {
	Message string `json:"message"`
}
