package ports

import (
	"context"
	"time"

	"github.com/shopmesh/platform/internal/core/domain"
)

// RegisterInput carries the fields of a self-registration.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User      domain.SafeUser
	Token     string
	ExpiresAt time.Time
}

// UpdateUserInput is the privileged update. Nil fields are left untouched.
type UpdateUserInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	IsActive  *bool
}

// UpdateProfileInput is the self-service update.
type UpdateProfileInput struct {
	Email     *string
	FirstName *string
	LastName  *string
}

// ListUsersInput pages through users.
type ListUsersInput struct {
	Limit  int
	Offset int
}

// AuthService defines the use-case operations of the user service.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.SafeUser, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ChangePassword(ctx context.Context, subjectID, currentPassword, newPassword string) error

	GetUser(ctx context.Context, id string) (*domain.SafeUser, error)
	ListUsers(ctx context.Context, in ListUsersInput) ([]domain.SafeUser, error)
	UpdateUser(ctx context.Context, actor domain.RequestIdentity, id string, in UpdateUserInput) (*domain.SafeUser, error)
	UpdateProfile(ctx context.Context, actor domain.RequestIdentity, id string, in UpdateProfileInput) (*domain.SafeUser, error)
	UpdateRole(ctx context.Context, actor domain.RequestIdentity, id string, role domain.Role) (*domain.SafeUser, error)
	DeleteUser(ctx context.Context, actor domain.RequestIdentity, id string) error

	// EnsureAdmin creates an active admin account unless the email is already taken.
	EnsureAdmin(ctx context.Context, email, password string) (created bool, err error)
}
