package ports

import (
	"context"

	"github.com/shopmesh/platform/internal/core/domain"
)

// UserStore defines the persistence operations for user accounts.
//
// Implementations return domain.ErrUserNotFound when no record matches,
// domain.ErrDuplicateEmail on a uniqueness violation, and wrap
// domain.ErrStoreUnavailable when the backend cannot be reached in time.
// Emails are stored exactly as given; callers normalize them first.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create assigns ID, CreatedAt and UpdatedAt and returns the stored record.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
	Ping(ctx context.Context) error
}
