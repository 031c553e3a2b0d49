package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopmesh/platform/internal/core/domain"
	"github.com/shopmesh/platform/internal/core/ports"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.SafeUser, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	safe := user.Safe()
	return &safe, nil
}

// ListUsers clamps the page to [1, MaxPageSize] and a non-negative offset.
func (s *AuthService) ListUsers(ctx context.Context, in ports.ListUsersInput) ([]domain.SafeUser, error) {
	limit, offset := in.Limit, in.Offset
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]domain.SafeUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Safe())
	}
	return out, nil
}

// UpdateUser is the privileged update, the only path that toggles IsActive.
func (s *AuthService) UpdateUser(ctx context.Context, actor domain.RequestIdentity, id string, in ports.UpdateUserInput) (*domain.SafeUser, error) {
	if !actor.Role.Privileged() {
		return nil, domain.ErrForbidden
	}
	return s.applyUpdate(ctx, actor, id, in.Email, in.FirstName, in.LastName, func(u *domain.UserUpdate) []string {
		if in.IsActive != nil {
			u.IsActive = in.IsActive
			return []string{"isActive"}
		}
		return nil
	})
}

// UpdateProfile changes the owner-editable fields. The actor must be the
// owner or hold a privileged role.
func (s *AuthService) UpdateProfile(ctx context.Context, actor domain.RequestIdentity, id string, in ports.UpdateProfileInput) (*domain.SafeUser, error) {
	if actor.SubjectID != id && !actor.Role.Privileged() {
		return nil, domain.ErrForbidden
	}
	return s.applyUpdate(ctx, actor, id, in.Email, in.FirstName, in.LastName, nil)
}

func (s *AuthService) UpdateRole(ctx context.Context, actor domain.RequestIdentity, id string, role domain.Role) (*domain.SafeUser, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}
	if actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	target, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	if target.Role == role {
		safe := target.Safe()
		return &safe, nil
	}

	updated, err := s.store.Update(ctx, id, domain.UserUpdate{Role: &role})
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	s.log.Info().Str("user_id", id).Str("actor", actor.SubjectID).Str("role", string(role)).Msg("role changed")
	s.publishUpdated(ctx, updated, []string{"role"})

	safe := updated.Safe()
	return &safe, nil
}

func (s *AuthService) DeleteUser(ctx context.Context, actor domain.RequestIdentity, id string) error {
	if !actor.Role.Privileged() {
		return domain.ErrForbidden
	}
	target, err := s.store.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := guardAdminTarget(actor, target); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.log.Info().Str("user_id", id).Str("actor", actor.SubjectID).Msg("user deleted")
	s.publish(ctx, domain.UserDeleted{ID: id, Timestamp: s.now()})
	return nil
}

// applyUpdate handles the fields shared by UpdateUser and UpdateProfile.
// extra may add more fields to the update and returns their names.
func (s *AuthService) applyUpdate(
	ctx context.Context,
	actor domain.RequestIdentity,
	id string,
	email, firstName, lastName *string,
	extra func(*domain.UserUpdate) []string,
) (*domain.SafeUser, error) {
	target, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if err := guardAdminTarget(actor, target); err != nil {
		return nil, err
	}

	var (
		upd    domain.UserUpdate
		fields []string
	)
	if email != nil {
		normalized, err := normalizeAndCheckEmail(*email)
		if err != nil {
			return nil, err
		}
		if normalized != target.Email {
			if err := s.ensureEmailFree(ctx, normalized); err != nil {
				return nil, err
			}
			upd.Email = &normalized
			fields = append(fields, "email")
		}
	}
	if firstName != nil {
		upd.FirstName = firstName
		fields = append(fields, "firstName")
	}
	if lastName != nil {
		upd.LastName = lastName
		fields = append(fields, "lastName")
	}
	if extra != nil {
		fields = append(fields, extra(&upd)...)
	}

	if upd.Empty() {
		safe := target.Safe()
		return &safe, nil
	}

	updated, err := s.store.Update(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.publishUpdated(ctx, updated, fields)
	safe := updated.Safe()
	return &safe, nil
}

func (s *AuthService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.ErrDuplicateEmail
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	default:
		return fmt.Errorf("update user: %w", err)
	}
}

func (s *AuthService) publishUpdated(ctx context.Context, u *domain.User, fields []string) {
	s.publish(ctx, domain.UserUpdated{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		Fields:    fields,
		Timestamp: s.now(),
	})
}

// guardAdminTarget keeps admin accounts out of reach of non-admin actors.
func guardAdminTarget(actor domain.RequestIdentity, target *domain.User) error {
	if target.Role == domain.RoleAdmin && actor.Role != domain.RoleAdmin && actor.SubjectID != target.ID {
		return domain.ErrForbidden
	}
	return nil
}
