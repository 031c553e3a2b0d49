package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopmesh/platform/internal/core/domain"
	"github.com/shopmesh/platform/internal/core/ports"
)

func strPtr(s string) *string { return &s }

func TestAuthService_ListUsers_ClampsPage(t *testing.T) {
	f := newFixture(t)
	for _, e := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		f.register(t, e, "pass12345")
	}
	ctx := context.Background()

	all, err := f.svc.ListUsers(ctx, ports.ListUsersInput{})
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 users, got %d (%v)", len(all), err)
	}

	page, _ := f.svc.ListUsers(ctx, ports.ListUsersInput{Limit: 2, Offset: -5})
	if len(page) != 2 || page[0].Email != "a@example.com" {
		t.Fatalf("unexpected page: %+v", page)
	}

	tail, _ := f.svc.ListUsers(ctx, ports.ListUsersInput{Limit: 2, Offset: 2})
	if len(tail) != 1 || tail[0].Email != "c@example.com" {
		t.Fatalf("unexpected tail: %+v", tail)
	}
}

func TestAuthService_GetUser_NotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.GetUser(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_UpdateUser(t *testing.T) {
	f := newFixture(t)
	target := f.register(t, "hank@example.com", "pass12345")
	f.register(t, "taken@example.com", "pass12345")
	manager := domain.RequestIdentity{SubjectID: "m-1", Role: domain.RoleManager}
	ctx := context.Background()
	f.pub.reset()

	_, err := f.svc.UpdateUser(ctx, manager, target.ID, ports.UpdateUserInput{Email: strPtr("Taken@Example.com")})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	updated, err := f.svc.UpdateUser(ctx, manager, target.ID, ports.UpdateUserInput{
		Email:     strPtr("Hank.New@Example.com"),
		FirstName: strPtr("Hank"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Email != "hank.new@example.com" || updated.FirstName != "Hank" {
		t.Fatalf("unexpected user: %+v", updated)
	}

	if len(f.pub.events) != 1 {
		t.Fatalf("expected one event, got %d", len(f.pub.events))
	}
	ev, ok := f.pub.events[0].(domain.UserUpdated)
	if !ok || len(ev.Fields) != 2 || ev.Fields[0] != "email" || ev.Fields[1] != "firstName" {
		t.Fatalf("unexpected event: %+v", f.pub.events[0])
	}
}

func TestAuthService_UpdateUser_RequiresPrivilegedActor(t *testing.T) {
	f := newFixture(t)
	target := f.register(t, "ivy@example.com", "pass12345")
	plain := domain.RequestIdentity{SubjectID: target.ID, Role: domain.RoleUser}

	inactive := false
	_, err := f.svc.UpdateUser(context.Background(), plain, target.ID, ports.UpdateUserInput{IsActive: &inactive})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAuthService_AdminAccountsAreOutOfReachOfManagers(t *testing.T) {
	f := newFixture(t)
	admin := f.register(t, "boss@example.com", "pass12345")
	f.setRole(admin.ID, domain.RoleAdmin)
	manager := domain.RequestIdentity{SubjectID: "m-1", Role: domain.RoleManager}
	ctx := context.Background()

	if _, err := f.svc.UpdateUser(ctx, manager, admin.ID, ports.UpdateUserInput{FirstName: strPtr("x")}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("update: expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.UpdateProfile(ctx, manager, admin.ID, ports.UpdateProfileInput{FirstName: strPtr("x")}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("profile: expected ErrForbidden, got %v", err)
	}
	if err := f.svc.DeleteUser(ctx, manager, admin.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("delete: expected ErrForbidden, got %v", err)
	}
}

func TestAuthService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "jill@example.com", "pass12345")
	other := f.register(t, "kim@example.com", "pass12345")
	ctx := context.Background()
	self := domain.RequestIdentity{SubjectID: owner.ID, Role: domain.RoleUser}

	updated, err := f.svc.UpdateProfile(ctx, self, owner.ID, ports.UpdateProfileInput{LastName: strPtr("Doe")})
	if err != nil || updated.LastName != "Doe" {
		t.Fatalf("expected own profile updated, got %+v %v", updated, err)
	}

	if _, err := f.svc.UpdateProfile(ctx, self, other.ID, ports.UpdateProfileInput{LastName: strPtr("x")}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAuthService_UpdateProfile_NoChangesPublishesNothing(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "lee@example.com", "pass12345")
	f.pub.reset()

	self := domain.RequestIdentity{SubjectID: owner.ID, Role: domain.RoleUser}
	if _, err := f.svc.UpdateProfile(context.Background(), self, owner.ID, ports.UpdateProfileInput{Email: strPtr("LEE@example.com")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(f.pub.topics()) != 0 {
		t.Fatalf("expected no events, got %v", f.pub.topics())
	}
}

func TestAuthService_UpdateRole(t *testing.T) {
	f := newFixture(t)
	target := f.register(t, "max@example.com", "pass12345")
	admin := domain.RequestIdentity{SubjectID: "a-1", Role: domain.RoleAdmin}
	manager := domain.RequestIdentity{SubjectID: "m-1", Role: domain.RoleManager}
	ctx := context.Background()

	if _, err := f.svc.UpdateRole(ctx, manager, target.ID, domain.RoleManager); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for manager, got %v", err)
	}
	if _, err := f.svc.UpdateRole(ctx, admin, target.ID, domain.Role("root")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	updated, err := f.svc.UpdateRole(ctx, admin, target.ID, domain.RoleManager)
	if err != nil || updated.Role != domain.RoleManager {
		t.Fatalf("expected manager role, got %+v %v", updated, err)
	}

	res, err := f.svc.Login(ctx, "max@example.com", "pass12345")
	if err != nil || res.User.Role != domain.RoleManager {
		t.Fatalf("expected new role in login, got %+v %v", res, err)
	}
}

func TestAuthService_DeleteUser(t *testing.T) {
	f := newFixture(t)
	target := f.register(t, "ned@example.com", "pass12345")
	admin := domain.RequestIdentity{SubjectID: "a-1", Role: domain.RoleAdmin}
	ctx := context.Background()
	f.pub.reset()

	if err := f.svc.DeleteUser(ctx, admin, target.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.svc.DeleteUser(ctx, admin, target.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if topics := f.pub.topics(); len(topics) != 1 || topics[0] != domain.TopicUserDeleted {
		t.Fatalf("expected one user.deleted event, got %v", topics)
	}
}
