package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/shopmesh/platform/internal/core/domain"
	"github.com/shopmesh/platform/internal/core/ports"
)

var managerID = domain.RequestIdentity{SubjectID: "m1", Role: domain.RoleManager}

func TestUserHandler_List(t *testing.T) {
	stub := &stubAuthService{t: t,
		listUsersFn: func(ctx context.Context, in ports.ListUsersInput) ([]domain.SafeUser, error) {
			if in.Limit != 2 || in.Offset != 4 {
				t.Fatalf("unexpected page: %+v", in)
			}
			return []domain.SafeUser{{ID: "a"}, {ID: "b"}}, nil
		},
	}

	c, rec := newJSONContext(http.MethodGet, "/api/users?limit=2&offset=4", "")
	if err := NewUserHandler(stub).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp listUsersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Users) != 2 || resp.Limit != 2 || resp.Offset != 4 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUserHandler_List_RejectsOversizedPage(t *testing.T) {
	c, _ := newJSONContext(http.MethodGet, "/api/users?limit=1000", "")
	if err := NewUserHandler(&stubAuthService{t: t}).List(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUserHandler_Update_PassesOnlyGivenFields(t *testing.T) {
	stub := &stubAuthService{t: t,
		updateUserFn: func(ctx context.Context, actor domain.RequestIdentity, id string, in ports.UpdateUserInput) (*domain.SafeUser, error) {
			if actor != managerID || id != "u1" {
				t.Fatalf("unexpected actor/id: %+v %s", actor, id)
			}
			if in.IsActive == nil || *in.IsActive || in.Email != nil || in.FirstName != nil {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.SafeUser{ID: id, IsActive: false}, nil
		},
	}

	c, rec := newJSONContext(http.MethodPut, "/api/users/u1", `{"isActive":false}`)
	c.SetParamNames("id")
	c.SetParamValues("u1")
	withIdentity(c, managerID)

	if err := NewUserHandler(stub).Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_UpdateRole(t *testing.T) {
	admin := domain.RequestIdentity{SubjectID: "a1", Role: domain.RoleAdmin}
	stub := &stubAuthService{t: t,
		updateRoleFn: func(ctx context.Context, actor domain.RequestIdentity, id string, role domain.Role) (*domain.SafeUser, error) {
			return &domain.SafeUser{ID: id, Role: role}, nil
		},
	}
	handler := NewUserHandler(stub)

	c, _ := newJSONContext(http.MethodPut, "/api/users/u1/role", `{"role":"root"}`)
	withIdentity(c, admin)
	if err := handler.UpdateRole(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	c, rec := newJSONContext(http.MethodPut, "/api/users/u1/role", `{"role":"manager"}`)
	c.SetParamNames("id")
	c.SetParamValues("u1")
	withIdentity(c, admin)
	if err := handler.UpdateRole(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp userResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.User.Role != domain.RoleManager {
		t.Fatalf("expected manager, got %s", resp.User.Role)
	}
}

func TestUserHandler_Delete(t *testing.T) {
	stub := &stubAuthService{t: t,
		deleteUserFn: func(ctx context.Context, actor domain.RequestIdentity, id string) error {
			if id == "missing" {
				return domain.ErrUserNotFound
			}
			return nil
		},
	}
	handler := NewUserHandler(stub)

	c, rec := newJSONContext(http.MethodDelete, "/api/users/u1", "")
	c.SetParamNames("id")
	c.SetParamValues("u1")
	withIdentity(c, managerID)
	if err := handler.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	c, _ = newJSONContext(http.MethodDelete, "/api/users/missing", "")
	c.SetParamNames("id")
	c.SetParamValues("missing")
	withIdentity(c, managerID)
	if err := handler.Delete(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
