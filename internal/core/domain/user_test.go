package domain

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	for in, want := range map[string]Role{"admin": RoleAdmin, " Manager ": RoleManager, "USER": RoleUser} {
		got, err := ParseRole(in)
		if err != nil || got != want {
			t.Fatalf("ParseRole(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseRole("root"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestRole_Privileged(t *testing.T) {
	if !RoleAdmin.Privileged() || !RoleManager.Privileged() || RoleUser.Privileged() {
		t.Fatalf("unexpected privileged roles")
	}
}

func TestUser_NeverSerializesHash(t *testing.T) {
	u := &User{ID: "1", Email: "a@example.com", PasswordHash: "$2a$10$secret", Role: RoleUser}

	for _, v := range []any{u, u.Safe()} {
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if strings.Contains(string(raw), "secret") || strings.Contains(string(raw), "password") {
			t.Fatalf("hash leaked: %s", raw)
		}
	}
}

func TestUserUpdate_Apply(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	u := &User{Email: "old@example.com", FirstName: "Old", IsActive: true}

	if !(UserUpdate{}).Empty() {
		t.Fatalf("expected zero update to be empty")
	}

	name := "New"
	active := false
	upd := UserUpdate{FirstName: &name, IsActive: &active}
	upd.Apply(u, now)

	if u.FirstName != "New" || u.IsActive || u.Email != "old@example.com" || !u.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected user after apply: %+v", u)
	}
}

func TestIdentityContext(t *testing.T) {
	if _, ok := IdentityFrom(context.Background()); ok {
		t.Fatalf("expected no identity on empty context")
	}

	ctx := WithIdentity(context.Background(), RequestIdentity{SubjectID: "u1", Role: RoleManager})
	id, ok := IdentityFrom(ctx)
	if !ok || id.SubjectID != "u1" {
		t.Fatalf("unexpected identity: %+v %v", id, ok)
	}
	if !id.HasRole(RoleAdmin, RoleManager) || id.HasRole(RoleAdmin) {
		t.Fatalf("unexpected HasRole result")
	}
}

func TestEvents_KeyAndTopic(t *testing.T) {
	var events = []Event{
		UserCreated{ID: "u1"},
		UserLoggedIn{SubjectID: "u1"},
		UserLoginFailed{Email: "x@example.com"},
	}
	want := []struct {
		topic Topic
		key   string
	}{
		{TopicUserCreated, "u1"},
		{TopicUserLogin, "u1"},
		{TopicUserLoginFailed, "x@example.com"},
	}
	for i, ev := range events {
		if ev.Topic() != want[i].topic || ev.Key() != want[i].key {
			t.Fatalf("event %d: got %s/%s", i, ev.Topic(), ev.Key())
		}
	}
}
