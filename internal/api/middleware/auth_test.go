package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/shopmesh/platform/internal/core/domain"
	"github.com/shopmesh/platform/internal/infrastructure/security"
)

func newTokens(t *testing.T, now func() time.Time) *security.JWTService {
	t.Helper()
	svc, err := security.NewJWTService("secret", security.WithClock(now))
	if err != nil {
		t.Fatalf("jwt service: %v", err)
	}
	return svc
}

func runAuth(t *testing.T, tokens *security.JWTService, header string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := Authenticate(tokens, zerolog.Nop())(next)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestAuthenticate_ValidToken(t *testing.T) {
	tokens := newTokens(t, time.Now)
	tok, err := tokens.Issue("user-1", "alice@example.com", domain.RoleManager, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	called := false
	rec := runAuth(t, tokens, "Bearer "+tok.Token, func(c echo.Context) error {
		called = true
		id, ok := Identity(c)
		if !ok || id.SubjectID != "user-1" || id.Role != domain.RoleManager {
			t.Fatalf("identity not set on echo context: %+v", id)
		}
		fromCtx, ok := domain.IdentityFrom(c.Request().Context())
		if !ok || fromCtx != id {
			t.Fatalf("identity not set on request context: %+v", fromCtx)
		}
		return c.NoContent(http.StatusOK)
	})

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthenticate_Rejects(t *testing.T) {
	clock := time.Now()
	tokens := newTokens(t, func() time.Time { return clock })
	tok, _ := tokens.Issue("user-1", "alice@example.com", domain.RoleUser, time.Minute)

	expiredTokens := newTokens(t, func() time.Time { return clock.Add(2 * time.Minute) })

	cases := []struct {
		name   string
		tokens *security.JWTService
		header string
	}{
		{"missing header", tokens, ""},
		{"wrong scheme", tokens, "Token " + tok.Token},
		{"empty bearer", tokens, "Bearer "},
		{"garbage", tokens, "Bearer abc.def.ghi"},
		{"expired", expiredTokens, "Bearer " + tok.Token},
	}

	var body string
	for _, tc := range cases {
		rec := runAuth(t, tc.tokens, tc.header, func(c echo.Context) error {
			t.Fatalf("%s: should not reach next", tc.name)
			return nil
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", tc.name, rec.Code)
		}
		if body == "" {
			body = rec.Body.String()
		} else if rec.Body.String() != body {
			t.Fatalf("%s: expected identical body %q, got %q", tc.name, body, rec.Body.String())
		}
	}
}

func TestAuthenticate_SchemeIsCaseInsensitive(t *testing.T) {
	tokens := newTokens(t, time.Now)
	tok, _ := tokens.Issue("user-1", "a@example.com", domain.RoleUser, time.Hour)

	rec := runAuth(t, tokens, "bearer "+tok.Token, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
