package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/shopmesh/platform/internal/core/service"
	"github.com/shopmesh/platform/internal/infrastructure/db/memory"
	"github.com/shopmesh/platform/internal/infrastructure/messaging"
	"github.com/shopmesh/platform/internal/infrastructure/security"
)

const testSecret = "router-test-secret"

type testServer struct {
	e *echo.Echo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	hasher, err := security.NewHasher(security.HasherConfig{
		Algorithm:  security.AlgorithmBcrypt,
		BcryptCost: bcrypt.MinCost,
		Argon2:     security.DefaultArgon2Params,
	})
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	tokens, err := security.NewJWTService(testSecret)
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}

	log := zerolog.Nop()
	svc := service.NewAuthService(memory.NewUserStore(), hasher, tokens, messaging.NewLogPublisher(log), time.Hour, log)
	if _, err := svc.EnsureAdmin(context.Background(), "admin@example.com", "admin-pass-1"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	e := NewRouter(Deps{
		Service:  svc,
		Tokens:   tokens,
		Version:  "test",
		Log:      log,
		Registry: prometheus.NewRegistry(),
	})
	return &testServer{e: e}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, email, password string) (string, string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/users/login", "", map[string]string{"email": email, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", email, rec.Code, rec.Body.String())
	}
	var resp struct {
		User  struct{ ID string } `json:"user"`
		Token string              `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp.User.ID, resp.Token
}

func TestRouter_UserLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"email": "Alice@Example.com", "password": "wonderland1", "firstName": "Alice",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "wonderland1") || strings.Contains(strings.ToLower(rec.Body.String()), "hash") {
		t.Fatalf("register response leaks credential: %s", rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"email": "alice@example.com", "password": "wonderland1",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", rec.Code)
	}

	aliceID, aliceToken := s.login(t, "alice@example.com", "wonderland1")

	rec = s.do(t, http.MethodGet, "/api/users/profile", aliceToken, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), aliceID) {
		t.Fatalf("profile: expected 200 with own id, got %d: %s", rec.Code, rec.Body.String())
	}

	// failed logins are indistinguishable from each other
	wrong := s.do(t, http.MethodPost, "/api/users/login", "", map[string]string{"email": "alice@example.com", "password": "wrong-pass"})
	unknown := s.do(t, http.MethodPost, "/api/users/login", "", map[string]string{"email": "nobody@example.com", "password": "wrong-pass"})
	if wrong.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401s, got %d and %d", wrong.Code, unknown.Code)
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Fatalf("failure bodies differ: %q vs %q", wrong.Body.String(), unknown.Body.String())
	}

	// a plain user cannot reach administration routes
	rec = s.do(t, http.MethodGet, "/api/users", aliceToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("list as user: expected 403, got %d", rec.Code)
	}

	_, adminToken := s.login(t, "admin@example.com", "admin-pass-1")
	rec = s.do(t, http.MethodGet, "/api/users", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list as admin: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPut, "/api/users/"+aliceID, adminToken, map[string]any{"isActive": false})
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	inactive := s.do(t, http.MethodPost, "/api/users/login", "", map[string]string{"email": "alice@example.com", "password": "wonderland1"})
	if inactive.Code != http.StatusUnauthorized || inactive.Body.String() != wrong.Body.String() {
		t.Fatalf("inactive login: expected generic 401, got %d: %s", inactive.Code, inactive.Body.String())
	}
}

func TestRouter_ChangePassword(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/users/register", "", map[string]string{"email": "bob@example.com", "password": "builder-1"})
	_, token := s.login(t, "bob@example.com", "builder-1")

	rec := s.do(t, http.MethodPost, "/api/users/change-password", token, map[string]string{
		"currentPassword": "not-it-at-all", "newPassword": "builder-2",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("wrong current: expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/users/change-password", token, map[string]string{
		"currentPassword": "builder-1", "newPassword": "builder-2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("change: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	s.login(t, "bob@example.com", "builder-2")
}

func TestRouter_RejectsBadTokens(t *testing.T) {
	s := newTestServer(t)

	past, err := security.NewJWTService(testSecret, security.WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	}))
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}
	expired, err := past.Issue("u-1", "old@example.com", "admin", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	missing := s.do(t, http.MethodGet, "/api/users/profile", "", nil)
	for name, token := range map[string]string{"expired": expired.Token, "garbage": "abc.def.ghi"} {
		rec := s.do(t, http.MethodGet, "/api/users/profile", token, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rec.Code)
		}
		if rec.Body.String() != missing.Body.String() {
			t.Fatalf("%s: body %q differs from missing-token body %q", name, rec.Body.String(), missing.Body.String())
		}
	}
}

func TestRouter_ProbesAndMetrics(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/health", "/api/health/ready", "/api/metrics"} {
		rec := s.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}
