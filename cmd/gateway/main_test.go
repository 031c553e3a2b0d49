package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"

	"github.com/shopmesh/platform/internal/infrastructure/config"
)

func TestCheckUserService(t *testing.T) {
	users := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	u, _ := url.Parse(users.URL)
	up := config.Upstream{Name: "users", Prefix: "/api/users", URL: u}

	if !checkUserService(context.Background(), up, zerolog.Nop()) {
		t.Fatal("expected the running user service to be reachable")
	}

	users.Close()
	if checkUserService(context.Background(), up, zerolog.Nop()) {
		t.Fatal("expected a closed user service to be reported unreachable")
	}
}
