package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wellingtonpereira12/cycling-streak/internal/config"
)

func TestHealthEndpoint(t *testing.T) {
	s := NewServer(config.Config{JWTSecret: "secret"}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := NewServer(config.Config{JWTSecret: "secret"}, nil, nil)

	for _, path := range []string{"/rides/dashboard", "/achievements/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := s.App.Test(req)
		if err != nil {
			t.Fatalf("request error: %v", err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, resp.StatusCode)
		}
	}
}
