package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codr1/refschedule/internal/api/auth"
	"github.com/codr1/refschedule/internal/config"
	"github.com/codr1/refschedule/internal/conversion"
	"github.com/codr1/refschedule/internal/testutil"
)

func newTestApp(t *testing.T, tokenHash string) *app {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.APITokenHash = tokenHash
	return &app{
		cfg:    cfg,
		runner: &conversion.Runner{DB: testutil.NewTestDB(t)},
	}
}

func TestHealth(t *testing.T) {
	handler := newTestApp(t, "").handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
}

func TestAPIRequiresToken(t *testing.T) {
	hash, err := auth.HashToken("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	handler := newTestApp(t, hash).handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/conversions", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversions", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status with token = %d, body %s", rec.Code, rec.Body.String())
	}
}
