package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type checkerStub struct {
	name string
	err  error
}

func (c checkerStub) Name() string                    { return c.name }
func (c checkerStub) Check(ctx context.Context) error { return c.err }

func TestHealthHandler_Liveness(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler().Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	handler := NewHealthHandler(checkerStub{name: "postgres"}, checkerStub{name: "redis"})

	rec := httptest.NewRecorder()
	handler.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["postgres"] != "ok" || resp["redis"] != "ok" {
		t.Fatalf("expected both dependencies ok, got %v", resp)
	}
}

func TestHealthHandler_ReadinessFailure(t *testing.T) {
	handler := NewHealthHandler(checkerStub{name: "postgres"}, checkerStub{name: "redis", err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	handler.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
