package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_Readiness(t *testing.T) {
	healthy := pingerFunc(func(ctx context.Context) error { return nil })
	down := pingerFunc(func(ctx context.Context) error { return errors.New("refused") })

	tests := []struct {
		name   string
		checks map[string]Pinger
		want   int
	}{
		{"no dependencies", nil, http.StatusOK},
		{"store healthy", map[string]Pinger{"store": healthy}, http.StatusOK},
		{"store down", map[string]Pinger{"store": healthy, "redis": down}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tt.checks).Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestHealthHandler_Liveness(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(nil).Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
