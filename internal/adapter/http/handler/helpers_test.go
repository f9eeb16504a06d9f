package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/iho/checkledger/internal/adapter/http/dto"
	"github.com/iho/checkledger/internal/domain"
)

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/accounts?limit=50", nil)
	if got := parseIntQuery(req, "limit", 10); got != 50 {
		t.Fatalf("expected limit=50, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/accounts?limit=invalid", nil)
	if got := parseIntQuery(req, "limit", 10); got != 10 {
		t.Fatalf("expected fallback to default, got %d", got)
	}

	req.URL = &url.URL{RawQuery: ""}
	if got := parseIntQuery(req, "limit", 25); got != 25 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestMapDomainError(t *testing.T) {
	wrapped := &domain.OperationError{Op: "debit", AccountID: "a", Err: domain.ErrInsufficientFunds}

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"account not found", domain.ErrAccountNotFound, http.StatusNotFound},
		{"entry not found", fmt.Errorf("lookup: %w", domain.ErrEntryNotFound), http.StatusNotFound},
		{"insufficient funds", wrapped, http.StatusUnprocessableEntity},
		{"already reversed", domain.ErrAlreadyReversed, http.StatusUnprocessableEntity},
		{"reversal of reversal", domain.ErrReversalNotReversible, http.StatusUnprocessableEntity},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"same account", domain.ErrSameAccount, http.StatusBadRequest},
		{"bad cursor", domain.ErrInvalidCursor, http.StatusBadRequest},
		{"conflict exhausted", domain.ErrConflictExhausted, http.StatusConflict},
		{"transient", domain.ErrTransient, http.StatusServiceUnavailable},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteDomainErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, "failed", errors.New("connection string leaked"))

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if rec.Code != http.StatusInternalServerError || resp.Message != "" {
		t.Fatalf("expected opaque 500, got %d %+v", rec.Code, resp)
	}
}
