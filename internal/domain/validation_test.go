package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateHolderName(t *testing.T) {
	t.Parallel()

	t.Run("valid name", func(t *testing.T) {
		if err := ValidateHolderName("João Silva"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		err := ValidateHolderName("   ")
		if !errors.Is(err, ErrInvalidHolderName) {
			t.Fatalf("expected ErrInvalidHolderName, got %v", err)
		}
	})

	t.Run("name too long", func(t *testing.T) {
		tooLong := strings.Repeat("a", MaxHolderNameLength+1)
		err := ValidateHolderName(tooLong)
		if !errors.Is(err, ErrInvalidHolderName) {
			t.Fatalf("expected ErrInvalidHolderName, got %v", err)
		}
	})
}

func TestValidateInitialBalance(t *testing.T) {
	t.Parallel()

	if err := ValidateInitialBalance(decimal.Zero); err != nil {
		t.Fatalf("zero opening balance should be valid, got %v", err)
	}

	if err := ValidateInitialBalance(decimal.NewFromInt(-1)); !errors.Is(err, ErrInvalidInitialBalance) {
		t.Fatalf("expected ErrInvalidInitialBalance, got %v", err)
	}
}

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		amount decimal.Decimal
		err    error
	}{
		{name: "zero", amount: decimal.Zero, err: ErrInvalidAmount},
		{name: "negative", amount: decimal.NewFromInt(-5), err: ErrInvalidAmount},
		{name: "too small", amount: decimal.RequireFromString("0.001"), err: ErrAmountTooSmall},
		{name: "too large", amount: decimal.RequireFromString("1000000000000.01"), err: ErrAmountTooLarge},
		{name: "valid", amount: decimal.RequireFromString("100.50")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateAmount(tt.amount)
			if tt.err == nil && err != nil {
				t.Fatalf("expected valid amount, got %v", err)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestValidateDescription(t *testing.T) {
	t.Parallel()

	got, err := ValidateDescription("  salary  ")
	if err != nil || got != "salary" {
		t.Fatalf("expected trimmed description, got %q err=%v", got, err)
	}

	if _, err := ValidateDescription(strings.Repeat("x", MaxDescriptionLength+1)); !errors.Is(err, ErrInvalidDescription) {
		t.Fatalf("expected ErrInvalidDescription, got %v", err)
	}
}

func TestValidatePagination(t *testing.T) {
	t.Parallel()

	if got := ValidatePagination(0); got != DefaultPageSize {
		t.Fatalf("expected default page size, got %d", got)
	}

	if got := ValidatePagination(5000); got != MaxPageSize {
		t.Fatalf("expected capped page size, got %d", got)
	}

	if got := ValidatePagination(7); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}

func TestValidatePeriodDays(t *testing.T) {
	t.Parallel()

	if err := ValidatePeriodDays(30); err != nil {
		t.Fatalf("expected 30 days to be valid, got %v", err)
	}

	for _, days := range []int{0, -1, MaxReportPeriodDays + 1} {
		if err := ValidatePeriodDays(days); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("days=%d: expected ErrInvalidPeriod, got %v", days, err)
		}
	}
}

func TestIsValidation(t *testing.T) {
	t.Parallel()

	wrapped := &OperationError{Op: "debit", AccountID: "acc", Err: ErrInsufficientFunds}
	if !IsValidation(wrapped) {
		t.Fatal("wrapped insufficient funds should be a validation error")
	}

	if IsValidation(ErrConditionFailed) {
		t.Fatal("condition failure is not a validation error")
	}

	if !IsRetryable(ErrTransient) || !IsRetryable(ErrConditionFailed) || IsRetryable(ErrAccountNotFound) {
		t.Fatal("unexpected retryable classification")
	}
}
