package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestAccount_ValidateDebit(t *testing.T) {
	tests := []struct {
		name        string
		balance     decimal.Decimal
		debitAmount decimal.Decimal
		expectError bool
	}{
		{
			name:        "debit more than balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(150),
			expectError: true,
		},
		{
			name:        "debit exact balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(100),
			expectError: false,
		},
		{
			name:        "debit less than balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(50),
			expectError: false,
		},
		{
			name:        "debit one cent too much",
			balance:     decimal.RequireFromString("100.50"),
			debitAmount: decimal.RequireFromString("100.51"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Balance: tt.balance}

			err := acc.ValidateDebit(tt.debitAmount)

			if tt.expectError && !errors.Is(err, ErrInsufficientFunds) {
				t.Errorf("expected ErrInsufficientFunds, got %v", err)
			}

			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAccount_Apply(t *testing.T) {
	acc := &Account{Balance: decimal.RequireFromString("1000.00")}

	if got := acc.Apply(EntryTypeCredit, decimal.RequireFromString("500.00")); !got.Equal(decimal.RequireFromString("1500.00")) {
		t.Fatalf("credit: expected 1500.00, got %s", got)
	}

	if got := acc.Apply(EntryTypeDebit, decimal.RequireFromString("100.50")); !got.Equal(decimal.RequireFromString("899.50")) {
		t.Fatalf("debit: expected 899.50, got %s", got)
	}

	if !acc.Balance.Equal(decimal.RequireFromString("1000.00")) {
		t.Fatalf("Apply must not mutate the account, balance is %s", acc.Balance)
	}
}

func TestAccount_NextEntryTime(t *testing.T) {
	base := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	t.Run("no previous entry uses now", func(t *testing.T) {
		acc := &Account{}
		if got := acc.NextEntryTime(base); !got.Equal(base) {
			t.Fatalf("expected %s, got %s", base, got)
		}
	})

	t.Run("clock ahead of last entry uses now", func(t *testing.T) {
		acc := &Account{LastEntryAt: base.Add(-time.Second)}
		if got := acc.NextEntryTime(base); !got.Equal(base) {
			t.Fatalf("expected %s, got %s", base, got)
		}
	})

	t.Run("same tick is pushed forward", func(t *testing.T) {
		acc := &Account{LastEntryAt: base}
		if got := acc.NextEntryTime(base); !got.Equal(base.Add(time.Nanosecond)) {
			t.Fatalf("expected one nanosecond after last entry, got %s", got)
		}
	})

	t.Run("clock behind last entry is pushed forward", func(t *testing.T) {
		acc := &Account{LastEntryAt: base}
		if got := acc.NextEntryTime(base.Add(-time.Minute)); !got.After(base) {
			t.Fatalf("expected time after %s, got %s", base, got)
		}
	})
}
