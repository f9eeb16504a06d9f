package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	// AccountStatusClosed is reserved; no operation closes an account yet.
	AccountStatusClosed AccountStatus = "closed"
)

// InitialAccountVersion is the version of a freshly created account.
const InitialAccountVersion int64 = 1

// Account represents a checking account with its authoritative balance.
type Account struct {
	ID             string
	HolderName     string
	Balance        decimal.Decimal
	InitialBalance decimal.Decimal
	Status         AccountStatus
	Version        int64
	LastEntryAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.ApplyDebit(amount).IsNegative() {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// Apply returns the balance after an entry of the given type and amount.
func (a *Account) Apply(t EntryType, amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(t.Signed(amount))
}

// NextVersion is the version a successful commit against a will produce.
func (a *Account) NextVersion() int64 {
	return a.Version + 1
}

// NextEntryTime returns a timestamp strictly after the account's last entry.
// Clocks of concurrent writers may disagree, so now alone is not enough to
// keep entry keys increasing.
func (a *Account) NextEntryTime(now time.Time) time.Time {
	now = now.UTC()
	if !a.LastEntryAt.IsZero() && !now.After(a.LastEntryAt) {
		return a.LastEntryAt.Add(time.Nanosecond)
	}
	return now
}
