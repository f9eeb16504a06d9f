package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Not found errors
	ErrAccountNotFound = errors.New("account not found")
	ErrEntryNotFound   = errors.New("entry not found")

	// Validation errors
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInvalidEntryType      = errors.New("invalid entry type")
	ErrInvalidEntryKey       = errors.New("invalid entry key")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrAlreadyReversed       = errors.New("entry already reversed")
	ErrReversalNotReversible = errors.New("reversal entries cannot be reversed")
	ErrSameAccount           = errors.New("cannot transfer to same account")

	// Concurrency errors
	ErrConditionFailed   = errors.New("conditional commit rejected")
	ErrConflictExhausted = errors.New("concurrent update conflict: retries exhausted")

	// ErrTransient marks store failures worth retrying (timeouts, throttling, lost connections).
	ErrTransient = errors.New("transient store failure")
)

// OperationError adds operation context to a failure of a ledger operation.
// errors.Is and errors.As see through it to the underlying error.
type OperationError struct {
	Op        string
	AccountID string
	Amount    decimal.Decimal
	Err       error
}

func (e *OperationError) Error() string {
	if e.Amount.IsZero() {
		return fmt.Sprintf("%s account %s: %v", e.Op, e.AccountID, e.Err)
	}
	return fmt.Sprintf("%s %s account %s: %v", e.Op, FormatMoney(e.Amount), e.AccountID, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a conflict or transient store failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConditionFailed) || errors.Is(err, ErrTransient)
}

// IsValidation reports whether err is a business rule or input violation.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var validationErrors = []error{
	ErrInvalidAmount,
	ErrAmountTooSmall,
	ErrAmountTooLarge,
	ErrInvalidEntryType,
	ErrInvalidEntryKey,
	ErrInsufficientFunds,
	ErrAlreadyReversed,
	ErrReversalNotReversible,
	ErrSameAccount,
	ErrInvalidHolderName,
	ErrInvalidInitialBalance,
	ErrInvalidPeriod,
	ErrInvalidCursor,
	ErrInvalidDescription,
}
