package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidHolderName     = errors.New("invalid holder name")
	ErrInvalidInitialBalance = errors.New("initial balance must be a non-negative amount")
	ErrAmountTooLarge        = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall        = errors.New("amount below minimum allowed")
	ErrInvalidPeriod         = errors.New("invalid period")
	ErrInvalidCursor         = errors.New("invalid pagination cursor")
	ErrInvalidDescription    = errors.New("invalid description")
)

// Validation constants
const (
	MaxHolderNameLength  = 255
	MinHolderNameLength  = 1
	MaxDescriptionLength = 1024
	MaxAmount            = "1000000000000" // 1 trillion
	MinAmount            = "0.01"
	MaxReportPeriodDays  = 3660
	DefaultPageSize      = 20
	MaxPageSize          = 100
)

// ValidateHolderName validates an account holder name.
func ValidateHolderName(name string) error {
	name = strings.TrimSpace(name)

	if utf8.RuneCountInString(name) < MinHolderNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidHolderName)
	}

	if utf8.RuneCountInString(name) > MaxHolderNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidHolderName, MaxHolderNameLength)
	}

	return nil
}

// ValidateInitialBalance validates the opening balance of an account.
func ValidateInitialBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return ErrInvalidInitialBalance
	}

	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if balance.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum balance is %s", ErrInvalidInitialBalance, MaxAmount)
	}

	return nil
}

// ValidateAmount validates a credit, debit or transfer amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	minAmount, _ := decimal.NewFromString(MinAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinAmount)
	}

	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount)
	}

	return nil
}

// ValidateDescription trims a free-text description and bounds its length.
func ValidateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidDescription, MaxDescriptionLength)
	}
	return description, nil
}

// ValidatePagination clamps a page size to [1, MaxPageSize].
func ValidatePagination(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}

	if limit > MaxPageSize {
		return MaxPageSize
	}

	return limit
}

// ValidatePeriodDays validates the length of a report period.
func ValidatePeriodDays(days int) error {
	if days <= 0 || days > MaxReportPeriodDays {
		return fmt.Errorf("%w: period must be between 1 and %d days", ErrInvalidPeriod, MaxReportPeriodDays)
	}
	return nil
}
