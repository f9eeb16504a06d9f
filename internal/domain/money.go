package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for every amount and balance.
const MoneyScale = 2

// RoundMoney rounds d to MoneyScale digits, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// ParseMoney parses a decimal string and rounds it to MoneyScale digits.
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a decimal amount", ErrInvalidAmount, s)
	}

	return RoundMoney(d), nil
}

// FormatMoney renders d with exactly MoneyScale fractional digits.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}
