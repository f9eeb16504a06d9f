package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryType is the direction of a ledger entry. The zero value is invalid.
type EntryType uint8

const (
	EntryTypeCredit EntryType = iota + 1
	EntryTypeDebit
)

// ParseEntryType parses "credit" or "debit".
func ParseEntryType(s string) (EntryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "credit":
		return EntryTypeCredit, nil
	case "debit":
		return EntryTypeDebit, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidEntryType, s)
	}
}

func (t EntryType) String() string {
	switch t {
	case EntryTypeCredit:
		return "credit"
	case EntryTypeDebit:
		return "debit"
	default:
		return fmt.Sprintf("EntryType(%d)", uint8(t))
	}
}

// Valid reports whether t is credit or debit.
func (t EntryType) Valid() bool {
	return t == EntryTypeCredit || t == EntryTypeDebit
}

// Opposite returns the type that compensates t.
func (t EntryType) Opposite() EntryType {
	if t == EntryTypeCredit {
		return EntryTypeDebit
	}
	return EntryTypeCredit
}

// Signed returns amount with the sign this entry type applies to a balance.
func (t EntryType) Signed(amount decimal.Decimal) decimal.Decimal {
	if t == EntryTypeDebit {
		return amount.Neg()
	}
	return amount
}

// MarshalText implements encoding.TextMarshaler.
func (t EntryType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidEntryType, uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *EntryType) UnmarshalText(text []byte) error {
	parsed, err := ParseEntryType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Entry represents a single ledger entry (credit or debit) in an account log.
type Entry struct {
	CreatedAt      time.Time
	AccountID      string
	Key            string
	Description    string
	ReversalOf     string
	Type           EntryType
	Amount         decimal.Decimal
	BalanceAfter   decimal.Decimal
	AccountVersion int64
	Reversed       bool
}

// SignedAmount returns the entry's effect on the account balance.
func (e *Entry) SignedAmount() decimal.Decimal {
	return e.Type.Signed(e.Amount)
}

// IsReversal reports whether e compensates another entry.
func (e *Entry) IsReversal() bool {
	return e.ReversalOf != ""
}

// ValidateReversal checks that e may be reversed now.
func (e *Entry) ValidateReversal() error {
	if e.IsReversal() {
		return ErrReversalNotReversible
	}
	if e.Reversed {
		return ErrAlreadyReversed
	}
	return nil
}

// Entry keys sort lexicographically in commit order within one account:
// a fixed-width UTC timestamp followed by the zero-padded account version
// the commit produced.
const (
	EntryKeyPrefix     = "TXN#"
	entryKeyTimeLayout = "2006-01-02T15:04:05.000000000Z"
	entryKeyMaxVersion = "9999999999999999999"
)

// EntryKey builds the sort key of an entry written at at by the commit that
// moved its account to version.
func EntryKey(at time.Time, version int64) string {
	return fmt.Sprintf("%s%s#%019d", EntryKeyPrefix, at.UTC().Format(entryKeyTimeLayout), version)
}

// EntryKeyLowerBound is the smallest entry key at or after t.
func EntryKeyLowerBound(t time.Time) string {
	return EntryKeyPrefix + t.UTC().Format(entryKeyTimeLayout) + "#"
}

// EntryKeyUpperBound is the largest entry key at or before t.
func EntryKeyUpperBound(t time.Time) string {
	return EntryKeyPrefix + t.UTC().Format(entryKeyTimeLayout) + "#" + entryKeyMaxVersion
}

// ParseEntryKey extracts the timestamp and version from an entry key.
func ParseEntryKey(key string) (time.Time, int64, error) {
	rest, ok := strings.CutPrefix(key, EntryKeyPrefix)
	if !ok {
		return time.Time{}, 0, fmt.Errorf("%w: %q", ErrInvalidEntryKey, key)
	}

	ts, ver, ok := strings.Cut(rest, "#")
	if !ok {
		return time.Time{}, 0, fmt.Errorf("%w: %q", ErrInvalidEntryKey, key)
	}

	at, err := time.Parse(entryKeyTimeLayout, ts)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: %q", ErrInvalidEntryKey, key)
	}

	version, err := strconv.ParseInt(ver, 10, 64)
	if err != nil || len(ver) != len(entryKeyMaxVersion) {
		return time.Time{}, 0, fmt.Errorf("%w: %q", ErrInvalidEntryKey, key)
	}

	return at, version, nil
}

// ReversalDescription is the description of the entry compensating original.
func ReversalDescription(original string) string {
	return "Reversal of: " + original
}
