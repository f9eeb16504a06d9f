package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Report aggregates the entries of one account over a period.
type Report struct {
	AccountID    string
	PeriodLabel  string
	From         time.Time
	To           time.Time
	TotalCredits decimal.Decimal
	TotalDebits  decimal.Decimal
	Net          decimal.Decimal
	Count        int
}

// NewReport reduces entries into a report for [from, to].
func NewReport(accountID string, from, to time.Time, entries []*Entry) *Report {
	r := &Report{
		AccountID:    accountID,
		PeriodLabel:  PeriodLabel(from, to),
		From:         from,
		To:           to,
		TotalCredits: decimal.Zero,
		TotalDebits:  decimal.Zero,
		Net:          decimal.Zero,
	}

	for _, e := range entries {
		switch e.Type {
		case EntryTypeCredit:
			r.TotalCredits = r.TotalCredits.Add(e.Amount)
		case EntryTypeDebit:
			r.TotalDebits = r.TotalDebits.Add(e.Amount)
		}
		r.Count++
	}

	r.Net = r.TotalCredits.Sub(r.TotalDebits)

	return r
}

// PeriodLabel renders a period as "2006-01-02 to 2006-01-02".
func PeriodLabel(from, to time.Time) string {
	return fmt.Sprintf("%s to %s", from.UTC().Format(time.DateOnly), to.UTC().Format(time.DateOnly))
}
