package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/checkledger/internal/domain"
	"github.com/iho/checkledger/internal/usecase"
)

// steppingClock advances one hour per reading.
func steppingClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Hour)
		return now
	}
}

func TestHistory_PagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.open(t, "0.00")

	for i := 1; i <= 25; i++ {
		_, err := f.ledger.Credit(ctx, usecase.PostEntryInput{AccountID: id, Amount: money("1.00")})
		require.NoError(t, err)
	}

	recent, err := f.history.GetHistory(ctx, id, 0)
	require.NoError(t, err)
	assert.Len(t, recent, domain.DefaultPageSize)

	first, err := f.history.GetHistoryPage(ctx, id, 10, "")
	require.NoError(t, err)
	require.Len(t, first.Entries, 10)
	require.NotEmpty(t, first.NextCursor)

	second, err := f.history.GetHistoryPage(ctx, id, 10, first.NextCursor)
	require.NoError(t, err)
	require.Len(t, second.Entries, 10)
	assert.Greater(t, first.Entries[9].Key, second.Entries[0].Key)

	third, err := f.history.GetHistoryPage(ctx, id, 10, second.NextCursor)
	require.NoError(t, err)
	assert.Len(t, third.Entries, 5)
	assert.Empty(t, third.NextCursor)
}

func TestHistory_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.open(t, "0.00")

	_, err := f.history.GetHistory(ctx, "missing", 10)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = f.history.GetHistoryPage(ctx, id, 10, "%%%")
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)

	_, err = f.history.GetHistoryByType(ctx, id, domain.EntryType(0), 10, "")
	assert.ErrorIs(t, err, domain.ErrInvalidEntryType)

	_, err = f.history.GetEntriesByPeriod(ctx, id, time.Now(), time.Now().Add(-time.Hour))
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	_, err = f.history.GetReport(ctx, id, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestHistory_ByType(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.open(t, "1000.00")

	for _, amt := range []string{"10.00", "20.00", "30.00"} {
		_, err := f.ledger.Credit(ctx, usecase.PostEntryInput{AccountID: id, Amount: money(amt)})
		require.NoError(t, err)
		_, err = f.ledger.Debit(ctx, usecase.PostEntryInput{AccountID: id, Amount: money("1.00")})
		require.NoError(t, err)
	}

	credits, err := f.history.GetHistoryByType(ctx, id, domain.EntryTypeCredit, 2, "")
	require.NoError(t, err)
	require.Len(t, credits.Entries, 2)
	requireMoney(t, "30.00", credits.Entries[0].Amount)
	requireMoney(t, "20.00", credits.Entries[1].Amount)

	rest, err := f.history.GetHistoryByType(ctx, id, domain.EntryTypeCredit, 2, credits.NextCursor)
	require.NoError(t, err)
	require.Len(t, rest.Entries, 1)
	requireMoney(t, "10.00", rest.Entries[0].Amount)
	assert.Empty(t, rest.NextCursor)

	debits, err := f.history.GetHistoryByType(ctx, id, domain.EntryTypeDebit, 10, "")
	require.NoError(t, err)
	assert.Len(t, debits.Entries, 3)
	for _, e := range debits.Entries {
		assert.Equal(t, domain.EntryTypeDebit, e.Type)
	}
}

func TestHistory_PeriodIsInclusiveAndOldestFirst(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, usecase.WithClock(steppingClock(start)))
	id := f.open(t, "0.00")

	// entries at start, +1h ... +249h, so the walk spans several pages
	for i := 0; i < 250; i++ {
		_, err := f.ledger.Credit(ctx, usecase.PostEntryInput{AccountID: id, Amount: money("1.00")})
		require.NoError(t, err)
	}

	entries, err := f.history.GetEntriesByPeriod(ctx, id, start.Add(10*time.Hour), start.Add(209*time.Hour))
	require.NoError(t, err)
	require.Len(t, entries, 200)
	assert.True(t, entries[0].CreatedAt.Equal(start.Add(10*time.Hour)))
	assert.True(t, entries[199].CreatedAt.Equal(start.Add(209*time.Hour)))
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Key, entries[i].Key)
	}

	none, err := f.history.GetEntriesByPeriod(ctx, id, start.Add(-48*time.Hour), start.Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHistory_Report(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.open(t, "1000.00")

	_, err := f.ledger.Credit(ctx, usecase.PostEntryInput{AccountID: id, Amount: money("500.00")})
	require.NoError(t, err)
	_, err = f.ledger.Debit(ctx, usecase.PostEntryInput{AccountID: id, Amount: money("100.50")})
	require.NoError(t, err)
	_, err = f.ledger.Debit(ctx, usecase.PostEntryInput{AccountID: id, Amount: money("200.00")})
	require.NoError(t, err)
	_, err = f.ledger.Credit(ctx, usecase.PostEntryInput{AccountID: id, Amount: money("50.00")})
	require.NoError(t, err)

	report, err := f.history.GetReport(ctx, id, 30)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Count)
	requireMoney(t, "550.00", report.TotalCredits)
	requireMoney(t, "300.50", report.TotalDebits)
	requireMoney(t, "249.50", report.Net)
	assert.Equal(t, domain.PeriodLabel(report.From, report.To), report.PeriodLabel)
}
