package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/checkledger/internal/adapter/repository/items"
	"github.com/iho/checkledger/internal/adapter/repository/memory"
	"github.com/iho/checkledger/internal/domain"
	"github.com/iho/checkledger/internal/usecase"
)

type fixture struct {
	store   *memory.Store
	outbox  *items.OutboxRepository
	entries *items.EntryRepository
	account *usecase.AccountUseCase
	ledger  *usecase.LedgerUseCase
	history *usecase.HistoryUseCase
	recon   *usecase.ReconciliationUseCase
}

func fastPolicy(attempts int) usecase.RetryPolicy {
	return usecase.RetryPolicy{
		MaxAttempts: attempts,
		MinDelay:    0,
		MaxDelay:    time.Millisecond,
		MaxElapsed:  30 * time.Second,
	}
}

func newFixture(t *testing.T, opts ...usecase.LedgerOption) *fixture {
	t.Helper()

	store := memory.New()
	txm := items.NewTxManager(store)
	accounts := items.NewAccountRepository(store)
	entries := items.NewEntryRepository(store)
	outbox := items.NewOutboxRepository(store)
	idGen := items.NewULIDGenerator()

	opts = append([]usecase.LedgerOption{
		usecase.WithRetrier(usecase.NewConflictRetrier(fastPolicy(5))),
	}, opts...)

	return &fixture{
		store:   store,
		outbox:  outbox,
		entries: entries,
		account: usecase.NewAccountUseCase(txm, accounts, outbox, idGen, zerolog.Nop()),
		ledger:  usecase.NewLedgerUseCase(txm, accounts, entries, opts...),
		history: usecase.NewHistoryUseCase(accounts, entries),
		recon:   usecase.NewReconciliationUseCase(accounts, entries),
	}
}

func (f *fixture) open(t *testing.T, balance string) string {
	t.Helper()
	acc, err := f.account.CreateAccount(context.Background(), usecase.CreateAccountInput{
		HolderName:     "Maria Souza",
		InitialBalance: money(balance),
	})
	require.NoError(t, err)
	return acc.ID
}

func (f *fixture) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	b, err := f.account.GetBalance(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) allEntries(t *testing.T, id string) []*domain.Entry {
	t.Helper()
	var (
		all    []*domain.Entry
		cursor string
	)
	for {
		page, err := f.history.GetHistoryPage(context.Background(), id, domain.MaxPageSize, cursor)
		require.NoError(t, err)
		all = append(all, page.Entries...)
		if page.NextCursor == "" {
			return all
		}
		cursor = page.NextCursor
	}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, money(want).Equal(got), "expected %s, got %s", want, got.StringFixed(2))
}
