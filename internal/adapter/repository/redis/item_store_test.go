package redis

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/checkledger/internal/adapter/repository/items"
	"github.com/iho/checkledger/internal/domain"
	"github.com/iho/checkledger/internal/usecase"
)

func newTestItemStore(t *testing.T) *ItemStore {
	t.Helper()
	client, _ := newTestRedisClient(t)
	return NewItemStore(client, "test")
}

func seedEntries(t *testing.T, s *ItemStore, pk string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		item := &items.Item{
			PK:     pk,
			SK:     fmt.Sprintf("TXN#%03d", i),
			GSI1PK: pk,
			GSI1SK: fmt.Sprintf("TYPE#%s#TXN#%03d", []string{"CREDIT", "DEBIT"}[i%2], i),
			Attrs:  map[string]string{"n": fmt.Sprint(i)},
		}
		require.NoError(t, s.Commit(context.Background(), []items.Write{items.Put(item, nil)}))
	}
}

func TestItemStore_GetMissing(t *testing.T) {
	s := newTestItemStore(t)
	_, err := s.Get(context.Background(), items.Key{PK: "A", SK: "B"})
	assert.ErrorIs(t, err, items.ErrItemNotFound)
}

func TestItemStore_UpdateAddsAndSets(t *testing.T) {
	ctx := context.Background()
	s := newTestItemStore(t)
	key := items.Key{PK: "ACCOUNT#1", SK: "METADATA"}

	require.NoError(t, s.Commit(ctx, []items.Write{
		items.Put(&items.Item{PK: key.PK, SK: key.SK, Attrs: map[string]string{"balance": "10.00", "version": "1"}}, items.NotExists()),
	}))
	require.NoError(t, s.Commit(ctx, []items.Write{
		items.Update(key,
			map[string]string{"version": "2"},
			map[string]decimal.Decimal{"balance": decimal.RequireFromString("-2.50")},
			items.AttrEquals("version", "1")),
	}))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "2", got.Attrs["version"])
	assert.True(t, decimal.RequireFromString(got.Attrs["balance"]).Equal(decimal.RequireFromString("7.5")))
}

func TestItemStore_ConditionFailureRejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestItemStore(t)
	acct := &items.Item{PK: "ACCOUNT#1", SK: "METADATA", Attrs: map[string]string{"version": "1"}}
	require.NoError(t, s.Commit(ctx, []items.Write{items.Put(acct, items.NotExists())}))

	err := s.Commit(ctx, []items.Write{
		items.Put(&items.Item{PK: "ACCOUNT#1", SK: "TXN#1", Attrs: map[string]string{}}, nil),
		items.Update(acct.Key(), map[string]string{"version": "3"}, nil, items.AttrEquals("version", "2")),
	})
	require.ErrorIs(t, err, domain.ErrConditionFailed)

	_, err = s.Get(ctx, items.Key{PK: "ACCOUNT#1", SK: "TXN#1"})
	assert.ErrorIs(t, err, items.ErrItemNotFound)
}

func TestItemStore_PutNotExistsRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newTestItemStore(t)
	item := &items.Item{PK: "P", SK: "S", Attrs: map[string]string{}}

	require.NoError(t, s.Commit(ctx, []items.Write{items.Put(item, items.NotExists())}))
	err := s.Commit(ctx, []items.Write{items.Put(item, items.NotExists())})
	assert.ErrorIs(t, err, domain.ErrConditionFailed)
}

func TestItemStore_QueryPrimaryPages(t *testing.T) {
	ctx := context.Background()
	s := newTestItemStore(t)
	seedEntries(t, s, "ACCOUNT#1", 5)

	var got []string
	q := items.Query{Partition: "ACCOUNT#1", Prefix: "TXN#", Descending: true, Limit: 2}
	for {
		page, err := s.Query(ctx, q)
		require.NoError(t, err)
		for _, it := range page.Items {
			got = append(got, it.SK)
		}
		if page.NextCursor == "" {
			break
		}
		q.Cursor = page.NextCursor
	}

	assert.Equal(t, []string{"TXN#004", "TXN#003", "TXN#002", "TXN#001", "TXN#000"}, got)
}

func TestItemStore_QueryGSI1ByPrefix(t *testing.T) {
	ctx := context.Background()
	s := newTestItemStore(t)
	seedEntries(t, s, "ACCOUNT#1", 5)

	page, err := s.Query(ctx, items.Query{
		Index:     items.IndexGSI1,
		Partition: "ACCOUNT#1",
		Prefix:    "TYPE#DEBIT#",
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "TXN#001", page.Items[0].SK)
	assert.Equal(t, "TXN#003", page.Items[1].SK)
}

func TestItemStore_QueryBounds(t *testing.T) {
	ctx := context.Background()
	s := newTestItemStore(t)
	seedEntries(t, s, "ACCOUNT#1", 5)

	page, err := s.Query(ctx, items.Query{Partition: "ACCOUNT#1", From: "TXN#001", To: "TXN#003"})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "TXN#001", page.Items[0].SK)
	assert.Equal(t, "TXN#003", page.Items[2].SK)
}

func TestItemStore_DeleteRemovesFromIndexes(t *testing.T) {
	ctx := context.Background()
	s := newTestItemStore(t)
	seedEntries(t, s, "ACCOUNT#1", 2)

	require.NoError(t, s.Commit(ctx, []items.Write{
		items.Delete(items.Key{PK: "ACCOUNT#1", SK: "TXN#000"}, items.Exists()),
	}))

	page, err := s.Query(ctx, items.Query{Index: items.IndexGSI1, Partition: "ACCOUNT#1", Prefix: "TYPE#"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "TXN#001", page.Items[0].SK)
}

func TestItemStore_InvalidCursor(t *testing.T) {
	s := newTestItemStore(t)
	_, err := s.Query(context.Background(), items.Query{Partition: "P", Cursor: "!!"})
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)
}

func TestItemStore_ConcurrentCreditsAllLand(t *testing.T) {
	ctx := context.Background()
	s := newTestItemStore(t)

	txm := items.NewTxManager(s)
	accounts := items.NewAccountRepository(s)
	entries := items.NewEntryRepository(s)
	idGen := items.NewULIDGenerator()

	accountUC := usecase.NewAccountUseCase(txm, accounts, nil, idGen, zerolog.Nop())
	ledger := usecase.NewLedgerUseCase(txm, accounts, entries,
		usecase.WithRetrier(usecase.NewConflictRetrier(usecase.RetryPolicy{
			MaxAttempts: 50,
			MaxDelay:    2 * time.Millisecond,
			MaxElapsed:  30 * time.Second,
		})))

	acc, err := accountUC.CreateAccount(ctx, usecase.CreateAccountInput{
		HolderName:     "Ana Lima",
		InitialBalance: decimal.Zero,
	})
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.Credit(ctx, usecase.PostEntryInput{
				AccountID: acc.ID,
				Amount:    decimal.NewFromInt(10),
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	balance, err := accountUC.GetBalance(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(80)), "balance %s", balance)

	got, _, err := entries.ListByAccount(ctx, acc.ID, 100, "")
	require.NoError(t, err)
	assert.Len(t, got, workers)
}
