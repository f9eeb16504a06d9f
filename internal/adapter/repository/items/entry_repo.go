package items

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/checkledger/internal/domain"
	"github.com/iho/checkledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store Store
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(store Store) *EntryRepository {
	return &EntryRepository{store: store}
}

// Create adds a put of the entry to tx. Entry keys are unique per account
// version, so the put is unconditioned.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	b, err := batch(tx)
	if err != nil {
		return err
	}
	return b.Add(Put(entryToItem(entry), nil))
}

// GetByKey retrieves one entry of an account. A key that cannot name an entry
// is reported as domain.ErrEntryNotFound.
func (r *EntryRepository) GetByKey(ctx context.Context, accountID, key string) (*domain.Entry, error) {
	if _, _, err := domain.ParseEntryKey(key); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEntryNotFound, err)
	}

	item, err := r.store.Get(ctx, EntryItemKey(accountID, key))
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return itemToEntry(item)
}

// MarkReversed adds the flip of the reversed flag to tx, guarded by the flag
// still being false.
func (r *EntryRepository) MarkReversed(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	b, err := batch(tx)
	if err != nil {
		return err
	}

	return b.Add(Update(
		EntryItemKey(entry.AccountID, entry.Key),
		map[string]string{attrReversed: "true"},
		nil,
		AttrEquals(attrReversed, "false"),
	))
}

// ListByAccount pages the account log newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit int, cursor string) ([]*domain.Entry, string, error) {
	return r.list(ctx, Query{
		Index:      IndexPrimary,
		Partition:  AccountPartition(accountID),
		Prefix:     domain.EntryKeyPrefix,
		Descending: true,
		Limit:      limit,
		Cursor:     cursor,
	})
}

// ListByType pages entries of one type newest first through GSI1.
func (r *EntryRepository) ListByType(ctx context.Context, accountID string, entryType domain.EntryType, limit int, cursor string) ([]*domain.Entry, string, error) {
	if !entryType.Valid() {
		return nil, "", domain.ErrInvalidEntryType
	}

	return r.list(ctx, Query{
		Index:      IndexGSI1,
		Partition:  AccountPartition(accountID),
		Prefix:     TypeSortKeyPrefix(entryType),
		Descending: true,
		Limit:      limit,
		Cursor:     cursor,
	})
}

// ListByPeriod pages entries created in [from, to] oldest first.
func (r *EntryRepository) ListByPeriod(ctx context.Context, accountID string, from, to time.Time, limit int, cursor string) ([]*domain.Entry, string, error) {
	if to.Before(from) {
		return nil, "", domain.ErrInvalidPeriod
	}

	return r.list(ctx, Query{
		Index:     IndexPrimary,
		Partition: AccountPartition(accountID),
		From:      domain.EntryKeyLowerBound(from),
		To:        domain.EntryKeyUpperBound(to),
		Limit:     limit,
		Cursor:    cursor,
	})
}

func (r *EntryRepository) list(ctx context.Context, q Query) ([]*domain.Entry, string, error) {
	page, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, "", err
	}

	entries := make([]*domain.Entry, 0, len(page.Items))
	for _, item := range page.Items {
		e, err := itemToEntry(item)
		if err != nil {
			return nil, "", err
		}
		entries = append(entries, e)
	}

	return entries, page.NextCursor, nil
}
