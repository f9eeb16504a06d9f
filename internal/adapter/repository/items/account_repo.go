package items

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/checkledger/internal/domain"
	"github.com/iho/checkledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create adds a put of the account to tx, guarded by the key being unused.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	b, err := batch(tx)
	if err != nil {
		return err
	}
	return b.Add(Put(accountToItem(account), NotExists()))
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	item, err := r.store.Get(ctx, AccountKey(id))
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return itemToAccount(item)
}

// UpdateBalance adds an update of the account record to tx. The write only
// applies while the stored version is still the one account was read at.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, account *domain.Account, delta decimal.Decimal, at time.Time) error {
	b, err := batch(tx)
	if err != nil {
		return err
	}

	return b.Add(Update(
		AccountKey(account.ID),
		map[string]string{
			attrVersion:     formatVersion(account.NextVersion()),
			attrLastEntryAt: formatTime(at),
			attrUpdatedAt:   formatTime(at),
		},
		map[string]decimal.Decimal{attrBalance: delta},
		AttrEquals(attrVersion, formatVersion(account.Version)),
	))
}
