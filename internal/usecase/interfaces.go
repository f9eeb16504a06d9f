package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/checkledger/internal/domain"
)

// AccountRepository defines data access for account records.
type AccountRepository interface {
	// Create adds the account to tx; the commit fails if the id is taken.
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// UpdateBalance adds delta to the balance and bumps the version, guarded
	// by the version account was read at.
	UpdateBalance(ctx context.Context, tx Transaction, account *domain.Account, delta decimal.Decimal, at time.Time) error
}

// EntryRepository defines data access for the transaction log.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	GetByKey(ctx context.Context, accountID, key string) (*domain.Entry, error)
	// MarkReversed flags entry as reversed, guarded by it not being flagged yet.
	MarkReversed(ctx context.Context, tx Transaction, entry *domain.Entry) error
	// ListByAccount pages the log newest first.
	ListByAccount(ctx context.Context, accountID string, limit int, cursor string) ([]*domain.Entry, string, error)
	// ListByType pages entries of one type newest first.
	ListByType(ctx context.Context, accountID string, entryType domain.EntryType, limit int, cursor string) ([]*domain.Entry, string, error)
	// ListByPeriod pages entries created in [from, to] oldest first.
	ListByPeriod(ctx context.Context, accountID string, from, to time.Time, limit int, cursor string) ([]*domain.Entry, string, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string) error
}

// Transaction is an atomic batch of writes.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// LedgerMetrics records engine outcomes.
type LedgerMetrics interface {
	ObserveCommit(operation string, attempts int, duration time.Duration)
	IncConflict(operation string)
	IncFailure(operation, reason string)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release forgets a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}
