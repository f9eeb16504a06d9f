package items

import (
	"context"
	"errors"

	"github.com/iho/checkledger/internal/usecase"
)

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("transaction already committed or rolled back")

// TxManager implements usecase.TransactionManager over a Store.
type TxManager struct {
	store Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{store: m.store}, nil
}

// Tx collects writes and hands them to the store as one atomic batch.
type Tx struct {
	store  Store
	writes []Write
	done   bool
}

// Add appends writes to the batch.
func (t *Tx) Add(writes ...Write) error {
	if t.done {
		return ErrTxDone
	}
	t.writes = append(t.writes, writes...)
	return nil
}

// Writes returns the writes collected so far.
func (t *Tx) Writes() []Write {
	return t.writes
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	return t.store.Commit(ctx, t.writes)
}

// Rollback discards the batch. It is a no-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	t.done = true
	t.writes = nil
	return nil
}

func batch(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, errors.New("items: transaction was not started by items.TxManager")
	}
	return t, nil
}
