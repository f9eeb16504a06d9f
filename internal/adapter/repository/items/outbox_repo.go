package items

import (
	"context"
	"errors"

	"github.com/iho/checkledger/internal/domain"
	"github.com/iho/checkledger/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository. Events share the
// OUTBOX partition and sort by ULID, so they drain in creation order.
type OutboxRepository struct {
	store Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

// Create adds a put of event to tx.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	b, err := batch(tx)
	if err != nil {
		return err
	}

	item, err := outboxToItem(event)
	if err != nil {
		return err
	}

	return b.Add(Put(item, NotExists()))
}

// GetUnpublished retrieves the oldest pending events.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	page, err := r.store.Query(ctx, Query{
		Index:     IndexPrimary,
		Partition: OutboxPartition,
		Prefix:    OutboxPrefix,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}

	events := make([]*domain.OutboxEvent, 0, len(page.Items))
	for _, item := range page.Items {
		ev, err := itemToOutbox(item)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	return events, nil
}

// MarkPublished removes a published event from the outbox. Removing an event
// that is already gone is not an error.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string) error {
	err := r.store.Commit(ctx, []Write{Delete(OutboxKey(id), Exists())})
	if errors.Is(err, domain.ErrConditionFailed) {
		return nil
	}
	return err
}

// NullOutboxRepository drops every event. It is used when no publisher runs.
type NullOutboxRepository struct{}

// NewNullOutboxRepository creates a no-op outbox repository.
func NewNullOutboxRepository() *NullOutboxRepository {
	return &NullOutboxRepository{}
}

func (NullOutboxRepository) Create(context.Context, usecase.Transaction, *domain.OutboxEvent) error {
	return nil
}

func (NullOutboxRepository) GetUnpublished(context.Context, int) ([]*domain.OutboxEvent, error) {
	return nil, nil
}

func (NullOutboxRepository) MarkPublished(context.Context, string) error {
	return nil
}
