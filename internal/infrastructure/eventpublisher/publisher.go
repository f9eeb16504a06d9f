package eventpublisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/checkledger/internal/domain"
	"github.com/iho/checkledger/internal/infrastructure/metrics"
	"github.com/iho/checkledger/internal/usecase"
)

// EventPublisher drains the outbox partition.
type EventPublisher struct {
	outboxRepo usecase.OutboxRepository
	publisher  Publisher
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	batchSize  int
	interval   time.Duration
}

// Publisher defines the interface for publishing events to external systems.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics // optional
	BatchSize  int              // Number of events to fetch per batch
	Interval   time.Duration    // Polling interval
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}

	return &EventPublisher{
		outboxRepo: cfg.OutboxRepo,
		publisher:  cfg.Publisher,
		logger:     cfg.Logger.With().Str("component", "outbox").Logger(),
		metrics:    cfg.Metrics,
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
	}
}

// Start drains the outbox every interval until ctx is cancelled. A full
// batch is followed immediately by another pass instead of waiting a tick.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Msg("event publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	for {
		for {
			drained, err := ep.RunOnce(ctx)
			if err != nil {
				if ctx.Err() != nil {
					break
				}
				ep.logger.Error().Err(err).Msg("error processing events")
				break
			}
			if drained < ep.batchSize {
				break
			}
		}

		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce publishes one batch of unpublished events and returns how many left
// the outbox, i.e. were published and marked. A failed event stays in the outbox and is retried on the next
// pass; one that is published but not marked is delivered again, so
// consumers see at-least-once delivery.
func (ep *EventPublisher) RunOnce(ctx context.Context) (int, error) {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	ep.logger.Debug().Int("count", len(events)).Msg("processing events")

	drained := 0
	for _, event := range events {
		log := ep.logger.With().
			Str("event_id", event.ID).
			Str("event_type", event.EventType).
			Logger()

		if err := ep.publisher.Publish(ctx, event); err != nil {
			log.Error().Err(err).Msg("failed to publish event")
			ep.countError()
			continue
		}
		if ep.metrics != nil {
			ep.metrics.OutboxPublished.Inc()
		}

		if err := ep.outboxRepo.MarkPublished(ctx, event.ID); err != nil {
			log.Error().Err(err).Msg("failed to mark event as published")
			ep.countError()
			continue
		}
		drained++
	}

	return drained, nil
}

func (ep *EventPublisher) countError() {
	if ep.metrics != nil {
		ep.metrics.OutboxErrors.Inc()
	}
}

// LogPublisher is a simple publisher that logs events.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", payload).
		Msg("event published")

	return nil
}
