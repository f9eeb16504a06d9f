package eventpublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/checkledger/internal/domain"
)

// DefaultStream is the Redis stream events are appended to.
const DefaultStream = "checkledger:events"

// StreamPublisher appends events to a Redis stream. The outbox event id is
// sent as a field so consumers can drop redeliveries.
type StreamPublisher struct {
	client redis.UniversalClient
	stream string
	maxLen int64
}

// NewStreamPublisher creates a StreamPublisher. maxLen caps the stream length
// approximately; zero leaves it unbounded.
func NewStreamPublisher(client redis.UniversalClient, stream string, maxLen int64) *StreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

// Publish XADDs the event.
func (p *StreamPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encode payload of %s: %w", event.ID, err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event_id":       event.ID,
			"event_type":     event.EventType,
			"aggregate_type": event.AggregateType,
			"aggregate_id":   event.AggregateID,
			"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
			"payload":        string(payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}
