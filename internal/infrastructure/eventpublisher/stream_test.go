package eventpublisher

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/checkledger/internal/domain"
)

func TestStreamPublisherAppendsEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	p := NewStreamPublisher(client, "", 0)

	err := p.Publish(ctx, &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "acc-1",
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeEntryPosted,
		Payload:       map[string]any{"amount": "10.00"},
		CreatedAt:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	msgs, err := client.XRange(ctx, DefaultStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	values := msgs[0].Values
	assert.Equal(t, "evt-1", values["event_id"])
	assert.Equal(t, domain.EventTypeEntryPosted, values["event_type"])
	assert.Equal(t, "acc-1", values["aggregate_id"])
	assert.Equal(t, "2024-05-01T12:00:00Z", values["created_at"])
	assert.JSONEq(t, `{"amount":"10.00"}`, values["payload"].(string))
}

func TestStreamPublisherReportsRedisErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	mr.Close()

	err := NewStreamPublisher(client, "events", 100).Publish(context.Background(), &domain.OutboxEvent{ID: "evt-2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xadd events")
}
