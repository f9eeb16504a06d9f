package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewIdempotencyStore()
	store.now = func() time.Time { return now }

	exists, resp, err := store.CheckAndSet(ctx, "k", nil, time.Minute)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Nil(t, resp)

	exists, resp, err = store.CheckAndSet(ctx, "k", nil, time.Minute)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Nil(t, resp, "in-flight claim has no response")

	require.NoError(t, store.Update(ctx, "k", []byte(`{"ok":true}`), time.Minute))
	exists, resp, err = store.CheckAndSet(ctx, "k", nil, time.Minute)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, `{"ok":true}`, string(resp))

	now = now.Add(2 * time.Minute)
	exists, _, err = store.CheckAndSet(ctx, "k", nil, time.Minute)
	require.NoError(t, err)
	assert.False(t, exists, "expired key can be claimed again")

	require.NoError(t, store.Release(ctx, "k"))
	exists, _, err = store.CheckAndSet(ctx, "k", nil, time.Minute)
	require.NoError(t, err)
	assert.False(t, exists)
}
