package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagStoreCheckAndClearConsumes(t *testing.T) {
	store := NewMemoryFlagStore()
	ctx := context.Background()

	require.NoError(t, store.Arm(ctx, "ticket.triage", time.Minute))

	armed, err := store.CheckAndClear(ctx, "ticket.triage")
	require.NoError(t, err)
	assert.True(t, armed)

	armed, err = store.CheckAndClear(ctx, "ticket.triage")
	require.NoError(t, err)
	assert.False(t, armed)
}

func TestFlagStoreArmedDoesNotConsume(t *testing.T) {
	store := NewMemoryFlagStore()
	ctx := context.Background()

	require.NoError(t, store.Arm(ctx, "ticket.cluster", time.Minute))

	for i := 0; i < 3; i++ {
		armed, err := store.Armed(ctx, "ticket.cluster")
		require.NoError(t, err)
		assert.True(t, armed)
	}

	armed, err := store.CheckAndClear(ctx, "ticket.cluster")
	require.NoError(t, err)
	assert.True(t, armed)
}

func TestFlagStoreDisarm(t *testing.T) {
	store := NewMemoryFlagStore()
	ctx := context.Background()

	require.NoError(t, store.Arm(ctx, "notification.dispatch", time.Minute))
	require.NoError(t, store.Disarm(ctx, "notification.dispatch"))

	armed, err := store.CheckAndClear(ctx, "notification.dispatch")
	require.NoError(t, err)
	assert.False(t, armed)
}

func TestFlagStoreExpiry(t *testing.T) {
	store := NewMemoryFlagStore()
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }

	require.NoError(t, store.Arm(ctx, "notification.dispatch", 30*time.Second))

	now = now.Add(31 * time.Second)

	armed, err := store.Armed(ctx, "notification.dispatch")
	require.NoError(t, err)
	assert.False(t, armed)

	armed, err = store.CheckAndClear(ctx, "notification.dispatch")
	require.NoError(t, err)
	assert.False(t, armed)
}

func TestFlagStoreUnknownType(t *testing.T) {
	store := NewMemoryFlagStore()
	ctx := context.Background()

	armed, err := store.Armed(ctx, "notification.redeliver")
	require.NoError(t, err)
	assert.False(t, armed)
}
