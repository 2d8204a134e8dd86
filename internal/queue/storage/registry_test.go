package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerRegistry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	count, err := store.ActiveWorkers(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, store.RegisterWorker(ctx, 1001, "host-a", now))
	require.NoError(t, store.RegisterWorker(ctx, 1002, "host-b", now))

	count, err = store.ActiveWorkers(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Re-registering the same pid replaces the row, not duplicates it.
	require.NoError(t, store.RegisterWorker(ctx, 1001, "host-a", now))
	count, err = store.ActiveWorkers(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, store.UnregisterWorker(ctx, 1002))
	count, err = store.ActiveWorkers(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestActiveWorkers_StaleHeartbeatsAgeOut(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.RegisterWorker(ctx, 2001, "host", now))

	// A crashed process never refreshes its heartbeat; once the window
	// passes it no longer counts as alive.
	later := now.Add(ActiveWorkerWindow + time.Second)
	count, err := store.ActiveWorkers(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, store.WorkerHeartbeat(ctx, 2001, later))
	count, err = store.ActiveWorkers(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
