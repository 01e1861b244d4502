package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmmanagement/agenda/internal/store"
	"github.com/kmmanagement/agenda/internal/task"
)

func TestRunSlot(t *testing.T) {
	ctx := context.Background()
	*storageType = store.TypeLocal
	*dataDir = t.TempDir()

	repos, err := openStore(ctx)
	require.NoError(t, err)
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repos.Tasks.Create(ctx, &task.Task{ID: "t1", Title: "visit", ScheduledAt: &at}))
	repos.Close()

	*slotAt = "2024-03-01 10:00"
	assert.ErrorIs(t, runSlot(ctx, time.UTC), errSlotTaken)

	*slotAt = "2024-03-01 11:00"
	assert.NoError(t, runSlot(ctx, time.UTC))
}
