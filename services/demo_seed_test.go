package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/portfolio-app/database"
	"github.com/yeremiapane/portfolio-app/stream"
)

func TestSeedDemoNotifications(t *testing.T) {
	store := database.NewNotificationStore(setupTestDB(t))
	hub := stream.NewHub()
	defer hub.Close()
	d := NewNotificationDispatcher(store, hub)
	ctx := context.Background()

	created, err := SeedDemoNotifications(ctx, store, d)
	require.NoError(t, err)
	assert.Equal(t, 7, created)

	unread, err := store.CountUnread(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), unread)

	_, err = store.MarkAllRead(ctx)
	require.NoError(t, err)

	// a second run keeps the records and only makes them unread again
	created, err = SeedDemoNotifications(ctx, store, d)
	require.NoError(t, err)
	assert.Zero(t, created)

	all, err := store.List(ctx, database.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 7)
	unread, err = store.CountUnread(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), unread)
}
