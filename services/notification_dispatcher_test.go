package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/portfolio-app/database"
	"github.com/yeremiapane/portfolio-app/models"
	"github.com/yeremiapane/portfolio-app/stream"
	"github.com/yeremiapane/portfolio-app/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	utils.SilenceLogger()
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

// failingStore rejects every write.
type failingStore struct {
	database.NotificationStore
}

func (failingStore) Create(ctx context.Context, n *models.Notification) error {
	return errors.New("database unreachable")
}

// checkingHub asserts the record is already stored when fan-out happens.
type checkingHub struct {
	t     *testing.T
	store database.NotificationStore
	seen  []stream.Message
}

func (h *checkingHub) Broadcast(msg stream.Message) stream.BroadcastResult {
	n := msg.Data.(*models.Notification)
	_, err := h.store.Get(context.Background(), n.ID)
	assert.NoError(h.t, err, "fan-out before persistence")
	h.seen = append(h.seen, msg)
	return stream.BroadcastResult{Delivered: 1}
}

func TestDispatchRoundTrip(t *testing.T) {
	store := database.NewNotificationStore(setupTestDB(t))
	hub := &checkingHub{t: t, store: store}
	d := NewNotificationDispatcher(store, hub)

	payload, err := BlogCreated(BlogRef{ID: "b1", Title: "Hello World", Slug: "hello-world"})
	require.NoError(t, err)

	n, err := d.Dispatch(context.Background(), payload)
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.Read)
	assert.False(t, n.CreatedAt.After(time.Now()))

	got, err := store.Get(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, payload.Message, got.Message)
	assert.Equal(t, payload.Category, got.Category)
	assert.Equal(t, payload.Type, got.Type)
	assert.Equal(t, payload.Link, got.Link)

	all, err := store.List(context.Background(), database.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.Len(t, hub.seen, 1)
	assert.Equal(t, stream.EventNotification, hub.seen[0].Event)
}

func TestDispatchPersistenceFailureSkipsFanOut(t *testing.T) {
	hub := stream.NewHub()
	sub := hub.Subscribe("admin")
	d := NewNotificationDispatcher(failingStore{}, hub)

	payload, err := SystemUpdate("v2")
	require.NoError(t, err)

	_, err = d.Dispatch(context.Background(), payload)
	assert.Error(t, err)
	assert.Empty(t, sub.Messages())
}

func TestDispatchRejectsInvalidPayloadBeforePersisting(t *testing.T) {
	store := database.NewNotificationStore(setupTestDB(t))
	d := NewNotificationDispatcher(store, stream.NewHub())

	_, err := d.Dispatch(context.Background(), models.NotificationPayload{
		Message: "x", Type: "loud", Category: models.CategoryGeneral,
	})
	assert.ErrorIs(t, err, models.ErrInvalidNotification)

	all, err := store.List(context.Background(), database.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDispatchIsolatesBrokenSubscriber(t *testing.T) {
	store := database.NewNotificationStore(setupTestDB(t))
	hub := stream.NewHubWithQueue(1)
	stuck := hub.Subscribe("admin")
	healthy := hub.Subscribe("admin")
	d := NewNotificationDispatcher(store, hub)

	for i := 0; i < 2; i++ {
		payload, err := SystemUpdate(fmt.Sprintf("step %d", i))
		require.NoError(t, err)
		_, err = d.Dispatch(context.Background(), payload)
		require.NoError(t, err)
		<-healthy.Messages()
	}

	assert.True(t, stuck.Dropped())
	assert.Equal(t, 1, hub.Count())

	count, err := store.CountUnread(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestNotifyNeverFails(t *testing.T) {
	d := NewNotificationDispatcher(failingStore{}, stream.NewHub())

	assert.Nil(t, d.Notify(context.Background(), models.NotificationPayload{}, errors.New("bad input")))

	payload, err := SystemUpdate("v2")
	require.NoError(t, err)
	assert.Nil(t, d.Notify(context.Background(), payload, nil))
}
