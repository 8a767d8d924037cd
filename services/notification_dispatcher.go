package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/portfolio-app/database"
	"github.com/yeremiapane/portfolio-app/metrics"
	"github.com/yeremiapane/portfolio-app/models"
	"github.com/yeremiapane/portfolio-app/stream"
	"github.com/yeremiapane/portfolio-app/utils"
)

// Broadcaster is the fan-out side of the stream server.
type Broadcaster interface {
	Broadcast(msg stream.Message) stream.BroadcastResult
}

// NotificationDispatcher persists notifications and pushes them to live subscribers.
type NotificationDispatcher struct {
	store database.NotificationStore
	hub   Broadcaster
}

func NewNotificationDispatcher(store database.NotificationStore, hub Broadcaster) *NotificationDispatcher {
	return &NotificationDispatcher{store: store, hub: hub}
}

// Dispatch validates and stores the payload, then fans the stored record out.
// Only validation and persistence errors are returned; delivery to subscribers is
// best-effort and never retried.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, payload models.NotificationPayload) (*models.Notification, error) {
	if err := payload.Validate(); err != nil {
		metrics.NotificationDispatchErrors.WithLabelValues("validation").Inc()
		return nil, err
	}

	n := payload.ToNotification()
	if err := d.store.Create(ctx, n); err != nil {
		metrics.NotificationDispatchErrors.WithLabelValues("persistence").Inc()
		return nil, fmt.Errorf("dispatch notification: %w", err)
	}
	metrics.NotificationsDispatched.WithLabelValues(string(n.Category), string(n.Type)).Inc()

	if d.hub != nil {
		res := d.hub.Broadcast(stream.Message{Event: stream.EventNotification, Data: n})
		metrics.StreamDeliveries.Add(float64(res.Delivered))
		metrics.StreamDrops.Add(float64(res.Dropped))
		utils.InfoLogger.WithFields(logrus.Fields{
			"notification_id": n.ID,
			"category":        n.Category,
			"delivered":       res.Delivered,
			"dropped":         res.Dropped,
		}).Info("Notification dispatched")
	}
	return n, nil
}

// Notify is for domain actions that want a notification as a side effect. It takes the
// factory's result directly and never fails the caller: every error is logged and dropped.
func (d *NotificationDispatcher) Notify(ctx context.Context, payload models.NotificationPayload, factoryErr error) *models.Notification {
	if factoryErr != nil {
		utils.ErrorLogger.WithError(factoryErr).Error("Notification not built")
		return nil
	}
	n, err := d.Dispatch(ctx, payload)
	if err != nil {
		entry := utils.ErrorLogger.WithError(err).WithField("category", payload.Category)
		if errors.Is(err, models.ErrInvalidNotification) {
			entry.Error("Notification rejected")
		} else {
			entry.Error("Notification not persisted")
		}
		return nil
	}
	return n
}
