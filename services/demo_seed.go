package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeremiapane/portfolio-app/database"
	"github.com/yeremiapane/portfolio-app/models"
	"github.com/yeremiapane/portfolio-app/utils"
)

// DemoStore is what the demo seeder needs besides the dispatcher.
type DemoStore interface {
	List(ctx context.Context, opts database.ListOptions) ([]models.Notification, error)
	ResetReadState(ctx context.Context) error
}

func demoPayloads() ([]models.NotificationPayload, error) {
	blog := BlogRef{ID: "1", Title: "Building a notification feed", Slug: "building-a-notification-feed"}
	msg := MessageRef{ID: "1", Name: "Dana", Email: "dana@example.com", Subject: "Project inquiry"}

	var payloads []models.NotificationPayload
	var errs []error
	add := func(p models.NotificationPayload, err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		payloads = append(payloads, p)
	}
	add(BlogPublished(blog))
	add(BlogCommented(blog, "Alex"))
	add(ProjectCreated(ProjectRef{ID: "1", Title: "Realtime dashboard", Slug: "realtime-dashboard"}))
	add(NewMessage(msg))
	add(LoginAttempt("admin@example.com", "203.0.113.7", false))
	add(Maintenance("Database upgrade", "Sunday 02:00 UTC"))
	add(AIQuota(900, 1000))
	return payloads, errors.Join(errs...)
}

// SeedDemoNotifications fills an empty store with one notification of each kind the
// dashboard shows. A store that already has data gets its read state reset instead, so
// every demo starts with a full unread badge. It returns how many notifications were
// created.
func SeedDemoNotifications(ctx context.Context, store DemoStore, d *NotificationDispatcher) (int, error) {
	existing, err := store.List(ctx, database.ListOptions{Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("seed demo: %w", err)
	}
	if len(existing) > 0 {
		if err := store.ResetReadState(ctx); err != nil {
			return 0, fmt.Errorf("seed demo: %w", err)
		}
		utils.InfoLogger.Info("Demo notifications reset to unread")
		return 0, nil
	}

	payloads, err := demoPayloads()
	if err != nil {
		return 0, fmt.Errorf("seed demo: %w", err)
	}
	created := 0
	for _, p := range payloads {
		if _, err := d.Dispatch(ctx, p); err != nil {
			return created, fmt.Errorf("seed demo: %w", err)
		}
		created++
	}
	utils.InfoLogger.WithField("count", created).Info("Demo notifications seeded")
	return created, nil
}
