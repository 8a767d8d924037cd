package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeremiapane/portfolio-app/models"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("notification not found")

type ListOptions struct {
	UnreadOnly bool
	Category   models.Category
	Limit      int
}

// NotificationStore is the single source of truth for notifications. Every mutation
// (create, mark read, delete) goes through it.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	Get(ctx context.Context, id string) (*models.Notification, error)
	List(ctx context.Context, opts ListOptions) ([]models.Notification, error)
	CountUnread(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id string) (*models.Notification, error)
	MarkAllRead(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

type GormNotificationStore struct {
	DB *gorm.DB
}

func NewNotificationStore(db *gorm.DB) *GormNotificationStore {
	return &GormNotificationStore{DB: db}
}

func (s *GormNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	n.Read = false
	if err := s.DB.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *GormNotificationStore) Get(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get notification %s: %w", id, err)
	}
	return &n, nil
}

func (s *GormNotificationStore) List(ctx context.Context, opts ListOptions) ([]models.Notification, error) {
	q := s.DB.WithContext(ctx).Model(&models.Notification{})
	if opts.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if opts.Category != "" {
		q = q.Where("category = ?", opts.Category)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	notifs := make([]models.Notification, 0)
	if err := q.Order("created_at DESC").Order("id").Find(&notifs).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifs, nil
}

func (s *GormNotificationStore) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Notification{}).Where("is_read = ?", false).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead sets read=true. Calling it on an already-read notification is a no-op.
func (s *GormNotificationStore) MarkRead(ctx context.Context, id string) (*models.Notification, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Read {
		return n, nil
	}
	if err := s.DB.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("is_read", true).Error; err != nil {
		return nil, fmt.Errorf("mark notification %s read: %w", id, err)
	}
	n.Read = true
	return n, nil
}

// MarkAllRead is a single UPDATE statement; it returns the number of records that changed.
func (s *GormNotificationStore) MarkAllRead(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Notification{}).Where("is_read = ?", false).Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormNotificationStore) Delete(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Notification{})
	if res.Error != nil {
		return fmt.Errorf("delete notification %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every notification in one DELETE statement.
func (s *GormNotificationStore) DeleteAll(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Notification{})
	if res.Error != nil {
		return 0, fmt.Errorf("clear notifications: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ResetReadState marks every notification unread again. Only for resetting demo or test data.
func (s *GormNotificationStore) ResetReadState(ctx context.Context) error {
	return s.DB.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&models.Notification{}).Update("is_read", false).Error
}
