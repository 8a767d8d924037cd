package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Notification struct {
	ID         string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	Message    string            `gorm:"type:text;not null" json:"message"`
	Type       NotificationType  `gorm:"type:varchar(16);not null" json:"type"`
	Category   Category          `gorm:"type:varchar(32);not null;index" json:"category"`
	Importance Importance        `gorm:"type:varchar(16);not null;default:'low'" json:"importance"`
	Link       string            `gorm:"type:varchar(255)" json:"link,omitempty"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty"`
	Read       bool              `gorm:"column:is_read;not null;default:false;index" json:"read"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// Href is the link to follow when the notification is opened, falling back to the
// category's default destination.
func (n Notification) Href() string {
	if n.Link != "" {
		return n.Link
	}
	p, err := n.Category.Presentation()
	if err != nil {
		return ""
	}
	return p.DefaultLink
}

// NotificationPayload is the normalized creation request produced for a domain event.
type NotificationPayload struct {
	Message    string                 `json:"message" binding:"required"`
	Type       NotificationType       `json:"type" binding:"required"`
	Category   Category               `json:"category" binding:"required"`
	Link       string                 `json:"link,omitempty"`
	Importance Importance             `json:"importance,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Validate checks the payload against the closed enums. Importance defaults to low
// when left empty; any other unknown value is rejected.
func (p *NotificationPayload) Validate() error {
	if strings.TrimSpace(p.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidNotification)
	}
	if _, err := ParseNotificationType(string(p.Type)); err != nil {
		return err
	}
	if _, err := ParseCategory(string(p.Category)); err != nil {
		return err
	}
	if p.Importance == "" {
		p.Importance = ImportanceLow
	}
	if _, err := ParseImportance(string(p.Importance)); err != nil {
		return err
	}
	return nil
}

// ToNotification builds an unsaved record from a validated payload.
func (p NotificationPayload) ToNotification() *Notification {
	n := &Notification{
		Message:    p.Message,
		Type:       p.Type,
		Category:   p.Category,
		Importance: p.Importance,
		Link:       p.Link,
	}
	if len(p.Metadata) > 0 {
		n.Metadata = datatypes.JSONMap(p.Metadata)
	}
	return n
}
