package models

import (
	"errors"
	"fmt"
)

// ErrInvalidNotification is wrapped by every validation failure on a notification payload.
var ErrInvalidNotification = errors.New("invalid notification")

type NotificationType string

const (
	TypeInfo    NotificationType = "info"
	TypeSuccess NotificationType = "success"
	TypeWarning NotificationType = "warning"
	TypeError   NotificationType = "error"
)

// ParseNotificationType rejects anything outside the closed set.
func ParseNotificationType(s string) (NotificationType, error) {
	switch t := NotificationType(s); t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown type %q", ErrInvalidNotification, s)
}

type Category string

const (
	CategoryBlog       Category = "blog"
	CategoryProject    Category = "project"
	CategoryService    Category = "service"
	CategoryExperience Category = "experience"
	CategoryEducation  Category = "education"
	CategoryMessage    Category = "message"
	CategorySystem     Category = "system"
	CategoryAI         Category = "ai"
	CategoryAnalytics  Category = "analytics"
	CategoryAuth       Category = "auth"
	CategoryGeneral    Category = "general"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryBlog, CategoryProject, CategoryService, CategoryExperience, CategoryEducation,
	CategoryMessage, CategorySystem, CategoryAI, CategoryAnalytics, CategoryAuth, CategoryGeneral,
}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, err := c.Presentation(); err != nil {
		return "", err
	}
	return c, nil
}

// Presentation describes how a category is shown in the admin panel.
type Presentation struct {
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	DefaultLink string `json:"default_link,omitempty"`
	ActionLabel string `json:"action_label"`
}

// Presentation returns the UI treatment of c. Every category must have a case here;
// an unknown category is an error rather than an empty treatment.
func (c Category) Presentation() (Presentation, error) {
	switch c {
	case CategoryBlog:
		return Presentation{Icon: "file-text", Color: "blue", DefaultLink: "/admin/blogs", ActionLabel: "View post"}, nil
	case CategoryProject:
		return Presentation{Icon: "briefcase", Color: "indigo", DefaultLink: "/admin/projects", ActionLabel: "View project"}, nil
	case CategoryService:
		return Presentation{Icon: "layers", Color: "teal", DefaultLink: "/admin/services", ActionLabel: "View service"}, nil
	case CategoryExperience:
		return Presentation{Icon: "award", Color: "amber", DefaultLink: "/admin/experience", ActionLabel: "View experience"}, nil
	case CategoryEducation:
		return Presentation{Icon: "book-open", Color: "cyan", DefaultLink: "/admin/education", ActionLabel: "View education"}, nil
	case CategoryMessage:
		return Presentation{Icon: "mail", Color: "green", DefaultLink: "/admin/messages", ActionLabel: "Read message"}, nil
	case CategorySystem:
		return Presentation{Icon: "settings", Color: "gray", DefaultLink: "/admin/settings", ActionLabel: "Open settings"}, nil
	case CategoryAI:
		return Presentation{Icon: "cpu", Color: "purple", DefaultLink: "/admin/ai", ActionLabel: "Open AI tools"}, nil
	case CategoryAnalytics:
		return Presentation{Icon: "bar-chart", Color: "orange", DefaultLink: "/admin/analytics", ActionLabel: "View analytics"}, nil
	case CategoryAuth:
		return Presentation{Icon: "shield", Color: "red", DefaultLink: "/admin/security", ActionLabel: "Review activity"}, nil
	case CategoryGeneral:
		return Presentation{Icon: "bell", Color: "slate", ActionLabel: "Dismiss"}, nil
	}
	return Presentation{}, fmt.Errorf("%w: unknown category %q", ErrInvalidNotification, string(c))
}

type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

func ParseImportance(s string) (Importance, error) {
	switch i := Importance(s); i {
	case ImportanceLow, ImportanceMedium, ImportanceHigh:
		return i, nil
	}
	return "", fmt.Errorf("%w: unknown importance %q", ErrInvalidNotification, s)
}

// Rank orders importance for sorting, high first.
func (i Importance) Rank() int {
	switch i {
	case ImportanceHigh:
		return 0
	case ImportanceMedium:
		return 1
	default:
		return 2
	}
}
