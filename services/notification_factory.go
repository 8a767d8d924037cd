package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yeremiapane/portfolio-app/models"
)

// BlogRef is the part of a blog post a notification needs.
type BlogRef struct {
	ID    string
	Title string
	Slug  string
}

func BlogRefOf(b models.Blog) BlogRef {
	return BlogRef{ID: strconv.FormatUint(uint64(b.ID), 10), Title: b.Title, Slug: b.Slug}
}

type ProjectRef struct {
	ID    string
	Title string
	Slug  string
}

func ProjectRefOf(p models.Project) ProjectRef {
	return ProjectRef{ID: strconv.FormatUint(uint64(p.ID), 10), Title: p.Title, Slug: p.Slug}
}

type MessageRef struct {
	ID      string
	Name    string
	Email   string
	Subject string
}

func MessageRefOf(m models.ContactMessage) MessageRef {
	return MessageRef{ID: strconv.FormatUint(uint64(m.ID), 10), Name: m.Name, Email: m.Email, Subject: m.Subject}
}

func required(fields ...string) error {
	for i := 0; i+1 < len(fields); i += 2 {
		if strings.TrimSpace(fields[i+1]) == "" {
			return fmt.Errorf("%w: %s is required", models.ErrInvalidNotification, fields[i])
		}
	}
	return nil
}

func (b BlogRef) validate() error {
	return required("blog id", b.ID, "blog title", b.Title, "blog slug", b.Slug)
}

func (p ProjectRef) validate() error {
	return required("project id", p.ID, "project title", p.Title, "project slug", p.Slug)
}

func (m MessageRef) validate() error {
	return required("message id", m.ID, "sender name", m.Name)
}

func BlogCreated(blog BlogRef) (models.NotificationPayload, error) {
	if err := blog.validate(); err != nil {
		return models.NotificationPayload{}, err
	}
	return models.NotificationPayload{
		Message:    "New blog post created: " + blog.Title,
		Type:       models.TypeSuccess,
		Category:   models.CategoryBlog,
		Link:       "/blog/" + blog.Slug,
		Importance: models.ImportanceMedium,
		Metadata:   map[string]interface{}{"blogId": blog.ID},
	}, nil
}

func BlogPublished(blog BlogRef) (models.NotificationPayload, error) {
	if err := blog.validate(); err != nil {
		return models.NotificationPayload{}, err
	}
	return models.NotificationPayload{
		Message:    "Blog post published: " + blog.Title,
		Type:       models.TypeSuccess,
		Category:   models.CategoryBlog,
		Link:       "/blog/" + blog.Slug,
		Importance: models.ImportanceMedium,
		Metadata:   map[string]interface{}{"blogId": blog.ID},
	}, nil
}

func BlogCommented(blog BlogRef, author string) (models.NotificationPayload, error) {
	if err := blog.validate(); err != nil {
		return models.NotificationPayload{}, err
	}
	if err := required("comment author", author); err != nil {
		return models.NotificationPayload{}, err
	}
	return models.NotificationPayload{
		Message:    fmt.Sprintf("New comment on %q by %s", blog.Title, author),
		Type:       models.TypeInfo,
		Category:   models.CategoryBlog,
		Link:       "/blog/" + blog.Slug,
		Importance: models.ImportanceLow,
		Metadata:   map[string]interface{}{"blogId": blog.ID, "author": author},
	}, nil
}

func ProjectCreated(project ProjectRef) (models.NotificationPayload, error) {
	if err := project.validate(); err != nil {
		return models.NotificationPayload{}, err
	}
	return models.NotificationPayload{
		Message:    "New project created: " + project.Title,
		Type:       models.TypeSuccess,
		Category:   models.CategoryProject,
		Link:       "/projects/" + project.Slug,
		Importance: models.ImportanceMedium,
		Metadata:   map[string]interface{}{"projectId": project.ID},
	}, nil
}

func ProjectUpdated(project ProjectRef) (models.NotificationPayload, error) {
	if err := project.validate(); err != nil {
		return models.NotificationPayload{}, err
	}
	return models.NotificationPayload{
		Message:    "Project updated: " + project.Title,
		Type:       models.TypeInfo,
		Category:   models.CategoryProject,
		Link:       "/projects/" + project.Slug,
		Importance: models.ImportanceLow,
		Metadata:   map[string]interface{}{"projectId": project.ID},
	}, nil
}

func ServiceCreated(title, slug string) (models.NotificationPayload, error) {
	if err := required("service title", title, "service slug", slug); err != nil {
		return models.NotificationPayload{}, err
	}
	return models.NotificationPayload{
		Message:    "New service added: " + title,
		Type:       models.TypeSuccess,
		Category:   models.CategoryService,
		Link:       "/services/" + slug,
		Importance: models.ImportanceLow,
		Metadata:   map[string]interface{}{"slug": slug},
	}, nil
}

func ExperienceAdded(role, organization string) (models.NotificationPayload, error) {
	if err := required("role", role, "organization", organization); err != nil {
		return models.NotificationPayload{}, err
	}
	return models.NotificationPayload{
		Message:    fmt.Sprintf("Experience added: %s at %s", role, organization),
		Type:       models.TypeSuccess,
		Category:   models.CategoryExperience,
		Link:       "/about",
		Importance: models.ImportanceLow,
	}, nil
}

func EducationAdded(degree, school string) (models.NotificationPayload, error) {
	if err := required("degree", degree, "school", school); err != nil {
		return models.NotificationPayload{}, err
	}
	return models.NotificationPayload{
		Message:    fmt.Sprintf("Education added: %s at %s", degree, school),
		Type:       models.TypeSuccess,
		Category:   models.CategoryEducation,
		Link:       "/about",
		Importance: models.ImportanceLow,
	}, nil
}

func messagePayload(msg MessageRef, prefix string, typ models.NotificationType, importance models.Importance) (models.NotificationPayload, error) {
	if err := msg.validate(); err != nil {
		return models.NotificationPayload{}, err
	}
	text := fmt.Sprintf("%s from %s", prefix, msg.Name)
	if msg.Subject != "" {
		text += ": " + msg.Subject
	}
	return models.NotificationPayload{
		Message:    text,
		Type:       typ,
		Category:   models.CategoryMessage,
		Link:       "/admin/messages/" + msg.ID,
		Importance: importance,
		Metadata:   map[string]interface{}{"messageId": msg.ID, "email": msg.Email},
	}, nil
}

func NewMessage(msg MessageRef) (models.NotificationPayload, error) {
	return messagePayload(msg, "New message", models.TypeInfo, models.ImportanceMedium)
}

func UrgentMessage(msg MessageRef) (models.NotificationPayload, error) {
	return messagePayload(msg, "Urgent message", models.TypeWarning, models.ImportanceHigh)
}

// SystemUpdate has no natural destination, so it carries no link.
func SystemUpdate(summary string) (models.NotificationPayload, error) {
	if err := required("summary", summary); err != nil {
		return models.NotificationPayload{}, err
	}
	return models.NotificationPayload{
		Message:    "System update: " + summary,
		Type:       models.TypeInfo,
		Category:   models.CategorySystem,
		Importance: models.ImportanceLow,
	}, nil
}

func Maintenance(summary, scheduledAt string) (models.NotificationPayload, error) {
	if err := required("summary", summary, "scheduled time", scheduledAt); err != nil {
		return models.NotificationPayload{}, err
	}
	return models.NotificationPayload{
		Message:    fmt.Sprintf("Scheduled maintenance: %s at %s", summary, scheduledAt),
		Type:       models.TypeWarning,
		Category:   models.CategorySystem,
		Importance: models.ImportanceMedium,
		Metadata:   map[string]interface{}{"scheduledAt": scheduledAt},
	}, nil
}

func SystemError(source string, cause error) (models.NotificationPayload, error) {
	if err := required("error source", source); err != nil {
		return models.NotificationPayload{}, err
	}
	if cause == nil {
		return models.NotificationPayload{}, fmt.Errorf("%w: error is required", models.ErrInvalidNotification)
	}
	return models.NotificationPayload{
		Message:    fmt.Sprintf("Error in %s: %v", source, cause),
		Type:       models.TypeError,
		Category:   models.CategorySystem,
		Importance: models.ImportanceHigh,
		Metadata:   map[string]interface{}{"source": source},
	}, nil
}

func LoginAttempt(email, ip string, success bool) (models.NotificationPayload, error) {
	if err := required("email", email); err != nil {
		return models.NotificationPayload{}, err
	}
	meta := map[string]interface{}{"email": email, "ip": ip}
	if success {
		return models.NotificationPayload{
			Message:    "Successful login: " + email,
			Type:       models.TypeInfo,
			Category:   models.CategoryAuth,
			Importance: models.ImportanceLow,
			Metadata:   meta,
		}, nil
	}
	return models.NotificationPayload{
		Message:    fmt.Sprintf("Failed login attempt for %s from %s", email, ip),
		Type:       models.TypeWarning,
		Category:   models.CategoryAuth,
		Importance: models.ImportanceHigh,
		Metadata:   meta,
	}, nil
}

func AICompleted(task, subject string) (models.NotificationPayload, error) {
	if err := required("task", task, "subject", subject); err != nil {
		return models.NotificationPayload{}, err
	}
	return models.NotificationPayload{
		Message:    fmt.Sprintf("AI %s completed: %s", task, subject),
		Type:       models.TypeSuccess,
		Category:   models.CategoryAI,
		Importance: models.ImportanceLow,
		Metadata:   map[string]interface{}{"task": task},
	}, nil
}

func AIFailed(task string, cause error) (models.NotificationPayload, error) {
	if err := required("task", task); err != nil {
		return models.NotificationPayload{}, err
	}
	if cause == nil {
		return models.NotificationPayload{}, fmt.Errorf("%w: error is required", models.ErrInvalidNotification)
	}
	return models.NotificationPayload{
		Message:    fmt.Sprintf("AI %s failed: %v", task, cause),
		Type:       models.TypeError,
		Category:   models.CategoryAI,
		Importance: models.ImportanceHigh,
		Metadata:   map[string]interface{}{"task": task},
	}, nil
}

func AIQuota(used, limit int) (models.NotificationPayload, error) {
	if limit <= 0 {
		return models.NotificationPayload{}, fmt.Errorf("%w: quota limit must be positive", models.ErrInvalidNotification)
	}
	pct := used * 100 / limit
	return models.NotificationPayload{
		Message:    fmt.Sprintf("AI quota at %d%% (%d/%d)", pct, used, limit),
		Type:       models.TypeWarning,
		Category:   models.CategoryAI,
		Importance: models.ImportanceHigh,
		Metadata:   map[string]interface{}{"used": used, "limit": limit},
	}, nil
}

func AnalyticsThreshold(metric string, value, limit float64) (models.NotificationPayload, error) {
	if err := required("metric", metric); err != nil {
		return models.NotificationPayload{}, err
	}
	return models.NotificationPayload{
		Message:    fmt.Sprintf("%s crossed threshold: %g (limit %g)", metric, value, limit),
		Type:       models.TypeWarning,
		Category:   models.CategoryAnalytics,
		Link:       "/admin/analytics",
		Importance: models.ImportanceMedium,
		Metadata:   map[string]interface{}{"metric": metric, "value": value, "limit": limit},
	}, nil
}

func TrafficSpike(requests int64, window string) (models.NotificationPayload, error) {
	if err := required("window", window); err != nil {
		return models.NotificationPayload{}, err
	}
	return models.NotificationPayload{
		Message:    fmt.Sprintf("Traffic spike: %d requests in the last %s", requests, window),
		Type:       models.TypeInfo,
		Category:   models.CategoryAnalytics,
		Link:       "/admin/analytics",
		Importance: models.ImportanceMedium,
		Metadata:   map[string]interface{}{"requests": requests, "window": window},
	}, nil
}
