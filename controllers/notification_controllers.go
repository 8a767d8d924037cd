package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/portfolio-app/database"
	"github.com/yeremiapane/portfolio-app/models"
	"github.com/yeremiapane/portfolio-app/services"
	"github.com/yeremiapane/portfolio-app/stream"
	"github.com/yeremiapane/portfolio-app/utils"
)

const (
	defaultHeartbeat = 15 * time.Second
	defaultPongWait  = 60 * time.Second
)

type NotificationController struct {
	Store      database.NotificationStore
	Dispatcher *services.NotificationDispatcher
	Hub        *stream.Hub
	// Heartbeat is how often an idle stream gets a ping event.
	Heartbeat time.Duration
	// PongWait is how long a WebSocket client may stay silent before it is dropped.
	PongWait time.Duration
}

func NewNotificationController(store database.NotificationStore, dispatcher *services.NotificationDispatcher, hub *stream.Hub) *NotificationController {
	return &NotificationController{
		Store:      store,
		Dispatcher: dispatcher,
		Hub:        hub,
		Heartbeat:  defaultHeartbeat,
		PongWait:   defaultPongWait,
	}
}

type notificationList struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unread_count"`
}

// GetAllNotifications -> GET /admin/notifications?unread=true&category=blog&limit=20
func (nc *NotificationController) GetAllNotifications(c *gin.Context) {
	opts := database.ListOptions{UnreadOnly: c.Query("unread") == "true"}
	if cat := c.Query("category"); cat != "" {
		category, err := models.ParseCategory(cat)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		opts.Category = category
	}
	if l := c.Query("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 0 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		opts.Limit = limit
	}

	notifs, err := nc.Store.List(c.Request.Context(), opts)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	unread, err := nc.Store.CountUnread(c.Request.Context())
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All notifications", notificationList{Notifications: notifs, UnreadCount: unread})
}

// CreateNotification persists a payload and pushes it to connected clients.
func (nc *NotificationController) CreateNotification(c *gin.Context) {
	var payload models.NotificationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	notif, err := nc.Dispatcher.Dispatch(c.Request.Context(), payload)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Notification created", notif)
}

func (nc *NotificationController) GetNotificationByID(c *gin.Context) {
	notif, err := nc.Store.Get(c.Request.Context(), c.Param("notif_id"))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification detail", notif)
}

func (nc *NotificationController) MarkAsRead(c *gin.Context) {
	notif, err := nc.Store.MarkRead(c.Request.Context(), c.Param("notif_id"))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification marked as read", notif)
}

func (nc *NotificationController) MarkAllAsRead(c *gin.Context) {
	updated, err := nc.Store.MarkAllRead(c.Request.Context())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": updated})
}

func (nc *NotificationController) DeleteNotification(c *gin.Context) {
	id := c.Param("notif_id")
	if err := nc.Store.Delete(c.Request.Context(), id); err != nil {
		respondStoreError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification deleted", gin.H{"notif_id": id})
}

func (nc *NotificationController) ClearNotifications(c *gin.Context) {
	deleted, err := nc.Store.DeleteAll(c.Request.Context())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All notifications cleared", gin.H{"deleted": deleted})
}

// StreamNotifications -> Server-Sent Events. The stream is read-only; it never replays
// notifications created while the client was disconnected.
func (nc *NotificationController) StreamNotifications(c *gin.Context) {
	sub := nc.Hub.Subscribe(c.GetString("role"))
	defer nc.Hub.Unsubscribe(sub)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent(stream.EventConnected, gin.H{"subscriber_id": sub.ID()})
	c.Writer.Flush()
	sub.SetState(stream.Open)

	heartbeat := time.NewTicker(nc.heartbeat())
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		sub.SetState(stream.Idle)
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-sub.Messages():
			if !ok {
				return false
			}
			sub.SetState(stream.Streaming)
			c.SSEvent(msg.Event, msg.Data)
			return true
		case t := <-heartbeat.C:
			c.SSEvent(stream.EventPing, t.Unix())
			return true
		}
	})
}

func (nc *NotificationController) heartbeat() time.Duration {
	if nc.Heartbeat <= 0 {
		return defaultHeartbeat
	}
	return nc.Heartbeat
}

func respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidNotification):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.Is(err, database.ErrNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	default:
		utils.ErrorLogger.WithError(err).Error("Notification store failure")
		utils.RespondError(c, http.StatusInternalServerError, errors.New("notification store unavailable"))
	}
}
