package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/portfolio-app/models"
	"github.com/yeremiapane/portfolio-app/services"
	"github.com/yeremiapane/portfolio-app/utils"
	"gorm.io/gorm"
)

type MessageController struct {
	DB       *gorm.DB
	Notifier *services.NotificationDispatcher
}

func NewMessageController(db *gorm.DB, notifier *services.NotificationDispatcher) *MessageController {
	return &MessageController{DB: db, Notifier: notifier}
}

// CreateMessage -> public contact form.
func (mc *MessageController) CreateMessage(c *gin.Context) {
	var req struct {
		Name    string `json:"name" binding:"required"`
		Email   string `json:"email" binding:"required,email"`
		Subject string `json:"subject"`
		Body    string `json:"body" binding:"required"`
		Urgent  bool   `json:"urgent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	msg := models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Body,
		Urgent:  req.Urgent,
	}
	if err := mc.DB.Create(&msg).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	ref := services.MessageRefOf(msg)
	if msg.Urgent {
		payload, buildErr := services.UrgentMessage(ref)
		mc.Notifier.Notify(c.Request.Context(), payload, buildErr)
	} else {
		payload, buildErr := services.NewMessage(ref)
		mc.Notifier.Notify(c.Request.Context(), payload, buildErr)
	}
	utils.RespondJSON(c, http.StatusCreated, "Message sent", gin.H{"message_id": msg.ID})
}

func (mc *MessageController) GetAllMessages(c *gin.Context) {
	var msgs []models.ContactMessage
	if err := mc.DB.Order("created_at DESC").Find(&msgs).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of messages", msgs)
}
