package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/portfolio-app/models"
	"github.com/yeremiapane/portfolio-app/services"
	"github.com/yeremiapane/portfolio-app/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB       *gorm.DB
	Notifier *services.NotificationDispatcher
}

func NewUserController(db *gorm.DB, notifier *services.NotificationDispatcher) *UserController {
	return &UserController{DB: db, Notifier: notifier}
}

// Login user -> return JWT. Every attempt, good or bad, leaves an auth notification.
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	err := uc.DB.Where("email = ?", input.Email).First(&user).Error
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password))
	}
	if err != nil {
		payload, buildErr := services.LoginAttempt(input.Email, c.ClientIP(), false)
		uc.Notifier.Notify(c.Request.Context(), payload, buildErr)
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.WithField("email", user.Email).Info("Login successful")
	payload, buildErr := services.LoginAttempt(user.Email, c.ClientIP(), true)
	uc.Notifier.Notify(c.Request.Context(), payload, buildErr)

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
		"user":  user,
	})
}

// Logout revokes the token used for this request.
func (uc *UserController) Logout(c *gin.Context) {
	utils.BlacklistToken(c.GetString("token"))
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

func (uc *UserController) GetProfile(c *gin.Context) {
	var user models.User
	if err := uc.DB.First(&user, c.GetUint("user_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "User profile", user)
}
