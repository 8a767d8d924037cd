package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/portfolio-app/models"
	"github.com/yeremiapane/portfolio-app/services"
	"github.com/yeremiapane/portfolio-app/utils"
	"gorm.io/gorm"
)

type BlogController struct {
	DB       *gorm.DB
	Notifier *services.NotificationDispatcher
}

func NewBlogController(db *gorm.DB, notifier *services.NotificationDispatcher) *BlogController {
	return &BlogController{DB: db, Notifier: notifier}
}

func (bc *BlogController) GetAllBlogs(c *gin.Context) {
	var blogs []models.Blog
	if err := bc.DB.Order("created_at DESC").Find(&blogs).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of blogs", blogs)
}

func (bc *BlogController) CreateBlog(c *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required"`
		Slug    string `json:"slug" binding:"required"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	blog := models.Blog{Title: req.Title, Slug: req.Slug, Content: req.Content}
	if err := bc.DB.Create(&blog).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	payload, buildErr := services.BlogCreated(services.BlogRefOf(blog))
	bc.Notifier.Notify(c.Request.Context(), payload, buildErr)
	utils.RespondJSON(c, http.StatusCreated, "Blog created", blog)
}

func (bc *BlogController) PublishBlog(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("blog_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid blog id"))
		return
	}

	var blog models.Blog
	if err := bc.DB.First(&blog, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if blog.Published {
		utils.RespondJSON(c, http.StatusOK, "Blog already published", blog)
		return
	}

	now := time.Now()
	blog.Published = true
	blog.PublishedAt = &now
	if err := bc.DB.Save(&blog).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	payload, buildErr := services.BlogPublished(services.BlogRefOf(blog))
	bc.Notifier.Notify(c.Request.Context(), payload, buildErr)
	utils.RespondJSON(c, http.StatusOK, "Blog published", blog)
}

// AddComment -> public endpoint, only published posts accept comments.
func (bc *BlogController) AddComment(c *gin.Context) {
	var req struct {
		Author string `json:"author" binding:"required"`
		Body   string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var blog models.Blog
	if err := bc.DB.Where("slug = ? AND published = ?", c.Param("slug"), true).First(&blog).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("blog not found"))
		return
	}

	comment := models.BlogComment{BlogID: blog.ID, Author: req.Author, Body: req.Body}
	if err := bc.DB.Create(&comment).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	payload, buildErr := services.BlogCommented(services.BlogRefOf(blog), comment.Author)
	bc.Notifier.Notify(c.Request.Context(), payload, buildErr)
	utils.RespondJSON(c, http.StatusCreated, "Comment added", comment)
}
