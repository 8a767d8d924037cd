package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/portfolio-app/models"
	"github.com/yeremiapane/portfolio-app/services"
	"github.com/yeremiapane/portfolio-app/utils"
	"gorm.io/gorm"
)

type ProjectController struct {
	DB       *gorm.DB
	Notifier *services.NotificationDispatcher
}

func NewProjectController(db *gorm.DB, notifier *services.NotificationDispatcher) *ProjectController {
	return &ProjectController{DB: db, Notifier: notifier}
}

func (pc *ProjectController) GetAllProjects(c *gin.Context) {
	var projects []models.Project
	if err := pc.DB.Order("created_at DESC").Find(&projects).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of projects", projects)
}

func (pc *ProjectController) CreateProject(c *gin.Context) {
	var req struct {
		Title       string `json:"title" binding:"required"`
		Slug        string `json:"slug" binding:"required"`
		Description string `json:"description"`
		RepoURL     string `json:"repo_url" binding:"omitempty,url"`
		Featured    bool   `json:"featured"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	project := models.Project{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		RepoURL:     req.RepoURL,
		Featured:    req.Featured,
	}
	if err := pc.DB.Create(&project).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	payload, buildErr := services.ProjectCreated(services.ProjectRefOf(project))
	pc.Notifier.Notify(c.Request.Context(), payload, buildErr)
	utils.RespondJSON(c, http.StatusCreated, "Project created", project)
}

func (pc *ProjectController) UpdateProject(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("project_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid project id"))
		return
	}

	var project models.Project
	if err := pc.DB.First(&project, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		RepoURL     *string `json:"repo_url"`
		Featured    *bool   `json:"featured"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Title != nil {
		project.Title = *req.Title
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.RepoURL != nil {
		project.RepoURL = *req.RepoURL
	}
	if req.Featured != nil {
		project.Featured = *req.Featured
	}

	if err := pc.DB.Save(&project).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	payload, buildErr := services.ProjectUpdated(services.ProjectRefOf(project))
	pc.Notifier.Notify(c.Request.Context(), payload, buildErr)
	utils.RespondJSON(c, http.StatusOK, "Project updated", project)
}
