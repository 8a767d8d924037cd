package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yeremiapane/portfolio-app/controllers"
	"github.com/yeremiapane/portfolio-app/database"
	"github.com/yeremiapane/portfolio-app/middlewares"
	"github.com/yeremiapane/portfolio-app/services"
	"github.com/yeremiapane/portfolio-app/stream"
	"gorm.io/gorm"
)

type Options struct {
	DB         *gorm.DB
	Hub        *stream.Hub
	Store      database.NotificationStore
	Dispatcher *services.NotificationDispatcher
	Stats      *middlewares.RequestStats
	CORSOrigin string
	Heartbeat  time.Duration
	// PublicRateLimit turns on the strict per-IP limiter for login and the public forms.
	PublicRateLimit bool
}

func (o *Options) defaults() {
	if o.Hub == nil {
		o.Hub = stream.NewHub()
	}
	if o.Store == nil {
		o.Store = database.NewNotificationStore(o.DB)
	}
	if o.Dispatcher == nil {
		o.Dispatcher = services.NewNotificationDispatcher(o.Store, o.Hub)
	}
	if o.CORSOrigin == "" {
		o.CORSOrigin = "*"
	}
}

func SetupRouter(opts Options) *gin.Engine {
	opts.defaults()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(opts.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware(opts.Stats))

	userCtrl := controllers.NewUserController(opts.DB, opts.Dispatcher)
	notificationCtrl := controllers.NewNotificationController(opts.Store, opts.Dispatcher, opts.Hub)
	if opts.Heartbeat > 0 {
		notificationCtrl.Heartbeat = opts.Heartbeat
	}
	blogCtrl := controllers.NewBlogController(opts.DB, opts.Dispatcher)
	projectCtrl := controllers.NewProjectController(opts.DB, opts.Dispatcher)
	messageCtrl := controllers.NewMessageController(opts.DB, opts.Dispatcher)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/blogs", blogCtrl.GetAllBlogs)
	r.GET("/projects", projectCtrl.GetAllProjects)

	public := r.Group("/")
	if opts.PublicRateLimit {
		public.Use(middlewares.NewStrictRateLimiter())
	}
	{
		public.POST("/login", userCtrl.Login)
		public.POST("/messages", messageCtrl.CreateMessage)
		public.POST("/blogs/:slug/comments", blogCtrl.AddComment)
	}

	// ----------------------------------------------------------------
	//                      ADMIN ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware(), middlewares.RequireRole("admin"))

	auth.GET("/profile", userCtrl.GetProfile)
	auth.POST("/logout", userCtrl.Logout)

	// NOTIFICATIONS
	auth.GET("/notifications", notificationCtrl.GetAllNotifications)
	auth.POST("/notifications", notificationCtrl.CreateNotification)
	auth.DELETE("/notifications", notificationCtrl.ClearNotifications)
	auth.GET("/notifications/stream", notificationCtrl.StreamNotifications)
	auth.PUT("/notifications/read-all", notificationCtrl.MarkAllAsRead)
	auth.GET("/notifications/:notif_id", notificationCtrl.GetNotificationByID)
	auth.PATCH("/notifications/:notif_id/read", notificationCtrl.MarkAsRead)
	auth.PUT("/notifications/:notif_id/read", notificationCtrl.MarkAsRead)
	auth.DELETE("/notifications/:notif_id", notificationCtrl.DeleteNotification)

	// BLOGS
	auth.GET("/blogs", blogCtrl.GetAllBlogs)
	auth.POST("/blogs", blogCtrl.CreateBlog)
	auth.PATCH("/blogs/:blog_id/publish", blogCtrl.PublishBlog)

	// PROJECTS
	auth.POST("/projects", projectCtrl.CreateProject)
	auth.PATCH("/projects/:project_id", projectCtrl.UpdateProject)

	// MESSAGES
	auth.GET("/messages", messageCtrl.GetAllMessages)

	// WebSocket stream, token lewat query string
	ws := r.Group("/ws")
	ws.Use(middlewares.AuthMiddleware(), middlewares.RequireRole("admin"))
	{
		ws.GET("/notifications", notificationCtrl.WebSocketHandler(controllers.NewUpgrader(opts.CORSOrigin)))
	}

	return r
}
