package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/portfolio-app/config"
	"github.com/yeremiapane/portfolio-app/database"
	"github.com/yeremiapane/portfolio-app/middlewares"
	"github.com/yeremiapane/portfolio-app/router"
	"github.com/yeremiapane/portfolio-app/services"
	"github.com/yeremiapane/portfolio-app/stream"
	"github.com/yeremiapane/portfolio-app/utils"
)

func main() {
	utils.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	utils.SetJWTSecret(cfg.JWTSecret)

	// Initialize DB
	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}

	if err := database.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		utils.ErrorLogger.Printf("Error seeding admin: %v", err)
	}

	hub := stream.NewHub()
	store := database.NewNotificationStore(db)
	dispatcher := services.NewNotificationDispatcher(store, hub)
	stats := middlewares.NewRequestStats()

	if cfg.SeedDemo {
		if _, err := services.SeedDemoNotifications(context.Background(), store, dispatcher); err != nil {
			utils.ErrorLogger.Printf("Error seeding demo notifications: %v", err)
		}
	}

	monitor := services.NewMetricsMonitor(hub, store, stats, dispatcher)
	monitor.Interval = cfg.MetricsInterval
	monitor.TrafficSpikeThreshold = cfg.TrafficSpikeThreshold
	monitor.ErrorRateThreshold = cfg.ErrorRateThreshold
	monitor.Start()

	r := router.SetupRouter(router.Options{
		DB:              db,
		Hub:             hub,
		Store:           store,
		Dispatcher:      dispatcher,
		Stats:           stats,
		CORSOrigin:      cfg.CORSOrigin,
		Heartbeat:       cfg.StreamHeartbeat,
		PublicRateLimit: true,
	})
	r.SetTrustedProxies([]string{"127.0.0.1"})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	payload, buildErr := services.SystemUpdate("Portfolio server started")
	dispatcher.Notify(context.Background(), payload, buildErr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.InfoLogger.Println("Shutting down server...")

	monitor.Stop()
	// open streams only return once the hub closes them
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.ErrorLogger.Printf("Server forced to shutdown: %v", err)
	}
	utils.InfoLogger.Println("Server exited")
}
