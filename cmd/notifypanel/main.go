package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/portfolio-app/panel"
	"github.com/yeremiapane/portfolio-app/services"
	"github.com/yeremiapane/portfolio-app/utils"
)

// notifypanel follows the admin notifications of a running portfolio server in the terminal.
//
//	PANEL_SERVER_URL  server base URL (default http://localhost:8080)
//	PANEL_TOKEN       admin JWT; when empty ADMIN_EMAIL and ADMIN_PASSWORD are used to log in
func main() {
	utils.InitLogger()
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}

	baseURL := os.Getenv("PANEL_SERVER_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := panel.NewAPIClient(baseURL, os.Getenv("PANEL_TOKEN"))
	if client.Token == "" {
		if err := client.Login(ctx, os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD")); err != nil {
			utils.ErrorLogger.Fatalf("Login failed: %v", err)
		}
	}

	bell := panel.NewBellPlayer(os.Stdout)
	if err := bell.Init(); err != nil {
		utils.ErrorLogger.Fatalf("Sound init failed: %v", err)
	}
	defer bell.Dispose()

	p := panel.New(client, bell)
	p.OnError = func(op string, err error) {
		utils.ErrorLogger.WithError(err).WithField("op", op).Error("Panel action failed")
	}
	p.OnChange = func() { render(p) }

	if _, err := p.Fetch(ctx); err != nil {
		utils.ErrorLogger.Fatalf("Initial fetch failed: %v", err)
	}
	render(p)

	s := panel.NewStream(client.OpenStream, p)
	s.OnMetrics = func(data json.RawMessage) {
		var snap services.MetricsSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return
		}
		utils.InfoLogger.WithFields(logrus.Fields{
			"clients":    snap.ActiveClients,
			"requests":   snap.Requests,
			"error_rate": snap.ErrorRate,
			"unread":     snap.UnreadCount,
		}).Info("Server metrics")
	}

	go panel.NewPoller(p).Run(ctx)
	s.Run(ctx)
	utils.InfoLogger.Println("Notification panel closed")
}

func render(p *panel.Panel) {
	now := time.Now()
	var b strings.Builder
	fmt.Fprintf(&b, "\n== Notifications (%s unread) ==\n", p.Badge())
	for _, n := range p.Sorted() {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		icon := ""
		if pres, err := n.Category.Presentation(); err == nil {
			icon = pres.Icon
		}
		fmt.Fprintf(&b, "%s %-9s %-10s %s", marker, panel.RelativeTime(now, n.CreatedAt), icon, n.Message)
		if href := n.Href(); href != "" {
			fmt.Fprintf(&b, "  (%s)", href)
		}
		b.WriteString("\n")
	}
	fmt.Print(b.String())
}
