package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/portfolio-app/stream"
	"github.com/yeremiapane/portfolio-app/utils"
)

const (
	wsWriteWait = 10 * time.Second
	// clients only answer pings, so frames stay small
	wsMaxMessageSize = 4096
)

// NewUpgrader only accepts browsers from the configured dashboard origin.
// Non-browser clients that send no Origin header are allowed.
func NewUpgrader(allowedOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
		},
	}
}

// WebSocketHandler is the WebSocket flavour of StreamNotifications; it carries the same
// messages as JSON {event, data} frames.
func (nc *NotificationController) WebSocketHandler(upgrader websocket.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			utils.ErrorLogger.WithError(err).Error("WebSocket upgrade failed")
			return
		}
		defer ws.Close()

		sub := nc.Hub.Subscribe(c.GetString("role"))
		defer nc.Hub.Unsubscribe(sub)

		pongWait := nc.pongWait()
		ws.SetReadLimit(wsMaxMessageSize)
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongWait))
		})

		// client frames are ignored; reading detects the disconnect and runs the pong handler
		go func() {
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					nc.Hub.Unsubscribe(sub)
					return
				}
			}
		}()

		if err := writeFrame(ws, stream.Message{Event: stream.EventConnected, Data: gin.H{"subscriber_id": sub.ID()}}); err != nil {
			return
		}
		sub.SetState(stream.Open)

		heartbeat := time.NewTicker(wsPingPeriod(nc.heartbeat(), pongWait))
		defer heartbeat.Stop()

		for {
			sub.SetState(stream.Idle)
			select {
			case msg, ok := <-sub.Messages():
				if !ok {
					_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
					return
				}
				sub.SetState(stream.Streaming)
				if err := writeFrame(ws, msg); err != nil {
					utils.ErrorLogger.WithError(err).WithField("subscriber_id", sub.ID()).Error("WebSocket write failed")
					return
				}
			case <-heartbeat.C:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}
}

func (nc *NotificationController) pongWait() time.Duration {
	if nc.PongWait <= 0 {
		return defaultPongWait
	}
	return nc.PongWait
}

// wsPingPeriod keeps pings inside the pong window so a live client never times out.
func wsPingPeriod(heartbeat, pongWait time.Duration) time.Duration {
	if limit := pongWait * 9 / 10; heartbeat > limit {
		return limit
	}
	return heartbeat
}

func writeFrame(ws *websocket.Conn, msg stream.Message) error {
	if err := ws.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return ws.WriteJSON(msg)
}
