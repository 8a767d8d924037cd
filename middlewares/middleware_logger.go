package middlewares

import (
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/portfolio-app/metrics"
	"github.com/yeremiapane/portfolio-app/services"
	"github.com/yeremiapane/portfolio-app/utils"
)

// RequestStats counts requests and server errors between metric snapshots.
type RequestStats struct {
	requests atomic.Int64
	errors   atomic.Int64
}

func NewRequestStats() *RequestStats {
	return &RequestStats{}
}

func (s *RequestStats) Record(status int) {
	s.requests.Add(1)
	if status >= 500 {
		s.errors.Add(1)
	}
}

// Swap returns the counts since the previous call and starts a new window.
func (s *RequestStats) Swap() services.RequestWindow {
	return services.RequestWindow{
		Requests: s.requests.Swap(0),
		Errors:   s.errors.Swap(0),
	}
}

// LoggerMiddleware logs each request and feeds stats and Prometheus. stats may be nil.
func LoggerMiddleware(stats *RequestStats) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if stats != nil {
			stats.Record(status)
		}
		metrics.RecordHTTPRequest(c.Request.Method, c.FullPath(), status, latency)

		if raw != "" {
			path = path + "?" + raw
		}
		entry := utils.InfoLogger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"status":  status,
			"latency": latency,
			"ip":      c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("error", c.Errors.String())
		}
		if status >= 500 {
			entry.Warn(path)
			return
		}
		entry.Info(path)
	}
}
