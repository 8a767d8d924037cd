// Package metrics exposes Prometheus collectors for the notification pipeline and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Notifications persisted by the dispatcher",
		},
		[]string{"category", "type"},
	)

	NotificationDispatchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatch_errors_total",
			Help: "Dispatch failures by stage (validation, persistence)",
		},
		[]string{"stage"},
	)

	StreamDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_deliveries_total",
			Help: "Messages queued to stream subscribers",
		},
	)

	StreamDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_dropped_subscribers_total",
			Help: "Subscribers disconnected because their queue was full",
		},
	)

	StreamSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_subscribers",
			Help: "Currently connected stream subscribers",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordHTTPRequest observes one finished request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
