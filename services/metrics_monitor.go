package services

import (
	"context"
	"sync"
	"time"

	"github.com/yeremiapane/portfolio-app/database"
	"github.com/yeremiapane/portfolio-app/metrics"
	"github.com/yeremiapane/portfolio-app/stream"
	"github.com/yeremiapane/portfolio-app/utils"
)

// minRequestsForErrorRate keeps a couple of failed requests on a quiet site from raising an alert.
const minRequestsForErrorRate = 20

// RequestWindow is traffic observed since the previous snapshot.
type RequestWindow struct {
	Requests int64
	Errors   int64
}

// RequestCounter hands out traffic counts and resets them.
type RequestCounter interface {
	Swap() RequestWindow
}

// StreamHub is what the monitor needs from the stream server.
type StreamHub interface {
	Broadcaster
	Count() int
}

type MetricsSnapshot struct {
	ActiveClients int       `json:"active_clients"`
	Requests      int64     `json:"requests"`
	Errors        int64     `json:"errors"`
	ErrorRate     float64   `json:"error_rate"`
	UnreadCount   int64     `json:"unread_count"`
	Interval      string    `json:"interval"`
	Timestamp     time.Time `json:"timestamp"`
}

// MetricsMonitor pushes a metrics snapshot to every stream subscriber on a fixed
// interval, independent of notification traffic, and raises analytics notifications
// when traffic or the error rate crosses its threshold.
type MetricsMonitor struct {
	Interval              time.Duration
	TrafficSpikeThreshold int64
	ErrorRateThreshold    float64

	hub        StreamHub
	store      database.NotificationStore
	counter    RequestCounter
	dispatcher *NotificationDispatcher

	mu     sync.Mutex
	last   MetricsSnapshot
	stopCh chan struct{}
	doneCh chan struct{}
}

func NewMetricsMonitor(hub StreamHub, store database.NotificationStore, counter RequestCounter, dispatcher *NotificationDispatcher) *MetricsMonitor {
	return &MetricsMonitor{
		Interval:              30 * time.Second,
		TrafficSpikeThreshold: 500,
		ErrorRateThreshold:    0.25,
		hub:                   hub,
		store:                 store,
		counter:               counter,
		dispatcher:            dispatcher,
	}
}

func (m *MetricsMonitor) Start() {
	m.mu.Lock()
	if m.stopCh != nil {
		m.mu.Unlock()
		return
	}
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	stop, done := m.stopCh, m.doneCh
	m.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(m.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), m.Interval)
				m.Tick(ctx)
				cancel()
			case <-stop:
				return
			}
		}
	}()
	utils.InfoLogger.WithField("interval", m.Interval).Info("Metrics monitor started")
}

// Stop halts the ticker and waits for an in-flight tick to finish.
func (m *MetricsMonitor) Stop() {
	m.mu.Lock()
	stop, done := m.stopCh, m.doneCh
	m.stopCh, m.doneCh = nil, nil
	m.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Tick takes one snapshot, broadcasts it and checks the alert thresholds.
func (m *MetricsMonitor) Tick(ctx context.Context) MetricsSnapshot {
	window := m.counter.Swap()
	snap := MetricsSnapshot{
		ActiveClients: m.hub.Count(),
		Requests:      window.Requests,
		Errors:        window.Errors,
		Interval:      m.Interval.String(),
		Timestamp:     time.Now(),
	}
	if window.Requests > 0 {
		snap.ErrorRate = float64(window.Errors) / float64(window.Requests)
	}

	unread, err := m.store.CountUnread(ctx)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("Metrics snapshot: unread count unavailable")
	} else {
		snap.UnreadCount = unread
	}

	metrics.StreamSubscribers.Set(float64(snap.ActiveClients))
	m.hub.Broadcast(stream.Message{Event: stream.EventMetrics, Data: snap})

	m.mu.Lock()
	m.last = snap
	m.mu.Unlock()

	m.checkThresholds(ctx, snap)
	return snap
}

// Last returns the most recent snapshot.
func (m *MetricsMonitor) Last() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *MetricsMonitor) checkThresholds(ctx context.Context, snap MetricsSnapshot) {
	if m.dispatcher == nil {
		return
	}
	if m.TrafficSpikeThreshold > 0 && snap.Requests >= m.TrafficSpikeThreshold {
		payload, err := TrafficSpike(snap.Requests, snap.Interval)
		m.dispatcher.Notify(ctx, payload, err)
	}
	if m.ErrorRateThreshold > 0 && snap.Requests >= minRequestsForErrorRate && snap.ErrorRate >= m.ErrorRateThreshold {
		payload, err := AnalyticsThreshold("Error rate", snap.ErrorRate, m.ErrorRateThreshold)
		m.dispatcher.Notify(ctx, payload, err)
	}
}
