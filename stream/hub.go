package stream

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/portfolio-app/utils"
)

// Event types
const (
	EventConnected    = "connected"
	EventNotification = "notification"
	EventMetrics      = "metrics"
	EventPing         = "ping"
)

// DefaultQueueSize is how many undelivered messages a subscriber may hold before it is dropped.
const DefaultQueueSize = 64

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// BroadcastResult reports how one broadcast went.
type BroadcastResult struct {
	Delivered int
	Dropped   int
}

// Hub holds every connected admin client and fans messages out to them.
type Hub struct {
	mu          sync.Mutex
	subscribers map[uint64]*Subscriber
	nextID      atomic.Uint64
	queueSize   int
	closed      bool
}

func NewHub() *Hub {
	return NewHubWithQueue(DefaultQueueSize)
}

func NewHubWithQueue(size int) *Hub {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Hub{
		subscribers: make(map[uint64]*Subscriber),
		queueSize:   size,
	}
}

// Subscribe registers a new client. The subscriber starts in the Connecting state;
// the transport moves it to Open once its handshake is written.
func (h *Hub) Subscribe(role string) *Subscriber {
	sub := newSubscriber(h.nextID.Add(1), role, h.queueSize)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.finish(false)
		close(sub.send)
		return sub
	}
	h.subscribers[sub.id] = sub

	h.logger(sub).WithField("total_clients", len(h.subscribers)).Info("Stream client connected")
	return sub
}

// Unsubscribe removes a client that went away or was closed on purpose.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.remove(sub, false) {
		h.logger(sub).WithField("total_clients", len(h.subscribers)).Info("Stream client disconnected")
	}
}

// Broadcast queues msg for every subscriber. Queueing happens under the hub lock, so
// each subscriber sees messages in the order Broadcast was called. A subscriber whose
// queue is full is dropped without affecting the others.
func (h *Hub) Broadcast(msg Message) BroadcastResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	var res BroadcastResult
	for _, sub := range h.subscribers {
		select {
		case sub.send <- msg:
			res.Delivered++
		default:
			h.remove(sub, true)
			res.Dropped++
			utils.ErrorLogger.WithFields(logrus.Fields{
				"subscriber_id": sub.id,
				"event":         msg.Event,
			}).Error("Stream client too slow, dropping connection")
		}
	}
	return res
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber. Later subscriptions are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, sub := range h.subscribers {
		h.remove(sub, false)
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(sub *Subscriber, dropped bool) bool {
	if _, ok := h.subscribers[sub.id]; !ok {
		return false
	}
	delete(h.subscribers, sub.id)
	sub.finish(dropped)
	close(sub.send)
	return true
}

func (h *Hub) logger(sub *Subscriber) *logrus.Entry {
	return utils.InfoLogger.WithFields(logrus.Fields{
		"subscriber_id": sub.id,
		"role":          sub.role,
	})
}
