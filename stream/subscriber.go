package stream

import (
	"sync"
	"sync/atomic"
)

// ConnState is the lifecycle of one stream connection:
// Connecting -> Open -> (Streaming <-> Idle) -> Closed.
type ConnState int32

const (
	Connecting ConnState = iota
	Open
	Streaming
	Idle
	Closed
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Streaming:
		return "streaming"
	case Idle:
		return "idle"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Subscriber is one connected client. It is not persisted.
type Subscriber struct {
	id      uint64
	role    string
	send    chan Message
	done    chan struct{}
	once    sync.Once
	state   atomic.Int32
	dropped atomic.Bool
}

func newSubscriber(id uint64, role string, size int) *Subscriber {
	s := &Subscriber{
		id:   id,
		role: role,
		send: make(chan Message, size),
		done: make(chan struct{}),
	}
	s.state.Store(int32(Connecting))
	return s
}

func (s *Subscriber) ID() uint64 { return s.id }

func (s *Subscriber) Role() string { return s.role }

// Messages is closed when the hub removes the subscriber.
func (s *Subscriber) Messages() <-chan Message { return s.send }

// Done is closed once the subscriber reaches Closed.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

func (s *Subscriber) State() ConnState { return ConnState(s.state.Load()) }

// Dropped reports whether the hub closed the subscriber because it could not keep up.
func (s *Subscriber) Dropped() bool { return s.dropped.Load() }

// SetState records a transition. Closed is terminal and can only be reached through the hub.
func (s *Subscriber) SetState(next ConnState) {
	if next == Closed {
		return
	}
	for {
		cur := s.state.Load()
		if ConnState(cur) == Closed {
			return
		}
		if s.state.CompareAndSwap(cur, int32(next)) {
			return
		}
	}
}

func (s *Subscriber) finish(dropped bool) {
	s.once.Do(func() {
		s.dropped.Store(dropped)
		s.state.Store(int32(Closed))
		close(s.done)
	})
}
