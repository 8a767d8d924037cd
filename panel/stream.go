package panel

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/portfolio-app/models"
	"github.com/yeremiapane/portfolio-app/stream"
	"github.com/yeremiapane/portfolio-app/utils"
)

// ReconnectDelay is the fixed wait before reconnecting a dropped stream.
const ReconnectDelay = 5 * time.Second

var errStreamEnded = errors.New("stream ended")

// Opener connects to the server's event stream.
type Opener func(ctx context.Context) (io.ReadCloser, error)

// Stream keeps a panel fed from the server's SSE endpoint. An unexpected drop schedules
// one reconnect after ReconnectDelay; Close or a cancelled context ends it for good.
type Stream struct {
	ReconnectDelay time.Duration
	// OnMetrics receives the raw payload of every metrics event.
	OnMetrics     func(data json.RawMessage)
	OnStateChange func(state stream.ConnState)

	open  Opener
	panel *Panel
	after func(time.Duration) <-chan time.Time

	mu         sync.Mutex
	state      stream.ConnState
	reconnects int

	closeOnce sync.Once
	closed    chan struct{}
}

func NewStream(open Opener, p *Panel) *Stream {
	return &Stream{
		ReconnectDelay: ReconnectDelay,
		open:           open,
		panel:          p,
		after:          time.After,
		state:          stream.Connecting,
		closed:         make(chan struct{}),
	}
}

// Run connects and reads until ctx is cancelled or Close is called.
func (s *Stream) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.closed:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		err := s.connect(ctx)
		s.setState(stream.Closed)
		if ctx.Err() != nil {
			return
		}

		s.mu.Lock()
		s.reconnects++
		s.mu.Unlock()
		utils.ErrorLogger.WithError(err).WithField("retry_in", s.ReconnectDelay).Error("Notification stream dropped")

		select {
		case <-ctx.Done():
			return
		case <-s.after(s.ReconnectDelay):
		}
	}
}

// Close stops the stream without scheduling a reconnect.
func (s *Stream) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

func (s *Stream) State() stream.ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reconnects is how many reconnects have been scheduled so far.
func (s *Stream) Reconnects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnects
}

func (s *Stream) connect(ctx context.Context) error {
	s.setState(stream.Connecting)
	body, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer body.Close()
	stop := context.AfterFunc(ctx, func() { body.Close() })
	defer stop()

	err = readEvents(body, s.handle)
	if err == nil {
		err = errStreamEnded
	}
	return err
}

func (s *Stream) handle(event string, data []byte) {
	switch event {
	case stream.EventConnected:
		s.setState(stream.Open)
	case stream.EventNotification:
		s.setState(stream.Streaming)
		var n models.Notification
		if err := json.Unmarshal(data, &n); err != nil {
			utils.ErrorLogger.WithError(err).Error("Malformed notification event")
		} else {
			s.panel.Apply(n)
		}
		s.setState(stream.Idle)
	case stream.EventMetrics:
		s.setState(stream.Streaming)
		if s.OnMetrics != nil {
			s.OnMetrics(json.RawMessage(data))
		}
		s.setState(stream.Idle)
	case stream.EventPing:
		s.setState(stream.Idle)
	default:
		utils.InfoLogger.WithFields(logrus.Fields{"event": event}).Debug("Ignoring stream event")
	}
}

func (s *Stream) setState(state stream.ConnState) {
	s.mu.Lock()
	changed := s.state != state
	s.state = state
	s.mu.Unlock()
	if changed && s.OnStateChange != nil {
		s.OnStateChange(state)
	}
}

// readEvents parses a text/event-stream body and calls fn once per event.
// It returns nil at EOF.
func readEvents(r io.Reader, fn func(event string, data []byte)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	event := ""
	var data []string
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			if len(data) > 0 {
				if event == "" {
					event = "message"
				}
				fn(event, []byte(strings.Join(data, "\n")))
			}
			event, data = "", nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event = value
		case "data":
			data = append(data, value)
		}
	}
	return sc.Err()
}
