package panel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/portfolio-app/stream"
)

// pipeOpener hands out one pipe per connection attempt and keeps the writers.
type pipeOpener struct {
	mu      sync.Mutex
	writers []*io.PipeWriter
}

func (o *pipeOpener) open(ctx context.Context) (io.ReadCloser, error) {
	r, w := io.Pipe()
	o.mu.Lock()
	o.writers = append(o.writers, w)
	o.mu.Unlock()
	return r, nil
}

func (o *pipeOpener) writer(t *testing.T, i int) *io.PipeWriter {
	t.Helper()
	var w *io.PipeWriter
	require.Eventually(t, func() bool {
		o.mu.Lock()
		defer o.mu.Unlock()
		if len(o.writers) > i {
			w = o.writers[i]
			return true
		}
		return false
	}, time.Second, 5*time.Millisecond)
	return w
}

func (o *pipeOpener) attempts() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.writers)
}

// fakeTimer records requested delays and fires only when told to.
type fakeTimer struct {
	mu     sync.Mutex
	delays []time.Duration
	fire   chan time.Time
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{fire: make(chan time.Time)}
}

func (f *fakeTimer) after(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	f.delays = append(f.delays, d)
	f.mu.Unlock()
	return f.fire
}

func (f *fakeTimer) scheduled() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.delays...)
}

func sse(event, data string) string {
	return fmt.Sprintf("event:%s\ndata:%s\n\n", event, data)
}

func startStream(t *testing.T, s *Stream) (context.CancelFunc, <-chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	t.Cleanup(cancel)
	return cancel, done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not stop")
	}
}

func TestStreamAppliesPushedNotifications(t *testing.T) {
	opener := &pipeOpener{}
	p := New(&fakeBackend{}, nil)
	s := NewStream(opener.open, p)
	s.after = newFakeTimer().after

	var metrics []string
	var mu sync.Mutex
	s.OnMetrics = func(data json.RawMessage) {
		mu.Lock()
		metrics = append(metrics, string(data))
		mu.Unlock()
	}
	_, done := startStream(t, s)

	w := opener.writer(t, 0)
	_, err := io.WriteString(w, sse(stream.EventConnected, `{"subscriber_id":1}`))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.State() == stream.Open }, time.Second, 5*time.Millisecond)

	_, err = io.WriteString(w, sse(stream.EventNotification, `{"id":"n1","message":"hi","type":"info","category":"blog","importance":"medium","read":false}`))
	require.NoError(t, err)
	_, err = io.WriteString(w, sse(stream.EventMetrics, `{"active_clients":1}`))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return p.UnreadCount() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(metrics) == 1
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return s.State() == stream.Idle }, time.Second, 5*time.Millisecond)

	s.Close()
	waitDone(t, done)
	assert.Equal(t, stream.Closed, s.State())
}

func TestStreamDropSchedulesOneReconnect(t *testing.T) {
	opener := &pipeOpener{}
	timer := newFakeTimer()
	s := NewStream(opener.open, New(&fakeBackend{}, nil))
	s.after = timer.after
	cancel, done := startStream(t, s)

	w := opener.writer(t, 0)
	_, err := io.WriteString(w, sse(stream.EventConnected, `{}`))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.State() == stream.Open }, time.Second, 5*time.Millisecond)

	// server goes away
	require.NoError(t, w.CloseWithError(errors.New("connection reset")))

	require.Eventually(t, func() bool { return len(timer.scheduled()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []time.Duration{5 * time.Second}, timer.scheduled())
	assert.Equal(t, 1, s.Reconnects())
	assert.Equal(t, 1, opener.attempts(), "no reconnect before the delay elapses")

	timer.fire <- time.Now()
	opener.writer(t, 1)
	assert.Equal(t, 2, opener.attempts())

	cancel()
	waitDone(t, done)
	assert.Len(t, timer.scheduled(), 1)
}

func TestStreamDeliberateCloseDoesNotReconnect(t *testing.T) {
	opener := &pipeOpener{}
	timer := newFakeTimer()
	s := NewStream(opener.open, New(&fakeBackend{}, nil))
	s.after = timer.after
	_, done := startStream(t, s)

	w := opener.writer(t, 0)
	_, err := io.WriteString(w, sse(stream.EventConnected, `{}`))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.State() == stream.Open }, time.Second, 5*time.Millisecond)

	s.Close()
	waitDone(t, done)

	assert.Empty(t, timer.scheduled())
	assert.Zero(t, s.Reconnects())
	assert.Equal(t, 1, opener.attempts())
}

func TestStreamOpenFailureSchedulesReconnect(t *testing.T) {
	timer := newFakeTimer()
	s := NewStream(func(ctx context.Context) (io.ReadCloser, error) {
		return nil, errors.New("dial tcp: connection refused")
	}, New(&fakeBackend{}, nil))
	s.after = timer.after
	cancel, done := startStream(t, s)

	require.Eventually(t, func() bool { return len(timer.scheduled()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	waitDone(t, done)
	assert.Equal(t, 1, s.Reconnects())
}

func TestReadEvents(t *testing.T) {
	body := ": comment\n" +
		"event:ping\ndata: 1\n\n" +
		"event: notification\ndata:{\"a\":\ndata:1}\n\n" +
		"data:plain\n\n" +
		"event:empty\n\n"

	type ev struct{ name, data string }
	var got []ev
	err := readEvents(strings.NewReader(body), func(event string, data []byte) {
		got = append(got, ev{event, string(data)})
	})
	require.NoError(t, err)
	assert.Equal(t, []ev{
		{"ping", "1"},
		{"notification", "{\"a\":\n1}"},
		{"message", "plain"},
	}, got)
}
