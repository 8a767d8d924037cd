package stream

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/portfolio-app/utils"
)

func TestMain(m *testing.M) {
	utils.SilenceLogger()
	os.Exit(m.Run())
}

func drain(sub *Subscriber) []Message {
	var out []Message
	for {
		select {
		case msg, ok := <-sub.Messages():
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestSubscribeAndBroadcast(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe("admin")
	b := hub.Subscribe("admin")
	assert.Equal(t, 2, hub.Count())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, Connecting, a.State())

	res := hub.Broadcast(Message{Event: EventNotification, Data: "x"})
	assert.Equal(t, BroadcastResult{Delivered: 2}, res)

	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
}

func TestBroadcastPreservesOrderPerSubscriber(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("admin")

	for i := 0; i < 10; i++ {
		hub.Broadcast(Message{Event: EventNotification, Data: i})
	}

	msgs := drain(sub)
	require.Len(t, msgs, 10)
	for i, msg := range msgs {
		assert.Equal(t, i, msg.Data)
	}
}

func TestSlowSubscriberIsDroppedWithoutBlockingOthers(t *testing.T) {
	hub := NewHubWithQueue(2)
	slow := hub.Subscribe("admin")
	fast := hub.Subscribe("admin")

	var dropped int
	for i := 0; i < 3; i++ {
		res := hub.Broadcast(Message{Event: EventNotification, Data: i})
		dropped += res.Dropped
		// fast keeps up
		drainOne(t, fast)
	}

	assert.Equal(t, 1, dropped)
	assert.Equal(t, 1, hub.Count())
	assert.True(t, slow.Dropped())
	assert.Equal(t, Closed, slow.State())
	<-slow.Done()

	// the two queued messages are still readable, then the channel is closed
	assert.Len(t, drain(slow), 2)
	_, ok := <-slow.Messages()
	assert.False(t, ok)
}

func drainOne(t *testing.T, sub *Subscriber) {
	t.Helper()
	select {
	case <-sub.Messages():
	default:
		t.Fatal("expected a queued message")
	}
}

func TestUnsubscribeIsDeliberateClose(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("admin")

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)

	assert.Zero(t, hub.Count())
	assert.Equal(t, Closed, sub.State())
	assert.False(t, sub.Dropped())
	assert.Equal(t, BroadcastResult{}, hub.Broadcast(Message{Event: EventPing}))
}

func TestSetStateCannotLeaveClosed(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("admin")
	sub.SetState(Open)
	sub.SetState(Streaming)
	assert.Equal(t, Streaming, sub.State())

	hub.Unsubscribe(sub)
	sub.SetState(Idle)
	assert.Equal(t, Closed, sub.State())
}

func TestCloseDisconnectsEveryone(t *testing.T) {
	hub := NewHub()
	subs := make([]*Subscriber, 3)
	for i := range subs {
		subs[i] = hub.Subscribe(fmt.Sprintf("client-%d", i))
	}

	hub.Close()
	assert.Zero(t, hub.Count())
	for _, s := range subs {
		assert.Equal(t, Closed, s.State())
	}

	late := hub.Subscribe("admin")
	assert.Equal(t, Closed, late.State())
	assert.Zero(t, hub.Count())
}

func TestConnStateString(t *testing.T) {
	assert.Equal(t, "streaming", Streaming.String())
	assert.Equal(t, "unknown", ConnState(42).String())
}
