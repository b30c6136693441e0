package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func newTestClient() *Client {
	return &Client{
		ID:       uuid.New().String(),
		UserID:   uuid.New(),
		Send:     make(chan []byte, 16),
		channels: make(map[string]struct{}),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHub_BroadcastReachesSubscribersOnly(t *testing.T) {
	hub := runHub(t)
	subscribed := newTestClient()
	other := newTestClient()

	hub.Register(subscribed)
	hub.Register(other)
	hub.Subscribe(subscribed, "channel:project:p1")
	waitFor(t, func() bool { return hub.SubscriberCount("channel:project:p1") == 1 })

	hub.Broadcast("channel:project:p1", []byte("hello"))

	select {
	case msg := <-subscribed.Send:
		assert.Equal(t, "hello", string(msg))
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive broadcast")
	}
	select {
	case <-other.Send:
		t.Fatal("unsubscribed client received broadcast")
	default:
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := runHub(t)
	client := newTestClient()

	hub.Register(client)
	hub.Subscribe(client, "channel:project:p1")
	waitFor(t, func() bool { return hub.SubscriberCount("channel:project:p1") == 1 })

	hub.Unsubscribe(client, "channel:project:p1")
	waitFor(t, func() bool { return hub.SubscriberCount("channel:project:p1") == 0 })

	hub.Broadcast("channel:project:p1", []byte("late"))
	select {
	case <-client.Send:
		t.Fatal("unsubscribed client received broadcast")
	default:
	}
}

func TestHub_UnregisterCleansUpSubscriptions(t *testing.T) {
	hub := runHub(t)
	client := newTestClient()

	hub.Register(client)
	hub.Subscribe(client, "channel:project:p1")
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Unregister(client)
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
	assert.Zero(t, hub.SubscriberCount("channel:project:p1"))

	// Send channel is closed on unregister.
	_, open := <-client.Send
	require.False(t, open)
}

func TestHub_SlowConsumerDropsInsteadOfBlocking(t *testing.T) {
	hub := runHub(t)
	client := newTestClient()
	client.Send = make(chan []byte, 1)

	hub.Register(client)
	hub.Subscribe(client, "channel:project:p1")
	waitFor(t, func() bool { return hub.SubscriberCount("channel:project:p1") == 1 })

	hub.Broadcast("channel:project:p1", []byte("one"))
	hub.Broadcast("channel:project:p1", []byte("two"))

	assert.Equal(t, "one", string(<-client.Send))
	select {
	case <-client.Send:
		t.Fatal("second message should have been dropped")
	default:
	}
}
