package websocket

import (
	"context"

	"chatter-server/internal/events"
)

// RedisBridge forwards envelopes arriving on redis pub/sub into hub
// rooms. Channel names match one-to-one, so the hop is a straight
// passthrough and any instance of the server can serve any client.
type RedisBridge struct {
	subscriber events.Subscriber
	hub        *Hub
}

func NewRedisBridge(subscriber events.Subscriber, hub *Hub) *RedisBridge {
	return &RedisBridge{subscriber: subscriber, hub: hub}
}

func (b *RedisBridge) Run(ctx context.Context) error {
	patterns := []string{
		events.ChannelPrefixProject + "*",
		events.ChannelPrefixUser + "*",
	}
	return b.subscriber.Subscribe(ctx, patterns, func(channel string, payload []byte) {
		b.hub.Broadcast(channel, payload)
	})
}
