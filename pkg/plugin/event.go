package plugin

import (
	"context"
	"time"
)

// Event is a message published on the event bus.
type Event struct {
	Topic     string    `json:"topic"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// EventHandler consumes an event. Handlers must not block for long.
type EventHandler func(ctx context.Context, event Event)

// EventBus is the in-process publish/subscribe hub.
type EventBus interface {
	Publish(ctx context.Context, event Event) error
	PublishAsync(ctx context.Context, event Event)
	// Subscribe and SubscribeAll return an unsubscribe function.
	Subscribe(topic string, handler EventHandler) func()
	SubscribeAll(handler EventHandler) func()
}
