// Package event implements the in-process event bus.
package event

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/HerbHall/minerwatch/pkg/plugin"
)

// Compile-time interface guard.
var _ plugin.EventBus = (*Bus)(nil)

type subscription struct {
	id      uint64
	handler plugin.EventHandler
}

// Bus dispatches events to topic subscribers and wildcard subscribers.
// Handler panics are recovered and logged.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	topics map[string][]subscription
	all    []subscription
	logger *zap.Logger
}

// NewBus creates an empty Bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		topics: make(map[string][]subscription),
		logger: logger,
	}
}

// Subscribe registers handler for topic.
func (b *Bus) Subscribe(topic string, handler plugin.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.topics[topic] = append(b.topics[topic], subscription{id: id, handler: handler})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.topics[topic] = without(b.topics[topic], id)
		if len(b.topics[topic]) == 0 {
			delete(b.topics, topic)
		}
	}
}

// SubscribeAll registers handler for every topic.
func (b *Bus) SubscribeAll(handler plugin.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, handler: handler})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = without(b.all, id)
	}
}

// Publish delivers event to every matching handler before returning.
func (b *Bus) Publish(ctx context.Context, event plugin.Event) error {
	for _, h := range b.handlers(event.Topic) {
		b.dispatch(ctx, h, event)
	}
	return nil
}

// PublishAsync delivers event on a separate goroutine per handler.
func (b *Bus) PublishAsync(ctx context.Context, event plugin.Event) {
	for _, h := range b.handlers(event.Topic) {
		go b.dispatch(ctx, h, event)
	}
}

func (b *Bus) handlers(topic string) []plugin.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]plugin.EventHandler, 0, len(b.topics[topic])+len(b.all))
	for _, s := range b.topics[topic] {
		out = append(out, s.handler)
	}
	for _, s := range b.all {
		out = append(out, s.handler)
	}
	return out
}

func (b *Bus) dispatch(ctx context.Context, h plugin.EventHandler, event plugin.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", event.Topic),
				zap.Any("panic", r),
			)
		}
	}()
	h(ctx, event)
}

func without(subs []subscription, id uint64) []subscription {
	out := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}
