package notify

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/minerwatch/pkg/plugin"
)

// TopicPlaceholder in a topic template is replaced by the event topic, with
// dots turned into MQTT level separators.
const TopicPlaceholder = "{event}"

// Notifier queues bus events and forwards them to a Publisher from a single
// goroutine, so a slow broker never blocks the publishing module.
type Notifier struct {
	pub      Publisher
	template string
	queue    chan plugin.Event
	logger   *zap.Logger
}

// NewNotifier creates a Notifier with a queue of the given size.
func NewNotifier(pub Publisher, template string, queueSize int, logger *zap.Logger) *Notifier {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Notifier{
		pub:      pub,
		template: template,
		queue:    make(chan plugin.Event, queueSize),
		logger:   logger,
	}
}

// Topic renders the broker topic for a bus topic.
func (n *Notifier) Topic(busTopic string) string {
	return FormatTopic(n.template, busTopic)
}

// FormatTopic replaces the {event} placeholder in template.
func FormatTopic(template, busTopic string) string {
	return strings.ReplaceAll(template, TopicPlaceholder, strings.ReplaceAll(busTopic, ".", "/"))
}

// Handle enqueues event, dropping it when the queue is full.
func (n *Notifier) Handle(_ context.Context, event plugin.Event) {
	select {
	case n.queue <- event:
	default:
		n.logger.Warn("notification queue full, event dropped", zap.String("topic", event.Topic))
	}
}

// Attach subscribes Handle to each topic and returns a function that
// removes every subscription.
func (n *Notifier) Attach(bus plugin.EventBus, topics ...string) func() {
	unsubs := make([]func(), 0, len(topics))
	for _, t := range topics {
		unsubs = append(unsubs, bus.Subscribe(t, n.Handle))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Run forwards queued events until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-n.queue:
			n.forward(event)
		}
	}
}

func (n *Notifier) forward(event plugin.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("failed to marshal event", zap.String("topic", event.Topic), zap.Error(err))
		return
	}
	topic := n.Topic(event.Topic)
	if err := n.pub.Publish(topic, payload); err != nil {
		n.logger.Warn("failed to publish notification", zap.String("mqtt_topic", topic), zap.Error(err))
		return
	}
	n.logger.Debug("notification published", zap.String("mqtt_topic", topic))
}
