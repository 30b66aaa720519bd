// Package notify forwards detection events to an MQTT broker so external
// systems learn about miners as scans find them.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/minerwatch/internal/detect"
	"github.com/HerbHall/minerwatch/pkg/plugin"
)

var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
	_ plugin.Validator     = (*Module)(nil)
)

// Config holds the notify module settings (plugins.notify.*).
type Config struct {
	MQTTConfig `mapstructure:",squash"`

	// Topic is the broker topic template; see TopicPlaceholder.
	Topic string `mapstructure:"topic"`
	// Events lists the bus topics that are forwarded.
	Events    []string `mapstructure:"events"`
	QueueSize int      `mapstructure:"queue_size"`
}

// DefaultConfig returns the defaults used for unset keys. With no broker the
// module stays idle.
func DefaultConfig() Config {
	return Config{
		MQTTConfig: MQTTConfig{
			ClientID: "minerwatch",
			QoS:      1,
			Timeout:  5 * time.Second,
		},
		Topic:     "minerwatch/" + TopicPlaceholder,
		Events:    []string{detect.TopicMinerDetected, detect.TopicScanCompleted, detect.TopicScanFailed},
		QueueSize: 256,
	}
}

// Module implements the notify plugin.
type Module struct {
	logger *zap.Logger
	cfg    Config
	bus    plugin.EventBus
	pub    Publisher

	notifier *Notifier
	detach   func()
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// Option configures a Module.
type Option func(*Module)

// WithPublisher replaces the MQTT connection.
func WithPublisher(p Publisher) Option {
	return func(m *Module) { m.pub = p }
}

// New creates a notify module.
func New(opts ...Option) *Module {
	m := &Module{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "notify",
		Version:      "0.1.0",
		Description:  "MQTT notifications for detected miners",
		Dependencies: []string{"detect"},
		APIVersion:   plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	m.bus = deps.Bus

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal notify config: %w", err)
		}
	}

	if m.pub == nil && m.cfg.Broker != "" {
		pub, err := NewMQTTPublisher(m.cfg.MQTTConfig, m.logger)
		if err != nil {
			return err
		}
		m.pub = pub
	}
	if m.pub == nil {
		m.logger.Info("no mqtt broker configured, notifications disabled")
		return nil
	}

	m.notifier = NewNotifier(m.pub, m.cfg.Topic, m.cfg.QueueSize, m.logger)
	m.logger.Info("notify module initialized",
		zap.String("broker", m.cfg.Broker),
		zap.String("topic", m.cfg.Topic),
		zap.Strings("events", m.cfg.Events),
	)
	return nil
}

// ValidateConfig implements plugin.Validator.
func (m *Module) ValidateConfig() error {
	if m.cfg.QoS > 2 {
		return fmt.Errorf("qos must be 0, 1 or 2, got %d", m.cfg.QoS)
	}
	if m.cfg.QueueSize < 1 {
		return fmt.Errorf("queue_size must be positive, got %d", m.cfg.QueueSize)
	}
	if m.cfg.Topic == "" {
		return fmt.Errorf("topic must not be empty")
	}
	return nil
}

func (m *Module) Start(_ context.Context) error {
	if m.notifier == nil || m.bus == nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.detach = m.notifier.Attach(m.bus, m.cfg.Events...)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.notifier.Run(ctx)
	}()
	m.logger.Info("notify module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.detach != nil {
		m.detach()
		m.detach = nil
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	if m.pub != nil {
		m.pub.Close()
	}
	m.logger.Info("notify module stopped")
	return nil
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	if m.pub == nil {
		return plugin.HealthStatus{Status: plugin.HealthOK, Details: map[string]string{"mqtt": "disabled"}}
	}
	if !m.pub.Connected() {
		return plugin.HealthStatus{Status: plugin.HealthDegraded, Details: map[string]string{"mqtt": "disconnected"}}
	}
	return plugin.HealthStatus{Status: plugin.HealthOK, Details: map[string]string{"mqtt": "connected"}}
}
