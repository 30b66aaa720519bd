package notify

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Publisher delivers a payload to a broker topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
	Connected() bool
	Close()
}

// ErrPublishTimeout is returned when the broker does not acknowledge a
// publish in time.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

// MQTTConfig holds the broker connection settings.
type MQTTConfig struct {
	Broker   string        `mapstructure:"broker"`
	ClientID string        `mapstructure:"client_id"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	QoS      byte          `mapstructure:"qos"`
	Retain   bool          `mapstructure:"retain"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MQTTPublisher publishes over a paho MQTT client.
type MQTTPublisher struct {
	client  mqtt.Client
	qos     byte
	retain  bool
	timeout time.Duration
	logger  *zap.Logger
}

var _ Publisher = (*MQTTPublisher)(nil)

// NewMQTTPublisher connects to the broker. The client reconnects on its own
// after the initial connection succeeds.
func NewMQTTPublisher(cfg MQTTConfig, logger *zap.Logger) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(cfg.Timeout)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("mqtt connected", zap.String("broker", cfg.Broker))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.String("broker", cfg.Broker), zap.Error(err))
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("connect to mqtt broker %s: timed out after %s", cfg.Broker, cfg.Timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.Broker, err)
	}

	return &MQTTPublisher{
		client:  client,
		qos:     cfg.QoS,
		retain:  cfg.Retain,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

func (p *MQTTPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("%w: topic %s", ErrPublishTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (p *MQTTPublisher) Connected() bool {
	return p.client.IsConnected()
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
