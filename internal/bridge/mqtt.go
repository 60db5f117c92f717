package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/pigwire/pigwire/internal/client"
	"github.com/pigwire/pigwire/internal/logging"
)

const (
	// defaultConnectTimeout is the maximum time to wait for the initial
	// broker connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for a publish
	// acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time allowed for in-flight messages
	// on disconnect, in milliseconds.
	defaultDisconnectQuiesce = 1000

	// DefaultTopicPrefix roots all published topics.
	DefaultTopicPrefix = "pigwire"
)

// Config describes the broker connection and topic layout.
type Config struct {
	BrokerURL   string // e.g. "tcp://broker:1883"
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string // defaults to DefaultTopicPrefix
	QoS         byte
	Retain      bool // retain level messages so subscribers see last state
}

// Publisher forwards pin level changes to an MQTT broker: one topic per
// pin, retained JSON payloads, plus an availability topic maintained via
// a last-will message.
type Publisher struct {
	client pahomqtt.Client
	cfg    Config
}

// levelMessage is the JSON payload published per level change.
type levelMessage struct {
	Level int    `json:"level"`
	Tick  uint32 `json:"tick"`
	Time  string `json:"time"`
}

// Connect establishes the broker connection, configuring a last-will so
// subscribers can tell a crashed bridge from a silent pin.
func Connect(cfg Config) (*Publisher, error) {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = DefaultTopicPrefix
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "pigwire-bridge"
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetWill(availabilityTopic(cfg.TopicPrefix), "offline", cfg.QoS, true)

	p := &Publisher{cfg: cfg}
	p.client = pahomqtt.NewClient(opts)

	token := p.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect: timeout after %v", defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	// Mark the bridge online, retained, mirroring the last-will.
	p.client.Publish(availabilityTopic(cfg.TopicPrefix), cfg.QoS, true, "online")

	logging.Info("mqtt bridge connected",
		zap.String("broker", cfg.BrokerURL),
		zap.String("prefix", cfg.TopicPrefix),
	)
	return p, nil
}

// PublishLevel publishes one level change for the pin.
func (p *Publisher) PublishLevel(gpio, level int, tick uint32) error {
	payload, err := json.Marshal(levelMessage{
		Level: level,
		Tick:  tick,
		Time:  time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal level message: %w", err)
	}

	token := p.client.Publish(levelTopic(p.cfg.TopicPrefix, gpio), p.cfg.QoS, p.cfg.Retain, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("mqtt publish: timeout after %v", defaultPublishTimeout)
	}
	return token.Error()
}

// AlertFunc adapts the publisher to the client's callback signature so it
// can be registered directly. Publish failures are logged, not propagated:
// the listener goroutine has nowhere to return them.
func (p *Publisher) AlertFunc() client.AlertFunc {
	return func(gpio, level int, tick uint32) {
		if err := p.PublishLevel(gpio, level, tick); err != nil {
			logging.Error("mqtt publish failed",
				zap.Int("gpio", gpio),
				zap.Error(err),
			)
		}
	}
}

// Close marks the bridge offline and disconnects.
func (p *Publisher) Close() {
	p.client.Publish(availabilityTopic(p.cfg.TopicPrefix), p.cfg.QoS, true, "offline")
	p.client.Disconnect(defaultDisconnectQuiesce)
}

func levelTopic(prefix string, gpio int) string {
	return fmt.Sprintf("%s/gpio/%d/level", prefix, gpio)
}

func availabilityTopic(prefix string) string {
	return prefix + "/status"
}
