package output

import (
	"fmt"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/gesture-sensor/internal/classify"
	"github.com/sweeney/gesture-sensor/internal/health"
)

// MQTT topics.
const (
	// TopicResults carries classification results.
	TopicResults = "sensors/gesture/results"

	// TopicHealth carries periodic health reports.
	TopicHealth = "sensors/gesture/health"

	// TopicSystem carries lifecycle records (startup, heartbeat, errors).
	TopicSystem = "sensors/gesture/system"
)

const publishTimeout = 5 * time.Second

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	// Broker is the broker URL, e.g. tcp://192.168.1.200:1883.
	Broker string

	// ClientID defaults to "gesture-sensor".
	ClientID string
}

// MQTTEmitter publishes JSON records to an MQTT broker. Results and health
// are QoS 0 since the next window supersedes a lost one. System records are
// QoS 1 so lifecycle events survive a flaky link.
type MQTTEmitter struct {
	client paho.Client
	fmt    formatter
	seq    atomic.Uint32
}

// NewMQTT creates an emitter connected to the given broker. MQTT payloads
// are always JSON regardless of the configured console format.
func NewMQTT(cfg MQTTConfig) (*MQTTEmitter, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "gesture-sensor"
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &MQTTEmitter{
		client: client,
		fmt:    formatter{format: FormatJSON},
	}, nil
}

func (m *MQTTEmitter) publish(topic string, qos byte, payload []byte, err error) error {
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	token := m.client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// EmitResult publishes a result record.
func (m *MQTTEmitter) EmitResult(res classify.Result, snap *health.Snapshot) error {
	payload, err := m.fmt.result(m.seq.Add(1), res, snap)
	return m.publish(TopicResults, 0, payload, err)
}

// EmitHealth publishes a health record.
func (m *MQTTEmitter) EmitHealth(snap health.Snapshot) error {
	payload, err := m.fmt.health(snap)
	return m.publish(TopicHealth, 0, payload, err)
}

// EmitHeartbeat publishes a liveness record.
func (m *MQTTEmitter) EmitHeartbeat(uptime time.Duration) error {
	payload, err := m.fmt.heartbeat(uptime)
	return m.publish(TopicSystem, 1, payload, err)
}

// EmitError publishes an error record.
func (m *MQTTEmitter) EmitError(code int, message string) error {
	payload, err := m.fmt.error(code, message)
	return m.publish(TopicSystem, 1, payload, err)
}

// EmitBanner publishes the startup record.
func (m *MQTTEmitter) EmitBanner(info Info) error {
	payload, err := m.fmt.banner(info)
	return m.publish(TopicSystem, 1, payload, err)
}

// IsConnected reports whether the broker connection is active.
func (m *MQTTEmitter) IsConnected() bool {
	return m.client.IsConnected()
}

// Close disconnects from the broker.
func (m *MQTTEmitter) Close() error {
	m.client.Disconnect(1000) // 1 second timeout
	return nil
}
