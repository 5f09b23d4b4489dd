package telemetry

import (
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/roverworks/go-rover5/internal/log"
)

// How long Connect waits before handing the attempt to the background
// retry loop.
const mqttConnectTimeout = 5 * time.Second

// MQTTSink publishes telemetry frames to an MQTT broker, for fleet
// dashboards and recording. Frames are QoS 0: telemetry is ephemeral and
// the next frame is 100ms away, so nothing is queued for an offline
// broker.
type MQTTSink struct {
	client mqtt.Client
	topic  string
}

// NewMQTTSink creates a sink for the given broker URL (for example
// "tcp://127.0.0.1:1883") and topic. Reconnection is automatic.
func NewMQTTSink(broker, clientID, topic string) *MQTTSink {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		log.Info("connected to MQTT broker", "broker", broker, "topic", topic)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn("MQTT connection lost", "error", err)
	}

	return &MQTTSink{
		client: mqtt.NewClient(opts),
		topic:  topic,
	}
}

// Connect starts the broker connection. A broker that is down at boot
// only delays the uplink, never the rover: after the initial wait the
// client keeps retrying in the background.
func (s *MQTTSink) Connect() error {
	token := s.client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		log.Warn("MQTT broker not reachable yet, retrying in background", "topic", s.topic)
		return nil
	}
	return token.Error()
}

// Publish sends one frame. Frames are dropped while disconnected.
func (s *MQTTSink) Publish(frame []byte) error {
	if !s.client.IsConnectionOpen() {
		return nil
	}
	s.client.Publish(s.topic, 0, false, frame)
	return nil
}

// Close disconnects from the broker, allowing in-flight messages a short
// grace period.
func (s *MQTTSink) Close() {
	s.client.Disconnect(250)
}

var _ Sink = (*MQTTSink)(nil)
