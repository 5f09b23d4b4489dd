// Package config provides configuration for go-rover5 commands.
// Values come from built-in defaults, an optional YAML file, and
// environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default rover configuration.
const (
	DefaultListenAddr         = ":8080"
	DefaultStaticDir          = "./web"
	DefaultLogLevel           = "info"
	DefaultControlRateHz      = 50
	DefaultTelemetryRateHz    = 10
	DefaultPulsesPerThreeRevs = 1000
	DefaultWheelDiameterMM    = 65.0
	DefaultMQTTTopic          = "rover/telemetry"
	DefaultMQTTClientID       = "roverd"
)

// Rover is the daemon configuration.
type Rover struct {
	ListenAddr string `yaml:"listen_addr"`
	StaticDir  string `yaml:"static_dir"`
	LogLevel   string `yaml:"log_level"`

	ControlRateHz   int `yaml:"control_rate_hz"`
	TelemetryRateHz int `yaml:"telemetry_rate_hz"`

	Encoder EncoderConfig `yaml:"encoder"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	MQTT    MQTTConfig    `yaml:"mqtt"`

	// Sim replaces the motor bridge and encoders with the built-in
	// simulator. Takes over when no bridge URL is configured either.
	Sim bool `yaml:"sim"`
}

// EncoderConfig is the wheel encoder geometry.
type EncoderConfig struct {
	PulsesPerThreeRevs int     `yaml:"pulses_per_three_revs"`
	WheelDiameterMM    float64 `yaml:"wheel_diameter_mm"`
}

// BridgeConfig points at the HTTP motor bridge.
type BridgeConfig struct {
	URL string `yaml:"url"`
}

// MQTTConfig enables the MQTT telemetry uplink when Broker is set.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

// Enabled reports whether an MQTT broker is configured.
func (m MQTTConfig) Enabled() bool {
	return m.Broker != ""
}

// Default returns the built-in configuration.
func Default() Rover {
	return Rover{
		ListenAddr:      DefaultListenAddr,
		StaticDir:       DefaultStaticDir,
		LogLevel:        DefaultLogLevel,
		ControlRateHz:   DefaultControlRateHz,
		TelemetryRateHz: DefaultTelemetryRateHz,
		Encoder: EncoderConfig{
			PulsesPerThreeRevs: DefaultPulsesPerThreeRevs,
			WheelDiameterMM:    DefaultWheelDiameterMM,
		},
		MQTT: MQTTConfig{
			ClientID: DefaultMQTTClientID,
			Topic:    DefaultMQTTTopic,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path
// (skipped when path is empty), and environment overrides.
func Load(path string) (Rover, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ControlPeriod returns the control loop period.
func (c Rover) ControlPeriod() time.Duration {
	return time.Second / time.Duration(c.ControlRateHz)
}

// TelemetryPeriod returns the telemetry loop period.
func (c Rover) TelemetryPeriod() time.Duration {
	return time.Second / time.Duration(c.TelemetryRateHz)
}

// Validate checks for values the daemon cannot run with.
func (c Rover) Validate() error {
	if c.ControlRateHz <= 0 {
		return fmt.Errorf("control_rate_hz must be positive, got %d", c.ControlRateHz)
	}
	if c.TelemetryRateHz <= 0 {
		return fmt.Errorf("telemetry_rate_hz must be positive, got %d", c.TelemetryRateHz)
	}
	if c.Encoder.PulsesPerThreeRevs <= 0 {
		return fmt.Errorf("pulses_per_three_revs must be positive, got %d", c.Encoder.PulsesPerThreeRevs)
	}
	if c.Encoder.WheelDiameterMM <= 0 {
		return fmt.Errorf("wheel_diameter_mm must be positive, got %.1f", c.Encoder.WheelDiameterMM)
	}
	return nil
}

func (c *Rover) applyEnv() {
	c.ListenAddr = envStr("ROVER_ADDR", c.ListenAddr)
	c.StaticDir = envStr("ROVER_STATIC_DIR", c.StaticDir)
	c.LogLevel = envStr("ROVER_LOG_LEVEL", c.LogLevel)
	c.Bridge.URL = envStr("ROVER_BRIDGE_URL", c.Bridge.URL)
	c.MQTT.Broker = envStr("ROVER_MQTT_BROKER", c.MQTT.Broker)
	c.MQTT.ClientID = envStr("ROVER_MQTT_CLIENT_ID", c.MQTT.ClientID)
	c.MQTT.Topic = envStr("ROVER_MQTT_TOPIC", c.MQTT.Topic)
	c.Sim = envBool("ROVER_SIM", c.Sim)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
