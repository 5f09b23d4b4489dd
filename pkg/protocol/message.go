// Package protocol defines the WebSocket message types for operator-rover
// communication. Every frame is a Message envelope whose Data payload
// depends on the type.
package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Operator → Rover messages
	TypeControl MessageType = "control" // Joystick sample
	TypeConfig  MessageType = "config"  // Runtime parameter change

	// Rover → Operator messages
	TypeTelemetry MessageType = "telemetry" // Periodic telemetry frame
	TypeStatus    MessageType = "status"    // Status snapshot (also a request)
	TypeError     MessageType = "error"     // Rejected input report

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Operator → Rover Message Types
// =============================================================================

// ControlData is one joystick sample. Angle is in radians with 0 pointing
// right and π/2 forward; Magnitude is the stick deflection in [0,1].
// Out-of-range values are clamped downstream, so only non-finite input is
// invalid here.
type ControlData struct {
	Angle     float64 `json:"angle"`
	Magnitude float64 `json:"magnitude"`
	Timestamp int64   `json:"timestamp,omitempty"` // Sender clock, milliseconds
}

// Validate rejects non-finite fields. JSON cannot carry NaN, but samples
// also arrive through the REST API and direct calls.
func (c *ControlData) Validate() error {
	if math.IsNaN(c.Angle) || math.IsInf(c.Angle, 0) {
		return fmt.Errorf("control angle is not finite")
	}
	if math.IsNaN(c.Magnitude) || math.IsInf(c.Magnitude, 0) {
		return fmt.Errorf("control magnitude is not finite")
	}
	return nil
}

// ConfigData is a single runtime parameter change. Both sides travel as
// strings; the receiving parameter table owns the parsing.
type ConfigData struct {
	Param string `json:"param"`
	Value string `json:"value"`
}

// Validate checks that a parameter name is present.
func (c *ConfigData) Validate() error {
	if c.Param == "" {
		return fmt.Errorf("config param is empty")
	}
	return nil
}

// =============================================================================
// Rover → Operator Message Types
// =============================================================================

// TelemetryData is one telemetry frame. Deployed operator consoles key
// on these field names; they are wire contract, not style.
type TelemetryData struct {
	LeftPWM  int16 `json:"left_pwm"`
	RightPWM int16 `json:"right_pwm"`

	LeftCount     int64   `json:"left_count"`
	RightCount    int64   `json:"right_count"`
	LeftRPM       float64 `json:"left_rpm"`
	RightRPM      float64 `json:"right_rpm"`
	LeftDistance  float64 `json:"left_distance"`
	RightDistance float64 `json:"right_distance"`

	BatteryVoltage float64 `json:"battery_voltage"`
	Uptime         int64   `json:"uptime"` // Seconds since start
	FreeHeap       uint64  `json:"free_heap"`

	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	DHTValid    bool    `json:"dht_valid"`

	Timestamp int64 `json:"timestamp"` // Unix milliseconds
}

// StatusData is a status snapshot, sent on connect and in reply to a
// status request.
type StatusData struct {
	Connected bool   `json:"connected"`
	Mode      string `json:"mode"`
	Preset    string `json:"preset"`
	UptimeS   int64  `json:"uptime_s"`
}

// ErrorData reports a rejected input back to the sender.
type ErrorData struct {
	Message string `json:"message"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
