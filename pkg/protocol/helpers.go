package protocol

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewControlMessage creates a joystick control message
func NewControlMessage(angle, magnitude float64, timestamp int64) (*Message, error) {
	return NewMessage(TypeControl, ControlData{
		Angle:     angle,
		Magnitude: magnitude,
		Timestamp: timestamp,
	})
}

// NewConfigMessage creates a parameter change message
func NewConfigMessage(param, value string) (*Message, error) {
	return NewMessage(TypeConfig, ConfigData{
		Param: param,
		Value: value,
	})
}

// NewTelemetryMessage creates a telemetry frame message
func NewTelemetryMessage(data TelemetryData) (*Message, error) {
	return NewMessage(TypeTelemetry, data)
}

// NewStatusMessage creates a status snapshot message
func NewStatusMessage(connected bool, mode, preset string, uptimeS int64) (*Message, error) {
	return NewMessage(TypeStatus, StatusData{
		Connected: connected,
		Mode:      mode,
		Preset:    preset,
		UptimeS:   uptimeS,
	})
}

// NewErrorMessage creates an error report message
func NewErrorMessage(message string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{
		Message: message,
	})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: 0, // Will be set by NewMessage
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetControlData extracts control data from a message
func (m *Message) GetControlData() (*ControlData, error) {
	var data ControlData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetConfigData extracts config data from a message
func (m *Message) GetConfigData() (*ConfigData, error) {
	var data ConfigData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetTelemetryData extracts telemetry data from a message
func (m *Message) GetTelemetryData() (*TelemetryData, error) {
	var data TelemetryData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetStatusData extracts status data from a message
func (m *Message) GetStatusData() (*StatusData, error) {
	var data StatusData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts error data from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
