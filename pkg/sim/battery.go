package sim

import "time"

const (
	// fullPackVoltage is a freshly charged 2S lithium pack.
	fullPackVoltage = 8.4

	// dischargeVoltsPerHour is the linear sag rate under a light
	// teleoperation load.
	dischargeVoltsPerHour = 0.25

	// cutoffVoltage is where the model stops sagging; a real pack
	// would brown out around here anyway.
	cutoffVoltage = 6.8
)

// Battery is a simulated pack that sags linearly from full charge. It
// implements telemetry.BatterySource.
type Battery struct {
	start time.Time
	now   func() time.Time
}

// NewBattery creates a battery at full charge.
func NewBattery() *Battery {
	b := &Battery{now: time.Now}
	b.start = b.now()
	return b
}

// Voltage reports the current simulated pack voltage.
func (b *Battery) Voltage() float64 {
	hours := b.now().Sub(b.start).Hours()
	v := fullPackVoltage - dischargeVoltsPerHour*hours
	if v < cutoffVoltage {
		v = cutoffVoltage
	}
	return v
}
