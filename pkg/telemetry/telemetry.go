// Package telemetry assembles the rover's periodic telemetry frame and
// fans it out to sinks. The builder only reads cached state published by
// other components, so building a frame never blocks on hardware.
package telemetry

import (
	"runtime"
	"time"

	"github.com/roverworks/go-rover5/pkg/ambient"
	"github.com/roverworks/go-rover5/pkg/odometry"
	"github.com/roverworks/go-rover5/pkg/protocol"
)

// DutySource reports the last commanded duty pair.
type DutySource interface {
	Last() (left, right int16)
}

// OdometrySource reports both wheels as one consistent pair.
type OdometrySource interface {
	Snapshot() (left, right odometry.WheelSnapshot)
}

// AmbientSource reports the cached environment reading.
type AmbientSource interface {
	Latest() ambient.Reading
}

// BatterySource reports the pack voltage.
type BatterySource interface {
	Voltage() float64
}

// StubBattery reports a fixed voltage. The vehicle has no battery ADC
// wired up yet, so the nominal pack voltage stands in.
type StubBattery struct {
	Volts float64
}

// NominalPackVoltage is the 6-cell NiMH pack the rover ships with.
const NominalPackVoltage = 7.2

func (b StubBattery) Voltage() float64 {
	return b.Volts
}

// Builder assembles telemetry frames. Uptime counts from construction.
type Builder struct {
	duty    DutySource
	odom    OdometrySource
	ambient AmbientSource
	battery BatterySource
	started time.Time
}

// NewBuilder creates a builder over the given sources. The ambient and
// battery sources may be nil: the frame then carries an invalid
// environment reading and a zero voltage.
func NewBuilder(duty DutySource, odom OdometrySource, amb AmbientSource, battery BatterySource) *Builder {
	return &Builder{
		duty:    duty,
		odom:    odom,
		ambient: amb,
		battery: battery,
		started: time.Now(),
	}
}

// Build assembles one frame stamped with now.
func (b *Builder) Build(now time.Time) protocol.TelemetryData {
	left, right := b.odom.Snapshot()
	leftDuty, rightDuty := b.duty.Last()

	frame := protocol.TelemetryData{
		LeftPWM:  leftDuty,
		RightPWM: rightDuty,

		LeftCount:     left.Count,
		RightCount:    right.Count,
		LeftRPM:       left.RPM,
		RightRPM:      right.RPM,
		LeftDistance:  left.Distance,
		RightDistance: right.Distance,

		Uptime:    int64(now.Sub(b.started).Seconds()),
		FreeHeap:  freeHeapBytes(),
		Timestamp: now.UnixMilli(),
	}

	if b.battery != nil {
		frame.BatteryVoltage = b.battery.Voltage()
	}
	if b.ambient != nil {
		if reading := b.ambient.Latest(); reading.Valid {
			frame.Temperature = reading.Temperature
			frame.Humidity = reading.Humidity
			frame.DHTValid = true
		}
	}

	return frame
}

// freeHeapBytes fills the frame's free-heap gauge: heap bytes held by
// the runtime but not occupied by live objects.
func freeHeapBytes() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapIdle
}
