// Package odometry accumulates wheel travel from quadrature encoder
// counts. Hardware counters are a wrapping signed 16-bit window;
// differencing successive readings in int16 arithmetic cancels the wrap,
// and the deltas are accumulated into 64-bit totals that never overflow
// in practice.
package odometry

import "math"

// Rover 5 encoders emit 1000 state changes per three wheel revolutions.
// In 4x quadrature decode that is ~1333.33 counts per revolution.
const (
	DefaultPulsesPerThreeRevs = 1000
	DefaultCountsPerRev       = DefaultPulsesPerThreeRevs / 3.0 * 4.0
	DefaultWheelDiameterMM    = 65.0
)

// CountReader reads a hardware pulse counter. Readings wrap at the int16
// limits; only differences between successive readings are meaningful.
type CountReader interface {
	Count() (int16, error)
}

// CountsPerRev converts the encoder's pulses-per-three-revolutions rating
// into counts per wheel revolution under 4x decode.
func CountsPerRev(pulsesPerThreeRevs int) float64 {
	return float64(pulsesPerThreeRevs) / 3.0 * 4.0
}

// circumferenceM converts a wheel diameter in millimeters to a rolling
// circumference in meters.
func circumferenceM(diameterMM float64) float64 {
	return math.Pi * diameterMM / 1000.0
}
