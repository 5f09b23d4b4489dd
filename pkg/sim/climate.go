package sim

import (
	"math"
	"time"
)

// Climate is a simulated environment sensor. Temperature and humidity
// drift on slow sine waves around room conditions so dashboards and the
// telemetry path see plausibly changing values. It implements
// ambient.Reader and is meant to sit behind an ambient.Sampler like a
// real sensor would.
type Climate struct {
	start time.Time
	now   func() time.Time
}

// NewClimate creates a room-temperature climate simulation.
func NewClimate() *Climate {
	c := &Climate{now: time.Now}
	c.start = c.now()
	return c
}

const (
	baseTemperature  = 22.0
	temperatureSwing = 2.5
	temperaturePhase = 300 * time.Second

	baseHumidity  = 55.0
	humiditySwing = 8.0
	humidityPhase = 420 * time.Second
)

// Read never fails; the simulated sensor has no wiring to flake out.
func (c *Climate) Read() (float64, float64, error) {
	elapsed := c.now().Sub(c.start)

	t := baseTemperature + temperatureSwing*math.Sin(2*math.Pi*float64(elapsed)/float64(temperaturePhase))
	// Offset the humidity wave a quarter period so the two traces do
	// not move in lockstep.
	h := baseHumidity + humiditySwing*math.Sin(2*math.Pi*float64(elapsed+humidityPhase/4)/float64(humidityPhase))
	return t, h, nil
}
