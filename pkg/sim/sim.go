// Package sim provides a virtual chassis so the daemon and its tools can
// run without hardware. The simulated motors follow commanded duty with a
// first-order lag, and the simulated encoders integrate wheel speed into
// the same wrapping 16-bit counter window the real acquisition hardware
// exposes, closing the motor-to-odometry loop end to end.
package sim

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/roverworks/go-rover5/pkg/chassis"
	"github.com/roverworks/go-rover5/pkg/drive"
	"github.com/roverworks/go-rover5/pkg/odometry"
)

const (
	// DefaultMaxRPM is the wheel speed at full duty, roughly a stock
	// geared drivetrain on a fresh pack.
	DefaultMaxRPM = 90.0

	// DefaultTimeConstant is the motor spin-up first-order lag.
	DefaultTimeConstant = 200 * time.Millisecond
)

// wheel is one side of the simulated drivetrain.
type wheel struct {
	fwd, bwd uint8   // last written channel duties
	rpm      float64 // current speed, signed
	counts   float64 // accumulated quadrature counts, unbounded
}

// advance steps the wheel model by alpha (the lag blend for this
// interval) over dt.
func (w *wheel) advance(alpha float64, dt time.Duration, maxRPM, countsPerRev float64) {
	net := (float64(w.fwd) - float64(w.bwd)) / float64(drive.MaxResolution)
	target := net * maxRPM
	w.rpm += (target - w.rpm) * alpha
	w.counts += w.rpm / 60.0 * dt.Seconds() * countsPerRev
}

// Chassis is a virtual dual H-bridge plus both wheel encoders. It
// implements chassis.Output; the encoder views implement
// odometry.CountReader. The model advances lazily on every duty write
// and counter read, so no background goroutine is needed.
type Chassis struct {
	mu          sync.Mutex
	left, right wheel

	maxRPM       float64
	timeConstant time.Duration
	countsPerRev float64

	lastStep time.Time
	now      func() time.Time
}

var _ chassis.Output = (*Chassis)(nil)

// NewChassis creates a simulated chassis with stock geometry and
// dynamics.
func NewChassis() *Chassis {
	c := &Chassis{
		maxRPM:       DefaultMaxRPM,
		timeConstant: DefaultTimeConstant,
		countsPerRev: odometry.DefaultCountsPerRev,
		now:          time.Now,
	}
	c.lastStep = c.now()
	return c
}

// SetDuty records one channel write, advancing the model first so the
// new duty only shapes time after this call.
func (c *Chassis) SetDuty(ch chassis.Channel, duty uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step(c.now())

	switch ch {
	case chassis.LeftFwd:
		c.left.fwd = duty
	case chassis.LeftBwd:
		c.left.bwd = duty
	case chassis.RightFwd:
		c.right.fwd = duty
	case chassis.RightBwd:
		c.right.bwd = duty
	default:
		return fmt.Errorf("unknown channel %s", ch)
	}
	return nil
}

// LeftEncoder returns the left wheel's counter.
func (c *Chassis) LeftEncoder() odometry.CountReader {
	return encoder{chassis: c, left: true}
}

// RightEncoder returns the right wheel's counter.
func (c *Chassis) RightEncoder() odometry.CountReader {
	return encoder{chassis: c, left: false}
}

// Speeds returns both wheels' current modeled speed in RPM.
func (c *Chassis) Speeds() (left, right float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step(c.now())
	return c.left.rpm, c.right.rpm
}

// step advances both wheels to now.
func (c *Chassis) step(now time.Time) {
	dt := now.Sub(c.lastStep)
	if dt <= 0 {
		return
	}
	c.lastStep = now

	alpha := float64(dt) / float64(c.timeConstant)
	if alpha > 1 {
		alpha = 1
	}
	c.left.advance(alpha, dt, c.maxRPM, c.countsPerRev)
	c.right.advance(alpha, dt, c.maxRPM, c.countsPerRev)
}

// count returns one wheel's counter in the hardware's wrapping 16-bit
// window.
func (c *Chassis) count(left bool) int16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step(c.now())

	v := c.right.counts
	if left {
		v = c.left.counts
	}
	// Truncating to int16 reproduces the counter wrap exactly.
	return int16(int64(math.Round(v)))
}

// encoder is one wheel's odometry.CountReader view.
type encoder struct {
	chassis *Chassis
	left    bool
}

func (e encoder) Count() (int16, error) {
	return e.chassis.count(e.left), nil
}
