package rover

import (
	"sync/atomic"
	"time"

	"github.com/roverworks/go-rover5/internal/log"
	"github.com/roverworks/go-rover5/pkg/chassis"
	"github.com/roverworks/go-rover5/pkg/drive"
)

// DefaultControlRate is the nominal actuation period (50 Hz).
const DefaultControlRate = 20 * time.Millisecond

// Actuator is the chassis-facing side of the control loop.
type Actuator interface {
	Drive(cmd drive.MotorCommand) error
	Stop() error
}

var _ Actuator = (*chassis.Governor)(nil)

// ControlLoop converts relayed joystick commands into motor actuation at
// a fixed rate. A period that passes without a fresh command forces a
// stop: silence means the operator let go, or the link is gone.
type ControlLoop struct {
	relay    *Relay
	actuator Actuator
	config   func() drive.Config

	rate time.Duration
	stop chan struct{}

	// Diagnostics
	tickCount  atomic.Uint64
	starved    atomic.Uint64
	errorCount atomic.Uint64

	// True once a forced stop has been delivered; cleared by the next
	// command. Avoids re-zeroing the bridge on every idle tick.
	stopped bool
}

// NewControlLoop creates a control loop. config is read once per tick so
// a cycle always maps with one coherent configuration.
func NewControlLoop(relay *Relay, actuator Actuator, config func() drive.Config, rate time.Duration) *ControlLoop {
	if rate <= 0 {
		rate = DefaultControlRate
	}
	return &ControlLoop{
		relay:    relay,
		actuator: actuator,
		config:   config,
		rate:     rate,
		stop:     make(chan struct{}),
	}
}

// Run starts the control loop. Blocks until Stop is called.
func (l *ControlLoop) Run() {
	ticker := time.NewTicker(l.rate)
	defer ticker.Stop()

	log.Info("control loop started", "rate_hz", 1.0/l.rate.Seconds())

	for {
		select {
		case <-l.stop:
			log.Info("control loop stopped", "ticks", l.tickCount.Load())
			return
		case <-ticker.C:
			l.tick()
		}
	}
}

// Stop halts the control loop. It does not touch the chassis; callers
// that want motors off issue their own forced stop after Run returns.
func (l *ControlLoop) Stop() {
	close(l.stop)
}

// tick executes one control cycle.
func (l *ControlLoop) tick() {
	l.tickCount.Add(1)

	cmd, ok := l.relay.TryTake()
	if !ok {
		l.starved.Add(1)
		l.forceStop()
		return
	}

	l.stopped = false
	motor := drive.Map(cmd.Angle, cmd.Magnitude, l.config())
	if err := l.actuator.Drive(motor); err != nil {
		// A failed cycle never aborts the loop; the next cycle can
		// still stop the chassis.
		n := l.errorCount.Add(1)
		if n%100 == 1 {
			log.Warn("actuation failed", "error", err, "failures", n)
		}
	}
}

// forceStop zeroes the chassis once per silence window, retrying while
// the actuator keeps failing.
func (l *ControlLoop) forceStop() {
	if l.stopped {
		return
	}
	if err := l.actuator.Stop(); err != nil {
		n := l.errorCount.Add(1)
		if n%100 == 1 {
			log.Warn("forced stop failed", "error", err, "failures", n)
		}
		return
	}
	l.stopped = true
}

// LoopStats is a point-in-time diagnostic snapshot of a loop.
type LoopStats struct {
	Ticks   uint64 `json:"ticks"`
	Starved uint64 `json:"starved"`
	Errors  uint64 `json:"errors"`
}

// Stats returns the loop's diagnostic counters.
func (l *ControlLoop) Stats() LoopStats {
	return LoopStats{
		Ticks:   l.tickCount.Load(),
		Starved: l.starved.Load(),
		Errors:  l.errorCount.Load(),
	}
}
