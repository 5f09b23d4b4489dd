package rover

import (
	"sync/atomic"
	"time"

	"github.com/roverworks/go-rover5/internal/log"
	"github.com/roverworks/go-rover5/pkg/odometry"
	"github.com/roverworks/go-rover5/pkg/protocol"
	"github.com/roverworks/go-rover5/pkg/telemetry"
)

// DefaultTelemetryRate is the nominal telemetry period (10 Hz).
const DefaultTelemetryRate = 100 * time.Millisecond

// TelemetryLoop samples odometry and publishes snapshots at a fixed
// rate. It never blocks on the relay or the control loop: the only
// shared state it touches is the governor's last-commanded duty cells
// and the tracker it owns.
type TelemetryLoop struct {
	tracker *odometry.Tracker
	builder *telemetry.Builder
	sink    telemetry.Sink

	// Odometry clears are requested from other goroutines via this
	// flag and applied at the top of the next tick, so all tracker
	// mutation stays on the loop's goroutine.
	clear *atomic.Bool

	rate time.Duration
	stop chan struct{}

	tickCount  atomic.Uint64
	errorCount atomic.Uint64
}

// NewTelemetryLoop creates a telemetry loop. sink may be nil for
// headless runs; odometry is still sampled each tick.
func NewTelemetryLoop(tracker *odometry.Tracker, builder *telemetry.Builder, sink telemetry.Sink, clear *atomic.Bool, rate time.Duration) *TelemetryLoop {
	if rate <= 0 {
		rate = DefaultTelemetryRate
	}
	if clear == nil {
		clear = new(atomic.Bool)
	}
	return &TelemetryLoop{
		tracker: tracker,
		builder: builder,
		sink:    sink,
		clear:   clear,
		rate:    rate,
		stop:    make(chan struct{}),
	}
}

// Run starts the telemetry loop. Blocks until Stop is called.
func (l *TelemetryLoop) Run() {
	ticker := time.NewTicker(l.rate)
	defer ticker.Stop()

	log.Info("telemetry loop started", "rate_hz", 1.0/l.rate.Seconds())

	for {
		select {
		case <-l.stop:
			log.Info("telemetry loop stopped", "ticks", l.tickCount.Load())
			return
		case <-ticker.C:
			l.tick()
		}
	}
}

// Stop halts the telemetry loop.
func (l *TelemetryLoop) Stop() {
	close(l.stop)
}

// tick executes one telemetry cycle: apply any pending clear, sample
// both wheels at one instant, then assemble and publish a snapshot.
func (l *TelemetryLoop) tick() {
	l.tickCount.Add(1)
	now := time.Now()

	if l.clear.Swap(false) {
		l.tracker.Clear()
		log.Info("odometry cleared")
	}

	if err := l.tracker.Sample(now); err != nil {
		// The failed wheel keeps its previous rpm/distance; sampling
		// resumes next tick.
		n := l.errorCount.Add(1)
		if n%50 == 1 {
			log.Warn("odometry sample failed", "error", err, "failures", n)
		}
	}

	if l.sink == nil {
		return
	}

	msg, err := protocol.NewTelemetryMessage(l.builder.Build(now))
	if err != nil {
		return
	}
	frame, err := msg.Bytes()
	if err != nil {
		return
	}
	if err := l.sink.Publish(frame); err != nil {
		n := l.errorCount.Add(1)
		if n%50 == 1 {
			log.Warn("telemetry publish failed", "error", err, "failures", n)
		}
	}
}

// Stats returns the loop's diagnostic counters.
func (l *TelemetryLoop) Stats() LoopStats {
	return LoopStats{
		Ticks:  l.tickCount.Load(),
		Errors: l.errorCount.Load(),
	}
}
