package odometry

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// WheelSnapshot is one wheel's accumulated odometry at a point in time.
// Count and Distance are signed: driving backward decreases both.
type WheelSnapshot struct {
	Count    int64
	RPM      float64
	Distance float64
}

// wheelState tracks one wheel between samples. The count baseline is the
// raw int16 reading; deltas are computed in int16 arithmetic so a counter
// wrap between samples cancels out, then widened into the running total.
type wheelState struct {
	seeded   bool
	last     int16
	lastTime time.Time
	total    int64
	rpm      float64
	distance float64
}

// observe folds one counter reading into the wheel. The first reading
// after construction or a resume only seeds the baseline. When the clock
// has not advanced, the count still accumulates but rate and distance for
// the interval are skipped rather than divided by zero.
func (w *wheelState) observe(current int16, now time.Time, countsPerRev, circumference float64) {
	if !w.seeded {
		w.last = current
		w.lastTime = now
		w.seeded = true
		return
	}

	delta := current - w.last
	w.total += int64(delta)

	if dt := now.Sub(w.lastTime); dt > 0 {
		revolutions := float64(delta) / countsPerRev
		w.rpm = revolutions / dt.Minutes()
		w.distance += revolutions * circumference
	}

	w.last = current
	w.lastTime = now
}

func (w *wheelState) snapshot() WheelSnapshot {
	return WheelSnapshot{Count: w.total, RPM: w.rpm, Distance: w.distance}
}

// Tracker accumulates odometry for both wheels. Sample is called from the
// telemetry loop; snapshots and tuning changes may come from any goroutine.
type Tracker struct {
	left  CountReader
	right CountReader

	mu            sync.Mutex
	lw, rw        wheelState
	countsPerRev  float64
	diameterMM    float64
	circumference float64
	paused        bool
}

// NewTracker creates a tracker over two counters with the stock Rover 5
// geometry. Accumulation starts from each counter's first successful
// reading.
func NewTracker(left, right CountReader) *Tracker {
	return &Tracker{
		left:          left,
		right:         right,
		countsPerRev:  DefaultCountsPerRev,
		diameterMM:    DefaultWheelDiameterMM,
		circumference: circumferenceM(DefaultWheelDiameterMM),
	}
}

// Sample reads both counters against a single timestamp and folds the
// deltas into the totals. A read failure on one side does not block the
// other; errors from the two sides are joined. While paused, Sample does
// nothing.
func (t *Tracker) Sample(now time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.paused {
		return nil
	}

	var leftErr, rightErr error
	if count, err := t.left.Count(); err != nil {
		leftErr = fmt.Errorf("left encoder: %w", err)
	} else {
		t.lw.observe(count, now, t.countsPerRev, t.circumference)
	}
	if count, err := t.right.Count(); err != nil {
		rightErr = fmt.Errorf("right encoder: %w", err)
	} else {
		t.rw.observe(count, now, t.countsPerRev, t.circumference)
	}
	return errors.Join(leftErr, rightErr)
}

// Snapshot returns both wheels as one consistent pair.
func (t *Tracker) Snapshot() (left, right WheelSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lw.snapshot(), t.rw.snapshot()
}

// Clear zeroes the accumulated counts, distances and rates. Baselines are
// kept, so accumulation continues seamlessly from the next sample.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lw.total, t.lw.rpm, t.lw.distance = 0, 0, 0
	t.rw.total, t.rw.rpm, t.rw.distance = 0, 0, 0
}

// Pause stops accumulation. Counter motion while paused is discarded.
func (t *Tracker) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = true
}

// Resume restarts accumulation. Both baselines are re-seeded from the
// next reading so the pause interval does not appear as a jump.
func (t *Tracker) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.paused {
		return
	}
	t.paused = false
	t.lw.seeded = false
	t.rw.seeded = false
}

// Paused reports whether accumulation is suspended.
func (t *Tracker) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// SetWheelDiameter changes the wheel diameter used for distance. It
// applies from the next sample; already accumulated distance is not
// rescaled.
func (t *Tracker) SetWheelDiameter(diameterMM float64) error {
	if diameterMM <= 0 {
		return fmt.Errorf("wheel diameter %.1f mm must be positive", diameterMM)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.diameterMM = diameterMM
	t.circumference = circumferenceM(diameterMM)
	return nil
}

// WheelDiameterMM returns the configured wheel diameter.
func (t *Tracker) WheelDiameterMM() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.diameterMM
}

// SetCountsPerRev changes the encoder resolution used for rates and
// distance.
func (t *Tracker) SetCountsPerRev(cpr float64) error {
	if cpr <= 0 {
		return fmt.Errorf("counts per revolution %.2f must be positive", cpr)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.countsPerRev = cpr
	return nil
}
