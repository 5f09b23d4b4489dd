package odometry

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

// stubCounter is a settable CountReader for testing
type stubCounter struct {
	mu    sync.Mutex
	count int16
	err   error
}

func (s *stubCounter) Count() (int16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	return s.count, nil
}

func (s *stubCounter) set(v int16) {
	s.mu.Lock()
	s.count = v
	s.mu.Unlock()
}

func (s *stubCounter) advance(d int16) {
	s.mu.Lock()
	s.count += d
	s.mu.Unlock()
}

func (s *stubCounter) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func newTestTracker() (*Tracker, *stubCounter, *stubCounter) {
	left := &stubCounter{}
	right := &stubCounter{}
	return NewTracker(left, right), left, right
}

func TestCountsPerRev(t *testing.T) {
	if got := CountsPerRev(1000); !floatEquals(got, 4000.0/3.0) {
		t.Errorf("CountsPerRev(1000): got %v, want %v", got, 4000.0/3.0)
	}
	if !floatEquals(DefaultCountsPerRev, CountsPerRev(DefaultPulsesPerThreeRevs)) {
		t.Errorf("DefaultCountsPerRev %v does not match CountsPerRev(%d)", DefaultCountsPerRev, DefaultPulsesPerThreeRevs)
	}
}

func TestTracker_FirstSampleSeedsOnly(t *testing.T) {
	tracker, left, right := newTestTracker()
	left.set(500)
	right.set(-200)

	if err := tracker.Sample(time.Now()); err != nil {
		t.Fatalf("Sample returned error: %v", err)
	}

	l, r := tracker.Snapshot()
	if l.Count != 0 || r.Count != 0 {
		t.Errorf("counts after seed: got (%d,%d), want (0,0)", l.Count, r.Count)
	}
	if l.RPM != 0 || l.Distance != 0 {
		t.Errorf("left after seed: rpm=%v distance=%v, want zero", l.RPM, l.Distance)
	}
}

func TestTracker_AccumulatesCountsRPMDistance(t *testing.T) {
	tracker, left, right := newTestTracker()
	t0 := time.Now()

	if err := tracker.Sample(t0); err != nil {
		t.Fatalf("seed Sample returned error: %v", err)
	}

	// 1000 counts in 500ms is 0.75 revolutions: 90 RPM.
	left.set(1000)
	right.set(1000)
	if err := tracker.Sample(t0.Add(500 * time.Millisecond)); err != nil {
		t.Fatalf("Sample returned error: %v", err)
	}

	l, r := tracker.Snapshot()
	if l.Count != 1000 || r.Count != 1000 {
		t.Fatalf("counts: got (%d,%d), want (1000,1000)", l.Count, r.Count)
	}
	if !floatEquals(l.RPM, 90) {
		t.Errorf("left rpm: got %v, want 90", l.RPM)
	}
	wantDist := 0.75 * math.Pi * 65.0 / 1000.0
	if !floatEquals(l.Distance, wantDist) {
		t.Errorf("left distance: got %v, want %v", l.Distance, wantDist)
	}
	if !floatEquals(r.Distance, wantDist) {
		t.Errorf("right distance: got %v, want %v", r.Distance, wantDist)
	}
}

func TestTracker_BackwardDecreasesDistance(t *testing.T) {
	tracker, left, right := newTestTracker()
	t0 := time.Now()
	tracker.Sample(t0)

	left.set(-500)
	right.set(-500)
	tracker.Sample(t0.Add(time.Second))

	l, _ := tracker.Snapshot()
	if l.Count != -500 {
		t.Errorf("count: got %d, want -500", l.Count)
	}
	if l.RPM >= 0 {
		t.Errorf("rpm: got %v, want negative", l.RPM)
	}
	if l.Distance >= 0 {
		t.Errorf("distance: got %v, want negative", l.Distance)
	}
}

func TestTracker_WrapAroundForward(t *testing.T) {
	tracker, left, right := newTestTracker()
	t0 := time.Now()

	left.set(32000)
	right.set(32000)
	tracker.Sample(t0)

	// 32000 + 800 wraps the int16 counter to -32736. The delta must come
	// out as +800, not -64736.
	left.set(-32736)
	right.set(-32736)
	if err := tracker.Sample(t0.Add(time.Second)); err != nil {
		t.Fatalf("Sample returned error: %v", err)
	}

	l, r := tracker.Snapshot()
	if l.Count != 800 || r.Count != 800 {
		t.Errorf("counts across wrap: got (%d,%d), want (800,800)", l.Count, r.Count)
	}
	if l.Distance <= 0 {
		t.Errorf("distance across wrap: got %v, want positive", l.Distance)
	}
}

func TestTracker_WrapAroundBackward(t *testing.T) {
	tracker, left, right := newTestTracker()
	t0 := time.Now()

	left.set(-32000)
	right.set(-32000)
	tracker.Sample(t0)

	// -32000 - 800 wraps to 32736.
	left.set(32736)
	right.set(32736)
	tracker.Sample(t0.Add(time.Second))

	l, _ := tracker.Snapshot()
	if l.Count != -800 {
		t.Errorf("count across backward wrap: got %d, want -800", l.Count)
	}
	if l.Distance >= 0 {
		t.Errorf("distance across backward wrap: got %v, want negative", l.Distance)
	}
}

func TestTracker_DistanceAdditiveAcrossSamples(t *testing.T) {
	split, splitLeft, splitRight := newTestTracker()
	whole, wholeLeft, wholeRight := newTestTracker()
	t0 := time.Now()

	split.Sample(t0)
	whole.Sample(t0)

	// Same 700 counts over the same second, sampled in two steps vs one.
	splitLeft.set(300)
	splitRight.set(300)
	split.Sample(t0.Add(400 * time.Millisecond))
	splitLeft.set(700)
	splitRight.set(700)
	split.Sample(t0.Add(time.Second))

	wholeLeft.set(700)
	wholeRight.set(700)
	whole.Sample(t0.Add(time.Second))

	sl, _ := split.Snapshot()
	wl, _ := whole.Snapshot()
	if sl.Count != wl.Count {
		t.Errorf("counts: split %d, whole %d", sl.Count, wl.Count)
	}
	if !floatEquals(sl.Distance, wl.Distance) {
		t.Errorf("distance: split %v, whole %v", sl.Distance, wl.Distance)
	}
}

func TestTracker_ZeroDeltaTimeKeepsCounts(t *testing.T) {
	tracker, left, right := newTestTracker()
	t0 := time.Now()
	tracker.Sample(t0)

	left.set(100)
	right.set(100)
	t1 := t0.Add(time.Second)
	tracker.Sample(t1)
	l1, _ := tracker.Snapshot()

	// A second sample at the same timestamp must not divide by zero. The
	// counts still accumulate; rate and distance stay as they were.
	left.set(150)
	right.set(150)
	if err := tracker.Sample(t1); err != nil {
		t.Fatalf("Sample at repeated timestamp returned error: %v", err)
	}

	l2, _ := tracker.Snapshot()
	if l2.Count != 150 {
		t.Errorf("count: got %d, want 150", l2.Count)
	}
	if !floatEquals(l2.RPM, l1.RPM) {
		t.Errorf("rpm changed across zero-dt sample: got %v, want %v", l2.RPM, l1.RPM)
	}
	if !floatEquals(l2.Distance, l1.Distance) {
		t.Errorf("distance changed across zero-dt sample: got %v, want %v", l2.Distance, l1.Distance)
	}
}

func TestTracker_ClearZeroesAggregates(t *testing.T) {
	tracker, left, right := newTestTracker()
	t0 := time.Now()
	tracker.Sample(t0)

	left.set(1000)
	right.set(1000)
	tracker.Sample(t0.Add(time.Second))

	tracker.Clear()
	l, r := tracker.Snapshot()
	if l.Count != 0 || r.Count != 0 {
		t.Errorf("counts after Clear: got (%d,%d), want (0,0)", l.Count, r.Count)
	}
	if l.RPM != 0 || l.Distance != 0 {
		t.Errorf("left after Clear: rpm=%v distance=%v, want zero", l.RPM, l.Distance)
	}

	// Baselines survive Clear: only motion after the reset counts.
	left.set(1200)
	right.set(1200)
	tracker.Sample(t0.Add(2 * time.Second))
	l, _ = tracker.Snapshot()
	if l.Count != 200 {
		t.Errorf("count after Clear and motion: got %d, want 200", l.Count)
	}
}

func TestTracker_PauseDiscardsMotion(t *testing.T) {
	tracker, left, right := newTestTracker()
	t0 := time.Now()
	tracker.Sample(t0)

	left.set(100)
	right.set(100)
	tracker.Sample(t0.Add(time.Second))

	tracker.Pause()
	if !tracker.Paused() {
		t.Fatal("Paused: got false, want true")
	}

	// Motion while paused must not appear in the totals.
	left.advance(500)
	right.advance(500)
	tracker.Sample(t0.Add(2 * time.Second))

	tracker.Resume()
	tracker.Sample(t0.Add(3 * time.Second)) // re-seeds baselines

	left.advance(50)
	right.advance(50)
	tracker.Sample(t0.Add(4 * time.Second))

	l, _ := tracker.Snapshot()
	if l.Count != 150 {
		t.Errorf("count: got %d, want 150 (pause interval discarded)", l.Count)
	}
}

func TestTracker_SideErrorDoesNotBlockOther(t *testing.T) {
	tracker, left, right := newTestTracker()
	t0 := time.Now()
	tracker.Sample(t0)

	readErr := errors.New("counter read timeout")
	left.fail(readErr)
	right.set(100)

	err := tracker.Sample(t0.Add(time.Second))
	if !errors.Is(err, readErr) {
		t.Fatalf("Sample error: got %v, want %v", err, readErr)
	}
	if !strings.Contains(err.Error(), "left encoder") {
		t.Errorf("error %q does not name the failing side", err)
	}

	l, r := tracker.Snapshot()
	if r.Count != 100 {
		t.Errorf("right count: got %d, want 100", r.Count)
	}
	if l.Count != 0 {
		t.Errorf("left count: got %d, want 0", l.Count)
	}

	// After recovery the left side catches up with the full delta.
	left.fail(nil)
	left.set(70)
	if err := tracker.Sample(t0.Add(2 * time.Second)); err != nil {
		t.Fatalf("Sample after recovery returned error: %v", err)
	}
	l, _ = tracker.Snapshot()
	if l.Count != 70 {
		t.Errorf("left count after recovery: got %d, want 70", l.Count)
	}
}

func TestTracker_SetWheelDiameter(t *testing.T) {
	tracker, left, right := newTestTracker()
	t0 := time.Now()
	tracker.Sample(t0)

	left.set(1000)
	right.set(1000)
	tracker.Sample(t0.Add(time.Second))
	l1, _ := tracker.Snapshot()

	// Doubling the diameter doubles the distance of later intervals only.
	if err := tracker.SetWheelDiameter(130); err != nil {
		t.Fatalf("SetWheelDiameter returned error: %v", err)
	}
	if got := tracker.WheelDiameterMM(); !floatEquals(got, 130) {
		t.Errorf("WheelDiameterMM: got %v, want 130", got)
	}

	left.set(2000)
	right.set(2000)
	tracker.Sample(t0.Add(2 * time.Second))
	l2, _ := tracker.Snapshot()

	if !floatEquals(l2.Distance, 3*l1.Distance) {
		t.Errorf("distance: got %v, want %v", l2.Distance, 3*l1.Distance)
	}
}

func TestTracker_SetWheelDiameterRejectsNonPositive(t *testing.T) {
	tracker, _, _ := newTestTracker()
	if err := tracker.SetWheelDiameter(0); err == nil {
		t.Error("SetWheelDiameter(0): got nil error")
	}
	if err := tracker.SetWheelDiameter(-65); err == nil {
		t.Error("SetWheelDiameter(-65): got nil error")
	}
}

func TestTracker_SetCountsPerRev(t *testing.T) {
	tracker, left, right := newTestTracker()
	if err := tracker.SetCountsPerRev(-1); err == nil {
		t.Fatal("SetCountsPerRev(-1): got nil error")
	}

	// 600 pulses per three revolutions is 800 counts per revolution, so
	// an 800-count delta is exactly one wheel turn.
	if err := tracker.SetCountsPerRev(CountsPerRev(600)); err != nil {
		t.Fatalf("SetCountsPerRev returned error: %v", err)
	}

	t0 := time.Now()
	tracker.Sample(t0)
	left.set(800)
	right.set(800)
	tracker.Sample(t0.Add(time.Second))

	l, _ := tracker.Snapshot()
	wantDist := math.Pi * 65.0 / 1000.0
	if !floatEquals(l.Distance, wantDist) {
		t.Errorf("distance for one revolution: got %v, want %v", l.Distance, wantDist)
	}
	if !floatEquals(l.RPM, 60) {
		t.Errorf("rpm for one revolution per second: got %v, want 60", l.RPM)
	}
}
