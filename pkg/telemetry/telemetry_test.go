package telemetry

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/roverworks/go-rover5/pkg/ambient"
	"github.com/roverworks/go-rover5/pkg/odometry"
)

type stubDuty struct{ left, right int16 }

func (s stubDuty) Last() (int16, int16) { return s.left, s.right }

type stubOdom struct{ left, right odometry.WheelSnapshot }

func (s stubOdom) Snapshot() (odometry.WheelSnapshot, odometry.WheelSnapshot) {
	return s.left, s.right
}

type stubAmbient struct{ reading ambient.Reading }

func (s stubAmbient) Latest() ambient.Reading { return s.reading }

func TestBuilder_MapsSources(t *testing.T) {
	builder := NewBuilder(
		stubDuty{left: 128, right: -90},
		stubOdom{
			left:  odometry.WheelSnapshot{Count: 1000, RPM: 42.5, Distance: 3.25},
			right: odometry.WheelSnapshot{Count: -500, RPM: -10.0, Distance: -1.5},
		},
		stubAmbient{reading: ambient.Reading{Temperature: 23.5, Humidity: 41.0, Valid: true}},
		StubBattery{Volts: NominalPackVoltage},
	)

	now := time.Now()
	frame := builder.Build(now)

	if frame.LeftPWM != 128 || frame.RightPWM != -90 {
		t.Errorf("pwm: got (%d,%d), want (128,-90)", frame.LeftPWM, frame.RightPWM)
	}
	if frame.LeftCount != 1000 || frame.RightCount != -500 {
		t.Errorf("counts: got (%d,%d), want (1000,-500)", frame.LeftCount, frame.RightCount)
	}
	if frame.LeftRPM != 42.5 || frame.RightRPM != -10.0 {
		t.Errorf("rpm: got (%v,%v), want (42.5,-10)", frame.LeftRPM, frame.RightRPM)
	}
	if frame.LeftDistance != 3.25 || frame.RightDistance != -1.5 {
		t.Errorf("distance: got (%v,%v), want (3.25,-1.5)", frame.LeftDistance, frame.RightDistance)
	}
	if frame.BatteryVoltage != NominalPackVoltage {
		t.Errorf("battery: got %v, want %v", frame.BatteryVoltage, NominalPackVoltage)
	}
	if frame.Temperature != 23.5 || frame.Humidity != 41.0 || !frame.DHTValid {
		t.Errorf("ambient: got (%v,%v,%v)", frame.Temperature, frame.Humidity, frame.DHTValid)
	}
	if frame.Timestamp != now.UnixMilli() {
		t.Errorf("timestamp: got %d, want %d", frame.Timestamp, now.UnixMilli())
	}
}

func TestBuilder_InvalidAmbientReportsZeroes(t *testing.T) {
	builder := NewBuilder(
		stubDuty{},
		stubOdom{},
		stubAmbient{reading: ambient.Reading{Temperature: 99, Humidity: 99, Valid: false}},
		StubBattery{Volts: NominalPackVoltage},
	)

	frame := builder.Build(time.Now())
	if frame.DHTValid {
		t.Error("dht_valid: got true, want false")
	}
	if frame.Temperature != 0 || frame.Humidity != 0 {
		t.Errorf("stale ambient leaked into frame: (%v,%v)", frame.Temperature, frame.Humidity)
	}
}

func TestBuilder_NilOptionalSources(t *testing.T) {
	builder := NewBuilder(stubDuty{}, stubOdom{}, nil, nil)

	frame := builder.Build(time.Now())
	if frame.BatteryVoltage != 0 {
		t.Errorf("battery with nil source: got %v, want 0", frame.BatteryVoltage)
	}
	if frame.DHTValid {
		t.Error("dht_valid with nil source: got true, want false")
	}
}

func TestBuilder_UptimeCountsFromStart(t *testing.T) {
	builder := NewBuilder(stubDuty{}, stubOdom{}, nil, nil)

	frame := builder.Build(time.Now().Add(5 * time.Second))
	if frame.Uptime < 5 || frame.Uptime > 6 {
		t.Errorf("uptime: got %d, want 5", frame.Uptime)
	}
}

// recordingSink captures published frames
type recordingSink struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
}

func (s *recordingSink) Publish(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func TestMultiSink_ContinuesAfterError(t *testing.T) {
	failErr := errors.New("uplink down")
	failing := &recordingSink{err: failErr}
	healthy := &recordingSink{}

	multi := MultiSink{failing, healthy}
	err := multi.Publish([]byte(`{"type":"telemetry"}`))

	if !errors.Is(err, failErr) {
		t.Errorf("Publish error: got %v, want %v", err, failErr)
	}
	if healthy.count() != 1 {
		t.Errorf("healthy sink frames: got %d, want 1", healthy.count())
	}
}

func TestMultiSink_NoSinks(t *testing.T) {
	if err := (MultiSink{}).Publish([]byte("{}")); err != nil {
		t.Errorf("empty MultiSink Publish: got %v, want nil", err)
	}
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages [][]byte
}

func (b *recordingBroadcaster) Broadcast(message []byte) {
	b.mu.Lock()
	b.messages = append(b.messages, message)
	b.mu.Unlock()
}

func TestBroadcastSink_ForwardsFrames(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	sink := BroadcastSink{B: broadcaster}

	if err := sink.Publish([]byte("frame")); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	if len(broadcaster.messages) != 1 || string(broadcaster.messages[0]) != "frame" {
		t.Errorf("broadcast messages: got %q", broadcaster.messages)
	}
}
