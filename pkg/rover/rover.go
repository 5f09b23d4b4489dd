// Package rover wires the drive mapper, actuation governor, and odometry
// tracker into the two periodic loops that run the vehicle:
// - the control loop (50 Hz) consumes relayed joystick commands and
//   drives the chassis, forcing a stop when commands go silent
// - the telemetry loop (10 Hz) samples odometry and publishes snapshots
// The loops share no call path; they communicate through the single-slot
// Relay, the governor's last-commanded duty cells, one atomic
// configuration pointer, and one atomic odometry-clear flag.
package rover

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roverworks/go-rover5/internal/log"
	"github.com/roverworks/go-rover5/pkg/chassis"
	"github.com/roverworks/go-rover5/pkg/drive"
	"github.com/roverworks/go-rover5/pkg/odometry"
	"github.com/roverworks/go-rover5/pkg/protocol"
	"github.com/roverworks/go-rover5/pkg/telemetry"
)

// Config params accepted over the WebSocket config channel and the REST
// config endpoint.
const (
	ParamControlMode   = "control_mode"
	ParamPreset        = "preset"
	ParamCurve         = "curve"
	ParamInvertLeft    = "invert_left"
	ParamInvertRight   = "invert_right"
	ParamWheelDiameter = "wheel_diameter_mm"
	ParamOdometryReset = "odometry_reset"
)

// customPreset is reported once a manual mode/curve change diverges from
// the last applied preset.
const customPreset = "custom"

// Options configures a Rover. Output and both encoders are required;
// everything else has defaults.
type Options struct {
	Output       chassis.Output
	LeftEncoder  odometry.CountReader
	RightEncoder odometry.CountReader

	// Optional telemetry pass-through providers.
	Ambient telemetry.AmbientSource
	Battery telemetry.BatterySource

	// Sink receives the telemetry frames. May be nil for headless runs.
	Sink telemetry.Sink

	// Encoder geometry overrides. Zero keeps the stock Rover 5 values.
	WheelDiameterMM float64
	CountsPerRev    float64

	ControlRate   time.Duration
	TelemetryRate time.Duration
}

// Rover owns the full motion-control pipeline and its two loops.
type Rover struct {
	relay    *Relay
	governor *chassis.Governor
	tracker  *odometry.Tracker
	builder  *telemetry.Builder

	control *ControlLoop
	telem   *TelemetryLoop

	cfg      atomic.Pointer[drive.Config]
	clearReq atomic.Bool

	mu      sync.Mutex
	preset  string
	running bool

	started time.Time
}

// New assembles a Rover from its hardware-facing parts.
func New(opts Options) (*Rover, error) {
	if opts.Output == nil {
		return nil, errors.New("rover: motor output is required")
	}
	if opts.LeftEncoder == nil || opts.RightEncoder == nil {
		return nil, errors.New("rover: both encoders are required")
	}

	r := &Rover{
		relay:    NewRelay(),
		governor: chassis.NewGovernor(opts.Output),
		tracker:  odometry.NewTracker(opts.LeftEncoder, opts.RightEncoder),
		started:  time.Now(),
	}

	if opts.WheelDiameterMM > 0 {
		if err := r.tracker.SetWheelDiameter(opts.WheelDiameterMM); err != nil {
			return nil, err
		}
	}
	if opts.CountsPerRev > 0 {
		if err := r.tracker.SetCountsPerRev(opts.CountsPerRev); err != nil {
			return nil, err
		}
	}

	// The stock tuning is exactly the "normal" preset.
	cfg := drive.DefaultConfig()
	r.cfg.Store(&cfg)
	r.preset = drive.PresetNormal.String()

	r.builder = telemetry.NewBuilder(r.governor, r.tracker, opts.Ambient, opts.Battery)
	r.control = NewControlLoop(r.relay, r.governor, r.Config, opts.ControlRate)
	r.telem = NewTelemetryLoop(r.tracker, r.builder, opts.Sink, &r.clearReq, opts.TelemetryRate)

	return r, nil
}

// Start launches both loops. Safe to call once.
func (r *Rover) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true

	go r.control.Run()
	go r.telem.Run()
	log.Info("rover started", "mode", r.cfg.Load().Mode.String(), "preset", r.preset)
}

// Stop halts both loops and forces the chassis to a stop.
func (r *Rover) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.running = false

	r.control.Stop()
	r.telem.Stop()
	if err := r.governor.Stop(); err != nil {
		log.Warn("final chassis stop failed", "error", err)
	}
	log.Info("rover stopped")
}

// Push relays a joystick command toward the control loop. Never blocks;
// an unconsumed previous command is overwritten.
func (r *Rover) Push(cmd Command) {
	r.relay.Offer(cmd)
}

// Config returns the current drive configuration as a value.
func (r *Rover) Config() drive.Config {
	return *r.cfg.Load()
}

// swapConfig installs fn's result as the new configuration in one store,
// so a mapping cycle never sees a half-applied change. An empty preset
// keeps the current preset name.
func (r *Rover) swapConfig(fn func(drive.Config) drive.Config, preset string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := fn(*r.cfg.Load())
	r.cfg.Store(&next)
	if preset != "" {
		r.preset = preset
	}
}

// SetMode switches the joystick mapping mode.
func (r *Rover) SetMode(name string) error {
	mode, err := drive.ParseMode(name)
	if err != nil {
		return err
	}
	r.swapConfig(func(c drive.Config) drive.Config {
		c.Mode = mode
		return c
	}, customPreset)
	log.Info("control mode changed", "mode", mode.String())
	return nil
}

// SetCurve switches the response curve.
func (r *Rover) SetCurve(name string) error {
	curve, err := drive.ParseCurve(name)
	if err != nil {
		return err
	}
	r.swapConfig(func(c drive.Config) drive.Config {
		c.Curve = curve
		return c
	}, customPreset)
	log.Info("response curve changed", "curve", curve.String())
	return nil
}

// ApplyPreset installs a named preset as the complete configuration.
// Per-side inversion is carried over; presets do not own it.
func (r *Rover) ApplyPreset(name string) error {
	preset, err := drive.ParsePreset(name)
	if err != nil {
		return err
	}
	r.swapConfig(preset.Apply, preset.String())
	log.Info("preset applied", "preset", preset.String())
	return nil
}

// SetInversion sets both per-side inversion flags.
func (r *Rover) SetInversion(left, right bool) {
	r.swapConfig(func(c drive.Config) drive.Config {
		c.InvertLeft = left
		c.InvertRight = right
		return c
	}, "")
	log.Info("inversion changed", "left", left, "right", right)
}

// SetWheelDiameter adjusts the odometry geometry immediately.
func (r *Rover) SetWheelDiameter(mm float64) error {
	if err := r.tracker.SetWheelDiameter(mm); err != nil {
		return err
	}
	log.Info("wheel diameter changed", "mm", mm)
	return nil
}

// WheelDiameterMM reports the current odometry wheel diameter.
func (r *Rover) WheelDiameterMM() float64 {
	return r.tracker.WheelDiameterMM()
}

// ResetOdometry requests a counter/distance clear. The clear is applied
// by the telemetry loop at its next tick, keeping all tracker mutation
// on that goroutine.
func (r *Rover) ResetOdometry() {
	r.clearReq.Store(true)
}

// ApplyConfig dispatches one param/value change from the operator.
// Unknown params and unparseable values are rejected without touching
// any state.
func (r *Rover) ApplyConfig(param, value string) error {
	switch param {
	case ParamControlMode:
		return r.SetMode(value)

	case ParamPreset:
		return r.ApplyPreset(value)

	case ParamCurve:
		return r.SetCurve(value)

	case ParamInvertLeft:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invert_left: %w", err)
		}
		r.swapConfig(func(c drive.Config) drive.Config {
			c.InvertLeft = v
			return c
		}, "")
		log.Info("inversion changed", "left", v)
		return nil

	case ParamInvertRight:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invert_right: %w", err)
		}
		r.swapConfig(func(c drive.Config) drive.Config {
			c.InvertRight = v
			return c
		}, "")
		log.Info("inversion changed", "right", v)
		return nil

	case ParamWheelDiameter:
		mm, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("wheel_diameter_mm: %w", err)
		}
		return r.SetWheelDiameter(mm)

	case ParamOdometryReset:
		r.ResetOdometry()
		return nil

	default:
		return fmt.Errorf("unknown config param %q", param)
	}
}

// Status reports mode, preset, and uptime for status frames.
func (r *Rover) Status() protocol.StatusData {
	cfg := r.Config()
	r.mu.Lock()
	preset := r.preset
	r.mu.Unlock()

	return protocol.StatusData{
		Mode:    cfg.Mode.String(),
		Preset:  preset,
		UptimeS: int64(time.Since(r.started).Seconds()),
	}
}

// Snapshot assembles a telemetry snapshot outside the loop cadence, for
// the REST status path.
func (r *Rover) Snapshot() protocol.TelemetryData {
	return r.builder.Build(time.Now())
}

// ControlStats returns the control loop's diagnostic counters.
func (r *Rover) ControlStats() LoopStats {
	return r.control.Stats()
}

// TelemetryStats returns the telemetry loop's diagnostic counters.
func (r *Rover) TelemetryStats() LoopStats {
	return r.telem.Stats()
}
