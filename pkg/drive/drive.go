// Package drive maps polar joystick input to differential motor duties.
// The mapping is a pure function of the input and a DriveConfig: dead-zone
// rejection, response curve shaping, one of four mixing modes, duty scaling
// with a minimum-duty floor, and per-side inversion.
package drive

import (
	"errors"
	"fmt"
	"strings"
)

// MaxResolution is the largest representable duty magnitude (8-bit PWM).
const MaxResolution = 255

// Mode selects the joystick-to-wheels mixing algorithm.
type Mode int

const (
	// ModeArcade mixes forward and turn components additively, with the
	// turn term scaled by the configured turn factor.
	ModeArcade Mode = iota
	// ModeTank mixes the axes directly without turn factor scaling.
	ModeTank
	// ModeCar slows the inside wheel instead of adding a turn term.
	ModeCar
	// ModeSmooth is arcade with extra turn damping.
	ModeSmooth
)

var modeNames = [...]string{"arcade", "tank", "car", "smooth"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// ErrUnknownMode is returned when a mode name does not parse.
var ErrUnknownMode = errors.New("unknown control mode")

// ParseMode resolves a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arcade":
		return ModeArcade, nil
	case "tank":
		return ModeTank, nil
	case "car":
		return ModeCar, nil
	case "smooth":
		return ModeSmooth, nil
	}
	return ModeArcade, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Curve shapes the joystick magnitude before mixing.
type Curve int

const (
	CurveLinear Curve = iota
	CurveQuadratic
	CurveCubic
	CurveSqrt
)

var curveNames = [...]string{"linear", "quadratic", "cubic", "sqrt"}

func (c Curve) String() string {
	if c < 0 || int(c) >= len(curveNames) {
		return fmt.Sprintf("curve(%d)", int(c))
	}
	return curveNames[c]
}

// ErrUnknownCurve is returned when a curve name does not parse.
var ErrUnknownCurve = errors.New("unknown response curve")

// ParseCurve resolves a curve name, case-insensitively.
func ParseCurve(s string) (Curve, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return CurveLinear, nil
	case "quadratic":
		return CurveQuadratic, nil
	case "cubic":
		return CurveCubic, nil
	case "sqrt":
		return CurveSqrt, nil
	}
	return CurveLinear, fmt.Errorf("%w: %q", ErrUnknownCurve, s)
}

// MotorCommand is a signed duty pair, one per side. Positive drives
// forward, negative backward, zero coasts.
type MotorCommand struct {
	Left  int16
	Right int16
}

// IsZero reports whether both sides are zero.
func (c MotorCommand) IsZero() bool {
	return c.Left == 0 && c.Right == 0
}

// Config is the full drive mapping configuration. It is treated as an
// immutable value: changes replace the whole structure, never single
// fields, so a mapping call always sees one coherent configuration.
type Config struct {
	Mode        Mode
	Curve       Curve
	DeadZone    float64
	TurnFactor  float64
	MaxDuty     int
	MinDuty     int
	InvertLeft  bool
	InvertRight bool
}

// DefaultConfig returns the stock tuning: arcade mode, quadratic curve,
// full duty range.
func DefaultConfig() Config {
	return Config{
		Mode:       ModeArcade,
		Curve:      CurveQuadratic,
		DeadZone:   0.08,
		TurnFactor: 0.7,
		MaxDuty:    MaxResolution,
		MinDuty:    35,
	}
}

// Validate checks configuration bounds. Map itself does not validate per
// call; this is for the config-change path.
func (c Config) Validate() error {
	if c.DeadZone < 0 || c.DeadZone > 1 {
		return fmt.Errorf("dead_zone %.3f out of range [0,1]", c.DeadZone)
	}
	if c.TurnFactor < 0 || c.TurnFactor > 1 {
		return fmt.Errorf("turn_factor %.3f out of range [0,1]", c.TurnFactor)
	}
	if c.MinDuty < 0 {
		return fmt.Errorf("min_duty %d is negative", c.MinDuty)
	}
	if c.MaxDuty > MaxResolution {
		return fmt.Errorf("max_duty %d exceeds resolution %d", c.MaxDuty, MaxResolution)
	}
	if c.MinDuty > c.MaxDuty {
		return fmt.Errorf("min_duty %d exceeds max_duty %d", c.MinDuty, c.MaxDuty)
	}
	return nil
}
