package drive

import (
	"errors"
	"fmt"
	"strings"
)

// Preset is a named drive tuning. Applying one replaces the whole
// configuration in a single step; per-side inversion is a separate runtime
// tunable and carries over unchanged.
type Preset int

const (
	// PresetGentle is smooth mode with soft limits, for new operators.
	PresetGentle Preset = iota
	// PresetNormal is the stock arcade tuning.
	PresetNormal
	// PresetAggressive is tank mode at full duty with a linear curve.
	PresetAggressive
	// PresetPrecision is car mode with a cubic curve and reduced duty.
	PresetPrecision
)

var presetNames = [...]string{"gentle", "normal", "aggressive", "precision"}

func (p Preset) String() string {
	if p < 0 || int(p) >= len(presetNames) {
		return fmt.Sprintf("preset(%d)", int(p))
	}
	return presetNames[p]
}

// ErrUnknownPreset is returned when a preset name does not parse.
var ErrUnknownPreset = errors.New("unknown preset")

// ParsePreset resolves a preset name, case-insensitively.
func ParsePreset(s string) (Preset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gentle":
		return PresetGentle, nil
	case "normal":
		return PresetNormal, nil
	case "aggressive":
		return PresetAggressive, nil
	case "precision":
		return PresetPrecision, nil
	}
	return PresetNormal, fmt.Errorf("%w: %q", ErrUnknownPreset, s)
}

var presetConfigs = map[Preset]Config{
	PresetGentle: {
		Mode:       ModeSmooth,
		Curve:      CurveQuadratic,
		DeadZone:   0.10,
		TurnFactor: 0.5,
		MaxDuty:    180,
		MinDuty:    40,
	},
	PresetNormal: {
		Mode:       ModeArcade,
		Curve:      CurveQuadratic,
		DeadZone:   0.08,
		TurnFactor: 0.7,
		MaxDuty:    255,
		MinDuty:    35,
	},
	PresetAggressive: {
		Mode:       ModeTank,
		Curve:      CurveLinear,
		DeadZone:   0.05,
		TurnFactor: 1.0,
		MaxDuty:    255,
		MinDuty:    30,
	},
	PresetPrecision: {
		Mode:       ModeCar,
		Curve:      CurveCubic,
		DeadZone:   0.08,
		TurnFactor: 0.6,
		MaxDuty:    150,
		MinDuty:    40,
	},
}

// Apply returns the complete configuration for the preset, carrying the
// inversion flags over from cur. The result is a full value so callers can
// install it atomically.
func (p Preset) Apply(cur Config) Config {
	cfg, ok := presetConfigs[p]
	if !ok {
		cfg = presetConfigs[PresetNormal]
	}
	cfg.InvertLeft = cur.InvertLeft
	cfg.InvertRight = cur.InvertRight
	return cfg
}
