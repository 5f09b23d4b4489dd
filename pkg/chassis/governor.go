package chassis

import (
	"errors"
	"sync/atomic"

	"github.com/roverworks/go-rover5/pkg/drive"
)

// Governor is the single gate between motor commands and the H-bridge.
// It clamps duties to the hardware resolution, sequences channel writes
// so a side never has both directions energized, and remembers the last
// commanded duty pair for telemetry.
//
// Drive and Stop are meant to be called from one goroutine (the control
// loop); Last may be read from any goroutine.
type Governor struct {
	out Output

	lastLeft  atomic.Int32
	lastRight atomic.Int32
}

// NewGovernor wraps an output in a governor.
func NewGovernor(out Output) *Governor {
	return &Governor{out: out}
}

// Drive applies a motor command. Duties outside ±MaxResolution are
// clamped, not rejected. Both sides are always attempted; errors from the
// two sides are joined. The commanded pair is recorded even when a write
// fails, because it is what the loop asked for, not what the hardware
// acknowledged.
func (g *Governor) Drive(cmd drive.MotorCommand) error {
	left := clampDuty(cmd.Left)
	right := clampDuty(cmd.Right)

	err := errors.Join(
		g.driveSide(LeftFwd, LeftBwd, left),
		g.driveSide(RightFwd, RightBwd, right),
	)

	g.lastLeft.Store(int32(left))
	g.lastRight.Store(int32(right))
	return err
}

// Stop coasts both motors by zeroing all four channels.
func (g *Governor) Stop() error {
	return g.Drive(drive.MotorCommand{})
}

// Last returns the most recently commanded duty pair.
func (g *Governor) Last() (left, right int16) {
	return int16(g.lastLeft.Load()), int16(g.lastRight.Load())
}

// driveSide writes one side of the bridge. The opposite channel is zeroed
// before the active one is raised so the bridge never sees both
// directions high, even transiently. A zero duty coasts: both channels
// low.
func (g *Governor) driveSide(fwd, bwd Channel, duty int16) error {
	switch {
	case duty > 0:
		if err := g.out.SetDuty(bwd, 0); err != nil {
			return err
		}
		return g.out.SetDuty(fwd, uint8(duty))
	case duty < 0:
		if err := g.out.SetDuty(fwd, 0); err != nil {
			return err
		}
		return g.out.SetDuty(bwd, uint8(-duty))
	default:
		return errors.Join(g.out.SetDuty(fwd, 0), g.out.SetDuty(bwd, 0))
	}
}

// clampDuty restricts a duty to the PWM resolution.
func clampDuty(v int16) int16 {
	if v > drive.MaxResolution {
		return drive.MaxResolution
	}
	if v < -drive.MaxResolution {
		return -drive.MaxResolution
	}
	return v
}
