// Package chassis turns signed motor commands into safe H-bridge channel
// writes. The Governor owns the invariant that a side never has both of
// its channels energized at once: the opposite channel is always zeroed
// before the active one is raised.
package chassis

import "fmt"

// Channel identifies one of the four H-bridge PWM channels. Each side of
// the drivetrain has a forward and a backward channel.
type Channel int

const (
	LeftFwd Channel = iota
	LeftBwd
	RightFwd
	RightBwd
)

var channelNames = [...]string{"left_fwd", "left_bwd", "right_fwd", "right_bwd"}

func (ch Channel) String() string {
	if ch < 0 || int(ch) >= len(channelNames) {
		return fmt.Sprintf("channel(%d)", int(ch))
	}
	return channelNames[ch]
}

// Output drives the raw PWM channels. Implementations are the real
// vehicle (an HTTP bridge to the motor controller) and the simulator.
// SetDuty must be safe for sequential use from a single goroutine.
type Output interface {
	SetDuty(ch Channel, duty uint8) error
}
