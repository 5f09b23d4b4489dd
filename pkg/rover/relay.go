package rover

// Command is one joystick sample from the operator: polar stick position
// plus the sender-side capture time in milliseconds.
type Command struct {
	Angle     float64
	Magnitude float64
	Timestamp int64
}

// Relay is the single-slot hand-off between the network side and the
// control loop. Producers never block and never queue: an unconsumed
// command is overwritten, because for a live joystick a stale sample is
// worse than a lost one.
type Relay struct {
	slot chan Command
}

// NewRelay creates an empty relay.
func NewRelay() *Relay {
	return &Relay{
		slot: make(chan Command, 1),
	}
}

// Offer replaces any pending command with cmd. Never blocks.
func (r *Relay) Offer(cmd Command) {
	for {
		select {
		case r.slot <- cmd:
			return
		default:
		}

		// Slot occupied: discard the stale command and try again.
		select {
		case <-r.slot:
		default:
		}
	}
}

// TryTake returns the pending command without blocking. The second
// return is false when nothing new arrived since the last take.
func (r *Relay) TryTake() (Command, bool) {
	select {
	case cmd := <-r.slot:
		return cmd, true
	default:
		return Command{}, false
	}
}
