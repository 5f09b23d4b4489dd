package odometry

// quadTable maps a quadrature state transition to a count step. The index
// is (previous<<2)|current where each state is the 2-bit pair A<<1|B.
// Valid transitions move one Gray-code step and contribute ±1; a
// double-edge transition (both lines changed at once) is noise and
// contributes 0.
var quadTable = [16]int8{
	0, +1, -1, 0,
	-1, 0, 0, +1,
	+1, 0, 0, -1,
	0, -1, +1, 0,
}

// Decoder is a software quadrature decoder in 4x mode: every edge on
// either line steps the count, giving four counts per electrical cycle.
// The count wraps at the int16 limits like the hardware counter it
// stands in for. Decoder is not synchronized; feed it from one
// goroutine.
type Decoder struct {
	state uint8
	count int16
}

// NewDecoder creates a decoder seeded with the current line levels, so
// the first real edge is not misread as a transition from 00.
func NewDecoder(a, b bool) *Decoder {
	return &Decoder{state: lineState(a, b)}
}

// Edge feeds the decoder one observation of the A/B lines and returns
// the count step it produced: +1 forward, -1 backward, 0 for no change
// or an invalid double transition.
func (d *Decoder) Edge(a, b bool) int8 {
	next := lineState(a, b)
	step := quadTable[d.state<<2|next]
	d.state = next
	d.count += int16(step)
	return step
}

// Count returns the accumulated count. It wraps at the int16 limits.
func (d *Decoder) Count() int16 {
	return d.count
}

// Clear resets the count to zero, keeping the current line state.
func (d *Decoder) Clear() {
	d.count = 0
}

func lineState(a, b bool) uint8 {
	var s uint8
	if a {
		s |= 2
	}
	if b {
		s |= 1
	}
	return s
}
