package telemetry

import "errors"

// Sink receives encoded telemetry frames. Implementations must not block
// the telemetry loop: drop or buffer, never stall.
type Sink interface {
	Publish(frame []byte) error
}

// Broadcaster fans a frame out to connected clients without reporting
// per-client failures. The WebSocket hub implements it.
type Broadcaster interface {
	Broadcast(message []byte)
}

// BroadcastSink adapts a Broadcaster to the Sink interface.
type BroadcastSink struct {
	B Broadcaster
}

func (s BroadcastSink) Publish(frame []byte) error {
	s.B.Broadcast(frame)
	return nil
}

// MultiSink publishes to all sinks. One sink failing does not stop the
// others; the errors are joined.
type MultiSink []Sink

func (m MultiSink) Publish(frame []byte) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Publish(frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
