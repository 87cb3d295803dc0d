package canbus

import "time"

// Transport is the bus driver boundary. Implementations must tolerate one
// goroutine calling Send while another calls Receive; the correlator shares a
// single handle between its ingest loop and the command path without adding
// locks of its own.
type Transport interface {
	// Send queues one frame for transmission. A send failure is local to
	// the one frame; the handle stays usable.
	Send(Frame) error

	// Receive blocks for at most timeout and returns the next inbound
	// frame. ok=false with a nil error means the timeout elapsed quietly;
	// short timeouts are how callers keep shutdown latency bounded.
	Receive(timeout time.Duration) (f Frame, ok bool, err error)

	Close() error
}
