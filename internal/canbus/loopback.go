package canbus

import (
	"errors"
	"sync"
	"time"
)

var ErrClosed = errors.New("canbus: transport closed")

// Loopback is an in-memory Transport for tests and dry runs. Sent frames are
// recorded; inbound traffic is injected with Inject. Send and Receive are safe
// from separate goroutines, matching the Transport contract.
type Loopback struct {
	mu     sync.Mutex
	sent   []Frame
	inbox  chan Frame
	closed bool

	// OnSend, when set, runs synchronously for every sent frame. Tests use
	// it to script controller replies.
	OnSend func(Frame)
}

func NewLoopback() *Loopback {
	return &Loopback{inbox: make(chan Frame, 64)}
}

func (l *Loopback) Send(f Frame) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.sent = append(l.sent, f)
	hook := l.OnSend
	l.mu.Unlock()
	if hook != nil {
		hook(f)
	}
	return nil
}

func (l *Loopback) Receive(timeout time.Duration) (Frame, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case f, ok := <-l.inbox:
		if !ok {
			return Frame{}, false, ErrClosed
		}
		return f, true, nil
	case <-timer.C:
		return Frame{}, false, nil
	}
}

// Inject delivers a frame as if it arrived from the bus.
func (l *Loopback) Inject(f Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.inbox <- f
}

// Sent returns a copy of everything sent so far, in order.
func (l *Loopback) Sent() []Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Frame, len(l.sent))
	copy(out, l.sent)
	return out
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	close(l.inbox)
	return nil
}
