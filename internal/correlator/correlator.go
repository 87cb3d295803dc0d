// Package correlator matches inbound bus frames to the commands that caused
// them. The bus is broadcast-style and unaddressed: replies carry no request
// reference beyond echoing the first two command bytes, so correlation is by
// tag over a single outstanding-request slot.
package correlator

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zenith-polymtl/winch-motor-tools/internal/canbus"
	"github.com/zenith-polymtl/winch-motor-tools/internal/latency"
	"github.com/zenith-polymtl/winch-motor-tools/internal/observability"
)

// Config wires a correlator to its transport and side channels.
type Config struct {
	// MotorID is the arbitration id commands are addressed to.
	MotorID uint32

	// PollTimeout bounds each ingest Receive call so cancellation is
	// observed promptly. It bounds shutdown latency, not correlation
	// latency. Defaults to 100ms.
	PollTimeout time.Duration

	// Collector, when set, receives one sample per matched round trip.
	Collector *latency.Collector

	// Observer, when set, sees every inbound frame that did not match the
	// outstanding request. Unmatched traffic is not an error; the console
	// tool uses this to echo raw bus activity.
	Observer func(canbus.Frame)

	Logger zerolog.Logger
}

// pendingRequest is the single in-flight correlation context. The delivery
// channel belongs to this request alone, so a reply routed to an abandoned
// request can never reach a newer waiter.
type pendingRequest struct {
	tag     canbus.Tag
	sentAt  time.Time
	deliver chan canbus.Frame
}

// Correlator owns one command slot on the bus.
//
// Usage precondition: one request in flight per slot. Calling Send again
// before the previous round trip resolves overwrites the slot (last writer
// wins) and the earlier reply, if it still arrives, is treated as unmatched
// traffic. The correlator does not queue requests.
type Correlator struct {
	transport canbus.Transport
	cfg       Config
	motor     string
	log       zerolog.Logger

	mu      sync.Mutex
	pending *pendingRequest
}

func New(transport canbus.Transport, cfg Config) *Correlator {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 100 * time.Millisecond
	}
	return &Correlator{
		transport: transport,
		cfg:       cfg,
		motor:     formatMotor(cfg.MotorID),
		log:       cfg.Logger,
	}
}

// Send validates the payload, arms the slot with the derived tag, and writes
// the frame to the bus. A payload that is not exactly eight bytes fails
// before any transport interaction. On a transport send failure the slot is
// disarmed and the error returned; the command simply did not happen.
func (c *Correlator) Send(payload []byte) error {
	return c.SendTo(c.cfg.MotorID, payload)
}

// SendTo is Send with an explicit arbitration id.
func (c *Correlator) SendTo(id uint32, payload []byte) error {
	f, err := canbus.NewFrame(id, payload)
	if err != nil {
		return err
	}

	req := &pendingRequest{
		tag:     canbus.TagOf(f.Data),
		sentAt:  time.Now(),
		deliver: make(chan canbus.Frame, 1),
	}
	c.mu.Lock()
	c.pending = req
	c.mu.Unlock()

	if err := c.transport.Send(f); err != nil {
		c.mu.Lock()
		if c.pending == req {
			c.pending = nil
		}
		c.mu.Unlock()
		c.log.Error().Err(err).Str("data", canbus.FormatData(f.Data)).Uint32("id", id).Msg("send failed")
		return err
	}

	observability.RecordFrameSent(c.motor)
	c.log.Debug().Str("data", canbus.FormatData(f.Data)).Uint32("id", id).Msg("sent")
	return nil
}

// AwaitResponse blocks until the outstanding request is answered or timeout
// elapses. ok=false means no reply: the request is abandoned, not retried.
// With nothing outstanding it returns immediately, so a second await after a
// matched reply cannot hang.
func (c *Correlator) AwaitResponse(timeout time.Duration) (canbus.Frame, bool) {
	c.mu.Lock()
	req := c.pending
	c.mu.Unlock()
	if req == nil {
		return canbus.Frame{}, false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case f := <-req.deliver:
		return f, true
	case <-timer.C:
		c.mu.Lock()
		if c.pending == req {
			c.pending = nil
		}
		c.mu.Unlock()
		// The reply may have been delivered between timer fire and lock.
		select {
		case f := <-req.deliver:
			return f, true
		default:
		}
		observability.RecordCorrelationTimeout(c.motor)
		c.log.Warn().
			Dur("timeout", timeout).
			Str("tag", req.tag.String()).
			Msg("no response before deadline")
		return canbus.Frame{}, false
	}
}

// Run drains the transport until ctx is canceled. Exactly one Run per
// correlator; it exits within one poll timeout of cancellation.
func (c *Correlator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		f, ok, err := c.transport.Receive(c.cfg.PollTimeout)
		if err != nil {
			c.log.Warn().Err(err).Msg("receive failed")
			continue
		}
		if !ok {
			continue
		}
		observability.RecordFrameReceived(c.motor)
		c.dispatch(f)
	}
}

// dispatch routes one inbound frame: delivery to the waiter is atomic with
// clearing the slot, so the matched request can never be answered twice.
func (c *Correlator) dispatch(f canbus.Frame) {
	c.mu.Lock()
	req := c.pending
	if req != nil && req.tag.Matches(f.Data) {
		rtt := time.Since(req.sentAt)
		req.deliver <- f
		c.pending = nil
		c.mu.Unlock()

		observability.RecordFrameMatched(c.motor, rtt)
		if c.cfg.Collector != nil {
			c.cfg.Collector.Add(rtt)
		}
		c.log.Debug().
			Str("data", canbus.FormatData(f.Data)).
			Dur("rtt", rtt).
			Msg("matched response")
		return
	}
	c.mu.Unlock()

	if c.cfg.Observer != nil {
		c.cfg.Observer(f)
	}
}

func formatMotor(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}
