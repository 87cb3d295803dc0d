// Package torque polls the motor controller for Iq current, derives shaft
// torque, and smooths both signals in real time.
package torque

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zenith-polymtl/winch-motor-tools/internal/canbus"
	"github.com/zenith-polymtl/winch-motor-tools/internal/sigfilter"
)

// IqCommand requests the quadrature current reading.
var IqCommand = [canbus.PayloadLen]byte{0xB4, 0x09}

// DefaultTorqueConstant is the motor's Nm/A rating.
const DefaultTorqueConstant = 0.065

// CommandPort is the slice of the correlator the monitor needs.
type CommandPort interface {
	Send(payload []byte) error
	AwaitResponse(timeout time.Duration) (canbus.Frame, bool)
}

// Record is one sampled point: raw and filtered current, raw and filtered
// torque, against elapsed session time.
type Record struct {
	Time       float64 // seconds since session start
	CurrentRaw float64
	Current    float64
	TorqueRaw  float64
	Torque     float64
}

// Config sets the monitor's cadence and conversion.
type Config struct {
	Interval        time.Duration // polling interval
	ResponseTimeout time.Duration
	TorqueConstant  float64
	Filter          sigfilter.Config
	Logger          zerolog.Logger
}

// Monitor drives one polling session. Each signal stream owns its filter;
// the current and torque filters never share state.
type Monitor struct {
	port CommandPort
	cfg  Config
	log  zerolog.Logger

	currentFilter sigfilter.Filter
	torqueFilter  sigfilter.Filter

	mu      sync.Mutex
	records []Record
}

// NewMonitor validates the filter configuration up front; a bad window or
// alpha never reaches the polling loop.
func NewMonitor(port CommandPort, cfg Config) (*Monitor, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = 50 * time.Millisecond
	}
	if cfg.ResponseTimeout <= 0 {
		cfg.ResponseTimeout = 200 * time.Millisecond
	}
	if cfg.TorqueConstant == 0 {
		cfg.TorqueConstant = DefaultTorqueConstant
	}
	currentFilter, err := sigfilter.New(cfg.Filter)
	if err != nil {
		return nil, err
	}
	torqueFilter, err := sigfilter.New(cfg.Filter)
	if err != nil {
		return nil, err
	}
	return &Monitor{
		port:          port,
		cfg:           cfg,
		log:           cfg.Logger,
		currentFilter: currentFilter,
		torqueFilter:  torqueFilter,
	}, nil
}

// Run polls until ctx is canceled. Missed responses are logged and skipped;
// the loop keeps its cadence regardless.
func (m *Monitor) Run(ctx context.Context) {
	start := time.Now()
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := m.port.Send(IqCommand[:]); err != nil {
			m.log.Warn().Err(err).Msg("iq request failed")
		} else if resp, ok := m.port.AwaitResponse(m.cfg.ResponseTimeout); ok {
			m.ingest(time.Since(start), resp)
		} else {
			m.log.Debug().Msg("iq poll unanswered")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Monitor) ingest(elapsed time.Duration, resp canbus.Frame) {
	currentRaw, ok := ParseReading(resp.Data)
	if !ok {
		m.log.Warn().Str("data", canbus.FormatData(resp.Data)).Msg("unparseable iq response")
		return
	}

	current := m.currentFilter.Update(currentRaw)
	torqueRaw := currentRaw * m.cfg.TorqueConstant
	torque := m.torqueFilter.Update(torqueRaw)

	rec := Record{
		Time:       elapsed.Seconds(),
		CurrentRaw: currentRaw,
		Current:    current,
		TorqueRaw:  torqueRaw,
		Torque:     torque,
	}
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()

	m.log.Info().
		Float64("t", rec.Time).
		Float64("current_a", current).
		Float64("current_raw_a", currentRaw).
		Float64("torque_nm", torque).
		Msg("sample")
}

// Records returns a copy of everything sampled so far, in order.
func (m *Monitor) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// ParseReading decodes the controller's measurement reply: an IEEE-754
// float, little-endian, in the last four payload bytes. NaN and infinities
// are rejected as line noise.
func ParseReading(data [canbus.PayloadLen]byte) (float64, bool) {
	bits := binary.LittleEndian.Uint32(data[4:8])
	v := float64(math.Float32frombits(bits))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
