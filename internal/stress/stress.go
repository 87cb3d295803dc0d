// Package stress measures bus round-trip behavior under sustained load: one
// probe command at a fixed cadence for a fixed duration, latencies gathered
// off the correlator's ingest path.
package stress

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zenith-polymtl/winch-motor-tools/internal/canbus"
	"github.com/zenith-polymtl/winch-motor-tools/internal/latency"
)

// Sender is the slice of the correlator the tester needs. The tester never
// awaits individual replies; the correlator's ingest loop times matches into
// the collector while the send cadence stays fixed.
type Sender interface {
	Send(payload []byte) error
}

// Config shapes one test run.
type Config struct {
	Probe    [canbus.PayloadLen]byte
	Interval time.Duration
	Duration time.Duration
	Logger   zerolog.Logger
}

// Report is the outcome of one run.
type Report struct {
	Sent         int
	ResponseRate float64 // responses / sent
	TargetRate   float64 // sends per second implied by the interval
	Summary      latency.Summary
}

// Runner sends probes and reports the latency analysis.
type Runner struct {
	sender    Sender
	collector *latency.Collector
	cfg       Config
	log       zerolog.Logger
}

func NewRunner(sender Sender, collector *latency.Collector, cfg Config) *Runner {
	return &Runner{sender: sender, collector: collector, cfg: cfg, log: cfg.Logger}
}

// Run executes the test and summarizes what came back. It returns early on
// ctx cancellation with whatever was measured so far.
func (r *Runner) Run(ctx context.Context) Report {
	r.log.Info().
		Str("probe", canbus.FormatData(r.cfg.Probe)).
		Dur("interval", r.cfg.Interval).
		Dur("duration", r.cfg.Duration).
		Msg("starting stress run")

	start := time.Now()
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	sent := 0
	deadline := start.Add(r.cfg.Duration)
loop:
	for time.Now().Before(deadline) {
		if err := r.sender.Send(r.cfg.Probe[:]); err != nil {
			r.log.Warn().Err(err).Msg("probe send failed")
		} else {
			sent++
		}
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}
	}

	// Grace window for stragglers already on the wire.
	select {
	case <-ctx.Done():
	case <-time.After(200 * time.Millisecond):
	}

	report := Report{
		Sent:       sent,
		TargetRate: float64(time.Second) / float64(r.cfg.Interval),
		Summary:    r.collector.Summarize(time.Since(start)),
	}
	if sent > 0 {
		report.ResponseRate = float64(report.Summary.Count) / float64(sent)
	}
	return report
}

// Log writes the human-readable analysis, mirroring the on-bench report
// format the team reads after each run.
func (r Report) Log(log zerolog.Logger) {
	s := r.Summary
	if s.Count == 0 {
		log.Warn().Int("sent", r.Sent).Msg("no responses collected")
		return
	}
	log.Info().
		Int("sent", r.Sent).
		Int("responses", s.Count).
		Float64("response_rate", r.ResponseRate).
		Msg("stress run complete")
	log.Info().
		Float64("mean_ms", s.Mean).
		Float64("min_ms", s.Min).
		Float64("max_ms", s.Max).
		Float64("stdev_ms", s.StdDev).
		Msg("latency")
	log.Info().
		Float64("p50_ms", s.P50).
		Float64("p90_ms", s.P90).
		Float64("p95_ms", s.P95).
		Float64("p99_ms", s.P99).
		Msg("percentiles")
	log.Info().
		Float64("achieved_per_sec", s.AchievedRate).
		Float64("target_per_sec", r.TargetRate).
		Msg("throughput")
}
