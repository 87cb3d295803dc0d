// winchstress hammers the controller with one probe command at a fixed
// cadence and reports the round-trip latency distribution.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zenith-polymtl/winch-motor-tools/internal/canbus"
	"github.com/zenith-polymtl/winch-motor-tools/internal/canbus/seeed"
	"github.com/zenith-polymtl/winch-motor-tools/internal/config"
	"github.com/zenith-polymtl/winch-motor-tools/internal/correlator"
	"github.com/zenith-polymtl/winch-motor-tools/internal/latency"
	"github.com/zenith-polymtl/winch-motor-tools/internal/logging"
	"github.com/zenith-polymtl/winch-motor-tools/internal/observability"
	"github.com/zenith-polymtl/winch-motor-tools/internal/stress"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "winchstress: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to winch.toml (defaults apply when empty)")
	flag.Parse()

	logging.ConfigureRuntime("winchstress")

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	probe, err := canbus.ParseData(cfg.Stress.Command)
	if err != nil {
		return err
	}

	bus, err := seeed.Open(seeed.Config{
		Device:   cfg.Bus.Device,
		Bitrate:  cfg.Bus.Bitrate,
		BaudRate: cfg.Bus.Baud,
	})
	if err != nil {
		return err
	}
	defer bus.Close()
	log.Info().Str("device", cfg.Bus.Device).Msg("bus open")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := latency.NewCollector()
	corr := correlator.New(bus, correlator.Config{
		MotorID:     cfg.Bus.MotorID,
		PollTimeout: time.Duration(cfg.Bus.PollTimeoutMs) * time.Millisecond,
		Collector:   collector,
		Logger:      log.Logger,
	})
	go corr.Run(ctx)

	if cfg.Metrics.Addr != "" {
		srv := observability.StartStatusServer(cfg.Metrics.Addr, log.Logger, func() any {
			return map[string]any{"responses": collector.Count()}
		})
		defer srv.Shutdown()
	}

	runner := stress.NewRunner(corr, collector, stress.Config{
		Probe:    probe,
		Interval: time.Duration(cfg.Stress.IntervalMs) * time.Millisecond,
		Duration: time.Duration(cfg.Stress.DurationSec) * time.Second,
		Logger:   log.Logger,
	})
	report := runner.Run(ctx)
	report.Log(log.Logger)
	return nil
}
