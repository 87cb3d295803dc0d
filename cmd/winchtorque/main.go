// winchtorque monitors motor current over the bus, derives torque, smooths
// both streams in real time, and dumps the session to CSV on exit.
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

	"github.com/zenith-polymtl/winch-motor-tools/internal/canbus/seeed"
	"github.com/zenith-polymtl/winch-motor-tools/internal/config"
	"github.com/zenith-polymtl/winch-motor-tools/internal/correlator"
	"github.com/zenith-polymtl/winch-motor-tools/internal/logging"
	"github.com/zenith-polymtl/winch-motor-tools/internal/observability"
	"github.com/zenith-polymtl/winch-motor-tools/internal/torque"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "winchtorque: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to winch.toml (defaults apply when empty)")
	flag.Parse()

	logging.ConfigureRuntime("winchtorque")

	cfg, err := config.Load(*configPath)
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

	log.Info().
		Str("device", cfg.Bus.Device).
		Float64("torque_constant", cfg.Torque.TorqueConstant).
		Int("polling_interval_ms", cfg.Torque.PollingIntervalMs).
		Str("filter", cfg.Filter.Kind).
		Msg("torque monitor starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	corr := correlator.New(bus, correlator.Config{
		MotorID:     cfg.Bus.MotorID,
		PollTimeout: time.Duration(cfg.Bus.PollTimeoutMs) * time.Millisecond,
		Logger:      log.Logger,
	})
	go corr.Run(ctx)

	monitor, err := torque.NewMonitor(corr, torque.Config{
		Interval:        time.Duration(cfg.Torque.PollingIntervalMs) * time.Millisecond,
		ResponseTimeout: time.Duration(cfg.Torque.ResponseTimeoutMs) * time.Millisecond,
		TorqueConstant:  cfg.Torque.TorqueConstant,
		Filter:          cfg.FilterSettings(),
		Logger:          log.Logger,
	})
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		srv := observability.StartStatusServer(cfg.Metrics.Addr, log.Logger, func() any {
			records := monitor.Records()
			status := map[string]any{"samples": len(records)}
			if len(records) > 0 {
				status["last"] = records[len(records)-1]
			}
			return status
		})
		defer srv.Shutdown()
	}

	monitor.Run(ctx)

	path, err := torque.SaveCSV(cfg.Torque.OutputDir, monitor.Records(), time.Now())
	if err != nil {
		return err
	}
	if path == "" {
		log.Warn().Msg("no data to save")
		return nil
	}
	log.Info().Str("path", path).Msg("data saved")
	return nil
}
