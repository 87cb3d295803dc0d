// winchmove runs one spool macro against the winch controller and exits with
// the macro's terminal status.
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
	"github.com/zenith-polymtl/winch-motor-tools/internal/sequencer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "winchmove: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to winch.toml (defaults apply when empty)")
	direction := flag.String("direction", "down", "spool direction: up or down")
	flag.Parse()

	logging.ConfigureRuntime("winchmove")

	var macro sequencer.Macro
	switch *direction {
	case "up":
		macro = sequencer.SpoolUp()
	case "down":
		macro = sequencer.SpoolDown()
	default:
		return fmt.Errorf("unknown direction %q", *direction)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	macro.ResponseTimeout = time.Duration(cfg.Move.ResponseTimeoutMs) * time.Millisecond

	bus, err := seeed.Open(seeed.Config{
		Device:   cfg.Bus.Device,
		Bitrate:  cfg.Bus.Bitrate,
		BaudRate: cfg.Bus.Baud,
	})
	if err != nil {
		return err
	}
	defer bus.Close()
	log.Info().Str("device", cfg.Bus.Device).Str("macro", macro.Name).Msg("bus open")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	corr := correlator.New(bus, correlator.Config{
		MotorID:     cfg.Bus.MotorID,
		PollTimeout: time.Duration(cfg.Bus.PollTimeoutMs) * time.Millisecond,
		Logger:      log.Logger,
	})
	go corr.Run(ctx)

	status := sequencer.NewRunner(corr, log.Logger).Run(ctx, macro)
	if status != sequencer.StatusCompleted {
		return fmt.Errorf("macro %s: %s", macro.Name, status)
	}
	return nil
}
