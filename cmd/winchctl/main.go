// winchctl is the interactive bus console: type eight hex bytes, watch what
// comes back. Replies correlated to the typed command are printed as such;
// everything else on the bus is echoed as raw traffic.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zenith-polymtl/winch-motor-tools/internal/canbus"
	"github.com/zenith-polymtl/winch-motor-tools/internal/canbus/seeed"
	"github.com/zenith-polymtl/winch-motor-tools/internal/config"
	"github.com/zenith-polymtl/winch-motor-tools/internal/correlator"
	"github.com/zenith-polymtl/winch-motor-tools/internal/logging"
)

const replyTimeout = 2 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "winchctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to winch.toml (defaults apply when empty)")
	flag.Parse()

	logging.ConfigureRuntime("winchctl")

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
	log.Info().Str("device", cfg.Bus.Device).Int("bitrate", cfg.Bus.Bitrate).Msg("bus open")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	corr := correlator.New(bus, correlator.Config{
		MotorID:     cfg.Bus.MotorID,
		PollTimeout: time.Duration(cfg.Bus.PollTimeoutMs) * time.Millisecond,
		Observer: func(f canbus.Frame) {
			fmt.Printf("recv id=%d  %s\n", f.ID, canbus.FormatData(f.Data))
		},
		Logger: log.Logger,
	})
	go corr.Run(ctx)

	fmt.Println("Enter 8 hex bytes (e.g. '94 00 00 A0 C1 D0 07 00'), or 'quit':")
	return console(ctx, corr)
}

func console(ctx context.Context, corr *correlator.Correlator) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		data, err := canbus.ParseData(line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		if err := corr.Send(data[:]); err != nil {
			fmt.Printf("send error: %v\n", err)
			continue
		}
		if resp, ok := corr.AwaitResponse(replyTimeout); ok {
			fmt.Printf("reply id=%d  %s\n", resp.ID, canbus.FormatData(resp.Data))
		} else {
			fmt.Println("no reply")
		}
	}
}
