// Package config loads the winch tools' TOML configuration. One file drives
// every binary; each tool reads the sections it needs. All values are plain
// scalars, validated once at load, fatal on failure.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/zenith-polymtl/winch-motor-tools/internal/canbus"
	"github.com/zenith-polymtl/winch-motor-tools/internal/sigfilter"
)

type BusConfig struct {
	Device        string `toml:"device"`
	Bitrate       int    `toml:"bitrate"`
	Baud          int    `toml:"baud"`
	MotorID       uint32 `toml:"motor_id"`
	PollTimeoutMs int    `toml:"poll_timeout_ms"`
}

type MoveConfig struct {
	ResponseTimeoutMs int `toml:"response_timeout_ms"`
}

type StressConfig struct {
	Command     string `toml:"command"`
	IntervalMs  int    `toml:"interval_ms"`
	DurationSec int    `toml:"duration_sec"`
}

type TorqueConfig struct {
	PollingIntervalMs int     `toml:"polling_interval_ms"`
	ResponseTimeoutMs int     `toml:"response_timeout_ms"`
	TorqueConstant    float64 `toml:"torque_constant"`
	OutputDir         string  `toml:"output_dir"`
}

type FilterConfig struct {
	Kind   string  `toml:"kind"`
	Window int     `toml:"window"`
	Order  int     `toml:"order"`
	Alpha  float64 `toml:"alpha"`
}

type MetricsConfig struct {
	// Addr, when set, enables the /metrics and /status HTTP endpoint on
	// the long-running tools.
	Addr string `toml:"addr"`
}

type Config struct {
	Bus     BusConfig     `toml:"bus"`
	Move    MoveConfig    `toml:"move"`
	Stress  StressConfig  `toml:"stress"`
	Torque  TorqueConfig  `toml:"torque"`
	Filter  FilterConfig  `toml:"filter"`
	Metrics MetricsConfig `toml:"metrics"`
}

// Default mirrors the bench deployment: Seeed adapter on ttyUSB0, 500k bus,
// 2M serial, motor 1.
func Default() Config {
	return Config{
		Bus: BusConfig{
			Device:        "/dev/ttyUSB0",
			Bitrate:       500000,
			Baud:          2000000,
			MotorID:       1,
			PollTimeoutMs: 100,
		},
		Move: MoveConfig{
			ResponseTimeoutMs: 2000,
		},
		Stress: StressConfig{
			Command:     "B4 12 00 00 00 00 00 00",
			IntervalMs:  10,
			DurationSec: 10,
		},
		Torque: TorqueConfig{
			PollingIntervalMs: 50,
			ResponseTimeoutMs: 200,
			TorqueConstant:    0.065,
			OutputDir:         ".",
		},
		Filter: FilterConfig{
			Kind:   string(sigfilter.KindSavGol),
			Window: 11,
			Order:  3,
			Alpha:  0.2,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults
// unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Bus.Device) == "" {
		return fmt.Errorf("bus config missing device")
	}
	if cfg.Bus.Bitrate <= 0 {
		return fmt.Errorf("bus config invalid bitrate %d", cfg.Bus.Bitrate)
	}
	if cfg.Bus.Baud <= 0 {
		return fmt.Errorf("bus config invalid baud %d", cfg.Bus.Baud)
	}
	if cfg.Bus.MotorID > canbus.MaxStandardID {
		return fmt.Errorf("bus config motor_id 0x%X exceeds 11 bits", cfg.Bus.MotorID)
	}
	if cfg.Bus.PollTimeoutMs <= 0 {
		return fmt.Errorf("bus config invalid poll_timeout_ms %d", cfg.Bus.PollTimeoutMs)
	}
	if cfg.Move.ResponseTimeoutMs <= 0 {
		return fmt.Errorf("move config invalid response_timeout_ms %d", cfg.Move.ResponseTimeoutMs)
	}
	if _, err := canbus.ParseData(cfg.Stress.Command); err != nil {
		return fmt.Errorf("stress config invalid command: %w", err)
	}
	if cfg.Stress.IntervalMs <= 0 {
		return fmt.Errorf("stress config invalid interval_ms %d", cfg.Stress.IntervalMs)
	}
	if cfg.Stress.DurationSec <= 0 {
		return fmt.Errorf("stress config invalid duration_sec %d", cfg.Stress.DurationSec)
	}
	if cfg.Torque.PollingIntervalMs <= 0 {
		return fmt.Errorf("torque config invalid polling_interval_ms %d", cfg.Torque.PollingIntervalMs)
	}
	if cfg.Torque.ResponseTimeoutMs <= 0 {
		return fmt.Errorf("torque config invalid response_timeout_ms %d", cfg.Torque.ResponseTimeoutMs)
	}
	if cfg.Torque.TorqueConstant <= 0 {
		return fmt.Errorf("torque config invalid torque_constant %v", cfg.Torque.TorqueConstant)
	}
	// Filter parameters get their authoritative check at construction;
	// building one here surfaces bad values at load time instead of
	// session start.
	if _, err := sigfilter.New(cfg.FilterSettings()); err != nil {
		return fmt.Errorf("filter config invalid: %w", err)
	}
	return nil
}

// FilterSettings converts the raw section into the filter package's config.
func (c Config) FilterSettings() sigfilter.Config {
	return sigfilter.Config{
		Kind:   sigfilter.Kind(c.Filter.Kind),
		Window: c.Filter.Window,
		Order:  c.Filter.Order,
		Alpha:  c.Filter.Alpha,
	}
}
