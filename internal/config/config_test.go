package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenith-polymtl/winch-motor-tools/internal/sigfilter"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, "/dev/ttyUSB0", cfg.Bus.Device)
	assert.Equal(t, 500000, cfg.Bus.Bitrate)
	assert.Equal(t, uint32(1), cfg.Bus.MotorID)
	assert.Equal(t, string(sigfilter.KindSavGol), cfg.Filter.Kind)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "winch.toml")
	body := `
[bus]
device = "/dev/ttyACM2"
motor_id = 3

[filter]
kind = "ema"
alpha = 0.4

[torque]
torque_constant = 0.08
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM2", cfg.Bus.Device)
	assert.Equal(t, uint32(3), cfg.Bus.MotorID)
	assert.Equal(t, "ema", cfg.Filter.Kind)
	assert.InDelta(t, 0.4, cfg.Filter.Alpha, 1e-9)
	assert.InDelta(t, 0.08, cfg.Torque.TorqueConstant, 1e-9)
	// Untouched sections keep their defaults.
	assert.Equal(t, 500000, cfg.Bus.Bitrate)
	assert.Equal(t, Default().Stress, cfg.Stress)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty device", func(c *Config) { c.Bus.Device = " " }},
		{"zero bitrate", func(c *Config) { c.Bus.Bitrate = 0 }},
		{"extended motor id", func(c *Config) { c.Bus.MotorID = 0x800 }},
		{"zero poll timeout", func(c *Config) { c.Bus.PollTimeoutMs = 0 }},
		{"zero move timeout", func(c *Config) { c.Move.ResponseTimeoutMs = 0 }},
		{"short stress command", func(c *Config) { c.Stress.Command = "B4 12" }},
		{"zero stress interval", func(c *Config) { c.Stress.IntervalMs = 0 }},
		{"zero torque interval", func(c *Config) { c.Torque.PollingIntervalMs = 0 }},
		{"negative torque constant", func(c *Config) { c.Torque.TorqueConstant = -1 }},
		{"even filter window", func(c *Config) { c.Filter.Window = 10 }},
		{"filter order too high", func(c *Config) { c.Filter.Order = 11 }},
		{"unknown filter kind", func(c *Config) { c.Filter.Kind = "median" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}
