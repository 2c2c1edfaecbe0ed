package cliconfig

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/beastreplay/pkg/log"
	"github.com/bft-labs/beastreplay/pkg/replay"
)

// ErrInvalid is returned for configuration values that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the running state applied to each replay pass.
type Config struct {
	Clock  string
	Output string
	Delay  bool

	ChunkSize      int
	SleepThreshold time.Duration
	MaxGap         time.Duration
	Speed          float64

	Follow     bool
	FollowIdle time.Duration

	LogLevel    string
	MetricsAddr string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Clock:          replay.ClockBeast.String(),
		Output:         replay.OutputRaw.String(),
		Delay:          true,
		ChunkSize:      replay.DefaultChunkSize,
		SleepThreshold: replay.DefaultSleepThreshold,
		Speed:          1,
		LogLevel:       "info",
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if _, err := replay.ParseClockMode(c.Clock); err != nil {
		return fmt.Errorf("%w: clock %q", ErrInvalid, c.Clock)
	}
	if _, err := replay.ParseOutputMode(c.Output); err != nil {
		return fmt.Errorf("%w: output %q", ErrInvalid, c.Output)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalid)
	}
	if c.Speed <= 0 {
		return fmt.Errorf("%w: speed must be positive", ErrInvalid)
	}
	if c.SleepThreshold < 0 {
		return fmt.Errorf("%w: sleep threshold must not be negative", ErrInvalid)
	}
	if c.MaxGap < 0 {
		return fmt.Errorf("%w: max gap must not be negative", ErrInvalid)
	}
	if c.FollowIdle < 0 {
		return fmt.Errorf("%w: follow idle must not be negative", ErrInvalid)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// SchedulerConfig converts the pacing settings.
func (c Config) SchedulerConfig() (replay.SchedulerConfig, error) {
	mode, err := replay.ParseClockMode(c.Clock)
	if err != nil {
		return replay.SchedulerConfig{}, err
	}
	return replay.SchedulerConfig{
		Mode:           mode,
		Pacing:         c.Delay,
		SleepThreshold: c.SleepThreshold,
		MaxGap:         c.MaxGap,
		Speed:          c.Speed,
	}, nil
}

// OutputMode returns the parsed output form.
func (c Config) OutputMode() (replay.OutputMode, error) {
	return replay.ParseOutputMode(c.Output)
}

// The set* helpers leave dst untouched when value is empty, so a source that
// does not mention a key keeps the lower-precedence value.

func setString(value string, dst *string) {
	if value == "" {
		return
	}
	*dst = strings.TrimSpace(value)
}

func setInt(value int, dst *int) {
	if value <= 0 {
		return
	}
	*dst = value
}

func setFloat(value float64, dst *float64) {
	if value <= 0 {
		return
	}
	*dst = value
}

func setBool(value *bool, dst *bool) {
	if value == nil {
		return
	}
	*dst = *value
}

func setDuration(key, value string, dst *time.Duration) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = d
	return nil
}

// Used for environment variables that come as strings.
func setIntFromString(key, value string, dst *int) error {
	if value == "" {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	setInt(i, dst)
	return nil
}

func setFloatFromString(key, value string, dst *float64) error {
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	setFloat(f, dst)
	return nil
}

func setBoolFromString(key, value string, dst *bool) error {
	if value == "" {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = b
	return nil
}
