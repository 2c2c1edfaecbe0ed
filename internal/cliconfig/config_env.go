package cliconfig

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds the BEASTREPLAY_* variables as raw strings so an unset
// variable can be told apart from a zero value.
type EnvConfig struct {
	Clock          string `env:"BEASTREPLAY_CLOCK"`
	Output         string `env:"BEASTREPLAY_OUTPUT"`
	Delay          string `env:"BEASTREPLAY_DELAY"`
	ChunkSize      string `env:"BEASTREPLAY_CHUNK_SIZE"`
	SleepThreshold string `env:"BEASTREPLAY_SLEEP_THRESHOLD"`
	MaxGap         string `env:"BEASTREPLAY_MAX_GAP"`
	Speed          string `env:"BEASTREPLAY_SPEED"`
	Follow         string `env:"BEASTREPLAY_FOLLOW"`
	FollowIdle     string `env:"BEASTREPLAY_FOLLOW_IDLE"`
	LogLevel       string `env:"BEASTREPLAY_LOG_LEVEL"`
	MetricsAddr    string `env:"BEASTREPLAY_METRICS_ADDR"`
}

// LoadEnvConfig reads the process environment.
func LoadEnvConfig() (EnvConfig, error) {
	var ec EnvConfig
	if err := env.Parse(&ec); err != nil {
		return ec, err
	}
	return ec, nil
}

// ApplyEnvConfig overlays the variables present in ec onto cfg.
func ApplyEnvConfig(cfg *Config, ec EnvConfig) error {
	setString(ec.Clock, &cfg.Clock)
	setString(ec.Output, &cfg.Output)
	setString(ec.LogLevel, &cfg.LogLevel)
	setString(ec.MetricsAddr, &cfg.MetricsAddr)

	if err := setBoolFromString("BEASTREPLAY_DELAY", ec.Delay, &cfg.Delay); err != nil {
		return err
	}
	if err := setBoolFromString("BEASTREPLAY_FOLLOW", ec.Follow, &cfg.Follow); err != nil {
		return err
	}
	if err := setIntFromString("BEASTREPLAY_CHUNK_SIZE", ec.ChunkSize, &cfg.ChunkSize); err != nil {
		return err
	}
	if err := setFloatFromString("BEASTREPLAY_SPEED", ec.Speed, &cfg.Speed); err != nil {
		return err
	}
	if err := setDuration("BEASTREPLAY_SLEEP_THRESHOLD", ec.SleepThreshold, &cfg.SleepThreshold); err != nil {
		return err
	}
	if err := setDuration("BEASTREPLAY_MAX_GAP", ec.MaxGap, &cfg.MaxGap); err != nil {
		return err
	}
	return setDuration("BEASTREPLAY_FOLLOW_IDLE", ec.FollowIdle, &cfg.FollowIdle)
}

// Load builds the base configuration from defaults, a TOML file and the
// environment. An empty path selects DefaultConfigPath, which may be absent;
// an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	required := path != ""
	if !required {
		path = DefaultConfigPath()
	}
	if path != "" && (required || FileExists(path)) {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		if err := ApplyFileConfig(&cfg, fc); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}

	ec, err := LoadEnvConfig()
	if err != nil {
		return cfg, fmt.Errorf("read environment: %w", err)
	}
	if err := ApplyEnvConfig(&cfg, ec); err != nil {
		return cfg, err
	}
	return cfg, nil
}
