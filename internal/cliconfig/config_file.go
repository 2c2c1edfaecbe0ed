package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Clock          string  `toml:"clock"`
	Output         string  `toml:"output"`
	Delay          *bool   `toml:"delay"`
	ChunkSize      int     `toml:"chunk_size"`
	SleepThreshold string  `toml:"sleep_threshold"`
	MaxGap         string  `toml:"max_gap"`
	Speed          float64 `toml:"speed"`
	Follow         *bool   `toml:"follow"`
	FollowIdle     string  `toml:"follow_idle"`
	LogLevel       string  `toml:"log_level"`
	MetricsAddr    string  `toml:"metrics_addr"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.beastreplay/config.toml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".beastreplay", "config.toml")
	}
	return ""
}

// ApplyFileConfig overlays the keys present in fc onto cfg.
func ApplyFileConfig(cfg *Config, fc FileConfig) error {
	setString(fc.Clock, &cfg.Clock)
	setString(fc.Output, &cfg.Output)
	setString(fc.LogLevel, &cfg.LogLevel)
	setString(fc.MetricsAddr, &cfg.MetricsAddr)

	setBool(fc.Delay, &cfg.Delay)
	setBool(fc.Follow, &cfg.Follow)

	setInt(fc.ChunkSize, &cfg.ChunkSize)
	setFloat(fc.Speed, &cfg.Speed)

	if err := setDuration("sleep_threshold", fc.SleepThreshold, &cfg.SleepThreshold); err != nil {
		return err
	}
	if err := setDuration("max_gap", fc.MaxGap, &cfg.MaxGap); err != nil {
		return err
	}
	return setDuration("follow_idle", fc.FollowIdle, &cfg.FollowIdle)
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
