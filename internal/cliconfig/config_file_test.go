package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	falseVal := false

	tests := []struct {
		name       string
		fileConfig FileConfig
		expected   func() Config
		wantErr    bool
	}{
		{
			name:       "empty file keeps defaults",
			fileConfig: FileConfig{},
			expected:   DefaultConfig,
		},
		{
			name: "applies all field types",
			fileConfig: FileConfig{
				Clock:          "radarcape",
				Output:         "show",
				Delay:          &falseVal,
				ChunkSize:      4096,
				SleepThreshold: "5ms",
				MaxGap:         "2m",
				Speed:          3,
				Follow:         &trueVal,
				FollowIdle:     "30s",
				LogLevel:       "debug",
				MetricsAddr:    ":9100",
			},
			expected: func() Config {
				return Config{
					Clock:          "radarcape",
					Output:         "show",
					Delay:          false,
					ChunkSize:      4096,
					SleepThreshold: 5 * time.Millisecond,
					MaxGap:         2 * time.Minute,
					Speed:          3,
					Follow:         true,
					FollowIdle:     30 * time.Second,
					LogLevel:       "debug",
					MetricsAddr:    ":9100",
				}
			},
		},
		{
			name:       "zero duration is honoured",
			fileConfig: FileConfig{SleepThreshold: "0s"},
			expected: func() Config {
				c := DefaultConfig()
				c.SleepThreshold = 0
				return c
			},
		},
		{
			name:       "returns error for invalid duration",
			fileConfig: FileConfig{MaxGap: "soon"},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := ApplyFileConfig(&cfg, tt.fileConfig)
			if tt.wantErr {
				if err == nil {
					t.Error("ApplyFileConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyFileConfig() unexpected error: %v", err)
			}
			if want := tt.expected(); cfg != want {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, want)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.TrimSpace(`
clock = "radarcape"
output = "show"
delay = false
chunk_size = 512
sleep_threshold = "20ms"
speed = 0.5
log_level = "warn"
`)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig: %v", err)
	}
	if fc.Clock != "radarcape" || fc.Output != "show" || fc.ChunkSize != 512 {
		t.Errorf("unexpected file config: %+v", fc)
	}
	if fc.Delay == nil || *fc.Delay {
		t.Errorf("Delay = %v, want pointer to false", fc.Delay)
	}
	if fc.Follow != nil {
		t.Errorf("Follow = %v, want nil when absent", fc.Follow)
	}
	if fc.SleepThreshold != "20ms" || fc.Speed != 0.5 || fc.LogLevel != "warn" {
		t.Errorf("unexpected file config: %+v", fc)
	}
}

func TestLoadFileConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadFileConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("clock = [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFileConfig(bad); err == nil {
		t.Error("expected error for malformed TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	want := filepath.Join(home, ".beastreplay", "config.toml")
	if got := DefaultConfigPath(); got != want {
		t.Errorf("DefaultConfigPath() = %q, want %q", got, want)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x")
	if FileExists(path) {
		t.Error("FileExists() = true before creation")
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(path) {
		t.Error("FileExists() = false after creation")
	}
}
