package replay

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ClockMode selects how message timestamps are interpreted.
type ClockMode uint8

const (
	// ClockBeast treats timestamps as 12 MHz tick counts.
	ClockBeast ClockMode = iota
	// ClockRadarcape treats timestamps as seconds<<30 | nanoseconds.
	ClockRadarcape
)

const (
	beastFrequency     = 12_000_000
	radarcapeFrequency = 1_000_000_000
	radarcapeNanosMask = 1<<30 - 1
)

// ParseClockMode parses "beast" or "radarcape" (case-insensitive).
func ParseClockMode(s string) (ClockMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beast":
		return ClockBeast, nil
	case "radarcape":
		return ClockRadarcape, nil
	default:
		return 0, fmt.Errorf("%w: unknown clock mode %q", ErrInvalidConfig, s)
	}
}

// String returns the configuration name of the mode.
func (m ClockMode) String() string {
	switch m {
	case ClockBeast:
		return "beast"
	case ClockRadarcape:
		return "radarcape"
	default:
		return "unknown"
	}
}

// Frequency returns the number of adjusted ticks per second.
func (m ClockMode) Frequency() uint64 {
	if m == ClockRadarcape {
		return radarcapeFrequency
	}
	return beastFrequency
}

// Adjust converts a raw 48-bit timestamp into a linear tick count.
func (m ClockMode) Adjust(ts uint64) uint64 {
	if m == ClockRadarcape {
		secs := ts >> 30
		nanos := ts & radarcapeNanosMask
		return nanos + secs*radarcapeFrequency
	}
	return ts
}

// Clock supplies wall time and waits. Sleep returns early with ctx.Err()
// when ctx is done.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the real wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Sleep blocks for d or until ctx is done.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
