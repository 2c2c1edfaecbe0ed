package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/beastreplay/pkg/beast"
)

// SchedulerConfig holds pacing settings for one replay pass.
type SchedulerConfig struct {
	// Mode selects the timestamp clock domain.
	Mode ClockMode

	// Pacing enables waits. When false messages pass through back-to-back.
	Pacing bool

	// SleepThreshold: waits at or below this are skipped.
	// Default: DefaultSleepThreshold
	SleepThreshold time.Duration

	// MaxGap, when positive, skips waits whose scheduled delta is larger.
	// Default: 0 (disabled)
	MaxGap time.Duration

	// Speed scales replay; 2 plays twice as fast.
	// Default: 1
	Speed float64
}

// DefaultSchedulerConfig returns Beast-clock pacing at original speed.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Mode:           ClockBeast,
		Pacing:         true,
		SleepThreshold: DefaultSleepThreshold,
		Speed:          1,
	}
}

// Validate checks the configuration.
func (c SchedulerConfig) Validate() error {
	if c.Mode != ClockBeast && c.Mode != ClockRadarcape {
		return fmt.Errorf("%w: unknown clock mode %d", ErrInvalidConfig, c.Mode)
	}
	if c.SleepThreshold < 0 {
		return fmt.Errorf("%w: sleep threshold must not be negative", ErrInvalidConfig)
	}
	if c.MaxGap < 0 {
		return fmt.Errorf("%w: max gap must not be negative", ErrInvalidConfig)
	}
	if c.Speed <= 0 {
		return fmt.Errorf("%w: speed must be positive", ErrInvalidConfig)
	}
	return nil
}

// Scheduler paces messages on the caller's goroutine. It is not safe for
// concurrent use; create one per replay pass.
type Scheduler struct {
	pacing bool
	pacer  Pacer
	clock  Clock
	state  ClockState
}

// NewScheduler creates a scheduler. A nil clock means SystemClock.
func NewScheduler(cfg SchedulerConfig, clock Clock) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{
		pacing: cfg.Pacing,
		pacer: Pacer{
			Mode:           cfg.Mode,
			SleepThreshold: cfg.SleepThreshold,
			MaxGap:         cfg.MaxGap,
			Speed:          cfg.Speed,
		},
		clock: clock,
	}, nil
}

// Wait blocks until msg is due. It returns ctx.Err() if ctx is done while
// sleeping.
func (s *Scheduler) Wait(ctx context.Context, msg beast.Message) (Decision, error) {
	if !s.pacing {
		return Decision{}, nil
	}

	next, d := s.pacer.Next(s.state, msg.Timestamp, s.clock.Now())
	s.state = next
	if d.Sleep {
		if err := s.clock.Sleep(ctx, d.Delay); err != nil {
			return d, err
		}
	}
	return d, nil
}

// State returns the current clock anchor.
func (s *Scheduler) State() ClockState {
	return s.state
}
