// Package app runs replay passes in command-line order.
package app

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"

	"github.com/bft-labs/beastreplay/internal/cliconfig"
	"github.com/bft-labs/beastreplay/internal/follow"
	"github.com/bft-labs/beastreplay/pkg/beast"
	"github.com/bft-labs/beastreplay/pkg/log"
	"github.com/bft-labs/beastreplay/pkg/replay"
)

// Outcome is how a pass ended.
type Outcome int

const (
	// OutcomeOK means the input was replayed to its end.
	OutcomeOK Outcome = iota
	// OutcomeFailed means opening, reading or writing failed.
	OutcomeFailed
	// OutcomeCancelled means the context was done before the input ended.
	OutcomeCancelled
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result describes one finished pass.
type Result struct {
	Input   string
	Outcome Outcome
	Summary replay.Summary
	Elapsed time.Duration
	Err     error
}

// PassObserver is notified after each pass.
type PassObserver interface {
	OnPass(res Result)
}

// Runner replays passes one after another on the calling goroutine.
type Runner struct {
	logger   log.Logger
	observer replay.Observer
	passes   PassObserver
	clock    replay.Clock
	stdin    io.Reader
	stdout   io.Writer
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithObserver sets the observer handed to every session.
func WithObserver(o replay.Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// WithPassObserver sets the observer notified after each pass.
func WithPassObserver(o PassObserver) Option {
	return func(r *Runner) { r.passes = o }
}

// WithClock replaces the wall clock used for pacing.
func WithClock(c replay.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithStdio sets the reader used for the "-" input and the replay output.
func WithStdio(in io.Reader, out io.Writer) Option {
	return func(r *Runner) {
		r.stdin = in
		r.stdout = out
	}
}

// New creates a Runner reading os.Stdin and writing os.Stdout by default.
func New(opts ...Option) *Runner {
	r := &Runner{
		logger: log.NewNoopLogger(),
		clock:  replay.SystemClock{},
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run replays every pass in order. A failed pass is logged and the next one
// still runs; cancellation stops the remaining passes. The returned error
// joins every pass failure.
func (r *Runner) Run(ctx context.Context, passes []cliconfig.Pass) ([]Result, error) {
	results := make([]Result, 0, len(passes))
	var errs []error

	for _, p := range passes {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		res := r.runPass(ctx, p)
		results = append(results, res)
		if r.passes != nil {
			r.passes.OnPass(res)
		}

		switch res.Outcome {
		case OutcomeOK:
			r.logSummary(res)
		case OutcomeCancelled:
			r.logger.Info("replay interrupted", log.String("input", res.Input), log.Int("messages", res.Summary.Messages))
			errs = append(errs, res.Err)
		case OutcomeFailed:
			r.logger.Error("replay failed", log.String("input", res.Input), log.Err(res.Err))
			errs = append(errs, res.Err)
		}
		if res.Outcome == OutcomeCancelled {
			break
		}
	}
	return results, errors.Join(errs...)
}

func (r *Runner) runPass(ctx context.Context, p cliconfig.Pass) Result {
	res := Result{Input: p.Input}
	start := time.Now()

	sum, err := r.replay(ctx, p)
	res.Summary = sum
	res.Elapsed = time.Since(start)

	switch {
	case err == nil:
		res.Outcome = OutcomeOK
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		res.Outcome = OutcomeCancelled
		res.Err = fmt.Errorf("%s: %w", p.Input, err)
	default:
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("%s: %w", p.Input, err)
	}
	return res
}

func (r *Runner) replay(ctx context.Context, p cliconfig.Pass) (replay.Summary, error) {
	if err := p.Validate(); err != nil {
		return replay.Summary{}, err
	}
	cfg := p.Config

	schedCfg, err := cfg.SchedulerConfig()
	if err != nil {
		return replay.Summary{}, err
	}
	sched, err := replay.NewScheduler(schedCfg, r.clock)
	if err != nil {
		return replay.Summary{}, err
	}
	mode, err := cfg.OutputMode()
	if err != nil {
		return replay.Summary{}, err
	}

	in, err := r.open(ctx, p)
	if err != nil {
		return replay.Summary{}, fmt.Errorf("%w: %w", replay.ErrRead, err)
	}
	defer in.Close()

	r.logger.Debug("replaying",
		log.String("input", p.Input),
		log.String("clock", cfg.Clock),
		log.String("output", cfg.Output),
		log.Bool("delay", cfg.Delay),
		log.Bool("follow", cfg.Follow))

	sess := replay.NewSession(sched, replay.NewSink(mode, r.stdout),
		replay.WithChunkSize(cfg.ChunkSize),
		replay.WithObserver(r.observer),
		replay.WithLogger(r.logger),
	)
	return sess.Run(ctx, in)
}

func (r *Runner) open(ctx context.Context, p cliconfig.Pass) (io.ReadCloser, error) {
	if p.Input == cliconfig.StdinName {
		return io.NopCloser(r.stdin), nil
	}
	if p.Config.Follow {
		fr, err := follow.Open(ctx, p.Input, p.Config.FollowIdle, r.logger)
		if err != nil {
			return nil, err
		}
		return fr, nil
	}
	f, err := os.Open(p.Input)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(p.Input, ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return gzipFile{Reader: zr, file: f}, nil
}

// gzipFile closes both the decompressor and the file under it.
type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g gzipFile) Close() error {
	return errors.Join(g.Reader.Close(), g.file.Close())
}

func (r *Runner) logSummary(res Result) {
	s := res.Summary
	fields := []log.Field{
		log.String("input", res.Input),
		log.String("read", humanize.Bytes(uint64(s.BytesRead))),
		log.String("messages", humanize.Comma(int64(s.Messages))),
	}
	for _, k := range beast.Kinds {
		if n := s.ByKind[k]; n > 0 {
			fields = append(fields, log.Int(k.String(), n))
		}
	}
	if s.Decode.DiscardedBytes > 0 {
		fields = append(fields, log.Int("discarded_bytes", s.Decode.DiscardedBytes))
	}
	if s.TrailingBytes > 0 {
		fields = append(fields, log.Int("trailing_bytes", s.TrailingBytes))
	}
	if s.Regressed > 0 {
		fields = append(fields, log.Int("regressed", s.Regressed))
	}
	if s.GapSkips > 0 {
		fields = append(fields, log.Int("gap_skips", s.GapSkips))
	}
	fields = append(fields,
		log.Duration("slept", s.Slept),
		log.Duration("elapsed", res.Elapsed))
	r.logger.Info("replay complete", fields...)
}
