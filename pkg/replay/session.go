package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bft-labs/beastreplay/pkg/beast"
	"github.com/bft-labs/beastreplay/pkg/log"
)

// DefaultChunkSize is the number of bytes requested per input read.
const DefaultChunkSize = 1024

// Observer is notified as a session makes progress. Calls happen on the
// session goroutine.
type Observer interface {
	// OnDecode reports drop counters for one decoded chunk.
	OnDecode(stats beast.Stats)

	// OnEmit reports a message that reached the sink and how it was paced.
	OnEmit(msg beast.Message, d Decision)
}

// Summary describes one completed or interrupted pass.
type Summary struct {
	BytesRead int64
	Messages  int
	ByKind    map[beast.Kind]int

	// Decode accumulates bytes and frames the decoder dropped.
	Decode beast.Stats

	// TrailingBytes is the incomplete frame left over at end of input.
	TrailingBytes int

	Regressed int
	GapSkips  int
	Sleeps    int
	Slept     time.Duration
}

// Session drives one input stream through the decoder, the scheduler and a
// sink. It is single-use and not safe for concurrent use.
type Session struct {
	sched     *Scheduler
	sink      Sink
	chunkSize int
	observer  Observer
	logger    log.Logger
}

// SessionOption configures optional Session behavior.
type SessionOption func(*Session)

// WithChunkSize sets the read size. Non-positive values are ignored.
func WithChunkSize(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithObserver registers an observer for decode and emit events.
func WithObserver(o Observer) SessionOption {
	return func(s *Session) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l log.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession creates a session that paces with sched and writes to sink.
func NewSession(sched *Scheduler, sink Sink, opts ...SessionOption) *Session {
	s := &Session{
		sched:     sched,
		sink:      sink,
		chunkSize: DefaultChunkSize,
		observer:  noopObserver{},
		logger:    log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run replays r until EOF, a read or write failure, or cancellation. The
// summary is valid in every case.
func (s *Session) Run(ctx context.Context, r io.Reader) (Summary, error) {
	sum := Summary{ByKind: make(map[beast.Kind]int)}
	chunk := make([]byte, s.chunkSize)
	var pending []byte

	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		n, rerr := r.Read(chunk)
		if n > 0 {
			sum.BytesRead += int64(n)
			pending = append(pending, chunk[:n]...)

			var st beast.Stats
			rest, msgs := beast.DecodeStats(pending, &st)
			sum.Decode.Add(st)
			s.observer.OnDecode(st)

			for _, msg := range msgs {
				if err := s.emit(ctx, msg, &sum); err != nil {
					return sum, err
				}
			}
			pending = append(pending[:0], rest...)
		}

		if rerr == nil {
			continue
		}
		if errors.Is(rerr, io.EOF) {
			if len(pending) > 0 {
				sum.TrailingBytes = len(pending)
				s.logger.Debug("dropping incomplete frame at end of input", log.Int("bytes", len(pending)))
			}
			return sum, nil
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		return sum, fmt.Errorf("%w: %w", ErrRead, rerr)
	}
}

func (s *Session) emit(ctx context.Context, msg beast.Message, sum *Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d, err := s.sched.Wait(ctx, msg)
	if err != nil {
		return err
	}

	switch {
	case d.Regressed:
		sum.Regressed++
		s.logger.Debug("timestamp did not advance",
			log.Uint64("timestamp", msg.Timestamp),
			log.Uint64("last", s.sched.State().LastTimestamp))
	case d.GapSkipped:
		sum.GapSkips++
		s.logger.Debug("skipped wait over max gap", log.Uint64("timestamp", msg.Timestamp))
	case d.Sleep:
		sum.Sleeps++
		sum.Slept += d.Delay
	}

	if err := s.sink.Emit(msg); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	sum.Messages++
	sum.ByKind[msg.Kind]++
	s.observer.OnEmit(msg, d)
	return nil
}

type noopObserver struct{}

func (noopObserver) OnDecode(beast.Stats)           {}
func (noopObserver) OnEmit(beast.Message, Decision) {}
