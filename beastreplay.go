// Package beastreplay decodes Mode-S Beast streams and replays them with
// their original timing.
//
// Example usage:
//
//	f, err := os.Open("capture.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//	cfg := beastreplay.DefaultConfig()
//	cfg.Mode = beastreplay.ClockRadarcape
//	sum, err := beastreplay.Replay(context.Background(), f, os.Stdout, cfg, beastreplay.OutputRaw)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(sum.Messages, "messages")
//
// The packages under pkg/ can be imported directly for finer control.
package beastreplay

import (
	"context"
	"io"

	"github.com/bft-labs/beastreplay/pkg/beast"
	"github.com/bft-labs/beastreplay/pkg/replay"
)

type (
	// Message is one decoded Beast frame.
	Message = beast.Message

	// Kind is the frame type selected by the byte after the sentinel.
	Kind = beast.Kind

	// Stats counts input the decoder dropped.
	Stats = beast.Stats

	// ClockMode selects how timestamps are interpreted.
	ClockMode = replay.ClockMode

	// OutputMode selects the form written per message.
	OutputMode = replay.OutputMode

	// Config controls pacing.
	Config = replay.SchedulerConfig

	// Summary describes a finished replay.
	Summary = replay.Summary
)

const (
	ClockBeast     = replay.ClockBeast
	ClockRadarcape = replay.ClockRadarcape

	OutputRaw  = replay.OutputRaw
	OutputShow = replay.OutputShow
)

var (
	// ErrRead marks failures reading the input.
	ErrRead = replay.ErrRead

	// ErrWrite marks failures writing the output.
	ErrWrite = replay.ErrWrite
)

// DefaultConfig returns Beast clock pacing with the default sleep threshold.
func DefaultConfig() Config {
	return replay.DefaultSchedulerConfig()
}

// Decode extracts the complete frames in buf. The returned remainder must be
// prepended to the next buffer.
func Decode(buf []byte) (rest []byte, msgs []Message) {
	return beast.Decode(buf)
}

// Replay copies the frames in r to w, pacing them by timestamp as cfg
// describes, until r is exhausted or ctx is cancelled.
func Replay(ctx context.Context, r io.Reader, w io.Writer, cfg Config, mode OutputMode) (Summary, error) {
	sched, err := replay.NewScheduler(cfg, nil)
	if err != nil {
		return Summary{}, err
	}
	return replay.NewSession(sched, replay.NewSink(mode, w)).Run(ctx, r)
}
