package replay

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bft-labs/beastreplay/pkg/beast"
)

// OutputMode selects the form written for each message.
type OutputMode uint8

const (
	// OutputRaw writes the original frame bytes.
	OutputRaw OutputMode = iota
	// OutputShow writes one human-readable line per message.
	OutputShow
)

// ParseOutputMode parses "raw" or "show" (case-insensitive).
func ParseOutputMode(s string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raw":
		return OutputRaw, nil
	case "show":
		return OutputShow, nil
	default:
		return 0, fmt.Errorf("%w: unknown output mode %q", ErrInvalidConfig, s)
	}
}

// String returns the configuration name of the mode.
func (m OutputMode) String() string {
	switch m {
	case OutputRaw:
		return "raw"
	case OutputShow:
		return "show"
	default:
		return "unknown"
	}
}

// Sink receives messages in stream order. Emit may block; that back-pressure
// propagates to the session.
type Sink interface {
	Emit(msg beast.Message) error
}

// NewSink returns the sink for mode writing to w.
func NewSink(mode OutputMode, w io.Writer) Sink {
	if mode == OutputShow {
		return NewTextSink(w)
	}
	return NewRawSink(w)
}

// RawSink writes each message's original bytes and flushes immediately so a
// downstream real-time consumer sees it without delay.
type RawSink struct {
	w *bufio.Writer
}

// NewRawSink creates a RawSink writing to w.
func NewRawSink(w io.Writer) *RawSink {
	return &RawSink{w: bufio.NewWriter(w)}
}

// Emit writes msg.Raw and flushes.
func (s *RawSink) Emit(msg beast.Message) error {
	if _, err := s.w.Write(msg.Raw); err != nil {
		return err
	}
	return s.w.Flush()
}

// TextSink writes one line per message in the format of beast.Message.String.
type TextSink struct {
	w    *bufio.Writer
	line []byte
}

// NewTextSink creates a TextSink writing to w.
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: bufio.NewWriter(w)}
}

// Emit writes the formatted line and flushes.
func (s *TextSink) Emit(msg beast.Message) error {
	s.line = append(msg.AppendText(s.line[:0]), '\n')
	if _, err := s.w.Write(s.line); err != nil {
		return err
	}
	return s.w.Flush()
}
