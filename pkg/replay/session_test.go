package replay

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/bft-labs/beastreplay/pkg/beast"
)

func frame(t *testing.T, kind beast.Kind, ts uint64, signal uint8, payload []byte) []byte {
	t.Helper()
	b, err := beast.AppendFrame(nil, kind, ts, signal, payload)
	if err != nil {
		t.Fatalf("AppendFrame: %v", err)
	}
	return b
}

func fixtureStream(t *testing.T) []byte {
	t.Helper()
	var s []byte
	s = append(s, frame(t, beast.KindModeAC, 0x000000001000, 0x1A, []byte{0x1A, 0x01})...)
	s = append(s, frame(t, beast.KindModeSShort, 0x000000002000, 0x40, []byte{0x5D, 0x48, 0x40, 0xD6, 0x20, 0x2C, 0xC3})...)
	s = append(s, frame(t, beast.KindModeSLong, 0x000000003000, 0xFF, []byte{
		0x8D, 0x48, 0x40, 0xD6, 0x20, 0x2C, 0xC3, 0x71, 0xC3, 0x2C, 0xE0, 0x57, 0x60, 0x98,
	})...)
	s = append(s, frame(t, beast.KindRadarcapeStatus, 0x000000004000, 0x00, make([]byte, 14))...)
	return s
}

func noPacing(t *testing.T) *Scheduler {
	t.Helper()
	cfg := DefaultSchedulerConfig()
	cfg.Pacing = false
	return newTestScheduler(t, cfg, newFakeClock())
}

type recordingObserver struct {
	stats   beast.Stats
	emitted []beast.Kind
}

func (o *recordingObserver) OnDecode(st beast.Stats) { o.stats.Add(st) }
func (o *recordingObserver) OnEmit(m beast.Message, _ Decision) {
	o.emitted = append(o.emitted, m.Kind)
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestSession_RawRoundTrip(t *testing.T) {
	stream := fixtureStream(t)

	for _, size := range []int{1, 3, 7, 21, DefaultChunkSize} {
		var out bytes.Buffer
		s := NewSession(noPacing(t), NewRawSink(&out), WithChunkSize(size))

		sum, err := s.Run(context.Background(), bytes.NewReader(stream))
		if err != nil {
			t.Fatalf("chunk %d: Run: %v", size, err)
		}
		if !bytes.Equal(out.Bytes(), stream) {
			t.Errorf("chunk %d: output differs from input", size)
		}
		if sum.Messages != 4 || sum.BytesRead != int64(len(stream)) {
			t.Errorf("chunk %d: summary = %+v", size, sum)
		}
		for _, k := range beast.Kinds {
			if sum.ByKind[k] != 1 {
				t.Errorf("chunk %d: ByKind[%s] = %d, want 1", size, k, sum.ByKind[k])
			}
		}
	}
}

func TestSession_ShowOutput(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(noPacing(t), NewSink(OutputShow, &out))

	if _, err := s.Run(context.Background(), iotest.OneByteReader(bytes.NewReader(fixtureStream(t)))); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := strings.Join([]string{
		"Type: MODE_AC          Time: 001000 Signal:  26 Data: 1A01",
		"Type: MODE_S_SHORT     Time: 002000 Signal:  64 Data: 5D4840D6202CC3",
		"Type: MODE_S_LONG      Time: 003000 Signal: 255 Data: 8D4840D6202CC371C32CE0576098",
		"Type: RADARCAPE_STATUS Time: 004000 Signal:   0 Data: 0000000000000000000000000000",
	}, "\n") + "\n"
	if out.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", out.String(), want)
	}
}

func TestSession_SkipsGarbageAndCountsTrailing(t *testing.T) {
	good := frame(t, beast.KindModeAC, 1, 1, []byte{1, 2})
	var stream []byte
	stream = append(stream, 0x00, 0x01, 0x02)
	stream = append(stream, good...)
	stream = append(stream, beast.Sentinel, 0x99)
	stream = append(stream, good...)
	stream = append(stream, good[:5]...)

	var out bytes.Buffer
	obs := &recordingObserver{}
	s := NewSession(noPacing(t), NewRawSink(&out), WithObserver(obs), WithChunkSize(4))

	sum, err := s.Run(context.Background(), bytes.NewReader(stream))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !bytes.Equal(out.Bytes(), append(append([]byte(nil), good...), good...)) {
		t.Errorf("output = %X", out.Bytes())
	}
	if sum.Decode.DiscardedBytes != 5 || sum.Decode.BadSelectors != 1 {
		t.Errorf("decode stats = %+v, want 5 discarded and 1 bad selector", sum.Decode)
	}
	if sum.TrailingBytes != 5 {
		t.Errorf("TrailingBytes = %d, want 5", sum.TrailingBytes)
	}
	if obs.stats != sum.Decode {
		t.Errorf("observer stats = %+v, want %+v", obs.stats, sum.Decode)
	}
	if len(obs.emitted) != 2 {
		t.Errorf("observer saw %d emits, want 2", len(obs.emitted))
	}
}

func TestSession_ReadError(t *testing.T) {
	cause := errors.New("disk gone")
	stream := fixtureStream(t)
	r := io.MultiReader(bytes.NewReader(stream), iotest.ErrReader(cause))

	var out bytes.Buffer
	s := NewSession(noPacing(t), NewRawSink(&out))
	sum, err := s.Run(context.Background(), r)

	if !errors.Is(err, ErrRead) || !errors.Is(err, cause) {
		t.Fatalf("Run error = %v, want ErrRead wrapping cause", err)
	}
	if errors.Is(err, ErrWrite) {
		t.Error("read failure must not look like a write failure")
	}
	if sum.Messages != 4 {
		t.Errorf("Messages = %d, want 4 emitted before the failure", sum.Messages)
	}
}

func TestSession_WriteError(t *testing.T) {
	cause := errors.New("pipe closed")
	s := NewSession(noPacing(t), NewRawSink(failingWriter{err: cause}))

	sum, err := s.Run(context.Background(), bytes.NewReader(fixtureStream(t)))
	if !errors.Is(err, ErrWrite) || !errors.Is(err, cause) {
		t.Fatalf("Run error = %v, want ErrWrite wrapping cause", err)
	}
	if sum.Messages != 0 {
		t.Errorf("Messages = %d, want 0", sum.Messages)
	}
}

func TestSession_PacedWithFakeClock(t *testing.T) {
	var stream []byte
	for i, ts := range []uint64{12_000_000, 24_000_000, 18_000_000, 48_000_000} {
		stream = append(stream, frame(t, beast.KindModeAC, ts, uint8(i), []byte{0, 0})...)
	}

	clock := newFakeClock()
	s := NewSession(newTestScheduler(t, DefaultSchedulerConfig(), clock), NewRawSink(io.Discard))

	sum, err := s.Run(context.Background(), bytes.NewReader(stream))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if !equalDurations(clock.sleeps, want) {
		t.Errorf("sleeps = %v, want %v", clock.sleeps, want)
	}
	if sum.Sleeps != 2 || sum.Slept != 3*time.Second || sum.Regressed != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestSession_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSession(noPacing(t), NewRawSink(io.Discard))
	if _, err := s.Run(ctx, bytes.NewReader(fixtureStream(t))); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}

// cancellingSink cancels the run from inside its first Emit.
type cancellingSink struct {
	cancel  context.CancelFunc
	emitted int
}

func (s *cancellingSink) Emit(beast.Message) error {
	s.emitted++
	s.cancel()
	return nil
}

func TestSession_StopsAtNextMessageAfterCancel(t *testing.T) {
	var stream []byte
	for i := 0; i < 10; i++ {
		// 1000 ticks apart, well under the sleep threshold.
		stream = append(stream, frame(t, beast.KindModeAC, uint64(i)*1000, 0, []byte{0, byte(i)})...)
	}

	for _, pacing := range []bool{false, true} {
		cfg := DefaultSchedulerConfig()
		cfg.Pacing = pacing
		clock := newFakeClock()

		ctx, cancel := context.WithCancel(context.Background())
		sink := &cancellingSink{cancel: cancel}
		s := NewSession(newTestScheduler(t, cfg, clock), sink)

		sum, err := s.Run(ctx, bytes.NewReader(stream))
		cancel()
		if !errors.Is(err, context.Canceled) {
			t.Errorf("pacing=%v: Run error = %v, want context.Canceled", pacing, err)
		}
		if sink.emitted != 1 || sum.Messages != 1 {
			t.Errorf("pacing=%v: emitted %d, summary %d messages; want 1", pacing, sink.emitted, sum.Messages)
		}
		if len(clock.sleeps) != 0 {
			t.Errorf("pacing=%v: sleeps = %v, want none", pacing, clock.sleeps)
		}
	}
}

func TestParseOutputMode(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputMode
		wantErr bool
	}{
		{"raw", OutputRaw, false},
		{"SHOW", OutputShow, false},
		{"hex", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseOutputMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseOutputMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
