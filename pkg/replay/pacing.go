package replay

import (
	"math"
	"math/bits"
	"time"
)

// DefaultSleepThreshold is the smallest wait worth handing to the clock.
// Shorter waits are skipped and the message is emitted immediately.
const DefaultSleepThreshold = 10 * time.Millisecond

// ClockState anchors replay time to wall time. The zero value has not seen a
// message yet.
type ClockState struct {
	// LastTimestamp is the adjusted timestamp of the last anchoring message.
	LastTimestamp uint64

	// LastWallTime is the wall time scheduled for LastTimestamp.
	LastWallTime time.Time

	// Started is false until the first message has been seen.
	Started bool
}

// Decision describes how one message was paced.
type Decision struct {
	// Delay is the computed wait; it may be negative when replay is behind.
	Delay time.Duration

	// Sleep is true when Delay exceeded the sleep threshold.
	Sleep bool

	// First is true for the message that anchored the clock.
	First bool

	// Regressed is true when the adjusted timestamp did not increase.
	Regressed bool

	// GapSkipped is true when the scheduled delta exceeded MaxGap and the
	// anchor was moved to the current wall time.
	GapSkipped bool
}

// Pacer computes replay delays. It holds no state of its own; each call to
// Next takes the previous ClockState and returns the next one.
type Pacer struct {
	Mode ClockMode

	// SleepThreshold: only delays strictly greater than this sleep.
	SleepThreshold time.Duration

	// MaxGap, when positive, caps the scheduled delta. Larger jumps are not
	// slept and rebase the anchor to now.
	MaxGap time.Duration

	// Speed divides scheduled deltas. Zero or negative means 1.
	Speed float64
}

// Next paces a message with raw timestamp ts observed at wall time now.
func (p Pacer) Next(st ClockState, ts uint64, now time.Time) (ClockState, Decision) {
	adj := p.Mode.Adjust(ts)
	if !st.Started {
		return ClockState{LastTimestamp: adj, LastWallTime: now, Started: true}, Decision{First: true}
	}
	if adj <= st.LastTimestamp {
		return st, Decision{Regressed: true}
	}

	delta := p.scheduledDelta(adj - st.LastTimestamp)
	if p.MaxGap > 0 && delta > p.MaxGap {
		return ClockState{LastTimestamp: adj, LastWallTime: now, Started: true}, Decision{GapSkipped: true}
	}

	due := st.LastWallTime.Add(delta)
	delay := due.Sub(now)
	next := ClockState{LastTimestamp: adj, LastWallTime: due, Started: true}
	return next, Decision{Delay: delay, Sleep: delay > p.SleepThreshold}
}

// scheduledDelta converts a tick delta into wall time.
func (p Pacer) scheduledDelta(ticks uint64) time.Duration {
	freq := p.Mode.Frequency()
	hi, lo := bits.Mul64(ticks, uint64(time.Second))
	if hi >= freq {
		return time.Duration(math.MaxInt64)
	}
	ns, _ := bits.Div64(hi, lo, freq)
	if ns > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	d := time.Duration(ns)
	if p.Speed > 0 && p.Speed != 1 {
		scaled := float64(d) / p.Speed
		if scaled >= math.MaxInt64 {
			return time.Duration(math.MaxInt64)
		}
		d = time.Duration(scaled)
	}
	return d
}
