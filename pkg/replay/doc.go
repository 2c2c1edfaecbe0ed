// Package replay re-emits decoded Beast messages at the cadence recorded in
// their hardware timestamps.
//
// A [Session] reads an input stream in fixed-size chunks, decodes frames with
// package beast, asks a [Scheduler] how long to wait before each message, and
// forwards the message to a [Sink]. Everything runs on the caller's
// goroutine; messages reach the sink in input order.
//
// # Clock domains
//
//   - [ClockBeast]: timestamps count 12 MHz ticks.
//   - [ClockRadarcape]: timestamps pack seconds above a 30-bit nanosecond field.
//
// # Pacing
//
// The scheduler anchors the first message to the wall clock and accumulates
// scheduled deltas against that anchor rather than against the observed wake
// time, so oversleeping does not compound. Waits at or below the sleep
// threshold are skipped. Timestamps that do not increase are emitted at once
// and leave the anchor untouched.
//
// # Errors
//
// Malformed framing is never an error. Input and output failures are reported
// wrapped in [ErrRead] or [ErrWrite].
package replay
