// Package log is the structured logging abstraction used by beastreplay.
//
// Library packages accept a [Logger] and default to [NoopLogger]. The command
// line tool wires a zerolog adapter that writes to stderr, keeping stdout
// free for replayed data:
//
//	logger := log.NewZerologAdapter(os.Stderr, zerolog.InfoLevel)
//	logger.Info("replay finished", log.String("file", name), log.Int("messages", n))
//
// Any logging library can be plugged in by implementing the four-method
// Logger interface.
package log
