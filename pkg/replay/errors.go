package replay

import "errors"

// Errors returned by Session.Run. They wrap the underlying cause, so both
// errors.Is(err, ErrRead) and errors.Is(err, cause) hold.
var (
	// ErrRead is returned when the input source fails.
	ErrRead = errors.New("replay: read input")

	// ErrWrite is returned when the output sink fails.
	ErrWrite = errors.New("replay: write output")

	// ErrInvalidConfig is returned for unusable scheduler or session settings.
	ErrInvalidConfig = errors.New("replay: invalid configuration")
)
