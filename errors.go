package framebuf

import "errors"

// Sentinel errors for frame buffer operations. These enable reliable
// classification with errors.Is().

var (
	// ErrInvalidConfig indicates a configuration field is out of range.
	ErrInvalidConfig = errors.New("invalid frame buffer configuration")

	// ErrDisconnected indicates the decoder closed the ingestion channel or
	// the buffer was shut down; the subsystem can make no further progress.
	ErrDisconnected = errors.New("decoder channel closed")
)
