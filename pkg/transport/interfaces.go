package transport

import "time"

// FrameReadWriter provides timeout-bounded, length-prefixed frame I/O over
// a provider's stdio pipes. Implemented by Framer.
type FrameReadWriter interface {
	// ReadFrame reads one frame, blocking up to timeout (0 = no deadline).
	ReadFrame(timeout time.Duration) ([]byte, error)

	// WriteFrame writes one frame.
	WriteFrame(data []byte) error
}

// Compile-time interface satisfaction check.
var _ FrameReadWriter = (*Framer)(nil)
