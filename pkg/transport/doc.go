// Package transport implements the length-prefixed framing ADPP runs over.
//
// A frame is a 4-byte little-endian length prefix followed by that many
// payload bytes. The maximum frame size is 1 MiB; a larger declared length
// is a protocol error that fails the read without consuming the payload
// bytes that follow it. Reads accept a deadline: partial reads are looped
// until the frame is assembled or the deadline passes. Read failure, write
// failure, peer end-of-stream, and timeout are distinguishable error kinds
// so pkg/provider can map them onto typed session errors.
//
// Frames travel over a child process's stdin/stdout pipes. When the
// underlying stream supports deadlines (*os.File does, since Go 1.21) a
// per-call read timeout is enforced with SetReadDeadline; streams that
// don't support it (e.g. an in-memory pipe used in tests) simply block.
package transport
