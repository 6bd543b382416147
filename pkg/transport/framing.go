package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/latticeworks/devicert/pkg/log"
)

// Framing constants.
const (
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4

	// MaxFrameSize is the maximum frame payload size (1 MiB).
	MaxFrameSize = 1 << 20

	// MaxLogFrameDataSize is the maximum frame data size to include in logs
	// (4 KB). Larger frames are truncated in log events.
	MaxLogFrameDataSize = 4096
)

// Framing errors. Each is a distinguishable kind per the framing contract:
// read failure, write failure, peer end-of-stream, and timeout.
var (
	// ErrFrameTooLarge indicates a declared frame length exceeds MaxFrameSize.
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")

	// ErrFrameTruncated indicates the peer closed mid-frame.
	ErrFrameTruncated = errors.New("frame truncated")

	// ErrReadTimeout indicates a read deadline elapsed before a full frame
	// was assembled.
	ErrReadTimeout = errors.New("read timeout")

	// ErrWriteFailed wraps an underlying write error.
	ErrWriteFailed = errors.New("write failed")

	// ErrReadFailed wraps an underlying read error that is neither EOF,
	// truncation, nor a timeout.
	ErrReadFailed = errors.New("read failed")
)

// deadlineSetter is implemented by streams that support read deadlines,
// notably *os.File (Go 1.21+) and net.Conn.
type deadlineSetter interface {
	SetReadDeadline(t time.Time) error
}

// timeoutError is implemented by errors that indicate a deadline expired.
type timeoutError interface {
	Timeout() bool
}

// FrameWriter writes length-prefixed frames to an underlying writer.
type FrameWriter struct {
	w  io.Writer
	mu sync.Mutex

	// Logging support (optional)
	logger    log.Logger
	sessionID string
}

// NewFrameWriter creates a new frame writer.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// SetLogger configures logging for this writer. Pass nil to disable logging.
func (fw *FrameWriter) SetLogger(logger log.Logger, sessionID string) {
	fw.logger = logger
	fw.sessionID = sessionID
}

// WriteFrame writes a length-prefixed frame. Thread-safe.
func (fw *FrameWriter) WriteFrame(data []byte) error {
	if uint64(len(data)) > MaxFrameSize {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(data), MaxFrameSize)
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	var lengthBuf [LengthPrefixSize]byte
	binary.LittleEndian.PutUint32(lengthBuf[:], uint32(len(data)))

	if _, err := fw.w.Write(lengthBuf[:]); err != nil {
		return fmt.Errorf("%w: length prefix: %v", ErrWriteFailed, err)
	}
	if len(data) > 0 {
		if _, err := fw.w.Write(data); err != nil {
			return fmt.Errorf("%w: payload: %v", ErrWriteFailed, err)
		}
	}

	if fw.logger != nil {
		fw.logger.Log(fw.makeFrameEvent(data, log.DirectionOut))
	}

	return nil
}

func (fw *FrameWriter) makeFrameEvent(data []byte, direction log.Direction) log.Event {
	frameData, truncated := truncateForLog(data)
	return log.Event{
		Timestamp: time.Now(),
		SessionID: fw.sessionID,
		Direction: direction,
		Layer:     log.LayerTransport,
		Category:  log.CategoryMessage,
		Frame: &log.FrameEvent{
			Size:      LengthPrefixSize + len(data),
			Data:      frameData,
			Truncated: truncated,
		},
	}
}

// FrameReader reads length-prefixed frames from an underlying reader.
type FrameReader struct {
	r         io.Reader
	lengthBuf [LengthPrefixSize]byte

	// Logging support (optional)
	logger    log.Logger
	sessionID string
}

// NewFrameReader creates a new frame reader.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r}
}

// SetLogger configures logging for this reader. Pass nil to disable logging.
func (fr *FrameReader) SetLogger(logger log.Logger, sessionID string) {
	fr.logger = logger
	fr.sessionID = sessionID
}

// ReadFrame reads a length-prefixed frame, returning the payload without the
// length prefix. If timeout is positive and the underlying reader supports
// read deadlines, the read fails with ErrReadTimeout once the deadline
// passes without a complete frame. A zero timeout blocks indefinitely.
func (fr *FrameReader) ReadFrame(timeout time.Duration) ([]byte, error) {
	if ds, ok := fr.r.(deadlineSetter); ok {
		var deadline time.Time
		if timeout > 0 {
			deadline = time.Now().Add(timeout)
		}
		if err := ds.SetReadDeadline(deadline); err != nil {
			return nil, fmt.Errorf("%w: set read deadline: %v", ErrReadFailed, err)
		}
	}

	if _, err := io.ReadFull(fr.r, fr.lengthBuf[:]); err != nil {
		return nil, classifyReadErr(err)
	}

	length := binary.LittleEndian.Uint32(fr.lengthBuf[:])
	if length > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, uint64(MaxFrameSize))
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(fr.r, payload); err != nil {
			return nil, classifyReadErr(err)
		}
	}

	if fr.logger != nil {
		fr.logger.Log(fr.makeFrameEvent(payload, log.DirectionIn))
	}

	return payload, nil
}

func (fr *FrameReader) makeFrameEvent(data []byte, direction log.Direction) log.Event {
	frameData, truncated := truncateForLog(data)
	return log.Event{
		Timestamp: time.Now(),
		SessionID: fr.sessionID,
		Direction: direction,
		Layer:     log.LayerTransport,
		Category:  log.CategoryMessage,
		Frame: &log.FrameEvent{
			Size:      LengthPrefixSize + len(data),
			Data:      frameData,
			Truncated: truncated,
		},
	}
}

// classifyReadErr maps an io.ReadFull error onto one of the framing
// package's distinguishable error kinds.
func classifyReadErr(err error) error {
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrFrameTruncated
	}
	var te timeoutError
	if errors.As(err, &te) && te.Timeout() {
		return ErrReadTimeout
	}
	return fmt.Errorf("%w: %v", ErrReadFailed, err)
}

func truncateForLog(data []byte) ([]byte, bool) {
	if len(data) <= MaxLogFrameDataSize {
		return data, false
	}
	return data[:MaxLogFrameDataSize], true
}

// Framer combines frame reading and writing over one bidirectional stream.
type Framer struct {
	*FrameReader
	*FrameWriter
}

// NewFramer creates a new framer for bidirectional communication.
func NewFramer(rw io.ReadWriter) *Framer {
	return &Framer{
		FrameReader: NewFrameReader(rw),
		FrameWriter: NewFrameWriter(rw),
	}
}

// SetLogger configures logging for both reader and writer.
func (f *Framer) SetLogger(logger log.Logger, sessionID string) {
	f.FrameReader.SetLogger(logger, sessionID)
	f.FrameWriter.SetLogger(logger, sessionID)
}

// FrameSize returns the total frame size including the length prefix.
func FrameSize(payloadSize int) int {
	return LengthPrefixSize + payloadSize
}
