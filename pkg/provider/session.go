package provider

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/latticeworks/devicert/pkg/log"
	"github.com/latticeworks/devicert/pkg/transport"
	"github.com/latticeworks/devicert/pkg/wire"
)

// ClientName identifies this runtime during the Hello handshake.
const ClientName = "devicert"

// SessionConfig carries the per-provider timeouts and process launch
// parameters a Session needs to spawn and operate its child.
type SessionConfig struct {
	ProviderID string
	Path       string
	Args       []string

	// ExchangeTimeout bounds every Running-phase exchange.
	ExchangeTimeout time.Duration
	// HelloTimeout bounds the initial handshake, typically shorter than
	// ExchangeTimeout since it checks basic process liveness.
	HelloTimeout time.Duration
	// ReadyTimeout bounds the optional WaitReady exchange, typically
	// longer than ExchangeTimeout to cover slow hardware init.
	ReadyTimeout time.Duration
	// ShutdownGrace bounds how long Shutdown waits for a clean exit
	// after closing stdin before escalating to SIGTERM/kill.
	ShutdownGrace time.Duration
}

// Session owns a child provider process and the single framed stream pair
// used to exchange ADPP requests and responses with it. Every exchange holds
// an exclusive lock for its duration so request/response pairs never
// interleave on the wire.
type Session struct {
	cfg SessionConfig
	id  string

	proc   *process
	framer *transport.Framer

	mu      sync.Mutex
	nextReq uint32
	healthy atomic.Bool

	logger log.Logger

	providerName    string
	providerVersion string
}

// NewSession constructs a session that has not yet been spawned.
func NewSession(cfg SessionConfig) *Session {
	return &Session{
		cfg:  cfg,
		id:   uuid.NewString(),
		proc: newProcess(cfg.ProviderID, cfg.Path, cfg.Args),
	}
}

// SetLogger attaches a protocol-event sink. Must be called before Spawn to
// capture the handshake frames too.
func (s *Session) SetLogger(logger log.Logger) {
	s.logger = logger
}

// ID returns the session's correlation id, stable for the lifetime of this
// Session value (a new id is assigned on every reconnect, since a new
// Session is constructed for each).
func (s *Session) ID() string { return s.id }

// ProviderID returns the id this session was configured with.
func (s *Session) ProviderID() string { return s.cfg.ProviderID }

// Spawn starts the child process and performs the Hello handshake. If
// WaitReady is requested by the caller afterward, it is a separate step.
func (s *Session) Spawn() error {
	if err := s.proc.spawn(); err != nil {
		return err
	}

	stdout, stdin := s.proc.stdioStreams()
	s.framer = transport.NewFramer(&readWriter{r: stdout, w: stdin})
	if s.logger != nil {
		s.framer.SetLogger(s.logger, s.id)
	}
	s.healthy.Store(true)

	resp, err := s.Hello()
	if err != nil {
		s.healthy.Store(false)
		return fmt.Errorf("%w: %v", ErrHelloFailed, err)
	}
	s.providerName = resp.ProviderName
	s.providerVersion = resp.ProviderVersion
	return nil
}

// readWriter adapts separate reader/writer pipes to io.ReadWriter for
// transport.NewFramer.
type readWriter struct {
	r io.Reader
	w io.Writer
}

func (rw *readWriter) Read(p []byte) (int, error)  { return rw.r.Read(p) }
func (rw *readWriter) Write(p []byte) (int, error) { return rw.w.Write(p) }

// SetReadDeadline forwards to the underlying reader when it supports read
// deadlines (the stdout pipe is a *os.File, which does), so transport's
// ExchangeTimeout/HelloTimeout/ReadyTimeout enforcement reaches a real
// spawned session instead of only readers that already satisfy this
// interface directly.
func (rw *readWriter) SetReadDeadline(t time.Time) error {
	if ds, ok := rw.r.(interface{ SetReadDeadline(time.Time) error }); ok {
		return ds.SetReadDeadline(t)
	}
	return nil
}

// IsHealthy reports whether the session has not yet hit a fatal error.
func (s *Session) IsHealthy() bool { return s.healthy.Load() }

// IsAvailable reports whether the session is healthy and its process is
// still running. This is the signal the state cache and call router use
// to decide whether a device's provider is reachable.
func (s *Session) IsAvailable() bool {
	return s.healthy.Load() && s.proc.isRunning()
}

// ProviderName and ProviderVersion report the identity the provider gave
// during Hello.
func (s *Session) ProviderName() string    { return s.providerName }
func (s *Session) ProviderVersion() string { return s.providerVersion }

// Shutdown closes the parent's write end, waits up to the configured grace
// window, then forcibly terminates and reaps the child.
func (s *Session) Shutdown() error {
	s.healthy.Store(false)
	grace := s.cfg.ShutdownGrace
	if grace <= 0 {
		grace = 2 * time.Second
	}
	return s.proc.shutdown(grace)
}

// Hello performs the initial handshake exchange.
func (s *Session) Hello() (*wire.HelloResponse, error) {
	req := wire.HelloRequest{ProtocolVersion: "v0", ClientName: ClientName}
	resp, err := s.exchange(wire.KindHello, &req, s.cfg.HelloTimeout)
	if err != nil {
		return nil, err
	}
	var out wire.HelloResponse
	if err := wire.DecodeBody(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode hello response: %v", ErrHelloFailed, err)
	}
	return &out, nil
}

// WaitReady performs the optional readiness exchange, bounded by
// ReadyTimeout. A false Ready is surfaced as ErrNotReady.
func (s *Session) WaitReady() (*wire.WaitReadyResponse, error) {
	resp, err := s.exchange(wire.KindWaitReady, &wire.WaitReadyRequest{}, s.cfg.ReadyTimeout)
	if err != nil {
		return nil, err
	}
	var out wire.WaitReadyResponse
	if err := wire.DecodeBody(resp.Body, &out); err != nil {
		return nil, err
	}
	if !out.Ready {
		return &out, ErrNotReady
	}
	return &out, nil
}

// ListDevices enumerates the provider's device ids.
func (s *Session) ListDevices() (*wire.ListDevicesResponse, error) {
	resp, err := s.exchange(wire.KindListDevices, &wire.ListDevicesRequest{}, s.cfg.ExchangeTimeout)
	if err != nil {
		return nil, err
	}
	var out wire.ListDevicesResponse
	if err := wire.DecodeBody(resp.Body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DescribeDevice fetches the capability set for one device.
func (s *Session) DescribeDevice(deviceID string) (*wire.DescribeDeviceResponse, error) {
	req := wire.DescribeDeviceRequest{DeviceID: deviceID}
	resp, err := s.exchange(wire.KindDescribeDevice, &req, s.cfg.ExchangeTimeout)
	if err != nil {
		return nil, err
	}
	var out wire.DescribeDeviceResponse
	if err := wire.DecodeBody(resp.Body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReadSignals requests the current value of the given signals on a device.
func (s *Session) ReadSignals(deviceID string, signalIDs []string) (*wire.ReadSignalsResponse, error) {
	req := wire.ReadSignalsRequest{DeviceID: deviceID, SignalIDs: signalIDs}
	resp, err := s.exchange(wire.KindReadSignals, &req, s.cfg.ExchangeTimeout)
	if err != nil {
		return nil, err
	}
	var out wire.ReadSignalsResponse
	if err := wire.DecodeBody(resp.Body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Call invokes a device function and returns its named results.
func (s *Session) Call(deviceID string, functionID uint32, functionName string, args map[string]wire.Value) (*wire.CallResponse, error) {
	req := wire.CallRequest{
		DeviceID:     deviceID,
		FunctionID:   functionID,
		FunctionName: functionName,
		Args:         args,
	}
	resp, err := s.exchange(wire.KindCall, &req, s.cfg.ExchangeTimeout)
	if err != nil {
		return nil, err
	}
	var out wire.CallResponse
	if err := wire.DecodeBody(resp.Body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// exchange sends one request and waits for its matching response, holding
// the session's exclusive lock for the duration. Any failure marks the
// session unhealthy; it is not reused afterward.
func (s *Session) exchange(kind wire.Kind, payload any, timeout time.Duration) (*wire.Response, error) {
	if !s.healthy.Load() {
		return nil, ErrSessionUnhealthy
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	requestID := atomic.AddUint32(&s.nextReq, 1)

	data, err := wire.EncodeRequest(requestID, kind, payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	if err := s.framer.WriteFrame(data); err != nil {
		s.healthy.Store(false)
		if !s.proc.isRunning() {
			return nil, fmt.Errorf("%w: %v", ErrProcessExited, err)
		}
		return nil, fmt.Errorf("%w: %v", transport.ErrWriteFailed, err)
	}

	frame, err := s.framer.ReadFrame(timeout)
	if err != nil {
		s.healthy.Store(false)
		return nil, s.classifyExchangeErr(err)
	}

	resp, err := wire.DecodeResponse(frame)
	if err != nil {
		s.healthy.Store(false)
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.RequestID != requestID {
		s.healthy.Store(false)
		return nil, fmt.Errorf("%w: sent %d, got %d", ErrRequestIDMismatch, requestID, resp.RequestID)
	}

	if !resp.Status.IsOK() {
		return resp, &StatusError{Code: resp.Status.Code, Message: resp.Status.Message}
	}

	return resp, nil
}

// classifyExchangeErr maps a transport-layer read failure onto the
// session's own fatal-error vocabulary.
func (s *Session) classifyExchangeErr(err error) error {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, transport.ErrFrameTruncated):
		return fmt.Errorf("%w: %v", ErrProcessExited, err)
	case errors.Is(err, transport.ErrReadTimeout):
		if !s.proc.isRunning() {
			return fmt.Errorf("%w: %v", ErrProcessExited, err)
		}
		return fmt.Errorf("%w: %v", ErrExchangeTimeout, err)
	default:
		return err
	}
}

// StatusError wraps a non-OK ADPP status returned by a provider.
type StatusError struct {
	Code    wire.Code
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
