package provider

import "errors"

// Session errors. Any of these marks a session unhealthy; the session is
// never reused after surfacing one.
var (
	// ErrSessionUnhealthy is returned for any exchange attempted after the
	// session has already recorded a fatal error.
	ErrSessionUnhealthy = errors.New("provider session unhealthy")

	// ErrRequestIDMismatch indicates a response carried a request id other
	// than the one just sent.
	ErrRequestIDMismatch = errors.New("response request id mismatch")

	// ErrExchangeTimeout indicates a response did not arrive within the
	// exchange's timeout.
	ErrExchangeTimeout = errors.New("exchange deadline exceeded")

	// ErrProcessExited indicates the child process exited between or
	// during exchanges.
	ErrProcessExited = errors.New("provider process exited")

	// ErrHelloFailed indicates the initial handshake exchange failed or
	// returned a response that was not a HelloResponse.
	ErrHelloFailed = errors.New("provider hello handshake failed")

	// ErrNotReady indicates a WaitReady exchange reported the provider is
	// not yet ready.
	ErrNotReady = errors.New("provider not ready")

	// ErrSpawnFailed wraps an underlying os/exec start failure.
	ErrSpawnFailed = errors.New("failed to spawn provider process")
)
