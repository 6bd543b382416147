// Package log provides structured protocol-event logging for the ADPP
// provider-session wire.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at multiple layers (transport, wire, service). It is
// separate from operational logging (slog) — protocol capture provides a
// complete machine-readable event trace for debugging provider sessions.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	logger := log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	fileLogger, _ := log.NewFileLogger("/var/log/devicert/session.elog")
//
//	// Both: use MultiLogger
//	logger := log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: Raw frame bytes (FrameEvent)
//   - Wire: Decoded requests/responses (MessageEvent)
//   - Service: Session and supervisor state changes (StateChangeEvent)
//
// Errors and post-discovery capability snapshots have dedicated event types.
//
// # File Format
//
// Log files use CBOR encoding with a .elog extension.
package log
