package wire

import "github.com/fxamacker/cbor/v2"

// Kind identifies which ADPP operation a request envelope carries.
type Kind uint8

const (
	// KindHello is the protocol-version/client-identification handshake.
	KindHello Kind = 1
	// KindWaitReady covers slow hardware initialization.
	KindWaitReady Kind = 2
	// KindListDevices enumerates the devices a provider exposes.
	KindListDevices Kind = 3
	// KindDescribeDevice returns a device's capability set.
	KindDescribeDevice Kind = 4
	// KindReadSignals reads the current values of a set of signals.
	KindReadSignals Kind = 5
	// KindCall invokes a device function.
	KindCall Kind = 6
)

// String returns the request kind name.
func (k Kind) String() string {
	switch k {
	case KindHello:
		return "Hello"
	case KindWaitReady:
		return "WaitReady"
	case KindListDevices:
		return "ListDevices"
	case KindDescribeDevice:
		return "DescribeDevice"
	case KindReadSignals:
		return "ReadSignals"
	case KindCall:
		return "Call"
	default:
		return "Unknown"
	}
}

// Code is a closed set of status codes a provider response may carry.
type Code uint8

const (
	CodeOK                 Code = 0
	CodeInvalidArgument    Code = 1
	CodeNotFound           Code = 2
	CodeFailedPrecondition Code = 3
	CodeUnavailable        Code = 4
	CodeDeadlineExceeded   Code = 5
	CodeInternal           Code = 6
)

// String returns the status code name.
func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeInvalidArgument:
		return "INVALID_ARGUMENT"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeFailedPrecondition:
		return "FAILED_PRECONDITION"
	case CodeUnavailable:
		return "UNAVAILABLE"
	case CodeDeadlineExceeded:
		return "DEADLINE_EXCEEDED"
	case CodeInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Status is the status portion of a response envelope.
type Status struct {
	Code    Code   `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint,omitempty"`
}

// OK returns a successful status.
func OK() Status { return Status{Code: CodeOK} }

// IsOK reports whether the status indicates success.
func (s Status) IsOK() bool { return s.Code == CodeOK }

// Request is the envelope every ADPP request travels in.
type Request struct {
	RequestID uint32          `cbor:"1,keyasint"`
	Kind      Kind            `cbor:"2,keyasint"`
	Body      cbor.RawMessage `cbor:"3,keyasint,omitempty"`
}

// Response is the envelope every ADPP response travels in.
type Response struct {
	RequestID uint32          `cbor:"1,keyasint"`
	Status    Status          `cbor:"2,keyasint"`
	Body      cbor.RawMessage `cbor:"3,keyasint,omitempty"`
}
