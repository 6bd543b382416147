package log

import (
	"time"

	"github.com/latticeworks/devicert/pkg/wire"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID uniquely identifies the provider session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalRole indicates whether this is a provider or the runtime core.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// ProviderID is the provider identifier this event concerns.
	ProviderID string `cbor:"7,keyasint,omitempty"`

	// DeviceID is the device identifier, when the event concerns one device.
	DeviceID string `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent              `cbor:"9,keyasint,omitempty"`  // Transport layer
	Message     *MessageEvent            `cbor:"10,keyasint,omitempty"` // Wire layer (decoded)
	StateChange *StateChangeEvent        `cbor:"11,keyasint,omitempty"` // Session/supervisor state
	Error       *ErrorEventData          `cbor:"12,keyasint,omitempty"` // Errors at any layer
	Snapshot    *CapabilitySnapshotEvent `cbor:"13,keyasint,omitempty"` // Capability snapshot
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the message encoding layer (decoded CBOR).
	LayerWire Layer = 1
	// LayerService is the application/service layer.
	LayerService Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a protocol message (request/response).
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
	// CategorySnapshot indicates a capability snapshot event.
	CategorySnapshot Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	case CategorySnapshot:
		return "SNAPSHOT"
	default:
		return "UNKNOWN"
	}
}

// Role indicates whether the local endpoint is a provider or the runtime core.
type Role uint8

const (
	// RoleProvider indicates the local endpoint is a provider child process.
	RoleProvider Role = 0
	// RoleRuntime indicates the local endpoint is the runtime core.
	RoleRuntime Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleProvider:
		return "PROVIDER"
	case RoleRuntime:
		return "RUNTIME"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded ADPP request or response at the wire layer.
type MessageEvent struct {
	// Type distinguishes request/response.
	Type MessageType `cbor:"1,keyasint"`

	// RequestID correlates request/response pairs.
	RequestID uint32 `cbor:"2,keyasint"`

	// Kind is the request kind (requests only).
	Kind *wire.Kind `cbor:"3,keyasint,omitempty"`

	// Status is the response status (responses only).
	Status *wire.Status `cbor:"4,keyasint,omitempty"`

	// Payload is the decoded body (CBOR-compatible representation).
	Payload any `cbor:"5,keyasint,omitempty"`

	// ProcessingTime is the duration from request send to response receipt
	// (response only). Stored as nanoseconds.
	ProcessingTime *time.Duration `cbor:"6,keyasint,omitempty"`
}

// MessageType distinguishes request/response.
type MessageType uint8

const (
	// MessageTypeRequest indicates a request message.
	MessageTypeRequest MessageType = 0
	// MessageTypeResponse indicates a response message.
	MessageTypeResponse MessageType = 1
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures session and supervisor lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntitySession indicates a provider session state change.
	StateEntitySession StateEntity = 0
	// StateEntitySupervisor indicates a supervisor lifecycle-label change.
	StateEntitySupervisor StateEntity = 1
	// StateEntityDevice indicates a device availability transition.
	StateEntityDevice StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntitySession:
		return "SESSION"
	case StateEntitySupervisor:
		return "SUPERVISOR"
	case StateEntityDevice:
		return "DEVICE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the status code (if applicable).
	Code *wire.Code `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}

// CapabilitySnapshotEvent is logged after discovery and contains the
// complete capability catalog discovered for one provider.
type CapabilitySnapshotEvent struct {
	// ProviderID is the provider this snapshot describes.
	ProviderID string `cbor:"1,keyasint"`

	// Devices lists every device discovered on the provider.
	Devices []DeviceSnapshot `cbor:"2,keyasint"`
}

// DeviceSnapshot captures the discovered capability set of one device.
type DeviceSnapshot struct {
	// DeviceID is the device identifier.
	DeviceID string `cbor:"1,keyasint"`

	// Label is an optional human-readable label.
	Label string `cbor:"2,keyasint,omitempty"`

	// Signals lists the device's readable signals.
	Signals []SignalSnapshot `cbor:"3,keyasint,omitempty"`

	// Functions lists the device's callable functions.
	Functions []FunctionSnapshot `cbor:"4,keyasint,omitempty"`
}

// SignalSnapshot captures one signal's static capability description.
type SignalSnapshot struct {
	// SignalID is the signal identifier.
	SignalID string `cbor:"1,keyasint"`

	// ValueType is the signal's value type.
	ValueType wire.ValueType `cbor:"2,keyasint"`

	// PollHintHz is the provider-suggested poll rate (0 means not polled).
	PollHintHz float64 `cbor:"3,keyasint,omitempty"`
}

// FunctionSnapshot captures one function's static capability description.
type FunctionSnapshot struct {
	// FunctionID is the function identifier.
	FunctionID uint32 `cbor:"1,keyasint"`

	// Name is the function name.
	Name string `cbor:"2,keyasint"`

	// ArgCount is the number of declared arguments.
	ArgCount int `cbor:"3,keyasint,omitempty"`
}
