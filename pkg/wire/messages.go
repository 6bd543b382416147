package wire

import "time"

// HelloRequest carries client identification and the protocol version the
// runtime speaks.
type HelloRequest struct {
	ProtocolVersion string `cbor:"1,keyasint"`
	ClientName      string `cbor:"2,keyasint,omitempty"`
}

// HelloResponse echoes the negotiated protocol version and provider identity.
type HelloResponse struct {
	ProtocolVersion string `cbor:"1,keyasint"`
	ProviderName    string `cbor:"2,keyasint,omitempty"`
	ProviderVersion string `cbor:"3,keyasint,omitempty"`
}

// WaitReadyRequest asks the provider to block until hardware initialization
// completes or the provider-side timeout elapses.
type WaitReadyRequest struct{}

// WaitReadyResponse reports whether the provider reached a ready state.
type WaitReadyResponse struct {
	Ready bool `cbor:"1,keyasint"`
}

// ListDevicesRequest has no fields; it requests the full device set.
type ListDevicesRequest struct{}

// DeviceSummary is one entry in a ListDevices response.
type DeviceSummary struct {
	DeviceID string `cbor:"1,keyasint"`
	Label    string `cbor:"2,keyasint,omitempty"`
}

// ListDevicesResponse enumerates the devices a provider exposes.
type ListDevicesResponse struct {
	Devices []DeviceSummary `cbor:"1,keyasint"`
}

// DescribeDeviceRequest asks for one device's capability set.
type DescribeDeviceRequest struct {
	DeviceID string `cbor:"1,keyasint"`
}

// ArgSpec describes one function argument's type and validation bounds.
type ArgSpec struct {
	Name      string    `cbor:"1,keyasint"`
	ValueType ValueType `cbor:"2,keyasint"`
	Required  bool      `cbor:"3,keyasint,omitempty"`
	Min       *float64  `cbor:"4,keyasint,omitempty"`
	Max       *float64  `cbor:"5,keyasint,omitempty"`
}

// SignalSpec describes one readable signal. A signal is a "default signal"
// — included in the periodic poll plan — exactly when PollHintHz > 0.
type SignalSpec struct {
	SignalID   string    `cbor:"1,keyasint"`
	Label      string    `cbor:"2,keyasint,omitempty"`
	ValueType  ValueType `cbor:"3,keyasint"`
	PollHintHz float64   `cbor:"4,keyasint,omitempty"`
}

// IsDefault reports whether this signal belongs in the periodic poll plan.
func (s SignalSpec) IsDefault() bool { return s.PollHintHz > 0 }

// FunctionSpec describes one callable device function.
type FunctionSpec struct {
	FunctionID  uint32    `cbor:"1,keyasint"`
	Name        string    `cbor:"2,keyasint"`
	Description string    `cbor:"3,keyasint,omitempty"`
	Args        []ArgSpec `cbor:"4,keyasint,omitempty"`
}

// DescribeDeviceResponse is a device's full capability catalog entry.
type DescribeDeviceResponse struct {
	DeviceID  string         `cbor:"1,keyasint"`
	Label     string         `cbor:"2,keyasint,omitempty"`
	Signals   []SignalSpec   `cbor:"3,keyasint,omitempty"`
	Functions []FunctionSpec `cbor:"4,keyasint,omitempty"`
}

// ReadSignalsRequest asks for the current values of specific signals on one
// device. An empty SignalIDs list requests every signal the device exposes.
type ReadSignalsRequest struct {
	DeviceID  string   `cbor:"1,keyasint"`
	SignalIDs []string `cbor:"2,keyasint,omitempty"`
}

// SignalValue pairs a signal reading with its quality and capture time.
type SignalValue struct {
	SignalID  string    `cbor:"1,keyasint"`
	Value     Value     `cbor:"2,keyasint"`
	Quality   Quality   `cbor:"3,keyasint"`
	Timestamp time.Time `cbor:"4,keyasint"`
}

// ReadSignalsResponse carries the requested signal readings.
type ReadSignalsResponse struct {
	Values []SignalValue `cbor:"1,keyasint"`
}

// CallRequest invokes one device function by id or name with named
// arguments. FunctionName is used when FunctionID is zero.
type CallRequest struct {
	DeviceID     string           `cbor:"1,keyasint"`
	FunctionID   uint32           `cbor:"2,keyasint,omitempty"`
	FunctionName string           `cbor:"3,keyasint,omitempty"`
	Args         map[string]Value `cbor:"4,keyasint,omitempty"`
}

// CallResponse carries a function's named results.
type CallResponse struct {
	Results map[string]Value `cbor:"1,keyasint,omitempty"`
}
