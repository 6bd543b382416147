package registry

import (
	"fmt"
	"strings"

	"github.com/latticeworks/devicert/pkg/wire"
)

// Device is the immutable, post-discovery capability record for one
// device on one provider.
type Device struct {
	ProviderID string
	DeviceID   string
	Label      string

	// Descriptor is the raw DescribeDevice response, kept alongside the
	// lookup maps for external encoding.
	Descriptor wire.DescribeDeviceResponse

	SignalsByID     map[string]wire.SignalSpec
	FunctionsByID   map[uint32]wire.FunctionSpec
	FunctionsByName map[string]wire.FunctionSpec
}

// Handle returns the device's composite "provider/device" handle string.
func (d *Device) Handle() string {
	return FormatHandle(d.ProviderID, d.DeviceID)
}

// FormatHandle builds the composite handle string for a provider/device
// pair.
func FormatHandle(providerID, deviceID string) string {
	return providerID + "/" + deviceID
}

// ParseHandle splits a composite "provider/device" handle string. The
// device id may itself contain slashes; only the first slash separates
// provider id from device id.
func ParseHandle(handle string) (providerID, deviceID string, err error) {
	idx := strings.Index(handle, "/")
	if idx < 0 {
		return "", "", fmt.Errorf("malformed device handle %q: missing '/'", handle)
	}
	providerID = handle[:idx]
	deviceID = handle[idx+1:]
	if providerID == "" || deviceID == "" {
		return "", "", fmt.Errorf("malformed device handle %q: empty provider or device id", handle)
	}
	return providerID, deviceID, nil
}

func buildDevice(providerID string, summary wire.DeviceSummary, desc *wire.DescribeDeviceResponse) *Device {
	d := &Device{
		ProviderID:      providerID,
		DeviceID:        summary.DeviceID,
		Label:           desc.Label,
		Descriptor:      *desc,
		SignalsByID:     make(map[string]wire.SignalSpec, len(desc.Signals)),
		FunctionsByID:   make(map[uint32]wire.FunctionSpec, len(desc.Functions)),
		FunctionsByName: make(map[string]wire.FunctionSpec, len(desc.Functions)),
	}
	for _, sig := range desc.Signals {
		d.SignalsByID[sig.SignalID] = sig
	}
	for _, fn := range desc.Functions {
		d.FunctionsByID[fn.FunctionID] = fn
		d.FunctionsByName[fn.Name] = fn
	}
	return d
}

// DefaultSignalIDs returns the ids of this device's signals marked as
// polled by default.
func (d *Device) DefaultSignalIDs() []string {
	var ids []string
	for _, sig := range d.Descriptor.Signals {
		if sig.IsDefault() {
			ids = append(ids, sig.SignalID)
		}
	}
	return ids
}
