package registry

import (
	"fmt"
	"sync"

	"github.com/latticeworks/devicert/pkg/wire"
)

// Discoverer is the subset of a provider session's API the registry needs
// to run discovery. Satisfied by *provider.Session.
type Discoverer interface {
	ListDevices() (*wire.ListDevicesResponse, error)
	DescribeDevice(deviceID string) (*wire.DescribeDeviceResponse, error)
}

// Registry is the device/capability catalog built by discovering
// providers. Lookups are safe for concurrent use with discovery and with
// ClearProvider.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Device // handle -> device
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{devices: make(map[string]*Device)}
}

// DiscoverProvider runs ListDevices followed by DescribeDevice for each
// returned device id, replacing any devices previously registered under
// providerID. The registry is read-only for this provider's devices once
// this call returns successfully; a later DiscoverProvider call (e.g.
// after a restart) replaces them wholesale.
func (r *Registry) DiscoverProvider(providerID string, session Discoverer) error {
	listResp, err := session.ListDevices()
	if err != nil {
		return fmt.Errorf("discover provider %q: list devices: %w", providerID, err)
	}

	discovered := make(map[string]*Device, len(listResp.Devices))
	for _, summary := range listResp.Devices {
		desc, err := session.DescribeDevice(summary.DeviceID)
		if err != nil {
			return fmt.Errorf("discover provider %q: describe device %q: %w", providerID, summary.DeviceID, err)
		}
		dev := buildDevice(providerID, summary, desc)
		discovered[dev.Handle()] = dev
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearProviderLocked(providerID)
	for handle, dev := range discovered {
		r.devices[handle] = dev
	}
	return nil
}

// GetDevice looks up a device by provider id and device id.
func (r *Registry) GetDevice(providerID, deviceID string) (*Device, bool) {
	return r.GetByHandle(FormatHandle(providerID, deviceID))
}

// GetByHandle looks up a device by its composite handle string.
func (r *Registry) GetByHandle(handle string) (*Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[handle]
	return d, ok
}

// AllDevices returns a snapshot of every registered device.
func (r *Registry) AllDevices() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	return out
}

// DevicesForProvider returns a snapshot of the devices registered under
// providerID.
func (r *Registry) DevicesForProvider(providerID string) []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Device
	for _, d := range r.devices {
		if d.ProviderID == providerID {
			out = append(out, d)
		}
	}
	return out
}

// ClearProvider removes every device registered under providerID,
// typically called before a re-discovery or when a provider is torn down
// for good.
func (r *Registry) ClearProvider(providerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearProviderLocked(providerID)
}

func (r *Registry) clearProviderLocked(providerID string) {
	for handle, d := range r.devices {
		if d.ProviderID == providerID {
			delete(r.devices, handle)
		}
	}
}
