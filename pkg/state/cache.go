package state

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/latticeworks/devicert/pkg/events"
	"github.com/latticeworks/devicert/pkg/provider"
	"github.com/latticeworks/devicert/pkg/registry"
	"github.com/latticeworks/devicert/pkg/wire"
)

// staleAfterMultiplier is the multiple of the poll interval past which a signal's
// age alone marks it stale, independent of its reported quality.
const staleAfterMultiplier = 2

// Session is the subset of a provider session the state cache needs to
// poll a device. Satisfied by *provider.Session.
type Session interface {
	IsAvailable() bool
	ReadSignals(deviceID string, signalIDs []string) (*wire.ReadSignalsResponse, error)
}

// SessionLookup resolves a provider id to its current session.
type SessionLookup interface {
	Get(providerID string) (Session, bool)
}

// RegistryAdapter adapts a *provider.Registry to SessionLookup.
type RegistryAdapter struct {
	Registry *provider.Registry
}

// Get implements SessionLookup.
func (a RegistryAdapter) Get(providerID string) (Session, bool) {
	s, ok := a.Registry.Get(providerID)
	if !ok {
		return nil, false
	}
	return s, true
}

// CachedSignalValue is one signal's last known reading.
type CachedSignalValue struct {
	Value     wire.Value
	Quality   wire.Quality
	Timestamp time.Time
}

// Age returns how long ago this value was captured, relative to now.
func (c CachedSignalValue) Age(now time.Time) time.Duration {
	return now.Sub(c.Timestamp)
}

// IsStale reports whether this value should be treated as stale: its
// quality already says so, or it is older than staleAfter.
func (c CachedSignalValue) IsStale(now time.Time, staleAfter time.Duration) bool {
	switch c.Quality {
	case wire.QualityStale, wire.QualityFault, wire.QualityUnknown, wire.QualityUnavailable:
		return true
	}
	return c.Age(now) > staleAfter
}

// DeviceStateSnapshot is a point-in-time, independently-owned copy of a
// device's cached state. Mutating it never affects the cache.
type DeviceStateSnapshot struct {
	Handle       string
	Signals      map[string]CachedSignalValue
	LastPollTime time.Time
	Available    bool
}

// deviceState is the cache's mutable, lock-protected record.
type deviceState struct {
	handle       string
	signals      map[string]CachedSignalValue
	lastPollTime time.Time
	available    bool
}

func (d *deviceState) snapshot() DeviceStateSnapshot {
	signals := make(map[string]CachedSignalValue, len(d.signals))
	for k, v := range d.signals {
		signals[k] = v
	}
	return DeviceStateSnapshot{
		Handle:       d.handle,
		Signals:      signals,
		LastPollTime: d.lastPollTime,
		Available:    d.available,
	}
}

// pollConfig lists the default signals to poll for one device.
type pollConfig struct {
	providerID string
	deviceID   string
	handle     string
	signalIDs  []string
}

// Cache is the single source of truth for device state, kept fresh by a
// periodic poll loop and readable via copied snapshots taken under a
// short-held mutex.
type Cache struct {
	registry  *registry.Registry
	providers SessionLookup
	locks     *provider.LockTable
	emitter   *events.EventEmitter
	logger    *slog.Logger

	pollInterval time.Duration

	mu          sync.Mutex
	states      map[string]*deviceState
	pollConfigs []pollConfig
}

// NewCache constructs a cache that polls reg's devices through providers,
// serializing each poll with the call router's per-provider lock table.
// pollInterval must be positive. emitter may be nil to disable change
// notifications; logger may be nil to use slog's default.
func NewCache(reg *registry.Registry, providers SessionLookup, locks *provider.LockTable, emitter *events.EventEmitter, pollInterval time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		registry:     reg,
		providers:    providers,
		locks:        locks,
		emitter:      emitter,
		logger:       logger,
		pollInterval: pollInterval,
		states:       make(map[string]*deviceState),
	}
}

// Initialize builds the poll plan from the device registry's current
// contents. Devices with no default signals are excluded from polling but
// still get an empty, materialized state entry.
func (c *Cache) Initialize() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pollConfigs = c.pollConfigs[:0]
	for _, dev := range c.registry.AllDevices() {
		handle := dev.Handle()
		c.states[handle] = &deviceState{
			handle:    handle,
			signals:   make(map[string]CachedSignalValue),
			available: true,
		}

		signalIDs := dev.DefaultSignalIDs()
		if len(signalIDs) == 0 {
			continue
		}
		c.pollConfigs = append(c.pollConfigs, pollConfig{
			providerID: dev.ProviderID,
			deviceID:   dev.DeviceID,
			handle:     handle,
			signalIDs:  signalIDs,
		})
	}
	c.logger.Info("state cache initialized", "poll_configs", len(c.pollConfigs), "devices", len(c.states))
}

// DeviceCount returns the number of devices with materialized state.
func (c *Cache) DeviceCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.states)
}

// GetDeviceState returns a snapshot of one device's cached state.
func (c *Cache) GetDeviceState(handle string) (DeviceStateSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.states[handle]
	if !ok {
		return DeviceStateSnapshot{}, false
	}
	return d.snapshot(), true
}

// GetSignalValue returns a snapshot of one signal's cached value.
func (c *Cache) GetSignalValue(handle, signalID string) (CachedSignalValue, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.states[handle]
	if !ok {
		return CachedSignalValue{}, false
	}
	v, ok := d.signals[signalID]
	return v, ok
}

// ErrUnknownDevice is returned by PollDeviceNow for a handle with no poll
// configuration (no default signals, or never discovered).
var ErrUnknownDevice = fmt.Errorf("no poll configuration for device")
