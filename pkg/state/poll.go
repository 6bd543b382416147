package state

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/latticeworks/devicert/pkg/events"
	"github.com/latticeworks/devicert/pkg/wire"
)

// Run starts the periodic poll loop and blocks until ctx is cancelled. Each
// tick polls every configured device concurrently; if one tick takes
// longer than the poll interval, the next tick starts immediately rather
// than queuing up skipped ticks (time.Ticker already drops missed ticks,
// so this falls out of using one directly).
func (c *Cache) Run(ctx context.Context) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	c.logger.Info("state cache polling started", "interval", c.pollInterval)
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("state cache polling stopped")
			return
		case <-ticker.C:
			start := time.Now()
			c.PollOnce(ctx)
			if elapsed := time.Since(start); elapsed > c.pollInterval {
				c.logger.Warn("poll cycle exceeded interval", "elapsed", elapsed, "interval", c.pollInterval)
			}
		}
	}
}

// PollOnce polls every configured device exactly once, concurrently.
func (c *Cache) PollOnce(ctx context.Context) {
	c.mu.Lock()
	configs := make([]pollConfig, len(c.pollConfigs))
	copy(configs, c.pollConfigs)
	c.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, cfg := range configs {
		cfg := cfg
		g.Go(func() error {
			c.pollDevice(cfg)
			return nil
		})
	}
	_ = g.Wait()
}

// PollDeviceNow immediately re-polls a single device, synchronized via the
// same per-provider lock the periodic loop and the call router use. Used
// by the call router to reflect post-call state before the next tick.
func (c *Cache) PollDeviceNow(handle string) error {
	c.mu.Lock()
	var cfg pollConfig
	found := false
	for _, pc := range c.pollConfigs {
		if pc.handle == handle {
			cfg = pc
			found = true
			break
		}
	}
	c.mu.Unlock()

	if !found {
		return ErrUnknownDevice
	}
	c.pollDevice(cfg)
	return nil
}

func (c *Cache) pollDevice(cfg pollConfig) {
	session, ok := c.providers.Get(cfg.providerID)
	if !ok || !session.IsAvailable() {
		c.setAvailability(cfg.handle, cfg.providerID, cfg.deviceID, false)
		return
	}

	lock := c.locks.For(cfg.providerID)
	lock.Lock()
	resp, err := session.ReadSignals(cfg.deviceID, cfg.signalIDs)
	lock.Unlock()

	if err != nil {
		c.logger.Warn("read signals failed", "provider", cfg.providerID, "device", cfg.deviceID, "error", err)
		return
	}

	c.updateDeviceState(cfg.handle, cfg.providerID, cfg.deviceID, resp)
}

// setAvailability marks a device's availability, emitting a
// DeviceAvailability event only when the value actually transitions.
func (c *Cache) setAvailability(handle, providerID, deviceID string, available bool) {
	c.mu.Lock()
	d, ok := c.states[handle]
	if !ok {
		c.mu.Unlock()
		return
	}
	changed := d.available != available
	d.available = available
	c.mu.Unlock()

	if changed {
		c.emit(events.Event{
			ProviderID:   providerID,
			DeviceID:     deviceID,
			Kind:         events.KindDeviceAvailability,
			Availability: &events.DeviceAvailability{Available: available},
		})
	}
}

func (c *Cache) updateDeviceState(handle, providerID, deviceID string, resp *wire.ReadSignalsResponse) {
	c.mu.Lock()
	d, ok := c.states[handle]
	if !ok {
		c.mu.Unlock()
		return
	}

	wasAvailable := d.available
	d.available = true
	d.lastPollTime = time.Now()

	type pendingEvent struct {
		kind    events.Kind
		update  *events.StateUpdate
		quality *events.QualityChange
	}
	var pending []pendingEvent

	for _, sv := range resp.Values {
		prev, had := d.signals[sv.SignalID]
		switch {
		case !had || !prev.Value.Equal(sv.Value):
			d.signals[sv.SignalID] = CachedSignalValue{Value: sv.Value, Quality: sv.Quality, Timestamp: sv.Timestamp}
			pending = append(pending, pendingEvent{
				kind:   events.KindStateUpdate,
				update: &events.StateUpdate{SignalID: sv.SignalID, Value: sv.Value, Quality: sv.Quality},
			})
		case prev.Quality != sv.Quality:
			d.signals[sv.SignalID] = CachedSignalValue{Value: sv.Value, Quality: sv.Quality, Timestamp: sv.Timestamp}
			pending = append(pending, pendingEvent{
				kind:    events.KindQualityChange,
				quality: &events.QualityChange{SignalID: sv.SignalID, Old: prev.Quality, New: sv.Quality},
			})
		default:
			d.signals[sv.SignalID] = CachedSignalValue{Value: sv.Value, Quality: sv.Quality, Timestamp: sv.Timestamp}
		}
	}
	c.mu.Unlock()

	if !wasAvailable {
		c.emit(events.Event{
			ProviderID:   providerID,
			DeviceID:     deviceID,
			Kind:         events.KindDeviceAvailability,
			Availability: &events.DeviceAvailability{Available: true},
		})
	}
	for _, p := range pending {
		c.emit(events.Event{
			ProviderID:  providerID,
			DeviceID:    deviceID,
			Kind:        p.kind,
			StateUpdate: p.update,
			QualityChg:  p.quality,
		})
	}
}

func (c *Cache) emit(ev events.Event) {
	if c.emitter == nil {
		return
	}
	c.emitter.Emit(ev)
}
