package events

import "github.com/latticeworks/devicert/pkg/wire"

// Kind identifies which payload an Event carries.
type Kind uint8

const (
	KindStateUpdate Kind = iota
	KindQualityChange
	KindDeviceAvailability
)

func (k Kind) String() string {
	switch k {
	case KindStateUpdate:
		return "STATE_UPDATE"
	case KindQualityChange:
		return "QUALITY_CHANGE"
	case KindDeviceAvailability:
		return "DEVICE_AVAILABILITY"
	default:
		return "UNKNOWN"
	}
}

// StateUpdate carries a signal's new value and quality.
type StateUpdate struct {
	SignalID string
	Value    wire.Value
	Quality  wire.Quality
}

// QualityChange carries a signal's quality transition with its value
// unchanged.
type QualityChange struct {
	SignalID string
	Old      wire.Quality
	New      wire.Quality
}

// DeviceAvailability carries a device's availability transition.
type DeviceAvailability struct {
	Available bool
}

// Event is the tagged union emitted by the state cache: exactly one of
// StateUpdate, QualityChange, or Availability is populated, matching Kind.
type Event struct {
	EventID    uint64
	TimestampMS int64
	ProviderID string
	DeviceID   string
	Kind       Kind

	StateUpdate  *StateUpdate
	QualityChg   *QualityChange
	Availability *DeviceAvailability
}

// SignalID returns the signal id this event concerns, or "" for event
// kinds that don't carry one (DeviceAvailability).
func (e Event) SignalID() string {
	switch e.Kind {
	case KindStateUpdate:
		if e.StateUpdate != nil {
			return e.StateUpdate.SignalID
		}
	case KindQualityChange:
		if e.QualityChg != nil {
			return e.QualityChg.SignalID
		}
	}
	return ""
}

// Filter selects events by provider id, device id, and signal id. An
// empty field matches anything; the signal filter only applies to event
// kinds that carry a signal id.
type Filter struct {
	ProviderID string
	DeviceID   string
	SignalID   string
}

// All returns a filter that matches every event.
func All() Filter { return Filter{} }

// Matches reports whether e satisfies the filter.
func (f Filter) Matches(e Event) bool {
	if f.ProviderID != "" && f.ProviderID != e.ProviderID {
		return false
	}
	if f.DeviceID != "" && f.DeviceID != e.DeviceID {
		return false
	}
	if f.SignalID != "" {
		switch e.Kind {
		case KindStateUpdate, KindQualityChange:
			if e.SignalID() != f.SignalID {
				return false
			}
		}
	}
	return true
}
