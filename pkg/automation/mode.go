package automation

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc/panics"
)

// Mode is a runtime operating mode.
type Mode uint8

const (
	// ModeIdle is the startup default: automation stopped. The call router
	// does not gate manual calls in this mode (only AUTO is gated).
	ModeIdle Mode = iota
	// ModeManual allows direct control calls with automation stopped.
	ModeManual
	// ModeAuto runs automation; manual calls are gated by policy.
	ModeAuto
	// ModeFault is entered on error from any mode; only recoverable back
	// to MANUAL.
	ModeFault
)

// String returns the mode's wire name.
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "IDLE"
	case ModeManual:
		return "MANUAL"
	case ModeAuto:
		return "AUTO"
	case ModeFault:
		return "FAULT"
	default:
		return "UNKNOWN"
	}
}

// ParseMode converts a mode name back to a Mode. Returns false for an
// unrecognized name.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "IDLE":
		return ModeIdle, true
	case "MANUAL":
		return ModeManual, true
	case "AUTO":
		return ModeAuto, true
	case "FAULT":
		return ModeFault, true
	default:
		return 0, false
	}
}

// ModeChangeFunc is invoked after a successful mode transition, with no
// lock held.
type ModeChangeFunc func(previous, next Mode)

// ModeManager is a thread-safe four-state machine gating manual control
// calls and automation execution:
//
//	MANUAL <-> AUTO
//	MANUAL <-> IDLE
//	anything -> FAULT
//	FAULT -> MANUAL (recovery only)
type ModeManager struct {
	mu        sync.Mutex
	current   Mode
	callbacks []ModeChangeFunc
	logger    *slog.Logger
}

// NewModeManager constructs a manager starting in initial.
func NewModeManager(initial Mode, logger *slog.Logger) *ModeManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModeManager{current: initial, logger: logger}
}

// Current returns the current mode.
func (m *ModeManager) Current() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// IsIdle reports whether the current mode is IDLE.
func (m *ModeManager) IsIdle() bool {
	return m.Current() == ModeIdle
}

// SetMode requests a transition to next. Setting the current mode is a
// no-op that reports success without invoking callbacks. An invalid
// transition returns an error describing why and leaves the mode
// unchanged. Callbacks registered via OnModeChange run after the
// transition, outside the lock, in registration order; a panic in one
// callback is caught and logged without preventing the others from
// running.
func (m *ModeManager) SetMode(next Mode) error {
	m.mu.Lock()

	if m.current == next {
		m.mu.Unlock()
		return nil
	}

	if !isValidTransition(m.current, next) {
		prev := m.current
		m.mu.Unlock()
		return fmt.Errorf("Invalid mode transition: %s -> %s", prev, next)
	}

	previous := m.current
	m.current = next
	callbacks := make([]ModeChangeFunc, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	m.logger.Info("mode changed", "from", previous, "to", next)
	for _, cb := range callbacks {
		m.runCallback(cb, previous, next)
	}
	return nil
}

func (m *ModeManager) runCallback(cb ModeChangeFunc, previous, next Mode) {
	var catcher panics.Catcher
	catcher.Try(func() { cb(previous, next) })
	if r := catcher.Recovered(); r != nil {
		m.logger.Error("mode change callback panicked", "error", r.AsError())
	}
}

// OnModeChange registers a callback invoked after every successful
// transition. Callbacks accumulate; there is no way to remove one.
func (m *ModeManager) OnModeChange(cb ModeChangeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

func isValidTransition(from, to Mode) bool {
	if from == to {
		return true
	}
	if to == ModeFault {
		return true
	}
	if from == ModeFault {
		return to == ModeManual
	}
	if from == ModeManual {
		return to == ModeAuto || to == ModeIdle
	}
	if from == ModeAuto || from == ModeIdle {
		return to == ModeManual
	}
	return false
}
