package automation

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc/panics"

	"github.com/latticeworks/devicert/pkg/wire"
)

// ParameterDef is a named, typed, constrained runtime parameter.
type ParameterDef struct {
	Name  string
	Type  wire.ValueType
	Value wire.Value

	// Min/Max bound numeric types (TypeDouble, TypeInt64). Nil means
	// unconstrained on that side.
	Min, Max *float64
	// Allowed restricts TypeString to an enumerated set. Nil means any
	// string is accepted.
	Allowed []string
}

func (d ParameterDef) validate(v wire.Value) error {
	if v.Type != d.Type {
		return fmt.Errorf("type mismatch: expected %s, got %s", d.Type, v.Type)
	}

	switch d.Type {
	case wire.TypeDouble, wire.TypeInt64:
		numeric := v.D
		if d.Type == wire.TypeInt64 {
			numeric = float64(v.I)
		}
		if d.Min != nil && numeric < *d.Min {
			return fmt.Errorf("value %v is below minimum %v", numeric, *d.Min)
		}
		if d.Max != nil && numeric > *d.Max {
			return fmt.Errorf("value %v exceeds maximum %v", numeric, *d.Max)
		}
	case wire.TypeString:
		if len(d.Allowed) > 0 {
			ok := false
			for _, a := range d.Allowed {
				if a == v.S {
					ok = true
					break
				}
			}
			if !ok {
				return fmt.Errorf("value %q not in allowed values %v", v.S, d.Allowed)
			}
		}
	}
	return nil
}

// ParameterChangeFunc is invoked after a parameter's value changes, with
// no lock held.
type ParameterChangeFunc func(name string, oldValue, newValue wire.Value)

// ParameterStore holds the runtime's named, typed, constrained tunables.
// Automation reads parameters as part of its per-tick blackboard; HTTP and
// the operator console are the only writers.
type ParameterStore struct {
	mu         sync.RWMutex
	parameters map[string]ParameterDef
	callbacks  []ParameterChangeFunc
	logger     *slog.Logger
}

// NewParameterStore constructs an empty store.
func NewParameterStore(logger *slog.Logger) *ParameterStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParameterStore{parameters: make(map[string]ParameterDef), logger: logger}
}

// Define registers a new parameter. Returns an error if the name is
// already defined or the default value fails its own constraints.
func (p *ParameterStore) Define(name string, valueType wire.ValueType, def wire.Value, min, max *float64, allowed []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.parameters[name]; exists {
		return fmt.Errorf("parameter %q already defined", name)
	}

	pd := ParameterDef{Name: name, Type: valueType, Value: def, Min: min, Max: max, Allowed: allowed}
	if err := pd.validate(def); err != nil {
		return fmt.Errorf("parameter %q default value invalid: %w", name, err)
	}

	p.parameters[name] = pd
	return nil
}

// Set validates and stores a new value for name. Rejects a value of the
// wrong type, out-of-range numerics, or a disallowed string. Setting the
// value already stored is a no-op (no callback, success). Callbacks run
// after the store is updated, outside the lock, in registration order; a
// panicking callback is caught and logged without blocking the rest.
func (p *ParameterStore) Set(name string, value wire.Value) error {
	p.mu.Lock()

	def, ok := p.parameters[name]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("parameter %q not found", name)
	}

	if err := def.validate(value); err != nil {
		p.mu.Unlock()
		return err
	}

	old := def.Value
	if old.Equal(value) {
		p.mu.Unlock()
		return nil
	}

	def.Value = value
	p.parameters[name] = def
	callbacks := make([]ParameterChangeFunc, len(p.callbacks))
	copy(callbacks, p.callbacks)
	p.mu.Unlock()

	p.logger.Info("parameter updated", "name", name)
	for _, cb := range callbacks {
		p.runCallback(cb, name, old, value)
	}
	return nil
}

func (p *ParameterStore) runCallback(cb ParameterChangeFunc, name string, old, next wire.Value) {
	var catcher panics.Catcher
	catcher.Try(func() { cb(name, old, next) })
	if r := catcher.Recovered(); r != nil {
		p.logger.Error("parameter change callback panicked", "error", r.AsError())
	}
}

// Get returns a parameter's current value.
func (p *ParameterStore) Get(name string) (wire.Value, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	def, ok := p.parameters[name]
	if !ok {
		return wire.Value{}, false
	}
	return def.Value, true
}

// GetDefinition returns a parameter's full definition.
func (p *ParameterStore) GetDefinition(name string) (ParameterDef, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	def, ok := p.parameters[name]
	return def, ok
}

// AllDefinitions returns a snapshot of every defined parameter.
func (p *ParameterStore) AllDefinitions() map[string]ParameterDef {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]ParameterDef, len(p.parameters))
	for k, v := range p.parameters {
		out[k] = v
	}
	return out
}

// Has reports whether name is defined.
func (p *ParameterStore) Has(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.parameters[name]
	return ok
}

// Count returns the number of defined parameters.
func (p *ParameterStore) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.parameters)
}

// OnParameterChange registers a callback invoked after every successful
// value change.
func (p *ParameterStore) OnParameterChange(cb ParameterChangeFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = append(p.callbacks, cb)
}
