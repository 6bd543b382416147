package automation

import (
	"github.com/latticeworks/devicert/pkg/events"
	"github.com/latticeworks/devicert/pkg/provider"
	"github.com/latticeworks/devicert/pkg/state"
	"github.com/latticeworks/devicert/pkg/wire"
)

// CallRouter is the subset of the call router automation ticks and HTTP
// handlers invoke. Declared here as an interface over wire types (rather
// than the pkg/control struct itself) so pkg/control can depend on
// pkg/automation's ModeManager/ParameterStore for call gating without
// creating an import cycle back.
type CallRouter interface {
	Call(deviceHandle, functionName string, args map[string]wire.Value) (success bool, errorMessage string, results map[string]wire.Value)
}

// ServicesContext bundles the collaborators every automation node and
// custom behavior needs, mirroring the original BT tree's shared-context
// blackboard payload. It is assembled once at startup and handed down by
// reference; none of its fields change identity after construction.
type ServicesContext struct {
	CallRouter       CallRouter
	StateCache       *state.Cache
	EventEmitter     *events.EventEmitter
	ProviderRegistry *provider.Registry
	ModeManager      *ModeManager
	ParameterStore   *ParameterStore
}

// NewServicesContext bundles the given collaborators.
func NewServicesContext(router CallRouter, stateCache *state.Cache, emitter *events.EventEmitter, providers *provider.Registry, modes *ModeManager, params *ParameterStore) *ServicesContext {
	return &ServicesContext{
		CallRouter:       router,
		StateCache:       stateCache,
		EventEmitter:     emitter,
		ProviderRegistry: providers,
		ModeManager:      modes,
		ParameterStore:   params,
	}
}
