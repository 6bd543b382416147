package control

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/latticeworks/devicert/pkg/automation"
	"github.com/latticeworks/devicert/pkg/provider"
	"github.com/latticeworks/devicert/pkg/registry"
	"github.com/latticeworks/devicert/pkg/wire"
)

// Session is the subset of a provider session the router needs to invoke
// a function. Satisfied by *provider.Session.
type Session interface {
	IsAvailable() bool
	Call(deviceID string, functionID uint32, functionName string, args map[string]wire.Value) (*wire.CallResponse, error)
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

// Repoller is the subset of the state cache the router needs to reflect
// post-call state. Satisfied by *state.Cache.
type Repoller interface {
	PollDeviceNow(handle string) error
}

// GatingPolicy controls how a manual call is treated while the mode
// manager reports AUTO.
type GatingPolicy uint8

const (
	// GatingBlock refuses manual calls while in AUTO mode.
	GatingBlock GatingPolicy = iota
	// GatingOverride allows manual calls to proceed regardless of mode.
	GatingOverride
)

// RouterError is the call router's public error: a coarse kind plus a
// human-readable message, never an implementation-internal type.
type RouterError struct {
	Code    wire.Code
	Message string
}

func (e *RouterError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func routerErr(code wire.Code, format string, args ...any) *RouterError {
	return &RouterError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CallResult is the outcome of one routed call.
type CallResult struct {
	Success      bool
	ErrorMessage string
	Results      map[string]wire.Value
}

// Router is the runtime's single control path: mode gate, validation,
// per-provider serialization, exchange, and post-call reflection.
type Router struct {
	devices   *registry.Registry
	sessions  SessionLookup
	locks     *provider.LockTable
	stateCache Repoller
	logger    *slog.Logger

	mu           sync.RWMutex
	modeManager  *automation.ModeManager
	gatingPolicy GatingPolicy
}

// NewRouter constructs a router. stateCache may be nil to disable
// post-call reflection (e.g. in tests that don't need it).
func NewRouter(devices *registry.Registry, sessions SessionLookup, locks *provider.LockTable, stateCache Repoller, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		devices:    devices,
		sessions:   sessions,
		locks:      locks,
		stateCache: stateCache,
		logger:     logger,
	}
}

// SetModeManager enables manual/auto gating. Calling this is optional; an
// unconfigured router never gates.
func (r *Router) SetModeManager(m *automation.ModeManager, policy GatingPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modeManager = m
	r.gatingPolicy = policy
}

// Execute runs the full call pipeline and returns a typed RouterError on
// failure so callers (HTTP handlers, the operator console) can map it to
// their own status representation.
func (r *Router) Execute(deviceHandle, functionName string, args map[string]wire.Value) (CallResult, *RouterError) {
	if rerr := r.checkModeGate(); rerr != nil {
		return CallResult{ErrorMessage: rerr.Message}, rerr
	}

	dev, fn, rerr := r.validate(deviceHandle, functionName, args)
	if rerr != nil {
		return CallResult{ErrorMessage: rerr.Message}, rerr
	}

	session, ok := r.sessions.Get(dev.ProviderID)
	if !ok {
		rerr := routerErr(wire.CodeNotFound, "provider not found: %s", dev.ProviderID)
		return CallResult{ErrorMessage: rerr.Message}, rerr
	}
	if !session.IsAvailable() {
		rerr := routerErr(wire.CodeUnavailable, "provider not available: %s", dev.ProviderID)
		return CallResult{ErrorMessage: rerr.Message}, rerr
	}

	lock := r.locks.For(dev.ProviderID)
	lock.Lock()
	resp, err := session.Call(dev.DeviceID, fn.FunctionID, functionName, args)
	lock.Unlock()

	if err != nil {
		rerr := classifyCallErr(err)
		r.logger.Warn("call failed", "device", deviceHandle, "function", functionName, "error", err)
		return CallResult{ErrorMessage: rerr.Message}, rerr
	}

	if r.stateCache != nil {
		if err := r.stateCache.PollDeviceNow(deviceHandle); err != nil {
			r.logger.Warn("post-call repoll failed", "device", deviceHandle, "error", err)
		}
	}

	return CallResult{Success: true, Results: resp.Results}, nil
}

// Call adapts Execute to the narrow signature automation.CallRouter
// expects, collapsing the typed error into a plain message.
func (r *Router) Call(deviceHandle, functionName string, args map[string]wire.Value) (success bool, errorMessage string, results map[string]wire.Value) {
	res, _ := r.Execute(deviceHandle, functionName, args)
	return res.Success, res.ErrorMessage, res.Results
}

func (r *Router) checkModeGate() *RouterError {
	r.mu.RLock()
	mgr, policy := r.modeManager, r.gatingPolicy
	r.mu.RUnlock()

	if mgr == nil {
		return nil
	}
	if mgr.Current() != automation.ModeAuto {
		return nil
	}
	if policy == GatingOverride {
		return nil
	}
	return routerErr(wire.CodeFailedPrecondition, "manual call blocked in AUTO mode")
}

func (r *Router) validate(deviceHandle, functionName string, args map[string]wire.Value) (*registry.Device, wire.FunctionSpec, *RouterError) {
	providerID, deviceID, err := registry.ParseHandle(deviceHandle)
	if err != nil {
		return nil, wire.FunctionSpec{}, routerErr(wire.CodeInvalidArgument, "%v", err)
	}

	dev, ok := r.devices.GetDevice(providerID, deviceID)
	if !ok {
		return nil, wire.FunctionSpec{}, routerErr(wire.CodeNotFound, "device not found: %s", deviceHandle)
	}

	fn, ok := dev.FunctionsByName[functionName]
	if !ok {
		return nil, wire.FunctionSpec{}, routerErr(wire.CodeNotFound, "function not found: %s on device %s", functionName, deviceHandle)
	}

	if len(args) != len(fn.Args) {
		return nil, wire.FunctionSpec{}, routerErr(wire.CodeInvalidArgument, "argument count mismatch: expected %d, got %d", len(fn.Args), len(args))
	}
	for _, argSpec := range fn.Args {
		if _, present := args[argSpec.Name]; !present {
			return nil, wire.FunctionSpec{}, routerErr(wire.CodeInvalidArgument, "missing required argument: %s", argSpec.Name)
		}
	}

	return dev, fn, nil
}

// classifyCallErr maps a session-layer error onto the router's error
// taxonomy. A *provider.StatusError carries the remote's explicit status,
// which always wins; anything else (transport failure, timeout, process
// death) becomes Internal unless it is specifically a timeout.
func classifyCallErr(err error) *RouterError {
	if se, ok := asStatusError(err); ok {
		return &RouterError{Code: se.Code, Message: se.Message}
	}
	if isTimeout(err) {
		return routerErr(wire.CodeDeadlineExceeded, "%v", err)
	}
	return routerErr(wire.CodeInternal, "%v", err)
}
