package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/latticeworks/devicert/pkg/automation"
	"github.com/latticeworks/devicert/pkg/control"
	"github.com/latticeworks/devicert/pkg/events"
	"github.com/latticeworks/devicert/pkg/log"
	"github.com/latticeworks/devicert/pkg/provider"
	"github.com/latticeworks/devicert/pkg/registry"
	"github.com/latticeworks/devicert/pkg/state"
)

// Runtime wires every core collaborator into one running process: it
// spawns and discovers each configured provider, then starts the state
// cache's polling loop, mirroring the teacher's cmd/mash-device pattern
// of constructing each collaborator and injecting it into the next,
// lifted out of main and into a reusable struct.
type Runtime struct {
	cfg Config

	Sessions    *provider.Registry
	Devices     *registry.Registry
	Supervisor  *provider.Supervisor
	Locks       *provider.LockTable
	Emitter     *events.EventEmitter
	StateCache  *state.Cache
	ModeManager *automation.ModeManager
	Parameters  *automation.ParameterStore
	Router      *control.Router
	Services    *automation.ServicesContext

	logger   *slog.Logger
	protoLog log.Logger

	cacheCancel context.CancelFunc
	cacheDone   chan struct{}
}

// New assembles a Runtime from a validated Config. logger is the
// application-level sink (nil falls back to slog.Default at this
// boundary); protoLog is the wire-event sink (nil disables it).
func New(cfg Config, logger *slog.Logger, protoLog log.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	if protoLog == nil {
		protoLog = log.NoopLogger{}
	}

	sessions := provider.NewRegistry()
	devices := registry.New()
	supervisor := provider.NewSupervisor()
	locks := provider.NewLockTable()
	emitter := events.NewEmitter(cfg.EventBus.DefaultQueueSize, cfg.EventBus.MaxSubscribers)

	stateCache := state.NewCache(devices, state.RegistryAdapter{Registry: sessions}, locks, emitter, cfg.PollInterval(), logger)

	modeManager := automation.NewModeManager(cfg.Mode(), logger)
	parameters := automation.NewParameterStore(logger)

	router := control.NewRouter(devices, control.RegistryAdapter{Registry: sessions}, locks, stateCache, logger)
	router.SetModeManager(modeManager, cfg.ControlGatingPolicy())

	services := automation.NewServicesContext(router, stateCache, emitter, sessions, modeManager, parameters)

	return &Runtime{
		cfg:         cfg,
		Sessions:    sessions,
		Devices:     devices,
		Supervisor:  supervisor,
		Locks:       locks,
		Emitter:     emitter,
		StateCache:  stateCache,
		ModeManager: modeManager,
		Parameters:  parameters,
		Router:      router,
		Services:    services,
		logger:      logger,
		protoLog:    protoLog,
	}
}

// Start seeds the parameter store, spawns and discovers every configured
// provider concurrently, registers each one's restart policy, and starts
// the state-cache polling loop in the background. It returns once every
// provider has either reached Running or failed to spawn; a per-provider
// spawn failure is logged and that provider is simply absent from the
// registry (the supervisor takes over restart attempts from here on in a
// full deployment — starting a background reconciler is left to the
// caller since spec's Non-goals exclude specifying its exact cadence).
func (rt *Runtime) Start(ctx context.Context) error {
	for _, seed := range rt.cfg.Parameters {
		if err := rt.Parameters.Define(seed.Name, seed.Type, seed.Default, seed.Min, seed.Max, seed.Allowed); err != nil {
			return fmt.Errorf("seed parameter %q: %w", seed.Name, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, pc := range rt.cfg.Providers {
		pc := pc
		g.Go(func() error {
			if err := rt.startProvider(gctx, pc); err != nil {
				rt.logger.Error("provider failed to start", "providerID", pc.ID, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rt.StateCache.Initialize()

	cacheCtx, cancel := context.WithCancel(context.Background())
	rt.cacheCancel = cancel
	rt.cacheDone = make(chan struct{})
	go func() {
		defer close(rt.cacheDone)
		rt.StateCache.Run(cacheCtx)
	}()

	return nil
}

func (rt *Runtime) startProvider(ctx context.Context, pc ProviderConfig) error {
	exchange, hello, ready, shutdownGrace := pc.SessionTimeouts()

	policy := provider.RestartPolicy{
		Enabled:            pc.RestartPolicy.Enabled,
		MaxAttempts:        pc.RestartPolicy.MaxAttempts,
		BackoffMS:          pc.RestartPolicy.BackoffMS,
		SuccessResetWindow: time.Duration(pc.RestartPolicy.SuccessResetMS) * time.Millisecond,
	}
	rt.Supervisor.Register(pc.ID, policy)

	sess := provider.NewSession(provider.SessionConfig{
		ProviderID:      pc.ID,
		Path:            pc.Command,
		Args:            pc.Args,
		ExchangeTimeout: exchange,
		HelloTimeout:    hello,
		ReadyTimeout:    ready,
		ShutdownGrace:   shutdownGrace,
	})
	sess.SetLogger(rt.protoLog)

	if err := sess.Spawn(); err != nil {
		return fmt.Errorf("spawn provider %q: %w", pc.ID, err)
	}

	if _, err := sess.WaitReady(); err != nil {
		_ = sess.Shutdown()
		return fmt.Errorf("provider %q not ready: %w", pc.ID, err)
	}

	if err := rt.Devices.DiscoverProvider(pc.ID, sess); err != nil {
		_ = sess.Shutdown()
		return fmt.Errorf("discover provider %q: %w", pc.ID, err)
	}

	rt.Sessions.Add(sess)
	rt.Supervisor.RecordSuccess(pc.ID)
	rt.logger.Info("provider started", "providerID", pc.ID, "deviceCount", len(rt.Devices.DevicesForProvider(pc.ID)))
	return nil
}

// Shutdown stops the state-cache polling loop and shuts down every
// running provider session concurrently, aggregating their errors.
func (rt *Runtime) Shutdown() error {
	if rt.cacheCancel != nil {
		rt.cacheCancel()
		<-rt.cacheDone
	}

	sessions := rt.Sessions.GetAll()
	var errs error
	errCh := make(chan error, len(sessions))
	for _, sess := range sessions {
		sess := sess
		go func() { errCh <- sess.Shutdown() }()
	}
	for range sessions {
		if err := <-errCh; err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
