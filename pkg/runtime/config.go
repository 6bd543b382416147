package runtime

import (
	"fmt"
	"time"

	"github.com/latticeworks/devicert/pkg/automation"
	"github.com/latticeworks/devicert/pkg/control"
	"github.com/latticeworks/devicert/pkg/wire"
)

// Default timeouts applied when a ProviderConfig leaves the corresponding
// field at zero, per spec §6.
const (
	DefaultExchangeTimeoutMS = 5000
	DefaultHelloTimeoutMS    = 5000
	DefaultReadyTimeoutMS    = 60000
	DefaultShutdownGraceMS   = 2000
	MinPollIntervalMS        = 100
)

// RestartPolicyConfig is the configuration-file shape of a provider's
// restart policy, validated and converted to provider.RestartPolicy.
type RestartPolicyConfig struct {
	Enabled        bool  `yaml:"enabled"`
	MaxAttempts    int   `yaml:"max_attempts"`
	BackoffMS      []int `yaml:"backoff_ms"`
	TimeoutMS      int   `yaml:"timeout_ms"`
	SuccessResetMS int   `yaml:"success_reset_ms"`
}

// Validate checks the restart-policy field constraints from spec §6:
// max_attempts >= 1, backoff_ms has exactly max_attempts non-negative
// entries, timeout_ms >= 1000, success_reset_ms >= 0.
func (p RestartPolicyConfig) Validate() error {
	if !p.Enabled {
		return nil
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("restart_policy.max_attempts must be >= 1, got %d", p.MaxAttempts)
	}
	if len(p.BackoffMS) != p.MaxAttempts {
		return fmt.Errorf("restart_policy.backoff_ms must have length %d (== max_attempts), got %d", p.MaxAttempts, len(p.BackoffMS))
	}
	for i, ms := range p.BackoffMS {
		if ms < 0 {
			return fmt.Errorf("restart_policy.backoff_ms[%d] must be >= 0, got %d", i, ms)
		}
	}
	if p.TimeoutMS < 1000 {
		return fmt.Errorf("restart_policy.timeout_ms must be >= 1000, got %d", p.TimeoutMS)
	}
	if p.SuccessResetMS < 0 {
		return fmt.Errorf("restart_policy.success_reset_ms must be >= 0, got %d", p.SuccessResetMS)
	}
	return nil
}

// ProviderConfig describes one provider process to spawn and supervise.
type ProviderConfig struct {
	ID             string              `yaml:"id"`
	Command        string              `yaml:"command"`
	Args           []string            `yaml:"args"`
	TimeoutMS      int                 `yaml:"timeout_ms"`
	HelloTimeoutMS int                 `yaml:"hello_timeout_ms"`
	ReadyTimeoutMS int                 `yaml:"ready_timeout_ms"`
	RestartPolicy  RestartPolicyConfig `yaml:"restart_policy"`
}

// Validate applies spec §6's field constraints, filling in documented
// defaults for zero-valued timeout fields.
func (p *ProviderConfig) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("provider config missing id")
	}
	if p.Command == "" {
		return fmt.Errorf("provider %q: missing command", p.ID)
	}
	if p.TimeoutMS == 0 {
		p.TimeoutMS = DefaultExchangeTimeoutMS
	}
	if p.HelloTimeoutMS == 0 {
		p.HelloTimeoutMS = DefaultHelloTimeoutMS
	}
	if p.ReadyTimeoutMS == 0 {
		p.ReadyTimeoutMS = DefaultReadyTimeoutMS
	}
	if err := p.RestartPolicy.Validate(); err != nil {
		return fmt.Errorf("provider %q: %w", p.ID, err)
	}
	return nil
}

// SessionTimeouts converts the millisecond fields to time.Duration for
// provider.SessionConfig.
func (p ProviderConfig) SessionTimeouts() (exchange, hello, ready, shutdownGrace time.Duration) {
	return time.Duration(p.TimeoutMS) * time.Millisecond,
		time.Duration(p.HelloTimeoutMS) * time.Millisecond,
		time.Duration(p.ReadyTimeoutMS) * time.Millisecond,
		DefaultShutdownGraceMS * time.Millisecond
}

// EventBusConfig carries the event bus's tunables from spec §6.
type EventBusConfig struct {
	DefaultQueueSize int `yaml:"default_queue_size"`
	MaxSubscribers   int `yaml:"max_subscribers"`
}

// ParameterSeed declares one parameter-store entry to define at startup.
type ParameterSeed struct {
	Name    string         `yaml:"name"`
	Type    wire.ValueType `yaml:"type"`
	Default wire.Value     `yaml:"default"`
	Min     *float64       `yaml:"min"`
	Max     *float64       `yaml:"max"`
	Allowed []string       `yaml:"allowed"`
}

// Config is the runtime's full validated configuration, per spec §6.
type Config struct {
	Providers      []ProviderConfig `yaml:"providers"`
	PollIntervalMS int              `yaml:"poll_interval_ms"`
	InitialMode    string           `yaml:"initial_mode"`
	GatingPolicy   string           `yaml:"gating_policy"`
	EventBus       EventBusConfig   `yaml:"event_bus"`
	Parameters     []ParameterSeed  `yaml:"parameters"`
}

// Validate checks every field constraint spec §6 states and normalizes
// defaults in place. Call this once after loading, before NewRuntime.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("config: at least one provider is required")
	}
	seen := make(map[string]bool, len(c.Providers))
	for i := range c.Providers {
		if err := c.Providers[i].Validate(); err != nil {
			return err
		}
		if seen[c.Providers[i].ID] {
			return fmt.Errorf("config: duplicate provider id %q", c.Providers[i].ID)
		}
		seen[c.Providers[i].ID] = true
	}

	if c.PollIntervalMS < MinPollIntervalMS {
		return fmt.Errorf("config: poll_interval_ms must be >= %d, got %d", MinPollIntervalMS, c.PollIntervalMS)
	}

	if c.InitialMode == "" {
		c.InitialMode = "IDLE"
	}
	if _, ok := automation.ParseMode(c.InitialMode); !ok {
		return fmt.Errorf("config: unrecognized initial_mode %q", c.InitialMode)
	}

	switch c.GatingPolicy {
	case "", "BLOCK":
		c.GatingPolicy = "BLOCK"
	case "OVERRIDE":
	default:
		return fmt.Errorf("config: gating_policy must be BLOCK or OVERRIDE, got %q", c.GatingPolicy)
	}

	for i, p := range c.Parameters {
		if p.Name == "" {
			return fmt.Errorf("config: parameters[%d] missing name", i)
		}
	}

	return nil
}

// PollInterval returns the configured poll interval as a time.Duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Mode parses the configured initial mode. Validate must have been called
// first.
func (c Config) Mode() automation.Mode {
	m, _ := automation.ParseMode(c.InitialMode)
	return m
}

// ControlGatingPolicy converts the configured gating policy string to
// control.GatingPolicy. Validate must have been called first.
func (c Config) ControlGatingPolicy() control.GatingPolicy {
	if c.GatingPolicy == "OVERRIDE" {
		return control.GatingOverride
	}
	return control.GatingBlock
}
