// Package runtime assembles the collaborators defined across pkg/wire,
// pkg/provider, pkg/registry, pkg/events, pkg/state, pkg/automation, and
// pkg/control into one running process: it owns the configuration data
// model, starts every provider session and the state-cache polling loop,
// and tears them down on shutdown.
package runtime
