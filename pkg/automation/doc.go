// Package automation holds the runtime's operator-facing state machine
// (ModeManager) and its typed runtime configuration store (ParameterStore),
// plus the ServicesContext bundle automation callers are handed.
package automation
