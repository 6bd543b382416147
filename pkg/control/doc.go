// Package control implements the call router: the single path by which
// manual and automated callers invoke a device function, gated by mode,
// validated against the device registry, serialized per provider, and
// reflected into the state cache.
package control
