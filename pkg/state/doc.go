// Package state holds the runtime's single source of truth for device
// state: a poll loop that keeps a cache of signal values fresh from their
// providers, and the snapshot-returning read API consumers use to observe
// it.
package state
