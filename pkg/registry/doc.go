// Package registry holds the device/capability catalog built by
// discovering a provider: ListDevices enumerates its device ids,
// DescribeDevice yields the capability set for each. The registry for a
// given provider is read-only once discovery completes; only a fresh
// discovery (after a restart) replaces its entries.
package registry
