// Package events implements the runtime's fan-out event bus: a monotonic
// event-id source, per-subscriber bounded queues, and provider/device/
// signal filtering. The state cache is the primary producer; HTTP
// streaming endpoints and telemetry sinks (out of scope for this module)
// are the intended consumers.
//
// emit takes the bus lock only long enough to assign an event id and
// snapshot the list of matching subscriber queues; pushing into each
// queue happens after the lock is released, so a slow or full subscriber
// queue never blocks the emitter or any other subscriber.
package events
