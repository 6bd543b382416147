// Package provider manages the lifecycle of device-provider child
// processes: spawning, the ADPP handshake, serialized request/response
// exchange, shutdown, and supervised restart.
//
// A Session owns one child process and its two stdio pipes. Each of its
// request methods (Hello, WaitReady, ListDevices, DescribeDevice,
// ReadSignals, Call) is one blocking request/response exchange that holds
// an exclusive lock for its duration so request/response pairs never
// interleave on the wire. A
// Session that hits any fatal error (write failure, read failure, a
// mismatched response id, or a timeout) marks itself unhealthy and is never
// reused; the caller tears it down and, if the restart policy permits,
// builds a new one.
//
// A Supervisor tracks, per provider id, the restart policy and observed
// state (attempt count, circuit-open flag, last-heartbeat time, scheduled
// next-restart time) described in the provider supervisor design. It never
// spawns anything itself — it only decides, from observed crashes and
// heartbeats, whether and when a restart is permitted.
//
// A Registry is a reader/writer-locked directory from provider id to
// Session, letting state-cache polling, call routing, and operational
// queries look sessions up without blocking each other.
package provider
