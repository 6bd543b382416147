// Package wire defines the ADPP (device-provider protocol) wire format.
//
// ADPP messages are CBOR (RFC 8949) envelopes with integer keys, carried
// over the length-prefixed framing in pkg/transport. Every exchange is one
// Request paired with exactly one Response sharing the same request id.
//
// # Request kinds
//
// A provider session progresses through Hello, an optional WaitReady, then
// an unbounded stream of ListDevices / DescribeDevice / ReadSignals / Call
// exchanges (see pkg/provider.Session).
//
// # Status codes
//
// Response.Status.Code is one of a closed set (OK, INVALID_ARGUMENT,
// NOT_FOUND, FAILED_PRECONDITION, UNAVAILABLE, DEADLINE_EXCEEDED, INTERNAL)
// that pkg/control reuses directly as its error taxonomy.
package wire
