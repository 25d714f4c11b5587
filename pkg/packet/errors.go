// Package packet implements the protocol-binding graph and the packet
// engine: an ordered stack of headers built by hand or recovered from
// raw bytes by chasing registered bindings from one header class to the
// next.
package packet

import "errors"

var (
	// ErrNoBinding reports a missing edge between two header classes
	// during Add, Encapsulate or Decapsulate. Recoverable: register the
	// binding and retry.
	ErrNoBinding = errors.New("stratum: no binding between header classes")

	// ErrUnknownProtocol reports a protocol name with no registered class.
	ErrUnknownProtocol = errors.New("stratum: unknown protocol")
)
