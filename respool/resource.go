// Package respool implements a generic, transport-agnostic resource pool:
// a concurrent container that multiplexes a bounded population of expensive,
// reusable resources (connections, authenticated sessions, ...) among many
// concurrent consumers.
//
// The pool owns resource lifecycle (creation, health checking, idle
// eviction, destruction) and enforces an upper bound on simultaneous
// checkouts, with deterministic graceful shutdown. It knows nothing about
// what a Resource actually is — callers supply a Factory and get back a
// Handle.
package respool

import "context"

// Resource is the capability a pooled value must expose. Implementations
// may perform I/O in IsHealthy and Close; IsHealthy must fail closed
// (return false) rather than panic, and Close must be idempotent.
type Resource interface {
	// IsHealthy reports whether the resource is still usable. It may
	// perform I/O (e.g. a ping) and must be safe to call repeatedly.
	IsHealthy(ctx context.Context) bool

	// Close releases any underlying OS or network resources. It must be
	// safe to call more than once.
	Close(ctx context.Context) error

	// ResourceID returns a stable display string for diagnostics and logs.
	ResourceID() string
}

// Factory produces a new resource on demand. It is invoked by Acquire only
// when the idle store has nothing reusable to offer.
type Factory[R Resource] func(ctx context.Context) (R, error)
