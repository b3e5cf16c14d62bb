package respool

import "time"

// Options configures a Pool and is immutable once the pool is constructed.
type Options struct {
	// MaxConnections is the capacity bound: the maximum number of
	// resources that may be checked out or sitting idle at once.
	MaxConnections int

	// AcquireTimeout bounds a single Acquire call.
	AcquireTimeout time.Duration

	// IdleTimeout, if nonzero, evicts an idle entry older than this.
	IdleTimeout time.Duration

	// MaxLifetime, if nonzero, is interpreted identically to IdleTimeout:
	// both are measured from the instant a resource was last enqueued
	// into the idle store, not from its creation time. This mirrors the
	// reference implementation; see DESIGN.md for the open-question
	// discussion of "idle for" vs "true age".
	MaxLifetime time.Duration

	// HealthCheckInterval is the tick period of the maintenance loop.
	HealthCheckInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxConnections <= 0 {
		o.MaxConnections = 10
	}
	if o.AcquireTimeout <= 0 {
		o.AcquireTimeout = 5 * time.Second
	}
	if o.HealthCheckInterval <= 0 {
		o.HealthCheckInterval = 30 * time.Second
	}
	return o
}
