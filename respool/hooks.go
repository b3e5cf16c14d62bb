package respool

import (
	"context"
	"time"
)

// Metadata describes a resource at the point a hook observes it.
//
// Age is the time since the factory produced the resource, tracked
// independently of the idle store's own eviction clock; it is near-zero at
// AfterCreate and grows across however many acquire/release cycles the
// resource survives. IdleFor is only meaningful at BeforeAcquire (how long
// the resource has sat released since its most recent enqueue) and is 0
// elsewhere. Eviction decisions (IdleTimeout, MaxLifetime) are made against
// the idle store's internal clock, not against the Age a hook observes;
// callers must not assume the two track each other exactly.
type Metadata struct {
	Age     time.Duration
	IdleFor time.Duration
}

// AfterCreateFunc runs once after the factory produces a brand new
// resource (never for an idle reuse). Returning an error destroys the
// fresh resource and fails the Acquire call with a HookError.
type AfterCreateFunc[R Resource] func(ctx context.Context, res R, meta Metadata) error

// BeforeAcquireFunc runs before an idle resource is handed back to a
// caller. Returning (false, nil) or a non-nil error both reject the
// resource: it is destroyed and the idle-reuse loop tries the next entry.
type BeforeAcquireFunc[R Resource] func(ctx context.Context, res R, meta Metadata) (bool, error)

// AfterReleaseFunc runs when a checked-out resource is released back to
// the pool. Returning (false, nil) or a non-nil error both mean "destroy
// instead of requeue".
type AfterReleaseFunc[R Resource] func(ctx context.Context, res R, meta Metadata) (bool, error)

// Hooks are optional callbacks invoked at fixed lifecycle points. Each is
// either present or absent; absent hooks are skipped entirely (not called
// with a no-op). Hooks are invoked serially with exclusive access to the
// resource they inspect — the pool never calls two hooks on the same
// resource concurrently.
type Hooks[R Resource] struct {
	AfterCreate   AfterCreateFunc[R]
	BeforeAcquire BeforeAcquireFunc[R]
	AfterRelease  AfterReleaseFunc[R]
}
