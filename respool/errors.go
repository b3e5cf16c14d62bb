package respool

import "errors"

// Sentinel errors forming the pool's error taxonomy. Callers should use
// errors.Is against these rather than comparing error strings; FactoryError
// and HookError are not sentinels themselves because they wrap whatever the
// caller's factory or hook returned — use errors.Unwrap/errors.As to reach
// the underlying cause.
var (
	// ErrPoolClosed is returned when Acquire is attempted against a closed
	// pool, or when shutdown fires while a caller is waiting for a permit.
	ErrPoolClosed = errors.New("respool: pool is closed")

	// ErrAcquireTimeout is returned when Options.AcquireTimeout elapses
	// before a permit becomes available and before shutdown fires.
	ErrAcquireTimeout = errors.New("respool: acquire timed out")

	// ErrPoolExhausted is returned if the capacity gate itself is torn
	// down while a caller is waiting on it. The reference pool never
	// tears the gate down out from under a live pool, so in practice this
	// is defensive: no caller path triggers it today, but it exists so a
	// future capacity-gate teardown primitive has somewhere to report.
	ErrPoolExhausted = errors.New("respool: pool exhausted")
)

// FactoryError wraps an error returned by a caller-supplied Factory. The
// permit obtained for the failed acquire has already been released by the
// time this error reaches the caller.
type FactoryError struct {
	Err error
}

func (e *FactoryError) Error() string { return "respool: factory error: " + e.Err.Error() }
func (e *FactoryError) Unwrap() error { return e.Err }

// HookError wraps an error returned by AfterCreate. BeforeAcquire and
// AfterRelease errors are never surfaced to a caller (per the pool's error
// taxonomy they are converted into "reject this resource" and swallowed);
// only AfterCreate failures propagate, since that happens on the path that
// is about to hand a freshly-built resource back to a waiting caller.
type HookError struct {
	Err error
}

func (e *HookError) Error() string { return "respool: hook error: " + e.Err.Error() }
func (e *HookError) Unwrap() error { return e.Err }
