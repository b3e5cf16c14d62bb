package respool

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"
)

// Handle is a checked-out resource: it bundles the resource, a pool
// back-reference, and the held permit. Release must be called exactly
// once to return the resource to the pool; a finalizer calls it as a
// best-effort safety net for callers that forget, mirroring the pool's
// own best-effort implicit-shutdown path, but callers should not rely on
// the finalizer for deterministic cleanup.
type Handle[R Resource] struct {
	pool      *Pool[R]
	resource  R
	perm      *permit
	createdAt time.Time
	disarmed  atomic.Bool
}

func newHandle[R Resource](p *Pool[R], res R, perm *permit, createdAt time.Time) *Handle[R] {
	h := &Handle[R]{pool: p, resource: res, perm: perm, createdAt: createdAt}
	runtime.SetFinalizer(h, finalizeHandle[R])
	return h
}

func finalizeHandle[R Resource](h *Handle[R]) {
	h.Release()
}

// Resource returns the checked-out resource. It panics if the handle has
// already been released.
func (h *Handle[R]) Resource() R {
	if h.disarmed.Load() {
		panic("respool: Resource() called on a released Handle")
	}
	return h.resource
}

// Release runs the release pipeline (spec §4.4): it hands the resource
// and permit to a detached goroutine that evaluates health and the
// optional AfterRelease hook, then either requeues or destroys the
// resource, and only then returns the permit. Release itself is
// non-blocking — the caller does not wait for that work to finish, and
// correctness does not require it to. Calling Release more than once is a
// no-op after the first call.
func (h *Handle[R]) Release() {
	if !h.disarmed.CompareAndSwap(false, true) {
		return
	}
	runtime.SetFinalizer(h, nil)

	st := h.pool.state
	res := h.resource
	perm := h.perm
	createdAt := h.createdAt

	go releasePipeline(st, res, perm, createdAt)
}

func releasePipeline[R Resource](st *poolState[R], res R, perm *permit, createdAt time.Time) {
	ctx := context.Background()
	defer perm.release()

	meta := Metadata{Age: time.Since(createdAt)}

	if st.closed.Load() || !res.IsHealthy(ctx) {
		if err := res.Close(ctx); err != nil {
			st.logger.Warn("respool: error closing resource on release",
				"resource", res.ResourceID(), "error", err)
		}
		return
	}

	if st.hooks != nil && st.hooks.AfterRelease != nil {
		keep, hookErr := st.hooks.AfterRelease(ctx, res, meta)
		if hookErr != nil || !keep {
			if err := res.Close(ctx); err != nil {
				st.logger.Warn("respool: error closing resource rejected by AfterRelease",
					"resource", res.ResourceID(), "error", err)
			}
			return
		}
	}

	st.idle.pushBack(res, time.Now(), createdAt)
}
