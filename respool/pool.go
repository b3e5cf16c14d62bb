package respool

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Stats is a point-in-time snapshot of pool occupancy.
type Stats struct {
	Idle   int
	Max    int
	Closed bool
}

// poolState is the pool's shared, reference-counted state (spec §3). It is
// kept separate from Pool itself so the maintenance loop can hold a weak
// reference to it (see maintenance.go) without that reference keeping the
// state, and transitively the Pool, reachable.
type poolState[R Resource] struct {
	options Options
	gate    *gate
	idle    idleStore[R]
	hooks   *Hooks[R]
	logger  *slog.Logger

	closed       atomic.Bool
	shutdownOnce sync.Once
	shutdownCh   chan struct{}

	maintDone chan struct{} // closed when the maintenance loop exits
}

// Pool multiplexes a bounded population of R among concurrent consumers.
// The zero value is not usable; construct with New or NewWithHooks.
type Pool[R Resource] struct {
	state *poolState[R]
}

// New constructs a pool with the given options and no lifecycle hooks.
func New[R Resource](opts Options) *Pool[R] {
	return newPool[R](opts, nil)
}

// NewWithHooks constructs a pool with lifecycle hooks attached.
func NewWithHooks[R Resource](opts Options, hooks Hooks[R]) *Pool[R] {
	return newPool[R](opts, &hooks)
}

func newPool[R Resource](opts Options, hooks *Hooks[R]) *Pool[R] {
	opts = opts.withDefaults()

	st := &poolState[R]{
		options:    opts,
		gate:       newGate(opts.MaxConnections),
		hooks:      hooks,
		logger:     slog.Default(),
		shutdownCh: make(chan struct{}),
		maintDone:  make(chan struct{}),
	}

	startMaintenance(st)

	p := &Pool[R]{state: st}

	// Best-effort implicit shutdown: if the last external reference to the
	// pool is dropped without an explicit Close, the finalizer performs
	// the same steps as Close but with a bounded wait on maintenance
	// (spec §4.6 "implicit last-reference disposal"). Close clears this
	// finalizer so the deterministic path never races the implicit one.
	runtime.SetFinalizer(p, finalizePool[R])

	return p
}

func finalizePool[R Resource](p *Pool[R]) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.state.shutdown(ctx)
}

// Acquire obtains a handle to a resource, reusing an idle entry when one
// is healthy, unexpired, and accepted by BeforeAcquire, or else invoking
// factory. It blocks up to Options.AcquireTimeout.
func (p *Pool[R]) Acquire(ctx context.Context, factory Factory[R]) (*Handle[R], error) {
	st := p.state

	if st.closed.Load() {
		return nil, ErrPoolClosed
	}

	deadline, cancel := context.WithTimeout(ctx, st.options.AcquireTimeout)
	defer cancel()

	perm, err := st.gate.acquire(deadline, st.shutdownCh)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			// AcquireTimeout elapsed specifically, not the caller's own ctx.
			return nil, ErrAcquireTimeout
		}
		return nil, err
	}

	// Idle-reuse loop: finishes (reusable entry or exhausted store) before
	// the create path is ever considered (spec §4.3 tie-break).
	for {
		entry, ok := st.idle.popFront()
		if !ok {
			break
		}

		if st.options.MaxLifetime > 0 && time.Since(entry.since) > st.options.MaxLifetime {
			entry.resource.Close(ctx)
			continue
		}
		if st.options.IdleTimeout > 0 && time.Since(entry.since) > st.options.IdleTimeout {
			entry.resource.Close(ctx)
			continue
		}
		if !entry.resource.IsHealthy(ctx) {
			entry.resource.Close(ctx)
			continue
		}

		if st.hooks != nil && st.hooks.BeforeAcquire != nil {
			meta := Metadata{Age: time.Since(entry.createdAt), IdleFor: time.Since(entry.since)}
			accept, hookErr := st.hooks.BeforeAcquire(ctx, entry.resource, meta)
			if hookErr != nil || !accept {
				entry.resource.Close(ctx)
				continue
			}
		}

		return newHandle(p, entry.resource, perm, entry.createdAt), nil
	}

	createdAt := time.Now()
	res, err := factory(ctx)
	if err != nil {
		perm.release()
		return nil, &FactoryError{Err: err}
	}

	if st.hooks != nil && st.hooks.AfterCreate != nil {
		if hookErr := st.hooks.AfterCreate(ctx, res, Metadata{Age: time.Since(createdAt)}); hookErr != nil {
			res.Close(ctx)
			perm.release()
			return nil, &HookError{Err: hookErr}
		}
	}

	return newHandle(p, res, perm, createdAt), nil
}

// Close latches the pool closed, wakes every pending acquirer and the
// maintenance loop, waits for maintenance to finish, and drains the idle
// store, closing every entry. It is idempotent.
func (p *Pool[R]) Close(ctx context.Context) {
	runtime.SetFinalizer(p, nil)
	p.state.shutdown(ctx)
}

func (st *poolState[R]) shutdown(ctx context.Context) {
	st.shutdownOnce.Do(func() {
		st.closed.Store(true)
		close(st.shutdownCh)

		select {
		case <-st.maintDone:
		case <-ctx.Done():
		}

		for {
			entry, ok := st.idle.popFront()
			if !ok {
				break
			}
			if err := entry.resource.Close(ctx); err != nil {
				st.logger.Warn("respool: error closing idle resource during shutdown",
					"resource", entry.resource.ResourceID(), "error", err)
			}
		}
	})
}

// Stats returns a point-in-time snapshot of pool occupancy.
func (p *Pool[R]) Stats() Stats {
	return Stats{
		Idle:   p.state.idle.len(),
		Max:    p.state.options.MaxConnections,
		Closed: p.state.closed.Load(),
	}
}

// IsClosed reports whether Close has been called (non-suspending).
func (p *Pool[R]) IsClosed() bool {
	return p.state.closed.Load()
}

// CloseEvent returns a handle whose Wait resolves when Close begins.
func (p *Pool[R]) CloseEvent() *CloseEvent {
	return &CloseEvent{shutdown: p.state.shutdownCh}
}
