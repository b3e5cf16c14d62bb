package respool

import (
	"context"
	"sync/atomic"
)

// gate is the capacity bound described in spec §4.1: a counting permit
// initialized to max, handed out one at a time. It knows nothing about
// resources — it purely meters concurrent handle existence.
//
// It is built on a buffered channel of tokens rather than a
// condition-variable-style semaphore, because a closed channel already gives every blocked receiver a
// no-miss wakeup: that is exactly the "any waiter registered before a
// broadcast observes it" contract the shutdown signal needs (spec §5), so
// acquiring a permit and observing shutdown can live in the same select
// without any separate broadcast/recheck loop.
type gate struct {
	tokens chan struct{}

	acquired atomic.Uint64
	released atomic.Uint64
	timedOut atomic.Uint64
}

func newGate(max int) *gate {
	g := &gate{tokens: make(chan struct{}, max)}
	for i := 0; i < max; i++ {
		g.tokens <- struct{}{}
	}
	return g
}

// permit is an owning token; it must be released exactly once, and only
// after the resource's fate (requeue or destroy) has been decided.
type permit struct {
	g        *gate
	released atomic.Bool
}

// acquire blocks until a permit is available, shutdown fires, or ctx is
// done, in that priority order only insofar as Go's select is fair among
// ready cases — no ordering is otherwise guaranteed, matching spec §4.3's
// "whatever the Capacity Gate provides" fairness language.
func (g *gate) acquire(ctx context.Context, shutdown <-chan struct{}) (*permit, error) {
	select {
	case tok, ok := <-g.tokens:
		if !ok {
			return nil, ErrPoolExhausted
		}
		_ = tok
		g.acquired.Add(1)
		return &permit{g: g}, nil
	case <-shutdown:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		g.timedOut.Add(1)
		return nil, ctx.Err()
	}
}

// release returns the permit's token to the gate. It is safe to call more
// than once; only the first call has effect.
func (p *permit) release() {
	if p == nil || !p.released.CompareAndSwap(false, true) {
		return
	}
	p.g.released.Add(1)
	p.g.tokens <- struct{}{}
}
