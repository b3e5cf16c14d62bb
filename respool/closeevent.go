package respool

import "context"

// CloseEvent is a handle whose Wait resolves when the pool's Close begins,
// or immediately if the pool is already closed.
//
// Unlike a condition-variable-style notify, a closed Go channel has no
// missed-wakeup window: a receive registered before or after the channel
// is closed both observe the close exactly once. That means CloseEvent
// needs no separate "arm" step distinct from construction — capturing the
// shared shutdown channel at CloseEvent() call time is already race-free
// with a concurrent Close(), which is the guarantee spec §9 asks for.
type CloseEvent struct {
	shutdown <-chan struct{}
}

// Wait blocks until the pool begins closing or ctx is done, whichever
// comes first.
func (e *CloseEvent) Wait(ctx context.Context) error {
	select {
	case <-e.shutdown:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
