package respool

import (
	"context"
	"time"
	"weak"
)

// startMaintenance spawns the background maintenance loop described in
// spec §4.5. It is handed only a weak.Pointer to the pool's state, never
// the state itself, so its existence never keeps the pool reachable — the
// same role Arc::downgrade/Weak plays in the reference implementation's
// "cyclic self-reference" design note (spec §9). Each tick re-upgrades the
// weak pointer; a failed upgrade means the state has already been
// collected and the loop exits on its own, independent of shutdownCh.
func startMaintenance[R Resource](st *poolState[R]) {
	weakState := weak.Make(st)
	interval := st.options.HealthCheckInterval
	shutdownCh := st.shutdownCh
	maintDone := st.maintDone

	go func() {
		defer close(maintDone)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// A time.Ticker delivers its first tick one full interval after it
		// is created, so the loop waits one interval before its first
		// active pass.
		for {
			select {
			case <-shutdownCh:
				return
			case <-ticker.C:
				cur := weakState.Value()
				if cur == nil {
					return
				}
				sweepIdle(cur)
			}
		}
	}()
}

// sweepIdle atomically drains the idle store into a local list, evaluates
// each entry, destroys the losers, and re-enqueues the survivors. The
// drain-then-restore pattern keeps the idle lock from ever being held
// across an R.Close or R.IsHealthy call.
func sweepIdle[R Resource](st *poolState[R]) {
	drained := st.idle.drainAll()
	if len(drained) == 0 {
		return
	}

	ctx := context.Background()
	survivors := make([]idleEntry[R], 0, len(drained))

	for _, entry := range drained {
		expired := st.options.MaxLifetime > 0 && time.Since(entry.since) > st.options.MaxLifetime
		if !expired && st.options.IdleTimeout > 0 {
			expired = time.Since(entry.since) > st.options.IdleTimeout
		}

		if expired || !entry.resource.IsHealthy(ctx) {
			if err := entry.resource.Close(ctx); err != nil {
				st.logger.Warn("respool: error closing expired idle resource",
					"resource", entry.resource.ResourceID(), "error", err)
			}
			continue
		}

		survivors = append(survivors, entry)
	}

	st.idle.restore(survivors)
}
