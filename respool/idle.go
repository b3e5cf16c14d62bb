package respool

import (
	"container/list"
	"sync"
	"time"
)

// idleEntry is a resource currently sitting in the idle store. since is the
// instant it was (most recently) enqueued, the clock eviction uses; createdAt
// is the instant the factory produced it in the first place and travels with
// the resource across any number of acquire/release cycles, the clock
// Metadata.Age reports to hooks.
type idleEntry[R Resource] struct {
	resource  R
	since     time.Time
	createdAt time.Time
}

// idleStore is the ordered cache of released-but-unexpired resources
// described in spec §4.2: push at the back on release, pop from the front
// on acquire (oldest-first reuse). The lock is held only for the
// enqueue/dequeue itself, never across resource I/O — callers that need to
// evaluate health or hooks on a popped entry do so after releasing the
// lock, then either hand the entry out or destroy it; a popped entry is
// never pushed back. The maintenance sweep instead drains the whole store
// and restores the survivors (see restore).
type idleStore[R Resource] struct {
	mu      sync.Mutex
	entries list.List // of idleEntry[R]
}

func (s *idleStore[R]) pushBack(res R, since, createdAt time.Time) {
	s.mu.Lock()
	s.entries.PushBack(idleEntry[R]{resource: res, since: since, createdAt: createdAt})
	s.mu.Unlock()
}

// popFront removes and returns the oldest entry, or ok=false if empty.
func (s *idleStore[R]) popFront() (entry idleEntry[R], ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	front := s.entries.Front()
	if front == nil {
		return idleEntry[R]{}, false
	}
	s.entries.Remove(front)
	return front.Value.(idleEntry[R]), true
}

func (s *idleStore[R]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Len()
}

// drainAll atomically empties the store and returns every entry it held,
// oldest first. Used by the maintenance loop so that R.Close/R.IsHealthy
// never run while the idle lock is held.
func (s *idleStore[R]) drainAll() []idleEntry[R] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]idleEntry[R], 0, s.entries.Len())
	for e := s.entries.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(idleEntry[R]))
	}
	s.entries.Init()
	return out
}

// restore re-enqueues survivors after a maintenance pass, preserving their
// relative order and keeping them ahead of anything released meanwhile.
func (s *idleStore[R]) restore(entries []idleEntry[R]) {
	if len(entries) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var rest list.List
	rest.Init()
	for _, e := range entries {
		rest.PushBack(e)
	}
	rest.PushBackList(&s.entries)
	s.entries.Init()
	s.entries.PushBackList(&rest)
}
