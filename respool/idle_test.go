package respool

import (
	"testing"
	"time"
)

func TestIdleStore_FIFOOrder(t *testing.T) {
	var s idleStore[*mockResource]

	s.pushBack(newMockResource("a"), time.Now(), time.Now())
	s.pushBack(newMockResource("b"), time.Now(), time.Now())
	s.pushBack(newMockResource("c"), time.Now(), time.Now())

	var got []string
	for {
		e, ok := s.popFront()
		if !ok {
			break
		}
		got = append(got, e.resource.ResourceID())
	}

	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestIdleStore_DrainAndRestore(t *testing.T) {
	var s idleStore[*mockResource]

	s.pushBack(newMockResource("a"), time.Now(), time.Now())
	s.pushBack(newMockResource("b"), time.Now(), time.Now())

	drained := s.drainAll()
	if len(drained) != 2 {
		t.Fatalf("expected 2 drained entries, got %d", len(drained))
	}
	if s.len() != 0 {
		t.Fatalf("expected store empty after drain, got %d", s.len())
	}

	// A concurrent release landing mid-sweep.
	s.pushBack(newMockResource("fresh"), time.Now(), time.Now())

	s.restore(drained)

	if s.len() != 3 {
		t.Fatalf("expected 3 entries after restore, got %d", s.len())
	}

	first, ok := s.popFront()
	if !ok || first.resource.ResourceID() != "a" {
		t.Fatalf("expected survivor 'a' to be restored first, got %+v ok=%v", first, ok)
	}
}
