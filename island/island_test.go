package island

import (
	"testing"

	"github.com/gazed/impulse/pool"
)

func handle(i uint32) BodyID {
	p := pool.New[int](8)
	var h BodyID
	for n := uint32(0); n <= i; n++ {
		h, _ = p.Allocate(true)
	}
	return h
}

func TestUnionMergesIslands(t *testing.T) {
	g := New()
	a, b, c := handle(0), handle(1), handle(2)
	g.AddBody(a, false)
	g.AddBody(b, false)
	g.AddBody(c, false)

	g.Union(a, b)
	if len(g.Members(a)) != 2 {
		t.Fatalf("expected a and b in the same island, got %d members", len(g.Members(a)))
	}
	if len(g.Members(c)) != 1 {
		t.Errorf("expected c in its own island, got %d members", len(g.Members(c)))
	}
}

func TestStaticBodyDoesNotMergeIslands(t *testing.T) {
	g := New()
	a, b, s := handle(0), handle(1), handle(2)
	g.AddBody(a, false)
	g.AddBody(b, false)
	g.AddBody(s, true)

	g.Union(a, s)
	g.Union(b, s)

	if len(g.Members(a)) != 1 || len(g.Members(b)) != 1 {
		t.Error("two dynamic bodies sharing only a static contact should not be merged")
	}
}

func TestSleepRequiresWholeIslandBelowThreshold(t *testing.T) {
	g := New()
	a, b := handle(0), handle(1)
	g.AddBody(a, false)
	g.AddBody(b, false)
	g.Union(a, b)

	g.AccumulateSleepTime(a, true, 0.5, 1.0)
	g.AccumulateSleepTime(b, true, 0.5, 1.0)
	if !g.IsActive(a) {
		t.Fatal("island should still be active before minTimeToSleep elapses")
	}

	g.AccumulateSleepTime(a, true, 0.6, 1.0)
	g.AccumulateSleepTime(b, true, 0.6, 1.0)
	if g.IsActive(a) {
		t.Error("island should be asleep once every member stayed below threshold long enough")
	}
}

func TestAnyBodyAboveThresholdResetsIsland(t *testing.T) {
	g := New()
	a, b := handle(0), handle(1)
	g.AddBody(a, false)
	g.AddBody(b, false)
	g.Union(a, b)

	g.AccumulateSleepTime(a, true, 0.9, 1.0)
	g.AccumulateSleepTime(b, false, 0.9, 1.0) // b is still moving.
	if !g.IsActive(a) {
		t.Fatal("island should remain active while any member moves")
	}
}

func TestWakeReactivatesSleepingIsland(t *testing.T) {
	g := New()
	a := handle(0)
	g.AddBody(a, false)
	g.AccumulateSleepTime(a, true, 2.0, 1.0)
	if g.IsActive(a) {
		t.Fatal("expected island asleep")
	}
	g.Wake(a)
	if !g.IsActive(a) {
		t.Error("expected Wake to reactivate the island")
	}
}

func TestIslandsGroupsDynamicBodiesByRoot(t *testing.T) {
	g := New()
	a, b, c, s := handle(0), handle(1), handle(2), handle(3)
	g.AddBody(a, false)
	g.AddBody(b, false)
	g.AddBody(c, false)
	g.AddBody(s, true)
	g.Union(a, b)

	islands := g.Islands()
	if len(islands) != 2 {
		t.Fatalf("expected 2 dynamic islands (merged ab, solo c), got %d", len(islands))
	}
}
