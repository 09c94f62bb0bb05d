package contact

import (
	"testing"

	"github.com/gazed/impulse/geom"
)

func TestMergeAddsNewPointsUpToFour(t *testing.T) {
	m := New()
	for i := 0; i < 4; i++ {
		p := Point{LocalA: geom.Vec3{float64(i), 0, 0}}
		m.Merge([]Point{p})
	}
	if len(m.Points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(m.Points))
	}
}

func TestMergeReplacesCloseExistingPointPreservingImpulse(t *testing.T) {
	m := New()
	m.Merge([]Point{{LocalA: geom.Vec3{0, 0, 0}, NormalImpulse: 5}})

	m.Merge([]Point{{LocalA: geom.Vec3{0.001, 0, 0}, NormalImpulse: 0}})

	if len(m.Points) != 1 {
		t.Fatalf("expected the close point to replace in place, got %d points", len(m.Points))
	}
	if m.Points[0].NormalImpulse != 5 {
		t.Errorf("expected warm-started impulse 5 to carry over, got %v", m.Points[0].NormalImpulse)
	}
}

func TestMergeEvictsWhenFull(t *testing.T) {
	m := New()
	m.Merge([]Point{
		{LocalA: geom.Vec3{0, 0, 0}},
		{LocalA: geom.Vec3{1, 0, 0}},
		{LocalA: geom.Vec3{0, 1, 0}},
		{LocalA: geom.Vec3{1, 1, 0}},
	})
	if len(m.Points) != 4 {
		t.Fatalf("expected 4 points before eviction test, got %d", len(m.Points))
	}

	m.Merge([]Point{{LocalA: geom.Vec3{5, 5, 0}}})
	if len(m.Points) != 4 {
		t.Errorf("expected manifold to stay capped at 4 points, got %d", len(m.Points))
	}
}

func TestMergeNeverEvictsDeepestPoint(t *testing.T) {
	m := New()
	m.Merge([]Point{
		{LocalA: geom.Vec3{0, 0, 0}, Depth: 5, NormalImpulse: 9},
		{LocalA: geom.Vec3{1, 0, 0}, Depth: 0.1},
		{LocalA: geom.Vec3{0, 1, 0}, Depth: 0.1},
		{LocalA: geom.Vec3{1, 1, 0}, Depth: 0.1},
	})

	// Far outside the existing quad, so every candidate substitution scores
	// higher than leaving the quad as-is; the deepest point (index 0) must
	// still survive regardless of the area each substitution would yield.
	m.Merge([]Point{{LocalA: geom.Vec3{50, 50, 0}, Depth: 0.2}})

	for _, p := range m.Points {
		if p.NormalImpulse == 9 {
			return
		}
	}
	t.Error("expected the deepest point's warm-started impulse to survive eviction")
}

func TestRefreshDropsPointsBeyondBreakingLimit(t *testing.T) {
	m := New()
	m.Points = []Point{{
		LocalA: geom.Vec3{0, 0, 0},
		LocalB: geom.Vec3{0, 0, 0},
		Normal: geom.Vec3{0, 1, 0},
	}}

	identity := func(v geom.Vec3) geom.Vec3 { return v }
	separated := func(v geom.Vec3) geom.Vec3 { return v.Add(geom.Vec3{0, 1, 0}) }

	m.Refresh(identity, separated)
	if len(m.Points) != 0 {
		t.Errorf("expected point separated beyond breakingLimit to be dropped, got %d remaining", len(m.Points))
	}
}

func TestRefreshKeepsPointsWithinBreakingLimit(t *testing.T) {
	m := New()
	m.Points = []Point{{
		LocalA: geom.Vec3{0, 0, 0},
		LocalB: geom.Vec3{0, 0, 0},
		Normal: geom.Vec3{0, 1, 0},
	}}

	identity := func(v geom.Vec3) geom.Vec3 { return v }
	m.Refresh(identity, identity)
	if len(m.Points) != 1 {
		t.Errorf("expected coincident point to survive refresh, got %d", len(m.Points))
	}
}
