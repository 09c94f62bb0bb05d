// Package contact implements the persistent contact manifold (arbiter)
// shared between a pair of bodies across steps: up to four contact points,
// warm-started impulses carried from the previous step, and a
// greedy-area-maximizing replacement policy once the manifold is full.
// Grounded on gazed-vu/physics/contact.go's refreshContacts, mergeContacts,
// closestPoint, largestArea, and area, which are themselves a named,
// scaled-down port of Bullet's btPersistentManifold.
package contact

import (
	"math"

	"github.com/gazed/impulse/geom"
)

const maxPoints = 4

// breakingLimit bounds how far a cached point may drift, along or across
// the contact normal, before it is discarded as stale. Matches the
// distance-based discard gazed-vu/physics/contact.go applies in
// refreshContacts.
const breakingLimit = 0.02

// Point is one point of contact between two bodies, carried across steps so
// its warm-start impulses persist while the contact remains valid.
type Point struct {
	LocalA, LocalB   geom.Vec3 // anchor points in each body's local frame.
	WorldA, WorldB   geom.Vec3 // anchor points in world space, refreshed each step.
	Normal           geom.Vec3 // contact normal in world space, pointing from A toward B.
	Depth            float64   // penetration depth; negative for speculative (separated) contacts.
	Friction         float64
	Restitution      float64

	NormalImpulse  float64 // warm-started accumulated impulse along Normal.
	Tangent1Impulse float64
	Tangent2Impulse float64
}

// Manifold is the persistent contact surface between exactly two bodies.
type Manifold struct {
	Points []Point
}

// New returns an empty manifold with capacity for the maximum point count.
func New() *Manifold {
	return &Manifold{Points: make([]Point, 0, maxPoints)}
}

// Refresh recomputes each cached point's world position from the bodies'
// current transforms and drops points that have drifted past
// breakingLimit, either apart along the normal (separation) or laterally.
// Points that have sunk deeper along the normal are kept, with their Depth
// updated. Grounded on refreshContacts.
func (m *Manifold) Refresh(transformA, transformB func(local geom.Vec3) geom.Vec3) {
	valid := m.Points[:0]
	for _, p := range m.Points {
		p.WorldA = transformA(p.LocalA)
		p.WorldB = transformB(p.LocalB)
		distance := p.WorldA.Sub(p.WorldB).Dot(p.Normal)

		if distance < -breakingLimit {
			continue
		}
		projected := p.WorldA.Sub(p.Normal.Mul(distance))
		lateral := p.WorldB.Sub(projected).LenSqr()
		if lateral > breakingLimit*breakingLimit {
			continue
		}
		p.Depth = distance
		valid = append(valid, p)
	}
	m.Points = valid
}

// Merge folds newly discovered narrowphase points into the manifold: a new
// point within breakingLimit of an existing one replaces it in place
// (preserving its warm-start impulse); otherwise it is appended if there is
// room, or it replaces whichever existing point contributes least to the
// manifold's covered area. Grounded on mergeContacts/closestPoint/
// largestArea/area.
func (m *Manifold) Merge(fresh []Point) {
	for _, p := range fresh {
		if idx := m.closest(p); idx >= 0 {
			warm := m.Points[idx]
			p.NormalImpulse = warm.NormalImpulse
			p.Tangent1Impulse = warm.Tangent1Impulse
			p.Tangent2Impulse = warm.Tangent2Impulse
			m.Points[idx] = p
			continue
		}
		if len(m.Points) < maxPoints {
			m.Points = append(m.Points, p)
			continue
		}
		idx := m.largestAreaIndex(p)
		m.Points[idx] = p
	}
}

// closest returns the index of the cached point nearest to p in the local
// frame of body A, or -1 if none lies within breakingLimit.
func (m *Manifold) closest(p Point) int {
	shortest := breakingLimit * breakingLimit
	nearest := -1
	for i, existing := range m.Points {
		d := existing.LocalA.Sub(p.LocalA).LenSqr()
		if d < shortest {
			shortest = d
			nearest = i
		}
	}
	return nearest
}

// largestAreaIndex picks which of the 4 existing points to evict so that
// inserting candidate in its place keeps the remaining 4-point set's
// enclosed area as large as possible. The point with the greatest
// penetration depth is never a candidate for eviction, mirroring
// sortCachedPoints's maxPenetrationIndex exclusion: losing the deepest
// point's warm-started impulse is exactly when a stacked/piled contact is
// least able to afford it.
func (m *Manifold) largestAreaIndex(candidate Point) int {
	pts := [4]geom.Vec3{m.Points[0].LocalA, m.Points[1].LocalA, m.Points[2].LocalA, m.Points[3].LocalA}
	c := candidate.LocalA

	maxPenetrationIndex := 0
	for i := 1; i < 4; i++ {
		if m.Points[i].Depth > m.Points[maxPenetrationIndex].Depth {
			maxPenetrationIndex = i
		}
	}

	areas := [4]float64{
		quadArea(c, pts[1], pts[2], pts[3]),
		quadArea(c, pts[0], pts[2], pts[3]),
		quadArea(c, pts[0], pts[1], pts[3]),
		quadArea(c, pts[0], pts[1], pts[2]),
	}
	best := -1
	for i := 0; i < 4; i++ {
		if i == maxPenetrationIndex {
			continue
		}
		if best < 0 || areas[i] > areas[best] {
			best = i
		}
	}
	return best
}

// quadArea returns the largest of the three triangle-pair cross-product
// areas obtainable from p0..p3, used as a cheap proxy for the area enclosed
// by the 4-point set with p0 substituted in. Grounded on area/
// calcArea4Points.
func quadArea(p0, p1, p2, p3 geom.Vec3) float64 {
	l0 := p0.Sub(p1).Cross(p2.Sub(p3)).LenSqr()
	l1 := p0.Sub(p2).Cross(p1.Sub(p3)).LenSqr()
	l2 := p0.Sub(p3).Cross(p1.Sub(p2)).LenSqr()
	return math.Max(math.Max(l0, l1), l2)
}
