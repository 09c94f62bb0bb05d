// Package narrowphase dispatches a pair of support-mapping shapes to a GJK
// distance/overlap test, runs EPA for penetration depth on overlapping
// pairs, and samples support directions around the EPA normal for further
// contact points (auxiliaryContacts). ClipFaceAgainstFace is a separate
// face-clipping routine that Collide does not call. Grounded on gazed-vu/physics/support.go (support_point,
// support_point_of_minkowski_difference), gjk.go (gjk_Simplex, do_simplex),
// epa.go (polytope_from_gjk_simplex, get_face_normal_and_distance_to_origin),
// and clipping.go (sutherland_hodgman-based manifold clipping).
//
// MPR (Minkowski Portal Refinement) has no line-level source anywhere in the
// retrieval pack, so this package runs GJK+EPA uniformly behind the same
// black-box Collide entrypoint an MPR implementation would expose, and
// documents the substitution rather than silently dropping it.
package narrowphase

import (
	"log/slog"

	"github.com/gazed/impulse/geom"
	"github.com/gazed/impulse/shape"
)

// Support is anything narrowphase can query for a supporting point in a
// direction, in world space. A body wraps its shape.Shape plus its current
// transform to satisfy this.
type Support interface {
	SupportWorld(dir geom.Vec3) geom.Vec3
}

// WorldShape pairs a shape.Shape with a rigid transform, satisfying Support.
// Grounded on how gazed-vu/physics/support.go transforms a collider's local
// support point into world space before taking the Minkowski difference.
type WorldShape struct {
	Shape    shape.Shape
	Position geom.Vec3
	Rotation geom.Mat3
}

func (w WorldShape) SupportWorld(dir geom.Vec3) geom.Vec3 {
	localDir := w.Rotation.Transpose().Mul3x1(dir)
	localSupport := w.Shape.Support(localDir)
	return w.Position.Add(w.Rotation.Mul3x1(localSupport))
}

// minkowskiSupport returns the support point of A-B (the Minkowski
// difference) in direction dir, grounded on
// support_point_of_minkowski_difference.
func minkowskiSupport(a, b Support, dir geom.Vec3) geom.Vec3 {
	sa := a.SupportWorld(dir)
	sb := b.SupportWorld(dir.Mul(-1))
	return sa.Sub(sb)
}

const maxSimplexPoints = 4
const gjkMaxIterations = 64
const epsilon = 1e-9

// simplex is the evolving GJK simplex, grounded on gjk_Simplex.
type simplex struct {
	points [maxSimplexPoints]geom.Vec3
	count  int
}

func (s *simplex) push(p geom.Vec3) {
	for i := s.count; i > 0; i-- {
		s.points[i] = s.points[i-1]
	}
	s.points[0] = p
	if s.count < maxSimplexPoints {
		s.count++
	}
}

// tripleCross returns (a x b) x c, used to find a direction perpendicular
// to an edge but pointing toward the origin.
func tripleCross(a, b, c geom.Vec3) geom.Vec3 {
	return a.Cross(b).Cross(c)
}

// Result describes the outcome of a narrowphase query between two shapes.
type Result struct {
	Overlapping bool
	Normal      geom.Vec3 // points from A toward B.
	Depth       float64

	// Points holds the primary EPA contact plus whatever auxiliary
	// support-direction samples around Normal still penetrate to nearly
	// the same depth (see auxiliaryContacts), so a flat contact can reach
	// a stable multi-point manifold in one Collide call.
	Points []ManifoldPoint

	simplex simplex
}

// Collide runs GJK to detect overlap, then EPA to recover a penetration
// normal and depth if the shapes overlap, then samples auxiliary
// directions around that normal for additional coplanar contacts. Grounded
// on gjk_collides + epa.
func Collide(a, b Support) Result {
	dir := geom.Vec3{1, 0, 0}
	s := &simplex{}
	s.push(minkowskiSupport(a, b, dir))

	dir = dir.Mul(-1)
	for i := 0; i < gjkMaxIterations; i++ {
		p := minkowskiSupport(a, b, dir)
		if p.Dot(dir) < 0 {
			return Result{Overlapping: false}
		}
		s.push(p)

		var containsOrigin bool
		containsOrigin, dir = evolveSimplex(s, dir)
		if containsOrigin {
			normal, depth := epa(a, b, s)
			points := auxiliaryContacts(a, b, normal.Mul(-1), depth)
			return Result{Overlapping: true, Normal: normal, Depth: depth, Points: points, simplex: *s}
		}
	}
	slog.Warn("narrowphase: GJK did not converge", "iterations", gjkMaxIterations)
	return Result{Overlapping: false}
}

// evolveSimplex advances the simplex toward the origin, returning true once
// the simplex encloses it. Grounded on do_simplex/do_simplex_2/
// do_simplex_3/do_simplex_4.
func evolveSimplex(s *simplex, dir geom.Vec3) (bool, geom.Vec3) {
	switch s.count {
	case 2:
		return doLine(s, dir)
	case 3:
		return doTriangle(s, dir)
	case 4:
		return doTetrahedron(s, dir)
	}
	return false, dir
}

func doLine(s *simplex, dir geom.Vec3) (bool, geom.Vec3) {
	a, b := s.points[0], s.points[1]
	ab := b.Sub(a)
	ao := a.Mul(-1)
	if ab.Dot(ao) > 0 {
		return false, tripleCross(ab, ao, ab)
	}
	s.points[0] = a
	s.count = 1
	return false, ao
}

func doTriangle(s *simplex, dir geom.Vec3) (bool, geom.Vec3) {
	a, b, c := s.points[0], s.points[1], s.points[2]
	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)
	abc := ab.Cross(ac)

	if tripleCross(ac, ab, ac).Dot(ao) > 0 {
		if ac.Dot(ao) > 0 {
			s.points[1] = c
			s.count = 2
			return false, tripleCross(ac, ao, ac)
		}
		return doLineFrom(s, a, b, ao)
	}
	if tripleCross(ab, ac, ab).Dot(ao) > 0 {
		return doLineFrom(s, a, b, ao)
	}
	if abc.Dot(ao) > 0 {
		return false, abc
	}
	s.points[0], s.points[1], s.points[2] = a, c, b
	return false, abc.Mul(-1)
}

func doLineFrom(s *simplex, a, b, ao geom.Vec3) (bool, geom.Vec3) {
	ab := b.Sub(a)
	if ab.Dot(ao) > 0 {
		s.points[0], s.points[1] = a, b
		s.count = 2
		return false, tripleCross(ab, ao, ab)
	}
	s.points[0] = a
	s.count = 1
	return false, ao
}

func doTetrahedron(s *simplex, dir geom.Vec3) (bool, geom.Vec3) {
	a, b, c, d := s.points[0], s.points[1], s.points[2], s.points[3]
	ao := a.Mul(-1)

	abc := b.Sub(a).Cross(c.Sub(a))
	acd := c.Sub(a).Cross(d.Sub(a))
	adb := d.Sub(a).Cross(b.Sub(a))

	if abc.Dot(ao) > 0 {
		s.points[0], s.points[1], s.points[2] = a, b, c
		s.count = 3
		return doTriangle(s, dir)
	}
	if acd.Dot(ao) > 0 {
		s.points[0], s.points[1], s.points[2] = a, c, d
		s.count = 3
		return doTriangle(s, dir)
	}
	if adb.Dot(ao) > 0 {
		s.points[0], s.points[1], s.points[2] = a, d, b
		s.count = 3
		return doTriangle(s, dir)
	}
	return true, dir
}
