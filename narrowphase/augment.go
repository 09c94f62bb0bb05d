package narrowphase

import (
	"math"

	"github.com/gazed/impulse/geom"
)

// auxiliarySampleAngle is the angular offset from the primary contact
// normal used to probe for additional coplanar contacts, shallow enough
// that a genuinely flat face-face contact reports points at nearly the same
// depth as the primary one, while a curved contact (sphere on anything)
// quickly loses depth along any perturbed direction and stays single-point.
const auxiliarySampleAngle = 0.08 // radians, about 4.6 degrees.

// auxiliaryCoplanarSlop bounds how far short of the primary point's depth
// an auxiliary point's depth may fall before it is discarded as not
// actually part of the same contact surface. A flat face-face contact's
// depth is exactly invariant under the perturbation (to floating-point
// precision); a curved surface's depth falls off like r*(1-cos(angle))
// over auxiliarySampleAngle, which for any shape larger than a few
// centimeters comfortably exceeds this slop.
const auxiliaryCoplanarSlop = 0.001

// auxiliaryContacts implements one-shot manifold augmentation: beyond the
// primary EPA contact point, it samples a small ring of directions
// perturbed around the contact normal and keeps whichever support points
// still penetrate to nearly the same depth. A flat contact reaches a
// stable multi-point manifold in this single Collide call instead of
// accumulating one point per step across several frames of independent
// single-point merges. normal points from b toward a, the reverse of
// Result.Normal.
func auxiliaryContacts(a, b Support, normal geom.Vec3, depth float64) []ManifoldPoint {
	points := make([]ManifoldPoint, 0, 5)
	points = append(points, ManifoldPoint{Position: contactMidpoint(a, b, normal), Depth: depth})

	t1, t2 := geom.TangentBasis(normal)
	cos, sin := math.Cos(auxiliarySampleAngle), math.Sin(auxiliarySampleAngle)
	directions := [4]geom.Vec3{
		normal.Mul(cos).Add(t1.Mul(sin)).Normalize(),
		normal.Mul(cos).Add(t1.Mul(-sin)).Normalize(),
		normal.Mul(cos).Add(t2.Mul(sin)).Normalize(),
		normal.Mul(cos).Add(t2.Mul(-sin)).Normalize(),
	}

	for _, dir := range directions {
		wa := a.SupportWorld(dir.Mul(-1))
		wb := b.SupportWorld(dir)
		auxDepth := wb.Sub(wa).Dot(normal)
		if auxDepth < depth-auxiliaryCoplanarSlop {
			continue
		}
		points = append(points, ManifoldPoint{Position: wa.Add(wb).Mul(0.5), Depth: auxDepth})
	}
	return points
}

// contactMidpoint returns the world-space contact location along the
// primary normal: the midpoint of each shape's support point facing the
// other across it. normal points from b toward a.
func contactMidpoint(a, b Support, normal geom.Vec3) geom.Vec3 {
	wa := a.SupportWorld(normal.Mul(-1))
	wb := b.SupportWorld(normal)
	return wa.Add(wb).Mul(0.5)
}
