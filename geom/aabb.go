package geom

import "math"

// AABB is an axis-aligned bounding box, kept in pairs of min/max corners.
// Grounded on gazed-vu/physics/shape.go's Abox (Sx,Sy,Sz/Lx,Ly,Lz), widened
// here with the union/fatten operations a dynamic AABB tree needs.
type AABB struct {
	Min, Max Vec3
}

// NewAABB returns the box spanning min and max, swapping components so that
// Min is always componentwise less than or equal to Max.
func NewAABB(min, max Vec3) AABB {
	for i := 0; i < 3; i++ {
		if min[i] > max[i] {
			min[i], max[i] = max[i], min[i]
		}
	}
	return AABB{Min: min, Max: max}
}

// FromCenterHalfExtents builds a box from a center point and half-extents.
func FromCenterHalfExtents(center, half Vec3) AABB {
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// Overlaps reports whether a and b intersect, touching does not count.
func (a AABB) Overlaps(b AABB) bool {
	return a.Max[0] > b.Min[0] && a.Min[0] < b.Max[0] &&
		a.Max[1] > b.Min[1] && a.Min[1] < b.Max[1] &&
		a.Max[2] > b.Min[2] && a.Min[2] < b.Max[2]
}

// Contains reports whether b lies entirely inside a.
func (a AABB) Contains(b AABB) bool {
	return a.Min[0] <= b.Min[0] && a.Max[0] >= b.Max[0] &&
		a.Min[1] <= b.Min[1] && a.Max[1] >= b.Max[1] &&
		a.Min[2] <= b.Min[2] && a.Max[2] >= b.Max[2]
}

// Union returns the smallest box containing both a and b.
func (a AABB) Union(b AABB) AABB {
	out := AABB{}
	for i := 0; i < 3; i++ {
		out.Min[i] = math.Min(a.Min[i], b.Min[i])
		out.Max[i] = math.Max(a.Max[i], b.Max[i])
	}
	return out
}

// Fatten inflates the box by margin in every direction. Used by the
// broadphase tree to avoid reinserting a leaf on every small movement.
func (a AABB) Fatten(margin float64) AABB {
	m := Vec3{margin, margin, margin}
	return AABB{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

// SurfaceArea returns twice the sum of the box's face areas; used unscaled
// as the SAH insertion cost in the broadphase tree (relative comparisons
// only, so the factor of two is irrelevant).
func (a AABB) SurfaceArea() float64 {
	d := a.Max.Sub(a.Min)
	return 2 * (d[0]*d[1] + d[1]*d[2] + d[2]*d[0])
}

// Center returns the midpoint of the box.
func (a AABB) Center() Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// RayIntersect performs a slab test against the box, returning the entry
// distance along the ray and whether it hit within [0, maxT].
// Grounded on gazed-vu/physics/caster.go's ray-plane/ray-sphere casts,
// generalized to the three-axis slab test the broadphase tree needs.
func (a AABB) RayIntersect(origin, dir Vec3, maxT float64) (t float64, hit bool) {
	tMin, tMax := 0.0, maxT
	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < 1e-12 {
			if origin[i] < a.Min[i] || origin[i] > a.Max[i] {
				return 0, false
			}
			continue
		}
		inv := 1.0 / dir[i]
		t1 := (a.Min[i] - origin[i]) * inv
		t2 := (a.Max[i] - origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}
