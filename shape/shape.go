// Package shape defines the support-mapping contract the narrowphase and
// broadphase depend on, plus two reference implementations (sphere, box)
// used by tests and examples. Concrete shape geometry beyond these two
// fixtures is out of scope for the core. Grounded on gazed-vu/physics/shape.go's
// Shape interface (Type/Volume/Aabb/Inertia), extended with the support-point
// method MPR/GJK require.
package shape

import "github.com/gazed/impulse/geom"

// Shape is anything narrowphase can collide and the broadphase can bound.
// Implementations are expected to be immutable value-ish types; the world's
// RigidBody pairs a Shape with a transform, not the other way around.
type Shape interface {
	// LocalAABB returns the shape's tight bounding box in its own local
	// frame (before the body's transform is applied).
	LocalAABB() geom.AABB

	// Support returns the point on the shape's surface farthest in
	// direction dir, in the shape's local frame. The GJK/EPA narrowphase
	// routines are built entirely on this primitive.
	Support(dir geom.Vec3) geom.Vec3

	// Volume returns the shape's volume, used to derive mass from density.
	Volume() float64

	// Inertia returns the local inertia tensor for a shape of the given
	// mass, about its own center of mass.
	Inertia(mass float64) geom.Mat3
}

// Sphere is a solid ball of the given radius centered at the origin of its
// local frame.
type Sphere struct {
	Radius float64
}

func (s Sphere) LocalAABB() geom.AABB {
	r := geom.Vec3{s.Radius, s.Radius, s.Radius}
	return geom.AABB{Min: geom.Zero3.Sub(r), Max: geom.Zero3.Add(r)}
}

func (s Sphere) Support(dir geom.Vec3) geom.Vec3 {
	l := dir.Len()
	if l < 1e-12 {
		return geom.Vec3{s.Radius, 0, 0}
	}
	return dir.Mul(s.Radius / l)
}

func (s Sphere) Volume() float64 {
	return (4.0 / 3.0) * 3.14159265358979 * s.Radius * s.Radius * s.Radius
}

func (s Sphere) Inertia(mass float64) geom.Mat3 {
	i := 0.4 * mass * s.Radius * s.Radius
	return geom.Mat3{
		i, 0, 0,
		0, i, 0,
		0, 0, i,
	}
}

// Box is a solid rectangular prism with the given half-extents, centered at
// the origin of its local frame. Grounded on gazed-vu/physics/shape.go's
// Abox (Sx,Sy,Sz half-extents).
type Box struct {
	HalfExtents geom.Vec3
}

func (b Box) LocalAABB() geom.AABB {
	return geom.AABB{Min: geom.Zero3.Sub(b.HalfExtents), Max: geom.Zero3.Add(b.HalfExtents)}
}

func (b Box) Support(dir geom.Vec3) geom.Vec3 {
	sign := func(v float64) float64 {
		if v < 0 {
			return -1
		}
		return 1
	}
	return geom.Vec3{
		sign(dir[0]) * b.HalfExtents[0],
		sign(dir[1]) * b.HalfExtents[1],
		sign(dir[2]) * b.HalfExtents[2],
	}
}

func (b Box) Volume() float64 {
	return 8 * b.HalfExtents[0] * b.HalfExtents[1] * b.HalfExtents[2]
}

func (b Box) Inertia(mass float64) geom.Mat3 {
	x, y, z := 2*b.HalfExtents[0], 2*b.HalfExtents[1], 2*b.HalfExtents[2]
	c := mass / 12.0
	return geom.Mat3{
		c * (y*y + z*z), 0, 0,
		0, c * (x*x + z*z), 0,
		0, 0, c * (x*x + y*y),
	}
}
