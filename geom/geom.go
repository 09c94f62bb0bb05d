// Package geom provides the vectors, matrices, and bounding boxes used
// throughout the simulation core. Hot-path types are plain values so they
// live on the stack and inside pool records without per-step allocation.
package geom

import "github.com/go-gl/mathgl/mgl64"

// Vec3 is a 3-element vector in world or local space.
type Vec3 = mgl64.Vec3

// Mat3 is a 3x3 matrix, used for orientation and inverse inertia tensors.
type Mat3 = mgl64.Mat3

// Quat is a unit quaternion used to carry orientation deltas during
// integration before they are folded back into a Mat3.
type Quat = mgl64.Quat

// Zero3 is the zero vector.
var Zero3 = Vec3{}

// Identity3 is the 3x3 identity matrix.
var Identity3 = mgl64.Ident3()

// Skew returns the skew-symmetric cross-product matrix for v, such that
// Skew(v).Mul3x1(w) == v.Cross(w).
func Skew(v Vec3) Mat3 {
	return Mat3{
		0, v[2], -v[1],
		-v[2], 0, v[0],
		v[1], -v[0], 0,
	}
}

// Orthonormalize re-orthogonalizes a rotation matrix that has drifted under
// repeated integration, using Gram-Schmidt on its columns. Called once per
// step per body to keep orientation numerically well-formed.
func Orthonormalize(m Mat3) Mat3 {
	c0 := Vec3{m[0], m[1], m[2]}
	c1 := Vec3{m[3], m[4], m[5]}
	c2 := Vec3{m[6], m[7], m[8]}

	if c0.Len() < 1e-12 {
		return Identity3
	}
	c0 = c0.Normalize()
	c1 = c1.Sub(c0.Mul(c0.Dot(c1)))
	if c1.Len() < 1e-12 {
		return Identity3
	}
	c1 = c1.Normalize()
	c2 = c0.Cross(c1)

	return Mat3{
		c0[0], c0[1], c0[2],
		c1[0], c1[1], c1[2],
		c2[0], c2[1], c2[2],
	}
}

// IntegrateOrientation advances m by angular velocity w over dt using the
// semi-implicit quaternion update, then re-orthonormalizes the result.
func IntegrateOrientation(m Mat3, w Vec3, dt float64) Mat3 {
	q := mgl64.Mat3ToQuat(m)
	wq := mgl64.Quat{W: 0, V: w}
	dq := wq.Mul(q)
	q = mgl64.Quat{
		W: q.W + 0.5*dt*dq.W,
		V: q.V.Add(dq.V.Mul(0.5 * dt)),
	}
	q = q.Normalize()
	return Orthonormalize(q.Mat3())
}

// TangentBasis returns two unit vectors orthogonal to n and to each other,
// used both as the two friction directions at a contact point and as the
// perturbation axes when sampling auxiliary contact directions around a
// normal.
func TangentBasis(n Vec3) (Vec3, Vec3) {
	var t1 Vec3
	if n[0] < 0.9 && n[0] > -0.9 {
		t1 = Vec3{1, 0, 0}.Cross(n)
	} else {
		t1 = Vec3{0, 1, 0}.Cross(n)
	}
	t1 = t1.Normalize()
	return t1, n.Cross(t1)
}

// Finite reports whether every component of v is finite (not NaN/Inf).
// Used by the step loop to detect and clamp numerical anomalies before
// they propagate into the rest of the simulation.
func Finite(v Vec3) bool {
	for _, c := range v {
		if c != c || c > 1e300 || c < -1e300 {
			return false
		}
	}
	return true
}
