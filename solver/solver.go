// Package solver implements the sequential-impulse (projected Gauss-Seidel)
// constraint solver: prepare a row per contact point and per constraint,
// warm-start from the previous step's accumulated impulses, then iterate
// every row clamping to its bounds. Grounded directly on
// gazed-vu/physics/solver.go, itself a named, scaled-down port of Bullet's
// btSequentialImpulseConstraintSolver — the same PGS sequential-impulse
// algorithm, reworked here from a fixed box/box pair solve into a
// general per-row data contract any narrowphase or constraint can populate.
package solver

import "github.com/gazed/impulse/geom"

// BodyState is the solver's view of one side of a row: the velocity state
// it reads and writes. Bodies with InvMass == 0 are treated as immovable,
// matching gazed-vu/physics/solver.go's fixedSolverBody.
type BodyState struct {
	LinearVelocity  geom.Vec3
	AngularVelocity geom.Vec3
	InvMass         float64
	InvInertia      geom.Mat3
}

// applyImpulse nudges the body's velocities by impulse magnitude along the
// given linear/angular Jacobian components, scaled by InvMass and
// InvInertia respectively, grounded on solverBody.applyImpulse.
func (b *BodyState) applyImpulse(linear, angular geom.Vec3, magnitude float64) {
	if b.InvMass == 0 {
		return
	}
	b.LinearVelocity = b.LinearVelocity.Add(linear.Mul(magnitude * b.InvMass))
	b.AngularVelocity = b.AngularVelocity.Add(b.InvInertia.Mul3x1(angular).Mul(magnitude))
}

// Row is one scalar constraint equation prepared for iteration: a Jacobian
// split across two bodies, a target relative velocity (bias), bounds on the
// accumulated impulse, and an effective mass precomputed once at setup.
// Grounded on solverConstraint.
type Row struct {
	A, B *BodyState

	LinearA, AngularA geom.Vec3
	LinearB, AngularB geom.Vec3

	Bias           float64 // target closing velocity (restitution + Baumgarte term).
	LowerLimit     float64
	UpperLimit     float64
	AppliedImpulse float64 // warm-started in, accumulated impulse out.

	effectiveMass float64

	// FrictionOf links a friction row to the contact row supplying its
	// clamp bounds (friction magnitude <= friction * normal impulse); the
	// caller sets it when building the friction row.
	FrictionOf *Row
	Friction   float64
}

// Prepare computes a row's effective mass from its Jacobian and the
// participating bodies' inverse mass/inertia, and applies the warm-started
// AppliedImpulse so resting contacts don't need to rebuild their impulse
// from zero every step.
func (r *Row) Prepare() {
	denom := 0.0
	if r.A.InvMass != 0 {
		denom += r.A.InvMass + r.AngularA.Dot(r.A.InvInertia.Mul3x1(r.AngularA))
	}
	if r.B.InvMass != 0 {
		denom += r.B.InvMass + r.AngularB.Dot(r.B.InvInertia.Mul3x1(r.AngularB))
	}
	if denom < 1e-12 {
		r.effectiveMass = 0
		return
	}
	r.effectiveMass = 1.0 / denom

	if r.AppliedImpulse != 0 {
		r.A.applyImpulse(r.LinearA, r.AngularA, r.AppliedImpulse)
		r.B.applyImpulse(r.LinearB, r.AngularB, r.AppliedImpulse)
	}
}

// relativeVelocity returns the Jacobian-projected relative velocity of the
// two bodies along this row.
func (r *Row) relativeVelocity() float64 {
	v := r.A.LinearVelocity.Dot(r.LinearA) + r.A.AngularVelocity.Dot(r.AngularA)
	v += r.B.LinearVelocity.Dot(r.LinearB) + r.B.AngularVelocity.Dot(r.AngularB)
	return v
}

// Resolve performs a single sequential-impulse iteration on the row,
// clamping the accumulated impulse to [LowerLimit, UpperLimit] (which may
// depend on another row's current impulse, for friction). Grounded on
// resolveSingleConstraint.
func (r *Row) Resolve() {
	lower, upper := r.LowerLimit, r.UpperLimit
	if r.FrictionOf != nil {
		bound := r.Friction * r.FrictionOf.AppliedImpulse
		lower, upper = -bound, bound
	}

	deltaVelocity := r.Bias - r.relativeVelocity()
	deltaImpulse := deltaVelocity * r.effectiveMass

	newImpulse := r.AppliedImpulse + deltaImpulse
	if newImpulse < lower {
		newImpulse = lower
	} else if newImpulse > upper {
		newImpulse = upper
	}
	applied := newImpulse - r.AppliedImpulse
	r.AppliedImpulse = newImpulse

	r.A.applyImpulse(r.LinearA, r.AngularA, applied)
	r.B.applyImpulse(r.LinearB, r.AngularB, applied)
}

// Solve runs the standard prepare/warm-start/iterate sequence over rows,
// iterating the full row set `iterations` times. Friction rows (rows with
// FrictionOf set) must appear after the contact row they depend on; a
// single pass still converges them correctly since Resolve reads the
// dependency's current AppliedImpulse, which only strictly improves with
// nonnegative-relaxation guarantees.
func Solve(rows []*Row, iterations int) {
	for _, r := range rows {
		r.Prepare()
	}
	for i := 0; i < iterations; i++ {
		for _, r := range rows {
			r.Resolve()
		}
	}
}
