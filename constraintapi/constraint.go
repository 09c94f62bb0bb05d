// Package constraintapi defines the contract a joint/motor implements to
// plug into the sequential-impulse solver, plus one reference
// implementation: a two-body distance constraint. Grounded on
// gazed-vu/physics/pbd.go's positional_Constraint/
// pbd_positional_constraint_init family and pbd_base_constraints.go's
// delta-lambda math, reworked from XPBD position correction (which solves
// a position error directly against a compliance) into the sequential-
// impulse Jacobian/bias/bound row shape the rest of the core uses, so
// joints and contacts share one solver.
package constraintapi

import (
	"github.com/gazed/impulse/geom"
	"github.com/gazed/impulse/solver"
)

// BodyRef is the constraint's view of one participating body: its current
// pose, needed to rebuild the Jacobian each step, plus the BodyState the
// solver mutates.
type BodyRef struct {
	Position geom.Vec3
	Rotation geom.Mat3
	State    *solver.BodyState
}

// Constraint is anything that can contribute rows to the solver each step.
// Implementations are reconstructed or cached per pair; Rows is called once
// per substep, before that substep's solve and position integration.
type Constraint interface {
	// Rows appends this constraint's solver rows to dst and returns the
	// extended slice.
	Rows(a, b BodyRef, dst []*solver.Row) []*solver.Row
}

// Distance is a two-body constraint holding the distance between two
// anchor points (in each body's local frame) at Length, with Compliance 0
// for a rigid rod and >0 for a soft spring-like joint. Grounded on
// pbd_positional_constraint_init's two-body point-distance case.
type Distance struct {
	LocalAnchorA, LocalAnchorB geom.Vec3
	Length                     float64
	Compliance                 float64 // inverse stiffness; 0 means rigid.
	Baumgarte                  float64 // position-error feedback gain, per second: the row's target speed is -Baumgarte*error, independent of step length.
}

// Rows builds a single row whose Jacobian is the unit vector between the
// two world anchors, with a bias pulling the current separation back to
// Length. Grounded on positional_constraint_solve's direction-and-residual
// computation, reworked into a velocity-level bias term.
func (d Distance) Rows(a, b BodyRef, dst []*solver.Row) []*solver.Row {
	armA := a.Rotation.Mul3x1(d.LocalAnchorA)
	armB := b.Rotation.Mul3x1(d.LocalAnchorB)
	worldA := a.Position.Add(armA)
	worldB := b.Position.Add(armB)
	delta := worldB.Sub(worldA)
	dist := delta.Len()
	if dist < 1e-9 {
		return dst
	}
	axis := delta.Mul(1 / dist)
	errorAmount := dist - d.Length

	// compliance softens the position-error feedback rather than the
	// impulse bounds: a rigid rod (Compliance 0) uses Baumgarte directly,
	// a soft joint scales it down so the error is corrected more gradually.
	feedback := d.Baumgarte
	if d.Compliance > 0 {
		feedback = d.Baumgarte / (1 + d.Compliance)
	}

	row := &solver.Row{
		A: a.State, B: b.State,
		LinearA:    axis.Mul(-1),
		LinearB:    axis,
		AngularA:   armA.Cross(axis.Mul(-1)),
		AngularB:   armB.Cross(axis),
		Bias:       -feedback * errorAmount,
		LowerLimit: -1e12, UpperLimit: 1e12,
	}
	return append(dst, row)
}
