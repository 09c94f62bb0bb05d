package solver

import (
	"math"
	"testing"

	"github.com/gazed/impulse/geom"
)

func TestSolveStopsBodiesFromInterpenetrating(t *testing.T) {
	a := &BodyState{InvMass: 1, InvInertia: geom.Identity3, LinearVelocity: geom.Vec3{0, -5, 0}}
	b := &BodyState{InvMass: 0} // static floor.

	row := &Row{
		A: a, B: b,
		LinearA: geom.Vec3{0, 1, 0},
		LinearB: geom.Vec3{0, -1, 0},
		Bias:    0,
		LowerLimit: 0, UpperLimit: math.MaxFloat64,
	}

	Solve([]*Row{row}, 10)

	if a.LinearVelocity[1] < -1e-6 {
		t.Errorf("expected body's downward velocity to be removed, got %v", a.LinearVelocity[1])
	}
}

func TestFrictionRowClampsToNormalImpulse(t *testing.T) {
	a := &BodyState{InvMass: 1, InvInertia: geom.Identity3, LinearVelocity: geom.Vec3{0, -5, 2}}
	b := &BodyState{InvMass: 0}

	normalRow := &Row{
		A: a, B: b,
		LinearA: geom.Vec3{0, 1, 0}, LinearB: geom.Vec3{0, -1, 0},
		LowerLimit: 0, UpperLimit: math.MaxFloat64,
	}
	frictionRow := &Row{
		A: a, B: b,
		LinearA: geom.Vec3{0, 0, 1}, LinearB: geom.Vec3{0, 0, -1},
		FrictionOf: normalRow,
		Friction:   0.5,
	}

	Solve([]*Row{normalRow, frictionRow}, 10)

	bound := 0.5 * normalRow.AppliedImpulse
	if frictionRow.AppliedImpulse > bound+1e-6 || frictionRow.AppliedImpulse < -bound-1e-6 {
		t.Errorf("expected friction impulse within +/- %v, got %v", bound, frictionRow.AppliedImpulse)
	}
}

func TestPrepareAppliesWarmStartedImpulse(t *testing.T) {
	a := &BodyState{InvMass: 1, InvInertia: geom.Identity3}
	b := &BodyState{InvMass: 0}

	row := &Row{
		A: a, B: b,
		LinearA: geom.Vec3{0, 1, 0}, LinearB: geom.Vec3{0, -1, 0},
		AppliedImpulse: 3,
		UpperLimit:     math.MaxFloat64,
	}
	row.Prepare()

	if a.LinearVelocity[1] <= 0 {
		t.Errorf("expected warm-started impulse to have already nudged velocity, got %v", a.LinearVelocity[1])
	}
}

func TestStaticBodyNeverMoves(t *testing.T) {
	a := &BodyState{InvMass: 1, InvInertia: geom.Identity3, LinearVelocity: geom.Vec3{0, -5, 0}}
	b := &BodyState{InvMass: 0, LinearVelocity: geom.Vec3{0, 0, 0}}

	row := &Row{
		A: a, B: b,
		LinearA: geom.Vec3{0, 1, 0}, LinearB: geom.Vec3{0, -1, 0},
		UpperLimit: math.MaxFloat64,
	}
	Solve([]*Row{row}, 5)

	if b.LinearVelocity != (geom.Vec3{0, 0, 0}) {
		t.Errorf("expected static body to remain at rest, got %v", b.LinearVelocity)
	}
}
