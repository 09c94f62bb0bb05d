package constraintapi

import (
	"testing"

	"github.com/gazed/impulse/geom"
	"github.com/gazed/impulse/solver"
)

func TestDistanceRowsEmptyWhenAnchorsCoincide(t *testing.T) {
	d := Distance{Length: 1}
	a := BodyRef{Position: geom.Vec3{0, 0, 0}, State: &solver.BodyState{InvMass: 1, InvInertia: geom.Identity3}}
	b := BodyRef{Position: geom.Vec3{0, 0, 0}, State: &solver.BodyState{InvMass: 1, InvInertia: geom.Identity3}}

	rows := d.Rows(a, b, nil)
	if len(rows) != 0 {
		t.Errorf("expected no row for coincident anchors, got %d", len(rows))
	}
}

func TestDistanceRowBiasPullsTowardRestLength(t *testing.T) {
	d := Distance{Length: 1, Baumgarte: 0.2}
	a := BodyRef{Position: geom.Vec3{0, 0, 0}, State: &solver.BodyState{InvMass: 1, InvInertia: geom.Identity3}}
	b := BodyRef{Position: geom.Vec3{3, 0, 0}, State: &solver.BodyState{InvMass: 1, InvInertia: geom.Identity3}}

	rows := d.Rows(a, b, nil)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Bias >= 0 {
		t.Errorf("expected a negative bias pulling bodies together when stretched, got %v", rows[0].Bias)
	}
}

func TestDistanceRowJacobianPointsAlongSeparationAxis(t *testing.T) {
	d := Distance{Length: 1}
	a := BodyRef{Position: geom.Vec3{0, 0, 0}, State: &solver.BodyState{InvMass: 1, InvInertia: geom.Identity3}}
	b := BodyRef{Position: geom.Vec3{2, 0, 0}, State: &solver.BodyState{InvMass: 1, InvInertia: geom.Identity3}}

	rows := d.Rows(a, b, nil)
	want := geom.Vec3{1, 0, 0}
	if rows[0].LinearB != want {
		t.Errorf("expected LinearB %v, got %v", want, rows[0].LinearB)
	}
}

// TestDistanceRowRotatesLocalAnchorsIntoWorldSpace covers a rotated body
// with an off-center anchor, where adding the local anchor to Position
// directly (instead of rotating it by Rotation first) would place the
// world anchor on the wrong side of the body entirely.
func TestDistanceRowRotatesLocalAnchorsIntoWorldSpace(t *testing.T) {
	// A quarter turn about Z maps local +X to world +Y.
	quarterTurnZ := geom.Mat3{0, 1, 0, -1, 0, 0, 0, 0, 1}
	d := Distance{LocalAnchorA: geom.Vec3{1, 0, 0}, Length: 1}
	a := BodyRef{
		Position: geom.Vec3{0, 0, 0}, Rotation: quarterTurnZ,
		State: &solver.BodyState{InvMass: 1, InvInertia: geom.Identity3},
	}
	b := BodyRef{
		Position: geom.Vec3{0, 3, 0}, Rotation: geom.Identity3,
		State: &solver.BodyState{InvMass: 1, InvInertia: geom.Identity3},
	}

	rows := d.Rows(a, b, nil)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	// world anchor A is (0,0,0) rotated-(1,0,0) -> (0,1,0), so the
	// remaining separation to b at (0,3,0) is 2 along +Y, not 3.
	want := geom.Vec3{0, 1, 0}
	if rows[0].LinearB != want {
		t.Errorf("expected LinearB %v once the local anchor is rotated into world space, got %v", want, rows[0].LinearB)
	}
}
