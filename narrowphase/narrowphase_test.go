package narrowphase

import (
	"math"
	"testing"

	"github.com/gazed/impulse/geom"
	"github.com/gazed/impulse/shape"
)

func sphereAt(center geom.Vec3, radius float64) WorldShape {
	return WorldShape{Shape: shape.Sphere{Radius: radius}, Position: center, Rotation: geom.Identity3}
}

func TestCollideDetectsSeparatedSpheres(t *testing.T) {
	a := sphereAt(geom.Vec3{0, 0, 0}, 1)
	b := sphereAt(geom.Vec3{5, 0, 0}, 1)

	result := Collide(a, b)
	if result.Overlapping {
		t.Error("expected non-overlapping spheres to report no overlap")
	}
}

func TestCollideDetectsOverlappingSpheres(t *testing.T) {
	a := sphereAt(geom.Vec3{0, 0, 0}, 1)
	b := sphereAt(geom.Vec3{1, 0, 0}, 1)

	result := Collide(a, b)
	if !result.Overlapping {
		t.Fatal("expected overlapping spheres to report overlap")
	}
	if result.Depth <= 0 {
		t.Errorf("expected positive penetration depth, got %v", result.Depth)
	}
}

func TestCollideConcentricSpheresOverlapMaximally(t *testing.T) {
	a := sphereAt(geom.Vec3{0, 0, 0}, 2)
	b := sphereAt(geom.Vec3{0, 0, 0}, 1)

	result := Collide(a, b)
	if !result.Overlapping {
		t.Fatal("expected fully contained sphere to overlap")
	}
}

func boxAt(center geom.Vec3, halfExtents geom.Vec3) WorldShape {
	return WorldShape{Shape: shape.Box{HalfExtents: halfExtents}, Position: center, Rotation: geom.Identity3}
}

func TestCollideFlatBoxContactYieldsMultiplePointsInOneCall(t *testing.T) {
	floor := boxAt(geom.Vec3{0, -1, 0}, geom.Vec3{5, 1, 5})
	crate := boxAt(geom.Vec3{0, 0.9, 0}, geom.Vec3{1, 1, 1})

	result := Collide(floor, crate)
	if !result.Overlapping {
		t.Fatal("expected overlapping boxes to report overlap")
	}
	if len(result.Points) < 2 {
		t.Errorf("expected one-shot augmentation to find more than the primary point for a flat box-box contact, got %d", len(result.Points))
	}
}

// fakeSupport is a Support with a caller-controlled support mapping, used to
// drive auxiliaryContacts with exact, hand-computable geometry rather than
// relying on a real shape's EPA output.
type fakeSupport struct {
	fn func(dir geom.Vec3) geom.Vec3
}

func (f fakeSupport) SupportWorld(dir geom.Vec3) geom.Vec3 { return f.fn(dir) }

func TestAuxiliaryContactsKeepsAllSamplesOnAFlatFace(t *testing.T) {
	a := fakeSupport{fn: func(geom.Vec3) geom.Vec3 { return geom.Vec3{0, -0.25, 0} }}
	b := fakeSupport{fn: func(geom.Vec3) geom.Vec3 { return geom.Vec3{0, 0.25, 0} }}

	points := auxiliaryContacts(a, b, geom.Vec3{0, 1, 0}, 0.5)
	if len(points) != 5 {
		t.Fatalf("expected the primary point plus all 4 auxiliary samples on a flat face, got %d", len(points))
	}
	for _, p := range points {
		if math.Abs(p.Depth-0.5) > 1e-9 {
			t.Errorf("expected every sample on a flat face to report depth 0.5, got %v", p.Depth)
		}
	}
}

func TestAuxiliaryContactsDropsSamplesOffACurvedSurface(t *testing.T) {
	// The support mapping's distance along the normal falls off sharply with
	// the sampled direction's tangential component, mimicking the depth
	// falloff a curved surface (e.g. a sphere) shows away from the primary
	// contact normal.
	a := fakeSupport{fn: func(dir geom.Vec3) geom.Vec3 {
		return geom.Vec3{0, -0.25 + 10*(math.Abs(dir[0])+math.Abs(dir[2])), 0}
	}}
	b := fakeSupport{fn: func(geom.Vec3) geom.Vec3 { return geom.Vec3{0, 0.25, 0} }}

	points := auxiliaryContacts(a, b, geom.Vec3{0, 1, 0}, 0.5)
	if len(points) != 1 {
		t.Fatalf("expected every auxiliary sample off a curved surface to be rejected, got %d points", len(points))
	}
	if math.Abs(points[0].Depth-0.5) > 1e-9 {
		t.Errorf("expected the surviving primary point to report depth 0.5, got %v", points[0].Depth)
	}
}

func TestClipFaceAgainstFaceProducesPointsWithinReferenceFace(t *testing.T) {
	reference := []geom.Vec3{
		{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1},
	}
	incident := []geom.Vec3{
		{-2, -0.1, -2}, {2, -0.1, -2}, {2, -0.1, 2}, {-2, -0.1, 2},
	}
	points := ClipFaceAgainstFace(reference, incident, geom.Vec3{0, 1, 0})
	if len(points) == 0 {
		t.Fatal("expected clipped manifold points")
	}
	for _, p := range points {
		if math.Abs(p.Depth-0.1) > 1e-9 {
			t.Errorf("expected depth 0.1, got %v", p.Depth)
		}
	}
}

func TestAugmentWithDeepestPointOnlyAppliesWhenEmpty(t *testing.T) {
	existing := []ManifoldPoint{{Position: geom.Vec3{1, 1, 1}, Depth: 0.5}}
	got := AugmentWithDeepestPoint(existing, geom.Vec3{0, 0, 0}, 1)
	if len(got) != 1 || got[0].Depth != 0.5 {
		t.Error("expected existing non-empty manifold to be returned unchanged")
	}

	got = AugmentWithDeepestPoint(nil, geom.Vec3{2, 2, 2}, 0.3)
	if len(got) != 1 || got[0].Depth != 0.3 {
		t.Error("expected a single deepest point when manifold was empty")
	}
}
