package shape

import (
	"math"
	"testing"

	"github.com/gazed/impulse/geom"
)

func TestSphereSupportLiesOnSurface(t *testing.T) {
	s := Sphere{Radius: 2}
	p := s.Support(geom.Vec3{1, 0, 0})
	if math.Abs(p.Len()-2) > 1e-9 {
		t.Errorf("expected support point at radius 2, got length %v", p.Len())
	}
}

func TestBoxSupportPicksCorrectCorner(t *testing.T) {
	b := Box{HalfExtents: geom.Vec3{1, 2, 3}}
	p := b.Support(geom.Vec3{-1, 1, -1})
	want := geom.Vec3{-1, 2, -3}
	if p != want {
		t.Errorf("expected corner %v, got %v", want, p)
	}
}

func TestBoxVolume(t *testing.T) {
	b := Box{HalfExtents: geom.Vec3{1, 1, 1}}
	if b.Volume() != 8 {
		t.Errorf("expected unit cube volume 8, got %v", b.Volume())
	}
}

func TestSphereInertiaScalesWithMassAndRadius(t *testing.T) {
	s := Sphere{Radius: 1}
	i := s.Inertia(5)
	want := 0.4 * 5
	if math.Abs(i[0]-want) > 1e-9 {
		t.Errorf("expected diagonal inertia %v, got %v", want, i[0])
	}
}
