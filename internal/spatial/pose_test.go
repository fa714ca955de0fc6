package spatial

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestFromPartsRoundTrip(t *testing.T) {
	r := RPY(0.2, -0.5, 1.3)
	tr := mgl64.Vec3{1, -2, 3}
	m := FromParts(r, tr)

	if got := Translation(m); !vecNear(got, tr, 1e-15) {
		t.Errorf("Translation = %v, want %v", got, tr)
	}
	if got := RotationPart(m); !got.ApproxEqualThreshold(r, 1e-15) {
		t.Errorf("RotationPart = %v, want %v", got, r)
	}
}

func TestComposeOrder(t *testing.T) {
	// Rotate 90° about Z, then translate along x: the rotated point lands
	// at the translation plus the rotated offset.
	rot := FromParts(Rodrigues(mgl64.Vec3{0, 0, math.Pi / 2}), mgl64.Vec3{})
	trans := FromParts(mgl64.Ident3(), mgl64.Vec3{5, 0, 0})

	got := TransformPoint(Compose(trans, rot), mgl64.Vec3{1, 0, 0})
	want := mgl64.Vec3{5, 1, 0}
	if !vecNear(got, want, 1e-9) {
		t.Errorf("trans·rot applied to (1,0,0) = %v, want %v", got, want)
	}

	// Opposite composition differs: translate first, then rotate.
	got = TransformPoint(Compose(rot, trans), mgl64.Vec3{1, 0, 0})
	want = mgl64.Vec3{0, 6, 0}
	if !vecNear(got, want, 1e-9) {
		t.Errorf("rot·trans applied to (1,0,0) = %v, want %v", got, want)
	}
}

func TestTransformPointsInPlace(t *testing.T) {
	m := FromParts(mgl64.Ident3(), mgl64.Vec3{1, 2, 3})
	pts := []mgl64.Vec3{{0, 0, 0}, {1, 1, 1}}
	TransformPoints(m, pts)

	want := []mgl64.Vec3{{1, 2, 3}, {2, 3, 4}}
	for i := range pts {
		if !vecNear(pts[i], want[i], 1e-15) {
			t.Errorf("point %d = %v, want %v", i, pts[i], want[i])
		}
	}
}
