// Package spatial provides rigid-transform math for robot poses.
//
// Poses are mgl64.Mat4 homogeneous transforms (column-major, as mathgl
// stores them). Rotations are mgl64.Mat3. All operations are pure.
package spatial

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrShape reports a dimension mismatch between a value and what an
// operation expects (joint configuration length, vertex buffer length).
var ErrShape = errors.New("spatial: dimension mismatch")

// Compose returns a × b, the transform that applies b first, then a.
// Used for T0 · linkPose and fk · toolOffset chains.
func Compose(a, b mgl64.Mat4) mgl64.Mat4 {
	return a.Mul4(b)
}

// FromParts builds a rigid transform from a rotation and a translation.
func FromParts(r mgl64.Mat3, t mgl64.Vec3) mgl64.Mat4 {
	m := r.Mat4()
	m.SetCol(3, t.Vec4(1))
	return m
}

// Translation returns the translation component of a rigid transform.
func Translation(t mgl64.Mat4) mgl64.Vec3 {
	return t.Col(3).Vec3()
}

// RotationPart returns the upper-left 3×3 rotation block of a rigid transform.
func RotationPart(t mgl64.Mat4) mgl64.Mat3 {
	return t.Mat3()
}

// TransformPoint applies a rigid transform to a single point (w=1).
func TransformPoint(t mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return t.Mul4x1(p.Vec4(1)).Vec3()
}

// TransformPoints applies a rigid transform to every point in pts, in place.
// Callers that must preserve the source buffer copy it first; the robot mesh
// update path copies pristine local vertices into a scratch buffer and then
// transforms the scratch.
func TransformPoints(t mgl64.Mat4, pts []mgl64.Vec3) {
	for i := range pts {
		pts[i] = t.Mul4x1(pts[i].Vec4(1)).Vec3()
	}
}
