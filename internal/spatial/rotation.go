package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Rotation is anything that can produce a 3×3 rotation matrix. The two
// concrete forms are Matrix (an explicit 3×3) and AxisAngle (a Rodrigues
// vector). APIs that accept either form take a Rotation.
type Rotation interface {
	RotationMatrix() mgl64.Mat3
}

// Matrix is an explicit 3×3 rotation.
type Matrix mgl64.Mat3

func (m Matrix) RotationMatrix() mgl64.Mat3 { return mgl64.Mat3(m) }

// AxisAngle is a Rodrigues vector: direction is the rotation axis,
// magnitude is the angle in radians.
type AxisAngle mgl64.Vec3

func (v AxisAngle) RotationMatrix() mgl64.Mat3 { return Rodrigues(mgl64.Vec3(v)) }

// Rodrigues converts an axis-angle vector to a rotation matrix via the
// exponential map. The zero vector maps to identity.
func Rodrigues(v mgl64.Vec3) mgl64.Mat3 {
	theta := v.Len()
	if theta < 1e-12 {
		return mgl64.Ident3()
	}
	return mgl64.HomogRotate3D(theta, v.Mul(1/theta)).Mat3()
}

// ApplyRotation rotates every vector in vs, returning a new slice.
func ApplyRotation(vs []mgl64.Vec3, r Rotation) []mgl64.Vec3 {
	m := r.RotationMatrix()
	out := make([]mgl64.Vec3, len(vs))
	for i, v := range vs {
		out[i] = m.Mul3x1(v)
	}
	return out
}

// RPY builds a rotation from fixed-axis roll/pitch/yaw angles in radians,
// the URDF convention: R = Rz(yaw) · Ry(pitch) · Rx(roll).
func RPY(roll, pitch, yaw float64) mgl64.Mat3 {
	return mgl64.Rotate3DZ(yaw).Mul3(mgl64.Rotate3DY(pitch)).Mul3(mgl64.Rotate3DX(roll))
}

// RotationBetween returns the shortest-arc rotation carrying the direction
// of from onto the direction of to. Inputs need not be unit length.
func RotationBetween(from, to mgl64.Vec3) mgl64.Mat3 {
	fl, tl := from.Len(), to.Len()
	if fl < 1e-12 || tl < 1e-12 {
		return mgl64.Ident3()
	}
	f := from.Mul(1 / fl)
	t := to.Mul(1 / tl)

	c := f.Dot(t)
	if c > 1-1e-12 {
		return mgl64.Ident3()
	}
	if c < -1+1e-12 {
		// Antiparallel: rotate half a turn about any axis orthogonal to f.
		axis := f.Cross(mgl64.Vec3{1, 0, 0})
		if axis.Len() < 1e-9 {
			axis = f.Cross(mgl64.Vec3{0, 1, 0})
		}
		return mgl64.HomogRotate3D(math.Pi, axis.Normalize()).Mat3()
	}
	axis := f.Cross(t).Normalize()
	return mgl64.HomogRotate3D(math.Acos(c), axis).Mat3()
}
