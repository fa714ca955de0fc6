package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera orbits the scene: azimuth in degrees counterclockwise about the
// world up axis seen from above, elevation in degrees above the horizon.
// The world is Z-up; screen space is Y-up with larger depth values closer
// to the viewer.
type Camera struct {
	AzimuthDeg   float64
	ElevationDeg float64
	Perspective  bool
	FOVDeg       float64 // field of view when Perspective is set
}

// DefaultCamera is a three-quarter inspection view.
func DefaultCamera() Camera {
	return Camera{AzimuthDeg: 45, ElevationDeg: 30, FOVDeg: 40}
}

// ViewMatrix maps world coordinates into camera-aligned coordinates:
// Z-up to Y-up flip first, then azimuth, then elevation.
func (c Camera) ViewMatrix() mgl64.Mat3 {
	azim := mgl64.DegToRad(c.AzimuthDeg)
	elev := mgl64.DegToRad(c.ElevationDeg)
	return mgl64.Rotate3DX(elev).Mul3(mgl64.Rotate3DY(-azim)).Mul3(mgl64.Rotate3DX(-math.Pi / 2))
}

// frame holds the projection parameters for one rendered image: the view
// rotation plus the fit of the world bounds into the pixel square.
type frame struct {
	view    mgl64.Mat3
	center  mgl64.Vec3 // view-space bounds center
	scale   float64
	half    float64
	persp   bool
	camDist float64
	zCenter float64
}

// computeFrame fits the world-space bounds into a renderSize×renderSize
// target, leaving margin pixels on each side.
func computeFrame(cam Camera, lo, hi mgl64.Vec3, renderSize, margin int) frame {
	view := cam.ViewMatrix()

	vlo := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	vhi := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i := 0; i < 8; i++ {
		corner := mgl64.Vec3{
			pick(i&1 == 0, lo.X(), hi.X()),
			pick(i&2 == 0, lo.Y(), hi.Y()),
			pick(i&4 == 0, lo.Z(), hi.Z()),
		}
		t := view.Mul3x1(corner)
		for k := 0; k < 3; k++ {
			vlo[k] = math.Min(vlo[k], t[k])
			vhi[k] = math.Max(vhi[k], t[k])
		}
	}

	f := frame{
		view:   view,
		center: vlo.Add(vhi).Mul(0.5),
		half:   float64(renderSize) / 2,
	}

	span := math.Max(vhi.X()-vlo.X(), vhi.Y()-vlo.Y())
	if span < 0.001 {
		span = 0.001
	}
	f.scale = float64(renderSize-2*margin) / span

	if cam.Perspective {
		fov := cam.FOVDeg
		if fov <= 0 {
			fov = 40
		}
		xyMax := math.Max(vhi.X()-f.center.X(), vhi.Y()-f.center.Y())
		if xyMax < 0.001 {
			xyMax = 0.001
		}
		f.persp = true
		f.zCenter = f.center.Z()
		f.camDist = xyMax / math.Tan(mgl64.DegToRad(fov/2))
	}
	return f
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

// project maps a world point to screen x, y and depth z. Depth grows
// toward the viewer.
func (f *frame) project(v mgl64.Vec3) (x, y, z float64) {
	t := f.view.Mul3x1(v)
	if f.persp {
		depth := math.Max(f.camDist-(t.Z()-f.zCenter), 0.1)
		factor := f.camDist / depth
		t[0] = f.center.X() + (t[0]-f.center.X())*factor
		t[1] = f.center.Y() + (t[1]-f.center.Y())*factor
	}
	x = (t.X()-f.center.X())*f.scale + f.half
	y = -(t.Y()-f.center.Y())*f.scale + f.half
	z = t.Z()
	return x, y, z
}
