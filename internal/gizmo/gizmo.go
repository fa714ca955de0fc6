// Package gizmo provides small posable scene widgets: coordinate-frame
// triads and direction arrows.
package gizmo

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"robotviz/internal/scene"
	"robotviz/internal/shape"
	"robotviz/internal/spatial"
)

var axisColors = [3]string{"red", "green", "blue"}

// Axes is a coordinate-frame triad: three colored segments from an origin
// along the rotated X, Y and Z unit directions scaled by a fixed length.
// Updates overwrite the segment endpoints in place; the scene handles
// live for the widget's lifetime.
type Axes struct {
	handles [3]scene.Handle
	origin  mgl64.Vec3
	rot     mgl64.Mat3
	scale   float64
}

// NewAxes adds a triad at origin with the identity orientation.
func NewAxes(sink scene.Sink, origin mgl64.Vec3, scale float64) (*Axes, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("gizmo: axes scale must be positive, got %v", scale)
	}
	a := &Axes{origin: origin, rot: mgl64.Ident3(), scale: scale}
	for i := 0; i < 3; i++ {
		mat := scene.DefaultMaterial()
		mat.Color = scene.MustColor(axisColors[i])
		mat.LineWidth = 2
		h, err := sink.AddLine(origin, origin.Add(axisDir(i).Mul(scale)), mat)
		if err != nil {
			return nil, fmt.Errorf("gizmo: add axis %d: %w", i, err)
		}
		a.handles[i] = h
	}
	return a, nil
}

// Update moves and reorients the triad. A nil position or rotation keeps
// the current value. Endpoints are always recomputed from the unit
// directions rather than transformed incrementally.
func (a *Axes) Update(position *mgl64.Vec3, rotation spatial.Rotation) error {
	if position != nil {
		a.origin = *position
	}
	if rotation != nil {
		a.rot = rotation.RotationMatrix()
	}
	for i := 0; i < 3; i++ {
		tip := a.origin.Add(a.rot.Mul3x1(axisDir(i)).Mul(a.scale))
		if err := a.handles[i].SetVertices([]mgl64.Vec3{a.origin, tip}); err != nil {
			return fmt.Errorf("gizmo: update axis %d: %w", i, err)
		}
	}
	return nil
}

// Origin reports the triad's current origin.
func (a *Axes) Origin() mgl64.Vec3 { return a.origin }

func axisDir(i int) mgl64.Vec3 {
	var d mgl64.Vec3
	d[i] = 1
	return d
}

// Arrow is a single direction arrow. Its shaft and tip are a real mesh,
// so pose changes rebuild the geometry under the same handle instead of
// patching vertices.
type Arrow struct {
	handle scene.Handle
	origin mgl64.Vec3
	dir    mgl64.Vec3
	scale  float64
}

// NewArrow adds an arrow at origin pointing along dir with length
// scale·|dir|.
func NewArrow(sink scene.Sink, origin, dir mgl64.Vec3, scale float64, col scene.Color) (*Arrow, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("gizmo: arrow scale must be positive, got %v", scale)
	}
	ar := &Arrow{origin: origin, dir: dir, scale: scale}
	verts, tris := ar.geometry()
	mat := scene.DefaultMaterial()
	mat.Color = col
	h, err := sink.AddMesh(verts, tris, mat)
	if err != nil {
		return nil, fmt.Errorf("gizmo: add arrow: %w", err)
	}
	ar.handle = h
	return ar, nil
}

// Update repoints the arrow. A nil origin or direction keeps the current
// value. The geometry is rebuilt from scratch.
func (ar *Arrow) Update(origin, dir *mgl64.Vec3) error {
	if origin != nil {
		ar.origin = *origin
	}
	if dir != nil {
		ar.dir = *dir
	}
	verts, tris := ar.geometry()
	if err := ar.handle.ReplaceGeometry(verts, tris); err != nil {
		return fmt.Errorf("gizmo: update arrow: %w", err)
	}
	return nil
}

func (ar *Arrow) geometry() ([]mgl64.Vec3, [][3]int) {
	length := ar.scale * ar.dir.Len()
	if length < 1e-12 {
		length = 1e-12
	}
	verts, tris := shape.Arrow(length, length*0.05, length*0.12, 0.25, 12)
	rot := spatial.RotationBetween(mgl64.Vec3{0, 0, 1}, ar.dir)
	spatial.TransformPoints(spatial.FromParts(rot, ar.origin), verts)
	return verts, tris
}
