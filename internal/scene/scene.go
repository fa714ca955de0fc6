// Package scene defines the rendering-surface abstraction the robot
// visualizer draws into, and a software implementation of it.
//
// A Sink accepts geometry and returns live Handles. Handles are mutated in
// place: the visualizer rewrites vertex buffers every frame instead of
// re-adding meshes, so a backend keeps stable scene objects for the whole
// session.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Handle is a live mesh resident in a scene backend.
type Handle interface {
	// SetVertices overwrites the handle's vertex buffer contents in place.
	// The new buffer must match the current vertex count; the handle itself
	// is never reallocated.
	SetVertices(verts []mgl64.Vec3) error

	// ReplaceGeometry swaps in entirely new geometry under the same handle.
	// Vertex and triangle counts may change. Meant for widgets whose shape
	// is rebuilt (arrows); plain pose updates use SetVertices.
	ReplaceGeometry(verts []mgl64.Vec3, tris [][3]int) error

	// VertexCount reports the current vertex buffer length.
	VertexCount() int
}

// PrimitiveKind selects a marker shape for AddPrimitive.
type PrimitiveKind int

const (
	// SpherePrimitive is a ball of diameter size.
	SpherePrimitive PrimitiveKind = iota
	// CubePrimitive is a cube of edge size.
	CubePrimitive
	// CrossPrimitive is three orthogonal line segments of length size.
	CrossPrimitive
)

func (k PrimitiveKind) String() string {
	switch k {
	case SpherePrimitive:
		return "sphere"
	case CubePrimitive:
		return "cube"
	case CrossPrimitive:
		return "cross"
	}
	return "unknown"
}

// Material describes how added geometry is drawn. Fields are explicit;
// use DefaultMaterial as the starting point rather than a zero value.
type Material struct {
	Color     Color
	Opacity   float64 // 0..1
	LineWidth float64 // pixel width for lines and polylines
	Texture   string  // optional texture name, resolved by the backend
}

// DefaultMaterial is the neutral robot-mesh appearance.
func DefaultMaterial() Material {
	return Material{Color: MustColor("lightgray"), Opacity: 1, LineWidth: 1}
}

// Sink is the rendering surface. Implementations must keep every returned
// Handle valid for the sink's lifetime.
type Sink interface {
	AddMesh(verts []mgl64.Vec3, tris [][3]int, mat Material) (Handle, error)
	AddLine(p1, p2 mgl64.Vec3, mat Material) (Handle, error)
	AddPolyline(pts []mgl64.Vec3, mat Material) (Handle, error)
	AddPrimitive(kind PrimitiveKind, center mgl64.Vec3, size float64, mat Material) (Handle, error)
}
