// Package urdf loads robot descriptions (URDF XML) into an immutable model:
// links with visual triangle meshes in their own local frame, and joints
// connecting them. Visual origins and mesh scales are baked into the stored
// vertices at load time, so consumers only ever deal with pristine
// local-frame buffers.
package urdf

import "github.com/go-gl/mathgl/mgl64"

// Model is a parsed robot description. Read-only after Load; safe to share
// across any number of consumers.
type Model struct {
	Name   string
	Dir    string // directory the description was loaded from
	Links  []*Link
	Joints []*Joint
}

// Link returns the named link, or nil.
func (m *Model) Link(name string) *Link {
	for _, l := range m.Links {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// Link is a rigid body. Visual is nil for bare frames (virtual links).
type Link struct {
	Name   string
	Visual *Visual
}

// Visual is a link's display geometry in the link's local frame.
type Visual struct {
	Verts    []mgl64.Vec3
	Tris     [][3]int
	Color    [4]float64 // RGBA in 0..1, valid when HasColor
	HasColor bool
	Texture  string // texture image filename, "" when untextured
}

// JointType enumerates the supported joint kinds.
type JointType int

const (
	Revolute JointType = iota
	Continuous
	Prismatic
	Fixed
)

func (t JointType) String() string {
	switch t {
	case Revolute:
		return "revolute"
	case Continuous:
		return "continuous"
	case Prismatic:
		return "prismatic"
	case Fixed:
		return "fixed"
	}
	return "unknown"
}

// Movable reports whether the joint carries a configuration variable.
func (t JointType) Movable() bool { return t != Fixed }

// Joint connects a parent link to a child link. Origin is the fixed
// transform from the parent frame to the joint frame; the joint variable
// moves the child about/along Axis from there.
type Joint struct {
	Name   string
	Type   JointType
	Parent string
	Child  string
	Origin mgl64.Mat4
	Axis   mgl64.Vec3 // unit length
	Limit  *Limit     // nil for fixed and continuous joints
}

// Limit is an advisory joint range. Values outside it are not rejected by
// forward kinematics.
type Limit struct {
	Lower float64
	Upper float64
}
