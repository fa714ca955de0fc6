package robot

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"robotviz/internal/gizmo"
	"robotviz/internal/scene"
	"robotviz/internal/spatial"
)

const (
	defaultMarkerSize = 0.01
	frameAxisLength   = 0.05
)

var frameColors = [3]string{"red", "green", "blue"}

// Marker configures an end-effector marker. The zero value draws a red
// sphere of size 0.01 at the default end effector with no gripper offset.
type Marker struct {
	Kind  scene.PrimitiveKind
	Size  float64 // sphere diameter, cube edge or cross extent; 0 means 0.01
	Color string  // named or #rrggbb; empty means red
	Link  string  // empty means the configured end effector
	// Offset is the gripper transform applied after the link pose. The
	// zero value means identity.
	Offset mgl64.Mat4
}

// DrawEndEffector draws one marker primitive at the end-effector position
// for q. Every call adds new scene geometry; the mesh cache is not
// involved. The returned handle lets the caller reposition the marker.
func (r *Robot) DrawEndEffector(q []float64, m Marker) (scene.Handle, error) {
	if m.Size < 0 {
		return nil, fmt.Errorf("robot: marker size %v must be positive", m.Size)
	}
	pose, err := r.offsetPose(q, m.Link, m.Offset)
	if err != nil {
		return nil, err
	}
	size := m.Size
	if size == 0 {
		size = defaultMarkerSize
	}
	name := m.Color
	if name == "" {
		name = "red"
	}
	col, err := scene.ParseColor(name)
	if err != nil {
		return nil, fmt.Errorf("robot: %w", err)
	}
	mat := scene.DefaultMaterial()
	mat.Color = col
	return r.sink.AddPrimitive(m.Kind, spatial.Translation(pose), size, mat)
}

// DrawEndEffectorFrame draws three arrows of length 0.05 from the
// end-effector position along the columns of its rotation, colored
// red/green/blue for axes X/Y/Z. New geometry every call.
func (r *Robot) DrawEndEffectorFrame(q []float64, link string, offset mgl64.Mat4) error {
	pose, err := r.offsetPose(q, link, offset)
	if err != nil {
		return err
	}
	pos := spatial.Translation(pose)
	rot := spatial.RotationPart(pose)
	for i := 0; i < 3; i++ {
		col := scene.MustColor(frameColors[i])
		if _, err := gizmo.NewArrow(r.sink, pos, rot.Col(i), frameAxisLength, col); err != nil {
			return fmt.Errorf("robot: frame axis %d: %w", i, err)
		}
	}
	return nil
}

// PathOptions configures DrawEndEffectorPath. The zero value draws a blue
// width-1 polyline through the default end effector positions.
type PathOptions struct {
	Color  string
	Width  float64
	Link   string
	Offset mgl64.Mat4
}

// DrawEndEffectorPath computes the end-effector position for each
// configuration in order and adds one open polyline through them.
// Fewer than two configurations fail with ErrInsufficientPoints.
func (r *Robot) DrawEndEffectorPath(qs [][]float64, opts PathOptions) (scene.Handle, error) {
	if len(qs) < 2 {
		return nil, fmt.Errorf("robot: path needs at least 2 configurations, got %d: %w",
			len(qs), ErrInsufficientPoints)
	}
	pts := make([]mgl64.Vec3, len(qs))
	for i, q := range qs {
		pose, err := r.offsetPose(q, opts.Link, opts.Offset)
		if err != nil {
			return nil, err
		}
		pts[i] = spatial.Translation(pose)
	}

	name := opts.Color
	if name == "" {
		name = "blue"
	}
	col, err := scene.ParseColor(name)
	if err != nil {
		return nil, fmt.Errorf("robot: %w", err)
	}
	mat := scene.DefaultMaterial()
	mat.Color = col
	if opts.Width > 0 {
		mat.LineWidth = opts.Width
	}
	return r.sink.AddPolyline(pts, mat)
}

// offsetPose is Pose with the optional gripper offset applied.
func (r *Robot) offsetPose(q []float64, link string, offset mgl64.Mat4) (mgl64.Mat4, error) {
	pose, err := r.Pose(q, link)
	if err != nil {
		return mgl64.Mat4{}, err
	}
	if offset != (mgl64.Mat4{}) {
		pose = spatial.Compose(pose, offset)
	}
	return pose, nil
}
