package kinematics

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"robotviz/internal/spatial"
	"robotviz/internal/urdf"
)

// planar2R builds a two-revolute planar arm with unit link lengths,
// shoulder raised 0.1 above the base, and a fixed tool mount.
func planar2R() *urdf.Model {
	origin := func(x, y, z float64) mgl64.Mat4 {
		return spatial.FromParts(mgl64.Ident3(), mgl64.Vec3{x, y, z})
	}
	return &urdf.Model{
		Name: "planar2r",
		Links: []*urdf.Link{
			{Name: "base"},
			{Name: "upper_arm"},
			{Name: "forearm"},
			{Name: "tool"},
		},
		Joints: []*urdf.Joint{
			{Name: "shoulder", Type: urdf.Revolute, Parent: "base", Child: "upper_arm",
				Origin: origin(0, 0, 0.1), Axis: mgl64.Vec3{0, 0, 1}},
			{Name: "elbow", Type: urdf.Revolute, Parent: "upper_arm", Child: "forearm",
				Origin: origin(1, 0, 0), Axis: mgl64.Vec3{0, 0, 1}},
			{Name: "tool_mount", Type: urdf.Fixed, Parent: "forearm", Child: "tool",
				Origin: origin(1, 0, 0), Axis: mgl64.Vec3{1, 0, 0}},
		},
	}
}

func TestTreeShape(t *testing.T) {
	tree, err := New(planar2R())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tree.Root() != "base" {
		t.Errorf("root = %q, want base", tree.Root())
	}
	if tree.DOF() != 2 {
		t.Errorf("DOF = %d, want 2", tree.DOF())
	}
	if got := tree.MovableJointNames(); len(got) != 2 || got[0] != "shoulder" || got[1] != "elbow" {
		t.Errorf("movable joints = %v", got)
	}
	if n := tree.Neutral(); len(n) != 2 || n[0] != 0 || n[1] != 0 {
		t.Errorf("neutral = %v, want zeros", n)
	}
}

func TestForwardKinematicsAnalytic(t *testing.T) {
	tree, err := New(planar2R())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cases := [][2]float64{
		{0, 0},
		{math.Pi / 2, 0},
		{math.Pi / 2, -math.Pi / 2},
		{0.3, 0.7},
	}
	for _, q := range cases {
		th1, th2 := q[0], q[1]
		poses, err := tree.ForwardKinematics(q[:])
		if err != nil {
			t.Fatalf("ForwardKinematics(%v): %v", q, err)
		}

		want := mgl64.Vec3{
			math.Cos(th1) + math.Cos(th1+th2),
			math.Sin(th1) + math.Sin(th1+th2),
			0.1,
		}
		got := spatial.Translation(poses["tool"])
		if got.Sub(want).Len() > 1e-12 {
			t.Errorf("q=%v: tool at %v, want %v", q, got, want)
		}

		if root := poses["base"]; !root.ApproxEqualThreshold(mgl64.Ident4(), 1e-15) {
			t.Errorf("root pose = %v, want identity", root)
		}
	}
}

func TestLinkPoseMatchesFullMap(t *testing.T) {
	tree, err := New(planar2R())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	q := []float64{0.4, -1.2}
	poses, err := tree.ForwardKinematics(q)
	if err != nil {
		t.Fatal(err)
	}
	for _, link := range tree.Links() {
		single, err := tree.LinkPose(q, link.Name)
		if err != nil {
			t.Fatalf("LinkPose(%s): %v", link.Name, err)
		}
		if !single.ApproxEqualThreshold(poses[link.Name], 1e-9) {
			t.Errorf("%s: LinkPose %v != ForwardKinematics %v", link.Name, single, poses[link.Name])
		}
	}
}

func TestPrismaticJoint(t *testing.T) {
	m := &urdf.Model{
		Name:  "lift",
		Links: []*urdf.Link{{Name: "base"}, {Name: "carriage"}},
		Joints: []*urdf.Joint{
			{Name: "lift", Type: urdf.Prismatic, Parent: "base", Child: "carriage",
				Origin: mgl64.Ident4(), Axis: mgl64.Vec3{0, 0, 1}},
		},
	}
	tree, err := New(m)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pose, err := tree.LinkPose([]float64{0.35}, "carriage")
	if err != nil {
		t.Fatal(err)
	}
	if got := spatial.Translation(pose); math.Abs(got.Z()-0.35) > 1e-15 {
		t.Errorf("carriage z = %v, want 0.35", got.Z())
	}
}

func TestConfigLengthMismatch(t *testing.T) {
	tree, _ := New(planar2R())
	if _, err := tree.ForwardKinematics([]float64{1}); !errors.Is(err, spatial.ErrShape) {
		t.Errorf("short config error = %v, want ErrShape", err)
	}
	if _, err := tree.LinkPose([]float64{1, 2, 3}, "tool"); !errors.Is(err, spatial.ErrShape) {
		t.Errorf("long config error = %v, want ErrShape", err)
	}
}

func TestUnknownLink(t *testing.T) {
	tree, _ := New(planar2R())
	if _, err := tree.LinkPose([]float64{0, 0}, "flange"); err == nil {
		t.Error("expected error for unknown link")
	}
}

func TestStructuralValidation(t *testing.T) {
	fixed := func(name, parent, child string) *urdf.Joint {
		return &urdf.Joint{Name: name, Type: urdf.Fixed, Parent: parent, Child: child,
			Origin: mgl64.Ident4(), Axis: mgl64.Vec3{1, 0, 0}}
	}

	cases := []struct {
		name string
		m    *urdf.Model
	}{
		{"two roots", &urdf.Model{
			Links:  []*urdf.Link{{Name: "a"}, {Name: "b"}, {Name: "c"}},
			Joints: []*urdf.Joint{fixed("j", "a", "b")},
		}},
		{"multiple parents", &urdf.Model{
			Links:  []*urdf.Link{{Name: "a"}, {Name: "b"}, {Name: "c"}},
			Joints: []*urdf.Joint{fixed("j1", "a", "c"), fixed("j2", "b", "c")},
		}},
		{"joint cycle", &urdf.Model{
			Links:  []*urdf.Link{{Name: "a"}, {Name: "b"}},
			Joints: []*urdf.Joint{fixed("j1", "a", "b"), fixed("j2", "b", "a")},
		}},
		{"detached cycle", &urdf.Model{
			Links:  []*urdf.Link{{Name: "a"}, {Name: "b"}, {Name: "c"}},
			Joints: []*urdf.Joint{fixed("j1", "b", "c"), fixed("j2", "c", "b")},
		}},
	}
	for _, c := range cases {
		if _, err := New(c.m); err == nil {
			t.Errorf("%s: expected validation error", c.name)
		} else if !errors.Is(err, urdf.ErrInvalidDescription) {
			t.Errorf("%s: error %v does not match ErrInvalidDescription", c.name, err)
		}
	}
}
