// Package kinematics builds a validated kinematic tree from a robot
// description and computes forward kinematics over it.
//
// A Tree is read-only after New and safe to share across goroutines; every
// robot instance rendering the same description holds the same *Tree.
package kinematics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"robotviz/internal/spatial"
	"robotviz/internal/urdf"
)

// Tree is a validated joint-link tree: connected, acyclic, single root.
type Tree struct {
	model   *urdf.Model
	root    string
	order   []*urdf.Joint          // topological, parents before children
	byChild map[string]*urdf.Joint // child link name → its joint
	movable []*urdf.Joint          // document order
	qIndex  map[string]int         // movable joint name → configuration index
}

// New validates the model's joint graph and returns the tree.
// Structural defects match urdf.ErrInvalidDescription.
func New(m *urdf.Model) (*Tree, error) {
	t := &Tree{
		model:   m,
		byChild: make(map[string]*urdf.Joint, len(m.Joints)),
		qIndex:  make(map[string]int),
	}

	for _, j := range m.Joints {
		if prev, ok := t.byChild[j.Child]; ok {
			return nil, fmt.Errorf("%w: link %q is child of joints %q and %q",
				urdf.ErrInvalidDescription, j.Child, prev.Name, j.Name)
		}
		t.byChild[j.Child] = j
		if j.Type.Movable() {
			t.qIndex[j.Name] = len(t.movable)
			t.movable = append(t.movable, j)
		}
	}

	// The root is the one link that is never a joint's child.
	for _, l := range m.Links {
		if _, isChild := t.byChild[l.Name]; !isChild {
			if t.root != "" {
				return nil, fmt.Errorf("%w: multiple root links (%q, %q)",
					urdf.ErrInvalidDescription, t.root, l.Name)
			}
			t.root = l.Name
		}
	}
	if t.root == "" {
		return nil, fmt.Errorf("%w: no root link (joint cycle)", urdf.ErrInvalidDescription)
	}

	// Breadth-first from the root yields the topological joint order and
	// proves every link reachable.
	children := make(map[string][]*urdf.Joint, len(m.Joints))
	for _, j := range m.Joints {
		children[j.Parent] = append(children[j.Parent], j)
	}
	visited := map[string]bool{t.root: true}
	queue := []string{t.root}
	for len(queue) > 0 {
		link := queue[0]
		queue = queue[1:]
		for _, j := range children[link] {
			if visited[j.Child] {
				return nil, fmt.Errorf("%w: cycle through link %q", urdf.ErrInvalidDescription, j.Child)
			}
			visited[j.Child] = true
			t.order = append(t.order, j)
			queue = append(queue, j.Child)
		}
	}
	for _, l := range m.Links {
		if !visited[l.Name] {
			return nil, fmt.Errorf("%w: link %q unreachable from root %q",
				urdf.ErrInvalidDescription, l.Name, t.root)
		}
	}

	return t, nil
}

// Root returns the root link name.
func (t *Tree) Root() string { return t.root }

// Links returns the model's links in document order.
func (t *Tree) Links() []*urdf.Link { return t.model.Links }

// Link returns the named link, or nil.
func (t *Tree) Link(name string) *urdf.Link { return t.model.Link(name) }

// DOF returns the number of movable joints.
func (t *Tree) DOF() int { return len(t.movable) }

// Neutral returns the zero joint configuration.
func (t *Tree) Neutral() []float64 { return make([]float64, len(t.movable)) }

// MovableJointNames returns movable joint names in configuration order.
func (t *Tree) MovableJointNames() []string {
	names := make([]string, len(t.movable))
	for i, j := range t.movable {
		names[i] = j.Name
	}
	return names
}

func (t *Tree) checkConfig(q []float64) error {
	if len(q) != len(t.movable) {
		return fmt.Errorf("kinematics: joint configuration length %d, want %d: %w",
			len(q), len(t.movable), spatial.ErrShape)
	}
	return nil
}

// jointTransform is the parent→child transform for one joint at the given
// configuration: fixed origin composed with the joint's own motion.
func (t *Tree) jointTransform(j *urdf.Joint, q []float64) mgl64.Mat4 {
	switch j.Type {
	case urdf.Revolute, urdf.Continuous:
		return j.Origin.Mul4(mgl64.HomogRotate3D(q[t.qIndex[j.Name]], j.Axis))
	case urdf.Prismatic:
		d := j.Axis.Mul(q[t.qIndex[j.Name]])
		return j.Origin.Mul4(mgl64.Translate3D(d.X(), d.Y(), d.Z()))
	}
	return j.Origin
}

// ForwardKinematics returns each link's pose in the root frame for the
// given joint configuration. The root pose is identity. Limit values are
// advisory; out-of-range configurations pass through unmodified.
func (t *Tree) ForwardKinematics(q []float64) (map[string]mgl64.Mat4, error) {
	if err := t.checkConfig(q); err != nil {
		return nil, err
	}
	poses := make(map[string]mgl64.Mat4, len(t.model.Links))
	poses[t.root] = mgl64.Ident4()
	for _, j := range t.order {
		poses[j.Child] = poses[j.Parent].Mul4(t.jointTransform(j, q))
	}
	return poses, nil
}

// LinkPose returns one link's pose in the root frame, walking only that
// link's parent chain.
func (t *Tree) LinkPose(q []float64, link string) (mgl64.Mat4, error) {
	if err := t.checkConfig(q); err != nil {
		return mgl64.Mat4{}, err
	}
	if t.model.Link(link) == nil {
		return mgl64.Mat4{}, fmt.Errorf("kinematics: unknown link %q", link)
	}

	var chain []*urdf.Joint
	for name := link; name != t.root; {
		j := t.byChild[name]
		chain = append(chain, j)
		name = j.Parent
	}

	pose := mgl64.Ident4()
	for i := len(chain) - 1; i >= 0; i-- {
		pose = pose.Mul4(t.jointTransform(chain[i], q))
	}
	return pose, nil
}
