// Package robot binds a kinematic tree to a scene sink. A Robot owns the
// per-link scene meshes for any number of drawn instances of the same
// description and keeps them in sync with joint configurations.
//
// Pose updates follow a strict reset-then-transform discipline: every
// update rewrites each link mesh from the pristine local vertices under a
// freshly computed world pose. Transforms are never applied on top of
// already transformed vertices, so numerical error cannot accumulate
// across frames.
package robot

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"robotviz/internal/kinematics"
	"robotviz/internal/logging"
	"robotviz/internal/scene"
	"robotviz/internal/spatial"
	"robotviz/internal/urdf"
)

// ErrInsufficientPoints reports a path request with fewer than two
// configurations.
var ErrInsufficientPoints = errors.New("robot: insufficient path points")

// DefaultInstance is the instance id used by Update.
const DefaultInstance = 0

// Config carries the optional construction parameters. The zero value is
// valid: no color override, opaque, identity base placement, end effector
// defaulting to the last link of the description.
type Config struct {
	// Color overrides every link material with one named or #rrggbb color.
	// Empty keeps the per-link materials from the description.
	Color string
	// Opacity is the default mesh opacity in (0, 1]. Zero means opaque.
	Opacity float64
	// BasePosition and BaseRotation place the robot root in the world;
	// together they form T0. A zero rotation matrix means identity.
	BasePosition mgl64.Vec3
	BaseRotation mgl64.Mat3
	// EndEffectorLink names the link used by the end-effector helpers.
	// Empty selects the last link in description order.
	EndEffectorLink string
}

// Robot draws one robot description into a sink.
type Robot struct {
	tree   *kinematics.Tree
	sink   scene.Sink
	base   mgl64.Mat4
	eeLink string

	color    scene.Color
	hasColor bool
	opacity  float64

	mu        sync.Mutex
	meshes    map[meshKey]*linkMesh
	instances map[int]bool
	scratch   []mgl64.Vec3
}

// meshKey identifies one cached link mesh. Link names are stable keys for
// the robot's lifetime; instance ids separate independent drawings.
type meshKey struct {
	link     string
	instance int
}

// linkMesh pairs the pristine local vertices with the live scene handle.
type linkMesh struct {
	local  []mgl64.Vec3
	handle scene.Handle
}

// New binds tree to sink. No scene geometry is created yet; meshes appear
// on the first AddInstanceMeshes or Update call. The tree is shared
// read-only, so any number of Robots may be built over it.
func New(tree *kinematics.Tree, sink scene.Sink, cfg Config) (*Robot, error) {
	if cfg.Opacity < 0 || cfg.Opacity > 1 {
		return nil, fmt.Errorf("robot: opacity %v outside [0, 1]", cfg.Opacity)
	}
	opacity := cfg.Opacity
	if opacity == 0 {
		opacity = 1
	}

	r := &Robot{
		tree:      tree,
		sink:      sink,
		opacity:   opacity,
		meshes:    make(map[meshKey]*linkMesh),
		instances: make(map[int]bool),
	}

	if cfg.Color != "" {
		col, err := scene.ParseColor(cfg.Color)
		if err != nil {
			return nil, fmt.Errorf("robot: %w", err)
		}
		r.color = col
		r.hasColor = true
	}

	rot := cfg.BaseRotation
	if rot == (mgl64.Mat3{}) {
		rot = mgl64.Ident3()
	}
	r.base = spatial.FromParts(rot, cfg.BasePosition)

	links := tree.Links()
	if len(links) == 0 {
		return nil, fmt.Errorf("robot: tree has no links")
	}
	r.eeLink = links[len(links)-1].Name
	if cfg.EndEffectorLink != "" {
		if tree.Link(cfg.EndEffectorLink) == nil {
			return nil, fmt.Errorf("robot: end effector link %q not in tree", cfg.EndEffectorLink)
		}
		r.eeLink = cfg.EndEffectorLink
	}
	return r, nil
}

// Base returns T0, the world placement of the robot root.
func (r *Robot) Base() mgl64.Mat4 { return r.base }

// EndEffectorLink returns the link name used by the end-effector helpers.
func (r *Robot) EndEffectorLink() string { return r.eeLink }

// AddInstanceMeshes creates the scene meshes for one instance id at the
// neutral joint configuration. A nil style uses the per-link defaults.
//
// Calling this twice for the same id adds a second full set of scene
// meshes; callers create each instance at most once. Update performs this
// step automatically for ids it has not seen.
func (r *Robot) AddInstanceMeshes(id int, style *scene.Material) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addInstanceLocked(id, style)
}

func (r *Robot) addInstanceLocked(id int, style *scene.Material) error {
	fk, err := r.tree.ForwardKinematics(r.tree.Neutral())
	if err != nil {
		return err
	}
	count := 0
	for _, link := range r.tree.Links() {
		if link.Visual == nil {
			continue
		}
		pose := r.base.Mul4(fk[link.Name])
		world := make([]mgl64.Vec3, len(link.Visual.Verts))
		copy(world, link.Visual.Verts)
		spatial.TransformPoints(pose, world)

		h, err := r.sink.AddMesh(world, link.Visual.Tris, r.linkMaterial(link, style))
		if err != nil {
			return fmt.Errorf("robot: add mesh for link %s: %w", link.Name, err)
		}
		r.meshes[meshKey{link: link.Name, instance: id}] = &linkMesh{
			local:  link.Visual.Verts,
			handle: h,
		}
		count++
	}
	r.instances[id] = true
	logging.Logger().Debug("robot instance meshes created", "instance", id, "meshes", count)
	return nil
}

// linkMaterial resolves the material precedence: an explicit style wins,
// then the construction color override, then the link's own material,
// then the neutral default.
func (r *Robot) linkMaterial(link *urdf.Link, style *scene.Material) scene.Material {
	if style != nil {
		return *style
	}
	mat := scene.DefaultMaterial()
	mat.Opacity = r.opacity
	if r.hasColor {
		mat.Color = r.color
		return mat
	}
	v := link.Visual
	if v.HasColor {
		mat.Color = scene.ColorFromFloats(v.Color[0], v.Color[1], v.Color[2])
		mat.Opacity = v.Color[3] * r.opacity
	}
	mat.Texture = v.Texture
	return mat
}

// Update poses the default instance at q, creating its meshes first if
// needed.
func (r *Robot) Update(q []float64) error {
	return r.UpdateInstance(DefaultInstance, q)
}

// UpdateInstance poses one instance at q. Unknown ids are created at the
// neutral configuration first, then posed. Each link mesh is rewritten
// from its pristine local vertices under T0·linkPose; the scene handles
// are mutated in place and never reallocated.
func (r *Robot) UpdateInstance(id int, q []float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.instances[id] {
		if err := r.addInstanceLocked(id, nil); err != nil {
			return err
		}
	}

	fk, err := r.tree.ForwardKinematics(q)
	if err != nil {
		return err
	}
	for _, link := range r.tree.Links() {
		lm := r.meshes[meshKey{link: link.Name, instance: id}]
		if lm == nil {
			continue
		}
		pose := r.base.Mul4(fk[link.Name])
		r.scratch = append(r.scratch[:0], lm.local...)
		spatial.TransformPoints(pose, r.scratch)
		if err := lm.handle.SetVertices(r.scratch); err != nil {
			return fmt.Errorf("robot: update link %s: %w", link.Name, err)
		}
	}
	return nil
}

// Instances reports the instance ids that have scene meshes.
func (r *Robot) Instances() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0, len(r.instances))
	for id := range r.instances {
		ids = append(ids, id)
	}
	return ids
}

// Pose returns T0 · linkPose(q, link). An empty link selects the end
// effector. Pure computation: no caching, no scene effects.
func (r *Robot) Pose(q []float64, link string) (mgl64.Mat4, error) {
	if link == "" {
		link = r.eeLink
	}
	p, err := r.tree.LinkPose(q, link)
	if err != nil {
		return mgl64.Mat4{}, err
	}
	return r.base.Mul4(p), nil
}
