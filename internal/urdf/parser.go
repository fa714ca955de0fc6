package urdf

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"robotviz/internal/logging"
	"robotviz/internal/shape"
	"robotviz/internal/spatial"
	"robotviz/internal/stl"
)

// ErrInvalidDescription marks a malformed or unreadable robot description.
// Every error returned by Load matches it with errors.Is.
var ErrInvalidDescription = errors.New("urdf: invalid description")

// Tessellation used for primitive geometry elements.
const (
	sphereRings  = 16
	sphereSegs   = 24
	cylinderSegs = 24
)

// xmlRobot mirrors the URDF schema.
type xmlRobot struct {
	Name      string        `xml:"name,attr"`
	Materials []xmlMaterial `xml:"material"`
	Links     []xmlLink     `xml:"link"`
	Joints    []xmlJoint    `xml:"joint"`
}

type xmlLink struct {
	Name    string      `xml:"name,attr"`
	Visuals []xmlVisual `xml:"visual"`
}

type xmlVisual struct {
	Origin   *xmlOrigin   `xml:"origin"`
	Geometry xmlGeometry  `xml:"geometry"`
	Material *xmlMaterial `xml:"material"`
}

type xmlOrigin struct {
	XYZ string `xml:"xyz,attr"`
	RPY string `xml:"rpy,attr"`
}

type xmlGeometry struct {
	Mesh     *xmlMesh     `xml:"mesh"`
	Box      *xmlBox      `xml:"box"`
	Cylinder *xmlCylinder `xml:"cylinder"`
	Sphere   *xmlSphere   `xml:"sphere"`
}

type xmlMesh struct {
	Filename string `xml:"filename,attr"`
	Scale    string `xml:"scale,attr"`
}

type xmlBox struct {
	Size string `xml:"size,attr"`
}

type xmlCylinder struct {
	Radius float64 `xml:"radius,attr"`
	Length float64 `xml:"length,attr"`
}

type xmlSphere struct {
	Radius float64 `xml:"radius,attr"`
}

type xmlMaterial struct {
	Name    string      `xml:"name,attr"`
	Color   *xmlColor   `xml:"color"`
	Texture *xmlTexture `xml:"texture"`
}

type xmlColor struct {
	RGBA string `xml:"rgba,attr"`
}

type xmlTexture struct {
	Filename string `xml:"filename,attr"`
}

type xmlJoint struct {
	Name   string     `xml:"name,attr"`
	Type   string     `xml:"type,attr"`
	Origin *xmlOrigin `xml:"origin"`
	Parent xmlLinkRef `xml:"parent"`
	Child  xmlLinkRef `xml:"child"`
	Axis   *xmlAxis   `xml:"axis"`
	Limit  *xmlLimit  `xml:"limit"`
}

type xmlLinkRef struct {
	Link string `xml:"link,attr"`
}

type xmlAxis struct {
	XYZ string `xml:"xyz,attr"`
}

type xmlLimit struct {
	Lower float64 `xml:"lower,attr"`
	Upper float64 `xml:"upper,attr"`
}

// Load reads a URDF file and returns the parsed model.
func Load(path string) (*Model, error) {
	m, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDescription, err)
	}
	logging.Logger().Info("robot description loaded",
		"robot", m.Name, "links", len(m.Links), "joints", len(m.Joints))
	return m, nil
}

func load(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("urdf: read %s: %w", path, err)
	}

	var doc xmlRobot
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("urdf: parse %s: %w", path, err)
	}
	if len(doc.Links) == 0 {
		return nil, fmt.Errorf("urdf: %s has no links", path)
	}

	dir := filepath.Dir(path)

	// Robot-level named materials, referenced from links by name.
	materials := make(map[string]xmlMaterial, len(doc.Materials))
	for _, mat := range doc.Materials {
		if mat.Name != "" {
			materials[mat.Name] = mat
		}
	}

	m := &Model{Name: doc.Name, Dir: dir}

	seenLinks := make(map[string]bool, len(doc.Links))
	for _, xl := range doc.Links {
		if xl.Name == "" {
			return nil, fmt.Errorf("urdf: link without name")
		}
		if seenLinks[xl.Name] {
			return nil, fmt.Errorf("urdf: duplicate link %q", xl.Name)
		}
		seenLinks[xl.Name] = true

		vis, err := buildVisual(xl, materials, dir)
		if err != nil {
			return nil, err
		}
		m.Links = append(m.Links, &Link{Name: xl.Name, Visual: vis})
	}

	seenJoints := make(map[string]bool, len(doc.Joints))
	for _, xj := range doc.Joints {
		j, err := buildJoint(xj, seenLinks)
		if err != nil {
			return nil, err
		}
		if seenJoints[j.Name] {
			return nil, fmt.Errorf("urdf: duplicate joint %q", j.Name)
		}
		seenJoints[j.Name] = true
		m.Joints = append(m.Joints, j)
	}

	return m, nil
}

// buildVisual merges all of a link's visual elements into one local-frame
// buffer, with each visual's origin and scale applied.
func buildVisual(xl xmlLink, materials map[string]xmlMaterial, dir string) (*Visual, error) {
	if len(xl.Visuals) == 0 {
		return nil, nil
	}

	vis := &Visual{}
	for vi, xv := range xl.Visuals {
		verts, tris, err := buildGeometry(xv, dir)
		if err != nil {
			return nil, fmt.Errorf("urdf: link %q visual %d: %w", xl.Name, vi, err)
		}

		origin, err := parseOrigin(xv.Origin)
		if err != nil {
			return nil, fmt.Errorf("urdf: link %q visual %d origin: %w", xl.Name, vi, err)
		}
		spatial.TransformPoints(origin, verts)

		base := len(vis.Verts)
		vis.Verts = append(vis.Verts, verts...)
		for _, tri := range tris {
			vis.Tris = append(vis.Tris, [3]int{tri[0] + base, tri[1] + base, tri[2] + base})
		}

		if vis.HasColor && vis.Texture != "" {
			continue
		}
		mat := resolveMaterial(xv.Material, materials)
		if mat == nil {
			continue
		}
		if !vis.HasColor && mat.Color != nil {
			rgba, err := parseFloats(mat.Color.RGBA, 4)
			if err != nil {
				return nil, fmt.Errorf("urdf: link %q material color: %w", xl.Name, err)
			}
			vis.Color = [4]float64{rgba[0], rgba[1], rgba[2], rgba[3]}
			vis.HasColor = true
		}
		if vis.Texture == "" && mat.Texture != nil {
			vis.Texture = mat.Texture.Filename
		}
	}
	return vis, nil
}

func buildGeometry(xv xmlVisual, dir string) ([]mgl64.Vec3, [][3]int, error) {
	g := xv.Geometry
	switch {
	case g.Mesh != nil:
		meshPath := resolveMeshPath(g.Mesh.Filename, dir)
		mesh, err := stl.ReadFile(meshPath)
		if err != nil {
			return nil, nil, err
		}
		verts := make([]mgl64.Vec3, len(mesh.Verts))
		copy(verts, mesh.Verts)
		if g.Mesh.Scale != "" {
			scale, err := parseScale(g.Mesh.Scale)
			if err != nil {
				return nil, nil, fmt.Errorf("mesh scale: %w", err)
			}
			for i := range verts {
				verts[i] = mgl64.Vec3{verts[i].X() * scale[0], verts[i].Y() * scale[1], verts[i].Z() * scale[2]}
			}
		}
		return verts, mesh.Tris, nil

	case g.Box != nil:
		size, err := parseFloats(g.Box.Size, 3)
		if err != nil {
			return nil, nil, fmt.Errorf("box size: %w", err)
		}
		verts, tris := shape.Box(size[0], size[1], size[2])
		return verts, tris, nil

	case g.Cylinder != nil:
		if g.Cylinder.Radius <= 0 || g.Cylinder.Length <= 0 {
			return nil, nil, fmt.Errorf("cylinder radius %v length %v", g.Cylinder.Radius, g.Cylinder.Length)
		}
		verts, tris := shape.Cylinder(g.Cylinder.Radius, g.Cylinder.Length, cylinderSegs)
		return verts, tris, nil

	case g.Sphere != nil:
		if g.Sphere.Radius <= 0 {
			return nil, nil, fmt.Errorf("sphere radius %v", g.Sphere.Radius)
		}
		verts, tris := shape.Sphere(g.Sphere.Radius, sphereRings, sphereSegs)
		return verts, tris, nil
	}
	return nil, nil, fmt.Errorf("visual has no geometry")
}

// resolveMeshPath maps a URDF mesh URI to a filesystem path. package://
// URIs are resolved against the description's own directory after dropping
// the package name, the usual layout for self-contained robot folders.
func resolveMeshPath(uri, dir string) string {
	switch {
	case strings.HasPrefix(uri, "package://"):
		rest := strings.TrimPrefix(uri, "package://")
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			rest = rest[i+1:]
		}
		return filepath.Join(dir, filepath.FromSlash(rest))
	case strings.HasPrefix(uri, "file://"):
		return filepath.FromSlash(strings.TrimPrefix(uri, "file://"))
	case filepath.IsAbs(uri):
		return uri
	}
	return filepath.Join(dir, filepath.FromSlash(uri))
}

func resolveMaterial(inline *xmlMaterial, materials map[string]xmlMaterial) *xmlMaterial {
	if inline == nil {
		return nil
	}
	if inline.Color != nil || inline.Texture != nil {
		return inline
	}
	if named, ok := materials[inline.Name]; ok {
		return &named
	}
	return nil
}

func buildJoint(xj xmlJoint, links map[string]bool) (*Joint, error) {
	if xj.Name == "" {
		return nil, fmt.Errorf("urdf: joint without name")
	}

	var jt JointType
	switch xj.Type {
	case "revolute":
		jt = Revolute
	case "continuous":
		jt = Continuous
	case "prismatic":
		jt = Prismatic
	case "fixed":
		jt = Fixed
	default:
		return nil, fmt.Errorf("urdf: joint %q: unsupported type %q", xj.Name, xj.Type)
	}

	if !links[xj.Parent.Link] {
		return nil, fmt.Errorf("urdf: joint %q: unknown parent link %q", xj.Name, xj.Parent.Link)
	}
	if !links[xj.Child.Link] {
		return nil, fmt.Errorf("urdf: joint %q: unknown child link %q", xj.Name, xj.Child.Link)
	}

	origin, err := parseOrigin(xj.Origin)
	if err != nil {
		return nil, fmt.Errorf("urdf: joint %q origin: %w", xj.Name, err)
	}

	axis := mgl64.Vec3{1, 0, 0}
	if xj.Axis != nil {
		a, err := parseFloats(xj.Axis.XYZ, 3)
		if err != nil {
			return nil, fmt.Errorf("urdf: joint %q axis: %w", xj.Name, err)
		}
		axis = mgl64.Vec3{a[0], a[1], a[2]}
		if axis.Len() < 1e-12 {
			return nil, fmt.Errorf("urdf: joint %q: zero axis", xj.Name)
		}
		axis = axis.Normalize()
	}

	j := &Joint{
		Name:   xj.Name,
		Type:   jt,
		Parent: xj.Parent.Link,
		Child:  xj.Child.Link,
		Origin: origin,
		Axis:   axis,
	}
	if xj.Limit != nil && (jt == Revolute || jt == Prismatic) {
		j.Limit = &Limit{Lower: xj.Limit.Lower, Upper: xj.Limit.Upper}
	}
	return j, nil
}

func parseOrigin(o *xmlOrigin) (mgl64.Mat4, error) {
	if o == nil {
		return mgl64.Ident4(), nil
	}
	xyz := [3]float64{}
	if o.XYZ != "" {
		v, err := parseFloats(o.XYZ, 3)
		if err != nil {
			return mgl64.Mat4{}, fmt.Errorf("xyz: %w", err)
		}
		copy(xyz[:], v)
	}
	rot := mgl64.Ident3()
	if o.RPY != "" {
		v, err := parseFloats(o.RPY, 3)
		if err != nil {
			return mgl64.Mat4{}, fmt.Errorf("rpy: %w", err)
		}
		rot = spatial.RPY(v[0], v[1], v[2])
	}
	return spatial.FromParts(rot, mgl64.Vec3{xyz[0], xyz[1], xyz[2]}), nil
}

// parseScale accepts the 3-value URDF mesh scale, tolerating a single
// uniform value.
func parseScale(s string) ([3]float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 1 {
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return [3]float64{}, err
		}
		return [3]float64{v, v, v}, nil
	}
	v, err := parseFloats(s, 3)
	if err != nil {
		return [3]float64{}, err
	}
	return [3]float64{v[0], v[1], v[2]}, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, fmt.Errorf("want %d values, got %q", n, s)
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", f, err)
		}
		out[i] = v
	}
	return out, nil
}
