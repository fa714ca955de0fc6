package scene

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"robotviz/internal/postprocess"
	"robotviz/internal/raster"
	"robotviz/internal/shape"
	"robotviz/internal/spatial"
	"robotviz/internal/texture"
)

// SoftConfig configures the software rasterizer sink.
type SoftConfig struct {
	// Size is the output image edge in pixels. Defaults to 512.
	Size int
	// Supersample renders at Size*Supersample and box-downsamples.
	// Defaults to 2.
	Supersample int
	// Camera frames the scene. The zero value means DefaultCamera.
	Camera Camera
	// Textures resolves material texture references. May be nil.
	Textures texture.Resolver
	// Floor draws a checkerboard ground plane at z=0 under the content.
	Floor bool
	// Background fills the frame before drawing. Zero value is transparent.
	Background color.NRGBA
	// Light overrides the shading model. Nil means DefaultLightConfig.
	Light *raster.LightConfig
}

// SoftSink is a software-rasterized Sink. Geometry accumulates for the
// sink's lifetime; handles mutate their vertices in place and Render can
// be called any number of times.
type SoftSink struct {
	size        int
	supersample int
	camera      Camera
	textures    texture.Resolver
	floor       bool
	floorTex    *image.NRGBA
	background  color.NRGBA
	light       raster.LightConfig

	mu       sync.RWMutex
	meshes   []*softMesh
	fixedLo  mgl64.Vec3
	fixedHi  mgl64.Vec3
	hasFixed bool
}

type meshKind int

const (
	kindTriangles meshKind = iota
	kindLineStrip
	kindLineSegments
)

// softMesh is one scene object and its own Handle.
type softMesh struct {
	sink  *SoftSink
	kind  meshKind
	verts []mgl64.Vec3
	tris  [][3]int
	uvs   [][2]float64 // per-vertex, only for textured geometry
	tex   *image.NRGBA
	mat   Material
}

// NewSoft creates a software sink. Defaults are applied for zero fields.
func NewSoft(cfg SoftConfig) *SoftSink {
	if cfg.Size <= 0 {
		cfg.Size = 512
	}
	if cfg.Supersample < 1 {
		cfg.Supersample = 2
	}
	if cfg.Camera == (Camera{}) {
		cfg.Camera = DefaultCamera()
	}
	light := raster.DefaultLightConfig()
	if cfg.Light != nil {
		light = *cfg.Light
	}

	s := &SoftSink{
		size:        cfg.Size,
		supersample: cfg.Supersample,
		camera:      cfg.Camera,
		textures:    cfg.Textures,
		floor:       cfg.Floor,
		background:  cfg.Background,
		light:       light,
	}
	if s.floor {
		s.floorTex = texture.Checkerboard(256, 8,
			color.NRGBA{R: 235, G: 235, B: 235, A: 255},
			color.NRGBA{R: 205, G: 205, B: 205, A: 255})
	}
	return s
}

// AddMesh adds a triangle mesh and returns its handle.
func (s *SoftSink) AddMesh(verts []mgl64.Vec3, tris [][3]int, mat Material) (Handle, error) {
	for _, tri := range tris {
		for _, i := range tri {
			if i < 0 || i >= len(verts) {
				return nil, fmt.Errorf("scene: triangle index %d out of range for %d vertices", i, len(verts))
			}
		}
	}
	m := &softMesh{
		sink:  s,
		kind:  kindTriangles,
		verts: append([]mgl64.Vec3(nil), verts...),
		tris:  append([][3]int(nil), tris...),
		mat:   mat,
	}
	s.applyTexture(m)
	s.append(m)
	return m, nil
}

// AddLine adds a single segment from p1 to p2.
func (s *SoftSink) AddLine(p1, p2 mgl64.Vec3, mat Material) (Handle, error) {
	m := &softMesh{
		sink:  s,
		kind:  kindLineSegments,
		verts: []mgl64.Vec3{p1, p2},
		mat:   mat,
	}
	s.append(m)
	return m, nil
}

// AddPolyline adds an open polyline through pts.
func (s *SoftSink) AddPolyline(pts []mgl64.Vec3, mat Material) (Handle, error) {
	if len(pts) < 2 {
		return nil, fmt.Errorf("scene: polyline needs at least 2 points, got %d", len(pts))
	}
	m := &softMesh{
		sink:  s,
		kind:  kindLineStrip,
		verts: append([]mgl64.Vec3(nil), pts...),
		mat:   mat,
	}
	s.append(m)
	return m, nil
}

// AddPrimitive adds a marker shape centered at center.
func (s *SoftSink) AddPrimitive(kind PrimitiveKind, center mgl64.Vec3, size float64, mat Material) (Handle, error) {
	switch kind {
	case SpherePrimitive:
		verts, tris := shape.Sphere(size/2, 12, 18)
		translate(verts, center)
		return s.AddMesh(verts, tris, mat)
	case CubePrimitive:
		verts, tris := shape.Cube(size)
		translate(verts, center)
		return s.AddMesh(verts, tris, mat)
	case CrossPrimitive:
		h := size / 2
		verts := []mgl64.Vec3{
			center.Sub(mgl64.Vec3{h, 0, 0}), center.Add(mgl64.Vec3{h, 0, 0}),
			center.Sub(mgl64.Vec3{0, h, 0}), center.Add(mgl64.Vec3{0, h, 0}),
			center.Sub(mgl64.Vec3{0, 0, h}), center.Add(mgl64.Vec3{0, 0, h}),
		}
		m := &softMesh{sink: s, kind: kindLineSegments, verts: verts, mat: mat}
		s.append(m)
		return m, nil
	}
	return nil, fmt.Errorf("scene: unknown primitive kind %d", int(kind))
}

func translate(verts []mgl64.Vec3, by mgl64.Vec3) {
	for i := range verts {
		verts[i] = verts[i].Add(by)
	}
}

// applyTexture resolves a material texture to a mean-color tint. Robot
// meshes carry no texture coordinates, so images reduce to a flat color.
func (s *SoftSink) applyTexture(m *softMesh) {
	if m.mat.Texture == "" || s.textures == nil {
		return
	}
	img := s.textures.Resolve(m.mat.Texture)
	if img == nil {
		return
	}
	r, g, b := texture.AverageColor(img)
	m.mat.Color = Color{R: r, G: g, B: b}
}

func (s *SoftSink) append(m *softMesh) {
	s.mu.Lock()
	s.meshes = append(s.meshes, m)
	s.mu.Unlock()
}

// FitBounds locks the camera framing to the given world-space box. Use it
// before rendering animation frames so the view does not jump as the robot
// moves. Without it every Render frames the current content.
func (s *SoftSink) FitBounds(lo, hi mgl64.Vec3) {
	s.mu.Lock()
	s.fixedLo, s.fixedHi = lo, hi
	s.hasFixed = true
	s.mu.Unlock()
}

// Bounds reports the axis-aligned box of all current geometry. ok is false
// while the sink is empty.
func (s *SoftSink) Bounds() (lo, hi mgl64.Vec3, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boundsLocked()
}

func (s *SoftSink) boundsLocked() (lo, hi mgl64.Vec3, ok bool) {
	lo = mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, m := range s.meshes {
		for _, v := range m.verts {
			for a := 0; a < 3; a++ {
				if v[a] < lo[a] {
					lo[a] = v[a]
				}
				if v[a] > hi[a] {
					hi[a] = v[a]
				}
			}
		}
		ok = ok || len(m.verts) > 0
	}
	return lo, hi, ok
}

// Render rasterizes the current scene to a Size×Size image.
func (s *SoftSink) Render() *image.NRGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ss := s.supersample
	renderSize := s.size * ss
	fb := raster.NewFrameBuffer(renderSize, renderSize)
	if s.background.A > 0 {
		for i := 0; i < len(fb.Color); i += 4 {
			fb.Color[i] = s.background.R
			fb.Color[i+1] = s.background.G
			fb.Color[i+2] = s.background.B
			fb.Color[i+3] = s.background.A
		}
	}

	lo, hi, ok := s.boundsLocked()
	if s.hasFixed {
		lo, hi, ok = s.fixedLo, s.fixedHi, true
	}
	if !ok {
		return s.finish(fb)
	}

	f := computeFrame(s.camera, lo, hi, renderSize, 16*ss)

	meshes := s.meshes
	if s.floor {
		if fm := s.floorMesh(lo, hi); fm != nil {
			meshes = append([]*softMesh{fm}, meshes...)
		}
	}

	// Project every vertex once.
	projected := make([][3][]float64, len(meshes))
	for mi, m := range meshes {
		px := make([]float64, len(m.verts))
		py := make([]float64, len(m.verts))
		pz := make([]float64, len(m.verts))
		for vi, v := range m.verts {
			px[vi], py[vi], pz[vi] = f.project(v)
		}
		projected[mi] = [3][]float64{px, py, pz}
	}

	lc := s.light

	// Opaque pass with depth writes.
	type blendTri struct {
		mesh int
		tri  int
		z    float64
	}
	var blended []blendTri
	for mi, m := range meshes {
		if m.kind != kindTriangles {
			continue
		}
		px, py, pz := projected[mi][0], projected[mi][1], projected[mi][2]
		if m.mat.Opacity < 0.999 {
			for ti, tri := range m.tris {
				z := (pz[tri[0]] + pz[tri[1]] + pz[tri[2]]) / 3
				blended = append(blended, blendTri{mesh: mi, tri: ti, z: z})
			}
			continue
		}
		c := m.mat.Color
		for _, tri := range m.tris {
			raster.RasterizeTriangle(fb, px, py, pz, tri, m.uvs, m.tex, c.R, c.G, c.B, &lc)
		}
	}

	// Line pass. Lines are depth-tested against the opaque geometry and
	// biased toward the viewer so markers on a surface stay visible.
	for mi, m := range meshes {
		if m.kind != kindLineStrip && m.kind != kindLineSegments {
			continue
		}
		px, py, pz := projected[mi][0], projected[mi][1], projected[mi][2]
		width := m.mat.LineWidth
		if width <= 0 {
			width = 1
		}
		width *= float64(ss)
		c := m.mat.Color
		step := 1
		if m.kind == kindLineSegments {
			step = 2
		}
		for i := 0; i+1 < len(m.verts); i += step {
			raster.DrawLine(fb,
				px[i], py[i], pz[i],
				px[i+1], py[i+1], pz[i+1],
				width, c.R, c.G, c.B)
		}
	}

	// Translucent pass, back to front.
	sort.Slice(blended, func(i, j int) bool { return blended[i].z < blended[j].z })
	for _, bt := range blended {
		m := meshes[bt.mesh]
		px, py, pz := projected[bt.mesh][0], projected[bt.mesh][1], projected[bt.mesh][2]
		c := m.mat.Color
		raster.RasterizeTriangleBlended(fb, px, py, pz, m.tris[bt.tri], c.R, c.G, c.B, m.mat.Opacity, &lc)
	}

	return s.finish(fb)
}

func (s *SoftSink) finish(fb *raster.FrameBuffer) *image.NRGBA {
	img := fb.ToImage()
	if s.supersample > 1 {
		img = postprocess.Downsample(img, s.size)
	}
	return img
}

// floorMesh builds the transient checkerboard quad spanning the content
// footprint at z=0.
func (s *SoftSink) floorMesh(lo, hi mgl64.Vec3) *softMesh {
	cx := (lo.X() + hi.X()) / 2
	cy := (lo.Y() + hi.Y()) / 2
	span := math.Max(hi.X()-lo.X(), hi.Y()-lo.Y())
	if span < 1e-3 {
		span = 1e-3
	}
	h := span * 0.8
	const repeat = 2.0
	return &softMesh{
		sink: s,
		kind: kindTriangles,
		verts: []mgl64.Vec3{
			{cx - h, cy - h, 0},
			{cx + h, cy - h, 0},
			{cx + h, cy + h, 0},
			{cx - h, cy + h, 0},
		},
		tris: [][3]int{{0, 1, 2}, {0, 2, 3}},
		uvs:  [][2]float64{{0, 0}, {repeat, 0}, {repeat, repeat}, {0, repeat}},
		tex:  s.floorTex,
		mat:  Material{Color: MustColor("lightgray"), Opacity: 1},
	}
}

// SetVertices overwrites the mesh's vertex contents. The count must match.
func (m *softMesh) SetVertices(verts []mgl64.Vec3) error {
	m.sink.mu.Lock()
	defer m.sink.mu.Unlock()
	if len(verts) != len(m.verts) {
		return fmt.Errorf("scene: vertex count %d, want %d: %w", len(verts), len(m.verts), spatial.ErrShape)
	}
	copy(m.verts, verts)
	return nil
}

// ReplaceGeometry swaps in new geometry under the same handle.
func (m *softMesh) ReplaceGeometry(verts []mgl64.Vec3, tris [][3]int) error {
	for _, tri := range tris {
		for _, i := range tri {
			if i < 0 || i >= len(verts) {
				return fmt.Errorf("scene: triangle index %d out of range for %d vertices", i, len(verts))
			}
		}
	}
	m.sink.mu.Lock()
	defer m.sink.mu.Unlock()
	m.verts = append(m.verts[:0:0], verts...)
	if m.kind == kindTriangles {
		m.tris = append(m.tris[:0:0], tris...)
	}
	return nil
}

// VertexCount reports the current vertex buffer length.
func (m *softMesh) VertexCount() int {
	m.sink.mu.RLock()
	defer m.sink.mu.RUnlock()
	return len(m.verts)
}
