// Package shape generates procedural triangle meshes for primitive solids.
// All shapes are centered or based at the origin in their natural frame;
// callers position them with a rigid transform. Cylinders and arrows are
// aligned with the +Z axis, matching the robot-description convention.
package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Box returns an axis-aligned box centered at the origin.
func Box(sx, sy, sz float64) ([]mgl64.Vec3, [][3]int) {
	hx, hy, hz := sx/2, sy/2, sz/2
	verts := []mgl64.Vec3{
		{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, hy, -hz}, {-hx, hy, -hz},
		{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz},
	}
	tris := [][3]int{
		{0, 2, 1}, {0, 3, 2}, // -z
		{4, 5, 6}, {4, 6, 7}, // +z
		{0, 1, 5}, {0, 5, 4}, // -y
		{1, 2, 6}, {1, 6, 5}, // +x
		{2, 3, 7}, {2, 7, 6}, // +y
		{3, 0, 4}, {3, 4, 7}, // -x
	}
	return verts, tris
}

// Cube returns a box with equal edges.
func Cube(edge float64) ([]mgl64.Vec3, [][3]int) {
	return Box(edge, edge, edge)
}

// Sphere returns a UV sphere centered at the origin. rings is the number of
// latitude bands (min 2), segs the number of longitude segments (min 3).
func Sphere(radius float64, rings, segs int) ([]mgl64.Vec3, [][3]int) {
	if rings < 2 {
		rings = 2
	}
	if segs < 3 {
		segs = 3
	}

	verts := make([]mgl64.Vec3, 0, 2+(rings-1)*segs)
	verts = append(verts, mgl64.Vec3{0, 0, radius})
	for i := 1; i < rings; i++ {
		phi := math.Pi * float64(i) / float64(rings)
		sp, cp := math.Sincos(phi)
		for j := 0; j < segs; j++ {
			theta := 2 * math.Pi * float64(j) / float64(segs)
			st, ct := math.Sincos(theta)
			verts = append(verts, mgl64.Vec3{radius * sp * ct, radius * sp * st, radius * cp})
		}
	}
	south := len(verts)
	verts = append(verts, mgl64.Vec3{0, 0, -radius})

	ring := func(i, j int) int { return 1 + (i-1)*segs + j%segs }

	tris := make([][3]int, 0, segs*(2*rings-2))
	for j := 0; j < segs; j++ {
		tris = append(tris, [3]int{0, ring(1, j), ring(1, j+1)})
	}
	for i := 1; i < rings-1; i++ {
		for j := 0; j < segs; j++ {
			tris = append(tris,
				[3]int{ring(i, j), ring(i+1, j), ring(i+1, j+1)},
				[3]int{ring(i, j), ring(i+1, j+1), ring(i, j+1)})
		}
	}
	for j := 0; j < segs; j++ {
		tris = append(tris, [3]int{south, ring(rings-1, j+1), ring(rings-1, j)})
	}
	return verts, tris
}

// Cylinder returns a capped cylinder along Z, centered at the origin.
func Cylinder(radius, length float64, segs int) ([]mgl64.Vec3, [][3]int) {
	if segs < 3 {
		segs = 3
	}
	hz := length / 2

	verts := make([]mgl64.Vec3, 0, 2+2*segs)
	verts = append(verts, mgl64.Vec3{0, 0, -hz}, mgl64.Vec3{0, 0, hz})
	for j := 0; j < segs; j++ {
		theta := 2 * math.Pi * float64(j) / float64(segs)
		st, ct := math.Sincos(theta)
		verts = append(verts, mgl64.Vec3{radius * ct, radius * st, -hz})
	}
	for j := 0; j < segs; j++ {
		theta := 2 * math.Pi * float64(j) / float64(segs)
		st, ct := math.Sincos(theta)
		verts = append(verts, mgl64.Vec3{radius * ct, radius * st, hz})
	}

	bot := func(j int) int { return 2 + j%segs }
	top := func(j int) int { return 2 + segs + j%segs }

	tris := make([][3]int, 0, 4*segs)
	for j := 0; j < segs; j++ {
		tris = append(tris,
			[3]int{bot(j), bot(j + 1), top(j + 1)},
			[3]int{bot(j), top(j + 1), top(j)},
			[3]int{0, bot(j + 1), bot(j)},
			[3]int{1, top(j), top(j + 1)})
	}
	return verts, tris
}

// Arrow returns an arrow mesh: a cylindrical shaft capped by a cone, based
// at the origin and pointing along +Z with total length length. tipFrac is
// the fraction of the length taken by the cone (defaulted when out of range).
func Arrow(length, shaftRadius, tipRadius, tipFrac float64, segs int) ([]mgl64.Vec3, [][3]int) {
	if segs < 3 {
		segs = 3
	}
	if tipFrac <= 0 || tipFrac >= 1 {
		tipFrac = 0.25
	}
	shaftLen := length * (1 - tipFrac)

	verts := make([]mgl64.Vec3, 0, 2+3*segs)
	verts = append(verts, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, length})
	addRing := func(r, z float64) {
		for j := 0; j < segs; j++ {
			theta := 2 * math.Pi * float64(j) / float64(segs)
			st, ct := math.Sincos(theta)
			verts = append(verts, mgl64.Vec3{r * ct, r * st, z})
		}
	}
	addRing(shaftRadius, 0)
	addRing(shaftRadius, shaftLen)
	addRing(tipRadius, shaftLen)

	base := func(j int) int { return 2 + j%segs }
	shaft := func(j int) int { return 2 + segs + j%segs }
	cone := func(j int) int { return 2 + 2*segs + j%segs }

	tris := make([][3]int, 0, 6*segs)
	for j := 0; j < segs; j++ {
		tris = append(tris,
			[3]int{0, base(j + 1), base(j)},
			[3]int{base(j), base(j + 1), shaft(j + 1)},
			[3]int{base(j), shaft(j + 1), shaft(j)},
			[3]int{shaft(j), shaft(j + 1), cone(j + 1)},
			[3]int{shaft(j), cone(j + 1), cone(j)},
			[3]int{cone(j), cone(j + 1), 1})
	}
	return verts, tris
}
