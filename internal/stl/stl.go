// Package stl reads STL triangle meshes, the common interchange format for
// robot-description visual geometry. Both binary and ASCII variants are
// supported; the variant is detected from the file contents, not the name.
package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
)

// Mesh is an indexed triangle mesh. Verts holds unique vertex positions,
// Tris holds index triples into Verts.
type Mesh struct {
	Verts []mgl64.Vec3
	Tris  [][3]int
}

// ReadFile reads an STL file from disk.
func ReadFile(path string) (*Mesh, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stl: read %s: %w", path, err)
	}
	m, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("stl: %s: %w", path, err)
	}
	return m, nil
}

// Decode parses STL data, detecting binary vs ASCII.
// Binary layout: 80-byte header, uint32 triangle count, then 50 bytes per
// triangle (normal 3×f32, vertices 9×f32, attribute u16), little-endian.
func Decode(data []byte) (*Mesh, error) {
	if len(data) >= 84 {
		n := int64(binary.LittleEndian.Uint32(data[80:84]))
		if 84+50*n == int64(len(data)) {
			return decodeBinary(data, int(n))
		}
	}
	if isASCII(data) {
		return decodeASCII(data)
	}
	return nil, fmt.Errorf("stl: unrecognized format")
}

func isASCII(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	head = bytes.TrimLeft(head, " \t\r\n")
	return bytes.HasPrefix(head, []byte("solid")) && bytes.Contains(data, []byte("facet"))
}

func decodeBinary(data []byte, count int) (*Mesh, error) {
	b := &builder{seen: make(map[mgl64.Vec3]int)}
	off := 84
	for i := 0; i < count; i++ {
		// Skip the stored facet normal; flat shading recomputes normals.
		off += 12
		var idx [3]int
		for k := 0; k < 3; k++ {
			x := readF32(data, off)
			y := readF32(data, off+4)
			z := readF32(data, off+8)
			idx[k] = b.vertex(mgl64.Vec3{float64(x), float64(y), float64(z)})
			off += 12
		}
		off += 2 // attribute byte count
		b.tris = append(b.tris, idx)
	}
	if len(b.tris) == 0 {
		return nil, fmt.Errorf("stl: no triangles")
	}
	return &Mesh{Verts: b.verts, Tris: b.tris}, nil
}

func readF32(data []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
}

func decodeASCII(data []byte) (*Mesh, error) {
	b := &builder{seen: make(map[mgl64.Vec3]int)}
	var face [3]int
	nv := 0

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := bytes.Fields(sc.Bytes())
		if len(fields) == 0 || string(fields[0]) != "vertex" {
			continue
		}
		if len(fields) != 4 {
			return nil, fmt.Errorf("stl: malformed vertex at line %d", line)
		}
		var xyz mgl64.Vec3
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(string(fields[k+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("stl: vertex at line %d: %w", line, err)
			}
			xyz[k] = v
		}
		face[nv%3] = b.vertex(xyz)
		nv++
		if nv%3 == 0 {
			b.tris = append(b.tris, face)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("stl: scan: %w", err)
	}
	if nv%3 != 0 {
		return nil, fmt.Errorf("stl: vertex count %d not a multiple of 3", nv)
	}
	if len(b.tris) == 0 {
		return nil, fmt.Errorf("stl: no triangles")
	}
	return &Mesh{Verts: b.verts, Tris: b.tris}, nil
}

// builder deduplicates exactly-equal vertex positions while assembling the
// indexed mesh. STL repeats each vertex once per facet.
type builder struct {
	verts []mgl64.Vec3
	tris  [][3]int
	seen  map[mgl64.Vec3]int
}

func (b *builder) vertex(v mgl64.Vec3) int {
	if i, ok := b.seen[v]; ok {
		return i
	}
	i := len(b.verts)
	b.verts = append(b.verts, v)
	b.seen[v] = i
	return i
}
