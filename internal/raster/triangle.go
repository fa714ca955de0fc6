package raster

import (
	"image"
	"math"
)

// triSetup carries the per-triangle state shared by the fill variants:
// screen coordinates, clipped bounding box, barycentric precomputation,
// and the flat-shading scalar.
type triSetup struct {
	x0, y0, z0             float64
	x1, y1, z1             float64
	x2, y2, z2             float64
	minX, maxX, minY, maxY int
	invDet                 float64
	dy12, dx21, dy20, dx02 float64
	shade                  float64
}

// prepare validates indices, computes the face normal for flat shading and
// sets up the barycentric coefficients. Returns false for degenerate or
// fully clipped triangles.
func prepare(fb *FrameBuffer, px, py, pz []float64, vi [3]int, lc *LightConfig) (triSetup, bool) {
	var s triSetup

	nv := len(px)
	for _, i := range vi {
		if i < 0 || i >= nv {
			return s, false
		}
	}

	s.x0, s.y0, s.z0 = px[vi[0]], py[vi[0]], pz[vi[0]]
	s.x1, s.y1, s.z1 = px[vi[1]], py[vi[1]], pz[vi[1]]
	s.x2, s.y2, s.z2 = px[vi[2]], py[vi[2]], pz[vi[2]]

	// Face normal in view space.
	e1x, e1y, e1z := s.x1-s.x0, s.y1-s.y0, s.z1-s.z0
	e2x, e2y, e2z := s.x2-s.x0, s.y2-s.y0, s.z2-s.z0
	nx := e1y*e2z - e1z*e2y
	ny := e1z*e2x - e1x*e2z
	nz := e1x*e2y - e1y*e2x
	nl := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if nl < 1e-8 {
		return s, false
	}
	s.shade = lc.shadeFor(nx/nl, ny/nl, nz/nl)

	s.minX = int(math.Min(math.Min(s.x0, s.x1), s.x2))
	s.maxX = int(math.Max(math.Max(s.x0, s.x1), s.x2)) + 1
	s.minY = int(math.Min(math.Min(s.y0, s.y1), s.y2))
	s.maxY = int(math.Max(math.Max(s.y0, s.y1), s.y2)) + 1
	if s.minX < 0 {
		s.minX = 0
	}
	if s.maxX >= fb.Width {
		s.maxX = fb.Width - 1
	}
	if s.minY < 0 {
		s.minY = 0
	}
	if s.maxY >= fb.Height {
		s.maxY = fb.Height - 1
	}
	if s.minX >= s.maxX || s.minY >= s.maxY {
		return s, false
	}

	det := (s.y1-s.y2)*(s.x0-s.x2) + (s.x2-s.x1)*(s.y0-s.y2)
	if det > -1e-8 && det < 1e-8 {
		return s, false
	}
	s.invDet = 1.0 / det
	s.dy12 = s.y1 - s.y2
	s.dx21 = s.x2 - s.x1
	s.dy20 = s.y2 - s.y0
	s.dx02 = s.x0 - s.x2

	return s, true
}

// RasterizeTriangle fills one opaque triangle with depth testing, flat
// shading, sRGB-correct lighting and ACES tone mapping.
//
// This is the HOT PATH — zero allocation in the inner loop. When uvs is
// non-nil it holds one UV pair per vertex (indexed by vi) and tex is
// sampled bilinearly; otherwise the flat color cr,cg,cb is used.
func RasterizeTriangle(
	fb *FrameBuffer,
	px, py, pz []float64,
	vi [3]int,
	uvs [][2]float64,
	tex *image.NRGBA,
	cr, cg, cb uint8,
	lc *LightConfig,
) {
	s, ok := prepare(fb, px, py, pz, vi, lc)
	if !ok {
		return
	}

	hasUV := tex != nil && uvs != nil
	var u0, v0, u1, v1, u2, v2 float64
	if hasUV {
		nuv := len(uvs)
		for _, i := range vi {
			if i >= nuv {
				hasUV = false
				break
			}
		}
	}
	if hasUV {
		u0, v0 = uvs[vi[0]][0], uvs[vi[0]][1]
		u1, v1 = uvs[vi[1]][0], uvs[vi[1]][1]
		u2, v2 = uvs[vi[2]][0], uvs[vi[2]][1]
	}

	exposure := lc.Exposure
	invGamma := lc.InvGamma

	for sy := s.minY; sy <= s.maxY; sy++ {
		dsy := float64(sy) - s.y2
		rowOff := sy * fb.Width
		for sx := s.minX; sx <= s.maxX; sx++ {
			dsx := float64(sx) - s.x2
			w0 := (s.dy12*dsx + s.dx21*dsy) * s.invDet
			w1 := (s.dy20*dsx + s.dx02*dsy) * s.invDet
			w2 := 1.0 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*s.z0 + w1*s.z1 + w2*s.z2
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}

			pr, pg, pb, pa := cr, cg, cb, uint8(255)
			if hasUV {
				u := w0*u0 + w1*u1 + w2*u2
				v := w0*v0 + w1*v1 + w2*v2
				pr, pg, pb, pa = SampleBilinear(tex, u, v)
				if pa < 8 {
					continue
				}
			}
			fb.ZBuf[zIdx] = z

			sr := srgbToLinear[pr] * s.shade * exposure
			sg := srgbToLinear[pg] * s.shade * exposure
			sb := srgbToLinear[pb] * s.shade * exposure

			pxIdx := zIdx * 4
			fb.Color[pxIdx] = clamp255(math.Pow(ACESTonemap(sr), invGamma) * 255)
			fb.Color[pxIdx+1] = clamp255(math.Pow(ACESTonemap(sg), invGamma) * 255)
			fb.Color[pxIdx+2] = clamp255(math.Pow(ACESTonemap(sb), invGamma) * 255)
			fb.Color[pxIdx+3] = pa
		}
	}
}

// RasterizeTriangleBlended fills one translucent triangle: fragments are
// depth-tested against the opaque pass but never write depth, and the
// shaded color is source-over composited with the given opacity. Callers
// draw translucent geometry back to front.
func RasterizeTriangleBlended(
	fb *FrameBuffer,
	px, py, pz []float64,
	vi [3]int,
	cr, cg, cb uint8,
	opacity float64,
	lc *LightConfig,
) {
	s, ok := prepare(fb, px, py, pz, vi, lc)
	if !ok {
		return
	}
	if opacity <= 0 {
		return
	}
	if opacity > 1 {
		opacity = 1
	}

	// Shade once per face; the source color is constant across the fill.
	sr := srgbToLinear[cr] * s.shade * lc.Exposure
	sg := srgbToLinear[cg] * s.shade * lc.Exposure
	sb := srgbToLinear[cb] * s.shade * lc.Exposure
	fr := math.Pow(ACESTonemap(sr), lc.InvGamma) * 255
	fg := math.Pow(ACESTonemap(sg), lc.InvGamma) * 255
	fbv := math.Pow(ACESTonemap(sb), lc.InvGamma) * 255

	for sy := s.minY; sy <= s.maxY; sy++ {
		dsy := float64(sy) - s.y2
		rowOff := sy * fb.Width
		for sx := s.minX; sx <= s.maxX; sx++ {
			dsx := float64(sx) - s.x2
			w0 := (s.dy12*dsx + s.dx21*dsy) * s.invDet
			w1 := (s.dy20*dsx + s.dx02*dsy) * s.invDet
			w2 := 1.0 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*s.z0 + w1*s.z1 + w2*s.z2
			zIdx := rowOff + sx
			// Depth test only: translucent fragments never occlude.
			if z <= fb.ZBuf[zIdx] {
				continue
			}

			pxIdx := zIdx * 4
			inv := 1 - opacity
			fb.Color[pxIdx] = clamp255(fr*opacity + float64(fb.Color[pxIdx])*inv)
			fb.Color[pxIdx+1] = clamp255(fg*opacity + float64(fb.Color[pxIdx+1])*inv)
			fb.Color[pxIdx+2] = clamp255(fbv*opacity + float64(fb.Color[pxIdx+2])*inv)
			fb.Color[pxIdx+3] = clamp255(255*opacity + float64(fb.Color[pxIdx+3])*inv)
		}
	}
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
