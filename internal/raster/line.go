package raster

import "math"

// Depth bias applied to line fragments so markers drawn on a surface win
// the depth tie against the surface itself.
const lineDepthBias = 1e-6

// DrawLine paints a depth-tested screen-space segment with the given pixel
// width. Line fragments are pure unshaded color: markers keep their exact
// requested color regardless of lighting.
func DrawLine(fb *FrameBuffer, x0, y0, z0, x1, y1, z1, width float64, cr, cg, cb uint8) {
	if width < 1 {
		width = 1
	}
	dx := x1 - x0
	dy := y1 - y0
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps < 1 {
		steps = 1
	}

	half := width / 2
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := x0 + dx*t
		y := y0 + dy*t
		z := z0 + (z1-z0)*t + lineDepthBias
		stamp(fb, x, y, z, half, cr, cg, cb)
	}
}

// stamp fills a square of half-extent h around (x, y), depth-tested.
func stamp(fb *FrameBuffer, x, y, z, h float64, cr, cg, cb uint8) {
	minX := int(math.Floor(x - h))
	maxX := int(math.Ceil(x + h))
	minY := int(math.Floor(y - h))
	maxY := int(math.Ceil(y + h))
	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}

	for sy := minY; sy <= maxY; sy++ {
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}
			fb.ZBuf[zIdx] = z
			pxIdx := zIdx * 4
			fb.Color[pxIdx] = cr
			fb.Color[pxIdx+1] = cg
			fb.Color[pxIdx+2] = cb
			fb.Color[pxIdx+3] = 255
		}
	}
}
