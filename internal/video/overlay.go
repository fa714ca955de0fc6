package video

import (
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// OverlayOptions positions the timestamp label. The zero value draws
// black text at the top-left corner at native size.
type OverlayOptions struct {
	X, Y  int         // top-left anchor; both zero means (8, 8)
	Color color.NRGBA // zero alpha means opaque black
	Scale int         // integer upscale of the 7x13 base font; <2 means native
}

// OverlayTimestamp draws "Time: NNNN ms" onto the frame in place.
func OverlayTimestamp(frame *image.NRGBA, tsMs float64, opts OverlayOptions) {
	text := fmt.Sprintf("Time: %04d ms", int(math.Round(tsMs)))

	col := opts.Color
	if col.A == 0 {
		col = color.NRGBA{A: 255}
	}
	x, y := opts.X, opts.Y
	if x == 0 && y == 0 {
		x, y = 8, 8
	}
	face := basicfont.Face7x13

	if opts.Scale < 2 {
		drawString(frame, text, x, y+face.Ascent, col)
		return
	}

	// Render at native size, then integer-upscale with a hard filter so
	// the glyphs stay crisp.
	w := font.MeasureString(face, text).Ceil()
	tmp := image.NewNRGBA(image.Rect(0, 0, w, face.Height))
	drawString(tmp, text, 0, face.Ascent, col)
	dst := image.Rect(x, y, x+w*opts.Scale, y+face.Height*opts.Scale)
	xdraw.NearestNeighbor.Scale(frame, dst, tmp, tmp.Bounds(), xdraw.Over, nil)
}

func drawString(dst *image.NRGBA, s string, x, y int, col color.NRGBA) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
