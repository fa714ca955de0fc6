package scene

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an 8-bit RGB color. Opacity is carried separately by Material.
type Color struct {
	R, G, B uint8
}

// named color table, matching the common plotter palette.
var namedColors = map[string]Color{
	"black":     {0, 0, 0},
	"white":     {255, 255, 255},
	"red":       {255, 0, 0},
	"green":     {0, 128, 0},
	"blue":      {0, 0, 255},
	"yellow":    {255, 255, 0},
	"cyan":      {0, 255, 255},
	"magenta":   {255, 0, 255},
	"orange":    {255, 165, 0},
	"purple":    {128, 0, 128},
	"pink":      {255, 192, 203},
	"brown":     {165, 42, 42},
	"lime":      {0, 255, 0},
	"navy":      {0, 0, 128},
	"gray":      {128, 128, 128},
	"grey":      {128, 128, 128},
	"darkgray":  {169, 169, 169},
	"darkgrey":  {169, 169, 169},
	"lightgray": {211, 211, 211},
	"lightgrey": {211, 211, 211},
	"silver":    {192, 192, 192},
	"steelblue": {70, 130, 180},
}

// ParseColor resolves a color name or a #rgb/#rrggbb hex string.
func ParseColor(s string) (Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[name]; ok {
		return c, nil
	}
	if strings.HasPrefix(name, "#") {
		hex := name[1:]
		switch len(hex) {
		case 3:
			var c Color
			for i, p := range []*uint8{&c.R, &c.G, &c.B} {
				v, err := strconv.ParseUint(hex[i:i+1], 16, 8)
				if err != nil {
					return Color{}, fmt.Errorf("scene: bad hex color %q", s)
				}
				*p = uint8(v * 17)
			}
			return c, nil
		case 6:
			var c Color
			for i, p := range []*uint8{&c.R, &c.G, &c.B} {
				v, err := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
				if err != nil {
					return Color{}, fmt.Errorf("scene: bad hex color %q", s)
				}
				*p = uint8(v)
			}
			return c, nil
		}
		return Color{}, fmt.Errorf("scene: bad hex color %q", s)
	}
	return Color{}, fmt.Errorf("scene: unknown color %q", s)
}

// MustColor resolves a color known at compile time; it panics on failure
// and is meant for package-internal defaults only.
func MustColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ColorFromFloats converts normalized RGB components (0..1) to a Color.
func ColorFromFloats(r, g, b float64) Color {
	clamp := func(v float64) uint8 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint8(v*255 + 0.5)
	}
	return Color{clamp(r), clamp(g), clamp(b)}
}
