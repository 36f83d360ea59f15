package raster

import "image/color"

// RGBA is a straight-alpha colour with float components in [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// RGB returns an opaque colour.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1}
}

// Bytes converts the colour to UNORM8 with round-to-nearest.
func (c RGBA) Bytes() [4]uint8 {
	return [4]uint8{unorm8(c.R), unorm8(c.G), unorm8(c.B), unorm8(c.A)}
}

// Color converts c to the standard library colour type.
func (c RGBA) Color() color.NRGBA {
	b := c.Bytes()
	return color.NRGBA{R: b[0], G: b[1], B: b[2], A: b[3]}
}

// FromColor converts any color.Color to RGBA.
func FromColor(c color.Color) RGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBA{
		R: float64(n.R) / 255,
		G: float64(n.G) / 255,
		B: float64(n.B) / 255,
		A: float64(n.A) / 255,
	}
}

func unorm8(x float64) uint8 {
	switch {
	case x <= 0:
		return 0
	case x >= 1:
		return 255
	}
	return uint8(x*255 + 0.5)
}

var (
	Black       = RGB(0, 0, 0)
	White       = RGB(1, 1, 1)
	Red         = RGB(1, 0, 0)
	Green       = RGB(0, 1, 0)
	Blue        = RGB(0, 0, 1)
	Transparent = RGBA{}
)
