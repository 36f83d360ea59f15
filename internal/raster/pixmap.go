package raster

import (
	"image"
	"image/color"
)

// Pixmap is a tightly packed RGBA8 pixel buffer.
type Pixmap struct {
	width  int
	height int
	data   []uint8 // RGBA, 4 bytes per pixel
}

// NewPixmap allocates a zeroed pixmap.
func NewPixmap(width, height int) *Pixmap {
	return &Pixmap{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int {
	return p.width
}

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int {
	return p.height
}

// Data returns the raw pixel data.
func (p *Pixmap) Data() []uint8 {
	return p.data
}

// SetPixel writes one pixel. Out of bounds writes are ignored.
func (p *Pixmap) SetPixel(x, y int, c RGBA) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	b := c.Bytes()
	copy(p.data[(y*p.width+x)*4:], b[:])
}

// Pixel returns the raw bytes at (x, y), or zero when out of bounds.
func (p *Pixmap) Pixel(x, y int) [4]uint8 {
	var b [4]uint8
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return b
	}
	copy(b[:], p.data[(y*p.width+x)*4:])
	return b
}

// GetPixel returns the colour at (x, y).
func (p *Pixmap) GetPixel(x, y int) RGBA {
	b := p.Pixel(x, y)
	return RGBA{
		R: float64(b[0]) / 255,
		G: float64(b[1]) / 255,
		B: float64(b[2]) / 255,
		A: float64(b[3]) / 255,
	}
}

// Clear fills the whole pixmap with c.
func (p *Pixmap) Clear(c RGBA) {
	b := c.Bytes()
	for i := 0; i < len(p.data); i += 4 {
		copy(p.data[i:i+4], b[:])
	}
}

// Clone returns a deep copy.
func (p *Pixmap) Clone() *Pixmap {
	return &Pixmap{
		width:  p.width,
		height: p.height,
		data:   append([]uint8(nil), p.data...),
	}
}

// ToImage copies the pixmap into an *image.NRGBA.
func (p *Pixmap) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.width, p.height))
	copy(img.Pix, p.data)
	return img
}

// FromImage converts img to a pixmap anchored at the origin.
func FromImage(img image.Image) *Pixmap {
	bounds := img.Bounds()
	pm := NewPixmap(bounds.Dx(), bounds.Dy())
	for y := 0; y < pm.height; y++ {
		for x := 0; x < pm.width; x++ {
			pm.SetPixel(x, y, FromColor(img.At(bounds.Min.X+x, bounds.Min.Y+y)))
		}
	}
	return pm
}

// At implements image.Image.
func (p *Pixmap) At(x, y int) color.Color {
	b := p.Pixel(x, y)
	return color.NRGBA{R: b[0], G: b[1], B: b[2], A: b[3]}
}

// Bounds implements image.Image.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements image.Image.
func (p *Pixmap) ColorModel() color.Model {
	return color.NRGBAModel
}
