package raster

import "fmt"

// Target is a multisampled colour attachment stored as one Pixmap per sample.
type Target struct {
	width   int
	height  int
	samples []*Pixmap
}

// NewTarget allocates a width x height target with the given sample count.
func NewTarget(width, height, samples int) (*Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: invalid target size %dx%d", width, height)
	}
	if samples <= 0 || samples&(samples-1) != 0 {
		return nil, fmt.Errorf("raster: sample count %d is not a power of two", samples)
	}
	t := &Target{width: width, height: height, samples: make([]*Pixmap, samples)}
	for i := range t.samples {
		t.samples[i] = NewPixmap(width, height)
	}
	return t, nil
}

func (t *Target) Width() int   { return t.width }
func (t *Target) Height() int  { return t.height }
func (t *Target) Samples() int { return len(t.samples) }

// Clear sets every sample of every pixel to c.
func (t *Target) Clear(c RGBA) {
	for _, p := range t.samples {
		p.Clear(c)
	}
}

// Sample returns the plane holding sample i. The pixmap is shared with the
// target; callers that keep it across draws should Clone it.
func (t *Target) Sample(i int) (*Pixmap, error) {
	if i < 0 || i >= len(t.samples) {
		return nil, fmt.Errorf("raster: sample %d out of range [0, %d)", i, len(t.samples))
	}
	return t.samples[i], nil
}

// Resolve averages all samples into a single-sampled pixmap.
func (t *Target) Resolve() *Pixmap {
	if len(t.samples) == 1 {
		return t.samples[0].Clone()
	}
	out := NewPixmap(t.width, t.height)
	n := len(t.samples)
	for i := range out.data {
		sum := 0
		for _, p := range t.samples {
			sum += int(p.data[i])
		}
		out.data[i] = uint8((sum + n/2) / n)
	}
	return out
}

// Array lays the sample planes out left to right in one pixmap.
func (t *Target) Array() *Pixmap {
	out := NewPixmap(t.width*len(t.samples), t.height)
	row := t.width * 4
	for s, p := range t.samples {
		for y := 0; y < t.height; y++ {
			dst := (y*out.width + s*t.width) * 4
			copy(out.data[dst:dst+row], p.data[y*row:(y+1)*row])
		}
	}
	return out
}
