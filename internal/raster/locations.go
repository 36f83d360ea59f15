package raster

import "fmt"

// Point is a sub-pixel position in [0, 1) measured from the pixel's top-left corner.
type Point struct {
	X, Y float32
}

var standardLocations = map[int][]Point{
	1: {{0.5, 0.5}},
	2: {{0.75, 0.75}, {0.25, 0.25}},
	4: {{0.375, 0.125}, {0.875, 0.375}, {0.125, 0.625}, {0.625, 0.875}},
	8: {
		{0.5625, 0.3125}, {0.4375, 0.6875}, {0.8125, 0.5625}, {0.3125, 0.1875},
		{0.1875, 0.8125}, {0.0625, 0.4375}, {0.6875, 0.9375}, {0.9375, 0.0625},
	},
}

// StandardLocations returns the Vulkan standard sample positions for the
// given sample count. The slice is a copy.
func StandardLocations(samples int) ([]Point, error) {
	pts, ok := standardLocations[samples]
	if !ok {
		return nil, fmt.Errorf("raster: no standard locations for %d samples", samples)
	}
	return append([]Point(nil), pts...), nil
}

// Locations maps (pixel, sample) to a sub-pixel position over a repeating
// grid of GridWidth x GridHeight pixels.
type Locations struct {
	GridWidth  int
	GridHeight int
	Samples    int
	Points     []Point
}

// NewLocations validates that pts covers the whole grid.
func NewLocations(gridW, gridH, samples int, pts []Point) (Locations, error) {
	if gridW <= 0 || gridH <= 0 || samples <= 0 {
		return Locations{}, fmt.Errorf("raster: invalid location grid %dx%d with %d samples", gridW, gridH, samples)
	}
	if want := gridW * gridH * samples; len(pts) != want {
		return Locations{}, fmt.Errorf("raster: %d sample locations for a %dx%d grid with %d samples, want %d",
			len(pts), gridW, gridH, samples, want)
	}
	return Locations{GridWidth: gridW, GridHeight: gridH, Samples: samples, Points: pts}, nil
}

// Standard returns a 1x1 grid of the standard positions.
func Standard(samples int) (Locations, error) {
	pts, err := StandardLocations(samples)
	if err != nil {
		return Locations{}, err
	}
	return Locations{GridWidth: 1, GridHeight: 1, Samples: samples, Points: pts}, nil
}

// At returns the position of sample s in pixel (x, y).
func (l Locations) At(x, y, s int) Point {
	gx := x % l.GridWidth
	gy := y % l.GridHeight
	return l.Points[(gy*l.GridWidth+gx)*l.Samples+s]
}
