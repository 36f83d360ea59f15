package raster

import (
	"fmt"
	"math"

	"github.com/gogpu/replaycheck/internal/parallel"
)

// Vertex is a clip-space position with a per-vertex colour.
type Vertex struct {
	Position [4]float32
	Color    RGBA
}

// Viewport maps normalised device coordinates to framebuffer pixels.
// Rasterization is also scissored to the viewport rectangle.
type Viewport struct {
	X, Y, Width, Height float32
}

// DrawState is the fixed-function state a draw is rasterized with.
type DrawState struct {
	Viewport  Viewport
	Locations Locations

	// SampleShading evaluates colour at each sample position instead of
	// once at the pixel centre.
	SampleShading bool

	// SampleMask disables samples whose bit is clear.
	SampleMask uint32
}

// DrawTriangles rasterizes a triangle list into t. Trailing vertices that do
// not form a full triangle are ignored, as are triangles with a vertex at or
// behind the eye (w <= 0) and zero-area triangles.
func DrawTriangles(t *Target, st DrawState, vertices []Vertex) error {
	if st.Locations.Samples != t.Samples() {
		return fmt.Errorf("raster: %d sample locations per pixel for a %d-sample target",
			st.Locations.Samples, t.Samples())
	}

	var tris []triangle
	for i := 0; i+2 < len(vertices); i += 3 {
		if tri, ok := setupTriangle(vertices[i:i+3], st.Viewport, t.width, t.height); ok {
			tris = append(tris, tri)
		}
	}
	if len(tris) == 0 {
		return nil
	}

	var jobs []func()
	for s, plane := range t.samples {
		if st.SampleMask&(1<<uint(s)) == 0 {
			continue
		}
		jobs = append(jobs, func() {
			for i := range tris {
				tris[i].fill(plane, s, &st)
			}
		})
	}
	parallel.Shared().ExecuteAll(jobs)
	return nil
}

type triangle struct {
	x, y    [3]float64
	invW    [3]float64
	color   [3]RGBA
	area    float64
	topLeft [3]bool

	x0, y0, x1, y1 int // pixel bounds, half-open
}

func setupTriangle(v []Vertex, vp Viewport, width, height int) (triangle, bool) {
	var tri triangle
	for i := range 3 {
		p := v[i].Position
		w := float64(p[3])
		if w <= 0 {
			return tri, false
		}
		tri.invW[i] = 1 / w
		ndcX := float64(p[0]) / w
		ndcY := float64(p[1]) / w
		tri.x[i] = float64(vp.X) + (ndcX+1)*float64(vp.Width)/2
		tri.y[i] = float64(vp.Y) + (ndcY+1)*float64(vp.Height)/2
		tri.color[i] = v[i].Color
	}

	tri.area = edge(tri.x[0], tri.y[0], tri.x[1], tri.y[1], tri.x[2], tri.y[2])
	if tri.area == 0 || math.IsNaN(tri.area) {
		return tri, false
	}
	if tri.area < 0 {
		tri.swap12()
		tri.area = -tri.area
	}

	for i := range 3 {
		a, b := (i+1)%3, (i+2)%3
		dx := tri.x[b] - tri.x[a]
		dy := tri.y[b] - tri.y[a]
		tri.topLeft[i] = (dy == 0 && dx > 0) || dy < 0
	}

	minX := math.Min(tri.x[0], math.Min(tri.x[1], tri.x[2]))
	maxX := math.Max(tri.x[0], math.Max(tri.x[1], tri.x[2]))
	minY := math.Min(tri.y[0], math.Min(tri.y[1], tri.y[2]))
	maxY := math.Max(tri.y[0], math.Max(tri.y[1], tri.y[2]))

	sx0 := max(0, int(math.Floor(float64(vp.X))))
	sy0 := max(0, int(math.Floor(float64(vp.Y))))
	sx1 := min(width, int(math.Ceil(float64(vp.X+vp.Width))))
	sy1 := min(height, int(math.Ceil(float64(vp.Y+vp.Height))))

	tri.x0 = max(sx0, int(math.Floor(minX)))
	tri.y0 = max(sy0, int(math.Floor(minY)))
	tri.x1 = min(sx1, int(math.Ceil(maxX))+1)
	tri.y1 = min(sy1, int(math.Ceil(maxY))+1)
	return tri, tri.x0 < tri.x1 && tri.y0 < tri.y1
}

func (tri *triangle) swap12() {
	tri.x[1], tri.x[2] = tri.x[2], tri.x[1]
	tri.y[1], tri.y[2] = tri.y[2], tri.y[1]
	tri.invW[1], tri.invW[2] = tri.invW[2], tri.invW[1]
	tri.color[1], tri.color[2] = tri.color[2], tri.color[1]
}

// edge is twice the signed area of (a, b, p).
func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func (tri *triangle) weights(px, py float64) [3]float64 {
	return [3]float64{
		edge(tri.x[1], tri.y[1], tri.x[2], tri.y[2], px, py),
		edge(tri.x[2], tri.y[2], tri.x[0], tri.y[0], px, py),
		edge(tri.x[0], tri.y[0], tri.x[1], tri.y[1], px, py),
	}
}

func (tri *triangle) covers(w [3]float64) bool {
	for i, v := range w {
		if v < 0 || (v == 0 && !tri.topLeft[i]) {
			return false
		}
	}
	return true
}

// shade interpolates the vertex colours with perspective correction.
func (tri *triangle) shade(w [3]float64) RGBA {
	var b [3]float64
	sum := 0.0
	for i := range 3 {
		b[i] = w[i] * tri.invW[i]
		sum += b[i]
	}
	if sum == 0 {
		return tri.color[0]
	}
	var c RGBA
	for i := range 3 {
		k := b[i] / sum
		c.R += tri.color[i].R * k
		c.G += tri.color[i].G * k
		c.B += tri.color[i].B * k
		c.A += tri.color[i].A * k
	}
	return c
}

func (tri *triangle) fill(plane *Pixmap, s int, st *DrawState) {
	for y := tri.y0; y < tri.y1; y++ {
		for x := tri.x0; x < tri.x1; x++ {
			loc := st.Locations.At(x, y, s)
			px := float64(x) + float64(loc.X)
			py := float64(y) + float64(loc.Y)
			w := tri.weights(px, py)
			if !tri.covers(w) {
				continue
			}
			if !st.SampleShading {
				w = tri.weights(float64(x)+0.5, float64(y)+0.5)
			}
			plane.SetPixel(x, y, tri.shade(w))
		}
	}
}
