package vulkan

import (
	"context"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/replaycheck/capture"
	"github.com/gogpu/replaycheck/demos"
	"github.com/gogpu/replaycheck/harness"
)

func newRunner(t *testing.T, opts ...harness.RunnerOption) *harness.Runner {
	t.Helper()
	base := []harness.RunnerOption{
		harness.WithTempRoot(t.TempDir()),
		harness.WithLogger(slog.New(slog.DiscardHandler)),
	}
	return harness.NewRunner(append(base, opts...)...)
}

func TestRegistered(t *testing.T) {
	for _, name := range []string{"VK_Sample_Locations", "VK_Simple_Triangle"} {
		e, ok := harness.Lookup(name)
		require.True(t, ok, name)
		assert.NotEmpty(t, e.Info.Description)
	}
}

func TestSampleLocations(t *testing.T) {
	r := newRunner(t, harness.WithKeepTemp(true))
	res := r.RunCase(context.Background(), "VK_Sample_Locations", SampleLocations{})
	require.Equal(t, harness.StatusPassed, res.Status, "%v", res.Err)

	assert.Equal(t, []string{
		"Pipeline state is correct",
		"Degenerate grid sample images are as expected",
		"Rotated grid sample images are as expected",
	}, res.Successes)

	for _, name := range []string{"sample0.png", "degenerate3.png", "rotated2.png"} {
		assert.FileExists(t, filepath.Join(res.TmpDir, name))
	}
}

func TestSimpleTriangle(t *testing.T) {
	r := newRunner(t)
	res := r.RunCase(context.Background(), "VK_Simple_Triangle", SimpleTriangle{})
	require.Equal(t, harness.StatusPassed, res.Status, "%v", res.Err)
	assert.Contains(t, res.Successes, "Triangle rendered as expected")
}

func TestRunAll(t *testing.T) {
	results := newRunner(t).Run(context.Background(), "VK_")
	require.Len(t, results, 2)
	for _, res := range results {
		assert.Equal(t, harness.StatusPassed, res.Status, "%s: %v", res.Name, res.Err)
	}
	assert.False(t, harness.Failed(results))
}

// swappedCase checks the sample locations demo with the simple triangle's
// capture, which has neither marker.
type swappedCase struct{ SampleLocations }

func (swappedCase) Capture(ctx context.Context, env *harness.Env) (*capture.Capture, error) {
	return SimpleTriangle{}.Capture(ctx, env)
}

func TestSampleLocationsWrongCapture(t *testing.T) {
	res := newRunner(t).RunCase(context.Background(), "swapped", swappedCase{})
	assert.Equal(t, harness.StatusFailed, res.Status)
	assert.Contains(t, res.Err.Error(), "Degenerate")
}

func TestCropMissingFile(t *testing.T) {
	r := newRunner(t)
	res := r.RunCase(context.Background(), "crop", cropCase{})
	assert.Equal(t, harness.StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, harness.ErrFileNotFound)
	assert.Contains(t, res.Err.Error(), "Can't open <tmp>/gone.png")
}

// cropCase crops a file that was never written.
type cropCase struct{ SimpleTriangle }

func (cropCase) Check(_ context.Context, env *harness.Env) error {
	src := env.TmpPath("gone.png")
	if _, err := os.Stat(src); err == nil {
		return harness.Failf("%s exists", src)
	}
	return cropTo(env, src, env.TmpPath("out.png"), image.Rect(0, 0, 1, 1))
}

// variantCase runs the sample locations checks against the demo built with
// non-default options.
type variantCase struct {
	SampleLocations
	opts demos.SampleLocationsOptions
}

func (v variantCase) Capture(ctx context.Context, env *harness.Env) (*capture.Capture, error) {
	return env.CaptureDemo(ctx, demos.NewSampleLocations(v.opts), 5)
}

func grid1x1(pts ...capture.Vec2) capture.SampleLocations {
	return capture.SampleLocations{GridWidth: 1, GridHeight: 1, Locations: pts}
}

func TestSampleLocationsFailures(t *testing.T) {
	var (
		a = capture.Vec2{X: 0.25, Y: 0.25}
		b = capture.Vec2{X: 0.75, Y: 0.75}
		c = capture.Vec2{X: 0.1, Y: 0.1}
		d = capture.Vec2{X: 0.9, Y: 0.4}
	)
	// Covers the whole viewport in one colour, so every sample plane of a
	// half is the same image.
	fullscreen := []capture.Vertex{
		{Position: [4]float32{-1, -1, 0, 1}, Color: [4]float32{1, 1, 0, 1}},
		{Position: [4]float32{3, -1, 0, 1}, Color: [4]float32{1, 1, 0, 1}},
		{Position: [4]float32{-1, 3, 0, 1}, Color: [4]float32{1, 1, 0, 1}},
	}

	tests := []struct {
		name       string
		opts       demos.SampleLocationsOptions
		wantMsg    string
		wantImages []string
	}{
		{
			name:    "degenerate 0 and 1 differ",
			opts:    demos.SampleLocationsOptions{Degenerate: grid1x1(a, capture.Vec2{X: 0.26, Y: 0.25}, b, b)},
			wantMsg: "In degenerate case, sample locations [0] and [1] don't match",
		},
		{
			name:    "degenerate 2 and 3 differ",
			opts:    demos.SampleLocationsOptions{Degenerate: grid1x1(a, a, b, d)},
			wantMsg: "In degenerate case, sample locations [2] and [3] don't match",
		},
		{
			name:    "degenerate 1 and 2 equal",
			opts:    demos.SampleLocationsOptions{Degenerate: grid1x1(a, a, a, a)},
			wantMsg: "In degenerate case, sample locations [1] and [2] are equal",
		},
		{
			name:    "rotated pair coincides",
			opts:    demos.SampleLocationsOptions{Rotated: grid1x1(c, a, c, d)},
			wantMsg: "In rotated grid case, sample locations [0] and [2] are equal",
		},
		{
			name: "two samples",
			opts: demos.SampleLocationsOptions{
				Samples:    2,
				Degenerate: grid1x1(a, a),
				Rotated:    grid1x1(a, b),
			},
			wantMsg: "MSAA sample count is 2, not 4",
		},
		{
			name: "2x1 grid",
			opts: demos.SampleLocationsOptions{Degenerate: capture.SampleLocations{
				GridWidth: 2, GridHeight: 1,
				Locations: []capture.Vec2{a, a, b, b, a, a, b, b},
			}},
			wantMsg: "Sample locations grid width is 2, not 1",
		},
		{
			name:       "identical degenerate images",
			opts:       demos.SampleLocationsOptions{Triangle: fullscreen},
			wantMsg:    "Degenerate grid sample 1 and 2 are identical",
			wantImages: []string{"degenerate1.png", "degenerate2.png", "diff_degenerate1_degenerate2.png"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newRunner(t).RunCase(context.Background(), tt.name, variantCase{opts: tt.opts})

			require.Equal(t, harness.StatusFailed, res.Status, "%v", res.Err)
			assert.Contains(t, res.Err.Error(), tt.wantMsg)

			var images []string
			for _, p := range res.Images {
				assert.FileExists(t, p)
				images = append(images, filepath.Base(p))
			}
			assert.Equal(t, tt.wantImages, images)
		})
	}
}

func TestSampleLocationsDefaultVariant(t *testing.T) {
	res := newRunner(t).RunCase(context.Background(), "defaults", variantCase{})
	require.Equal(t, harness.StatusPassed, res.Status, "%v", res.Err)
	assert.Equal(t, "VK_Sample_Locations_frame5.rcap", filepath.Base(res.CapturePath))
}
