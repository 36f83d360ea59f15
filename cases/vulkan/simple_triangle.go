package vulkan

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"

	"github.com/gogpu/replaycheck/capture"
	"github.com/gogpu/replaycheck/demos"
	"github.com/gogpu/replaycheck/harness"
	"github.com/gogpu/replaycheck/imgcmp"
	"github.com/gogpu/replaycheck/replay"
)

func init() {
	harness.AddTest(harness.Info{
		Name:        "VK_Simple_Triangle",
		Description: "Checks a single-sampled triangle replays with standard sample locations.",
	}, SimpleTriangle{})
}

// SimpleTriangle checks VK_Simple_Triangle.
type SimpleTriangle struct{}

// Capture runs the demo for a single frame.
func (SimpleTriangle) Capture(ctx context.Context, env *harness.Env) (*capture.Capture, error) {
	return env.RunAndCapture(ctx, demos.Program, "VK_Simple_Triangle", 1)
}

// Check verifies the multisample state at the draw and samples the
// presented image inside and outside the triangle.
func (SimpleTriangle) Check(ctx context.Context, env *harness.Env) error {
	ctrl := env.Controller()

	draw, err := drawAfter(env, "Triangle", 0)
	if err != nil {
		return err
	}
	if err := ctrl.SetFrameEvent(ctx, draw.EventID, true); err != nil {
		return err
	}
	pipe, err := ctrl.PipelineState()
	if err != nil {
		return err
	}
	ms := pipe.Multisample
	if ms.RasterSamples != 1 {
		return harness.Failf("MSAA sample count is %d, not 1", ms.RasterSamples)
	}
	if n := len(ms.SampleLocations.CustomLocations); n != 0 {
		return harness.Failf("Expected no custom sample locations, got %d", n)
	}
	texID, ok := pipe.CurrentPass.ColorAttachmentImage(0)
	if !ok {
		return harness.Failf("Couldn't find the colour attachment of the current pass")
	}
	tex, ok := findTexture(ctrl, texID)
	if !ok {
		return harness.Failf("Couldn't get dimensions of texture")
	}
	env.Success("Pipeline state is correct")

	last, err := env.LastDraw()
	if err != nil {
		return err
	}
	if err := ctrl.SetFrameEvent(ctx, last.EventID, true); err != nil {
		return err
	}
	path := env.TmpPath("backbuffer.png")
	if err := ctrl.SaveTexture(replay.TextureSave{ResourceID: texID, DestType: replay.FilePNG}, path); err != nil {
		return err
	}
	img, err := imgcmp.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: Can't open %s", harness.ErrFileNotFound, env.Sanitise(path))
	}
	if err != nil {
		return err
	}

	c := demos.SimpleTriangleColor
	want := color.NRGBA{R: unorm8(c[0]), G: unorm8(c[1]), B: unorm8(c[2]), A: unorm8(c[3])}
	cx, cy := int(tex.Width)/2, int(tex.Height)/2
	if got := color.NRGBAModel.Convert(img.At(cx, cy)).(color.NRGBA); got != want {
		return harness.FailImages(fmt.Sprintf("Picked value %v at (%d, %d) doesn't match triangle colour %v", got, cx, cy, want), path)
	}
	bg := color.NRGBA{R: 51, G: 51, B: 51, A: 255}
	if got := color.NRGBAModel.Convert(img.At(0, 0)).(color.NRGBA); got != bg {
		return harness.FailImages(fmt.Sprintf("Picked value %v at (0, 0) doesn't match clear colour %v", got, bg), path)
	}
	env.Success("Triangle rendered as expected")
	return nil
}

func unorm8(f float32) uint8 {
	return uint8(min(max(f, 0), 1)*255 + 0.5)
}
