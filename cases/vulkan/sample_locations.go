package vulkan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/gogpu/replaycheck/capture"
	"github.com/gogpu/replaycheck/demos"
	"github.com/gogpu/replaycheck/harness"
	"github.com/gogpu/replaycheck/imgcmp"
	"github.com/gogpu/replaycheck/replay"
)

func init() {
	harness.AddTest(harness.Info{
		Name:        "VK_Sample_Locations",
		Description: "Checks custom MSAA sample locations in the pipeline state and in the rendered samples.",
	}, SampleLocations{})
}

const sampleLocationsSamples = 4

// SampleLocations checks VK_Sample_Locations. The left half of the target is
// drawn with sample locations paired up two by two, the right half with a
// rotated grid.
type SampleLocations struct{}

// Capture runs the demo for five frames and captures the last.
func (SampleLocations) Capture(ctx context.Context, env *harness.Env) (*capture.Capture, error) {
	return env.RunAndCapture(ctx, demos.Program, "VK_Sample_Locations", 5)
}

// Check verifies the pipeline state at both draws and compares the per
// sample images of the final frame.
func (SampleLocations) Check(ctx context.Context, env *harness.Env) error {
	ctrl := env.Controller()

	draw, err := drawAfter(env, "Degenerate", 0)
	if err != nil {
		return err
	}
	env.Logf("Checking degenerate sample locations at %s", draw)
	if err := ctrl.SetFrameEvent(ctx, draw.EventID, true); err != nil {
		return err
	}
	pipe, err := ctrl.PipelineState()
	if err != nil {
		return err
	}
	if err := checkGrid(pipe); err != nil {
		return err
	}
	locs := pipe.Multisample.SampleLocations.CustomLocations
	if locs[0] != locs[1] {
		return harness.Failf("In degenerate case, sample locations [0] and [1] don't match: %v vs %v", locs[0], locs[1])
	}
	if locs[2] != locs[3] {
		return harness.Failf("In degenerate case, sample locations [2] and [3] don't match: %v vs %v", locs[2], locs[3])
	}
	if locs[1] == locs[2] {
		return harness.Failf("In degenerate case, sample locations [1] and [2] are equal: %v", locs[1])
	}

	draw, err = drawAfter(env, "Rotated", draw.EventID)
	if err != nil {
		return err
	}
	env.Logf("Checking rotated sample locations at %s", draw)
	if err := ctrl.SetFrameEvent(ctx, draw.EventID, true); err != nil {
		return err
	}
	pipe, err = ctrl.PipelineState()
	if err != nil {
		return err
	}
	if err := checkGrid(pipe); err != nil {
		return err
	}
	locs = pipe.Multisample.SampleLocations.CustomLocations
	for a := range locs {
		for b := a + 1; b < len(locs); b++ {
			if locs[a] == locs[b] {
				return harness.Failf("In rotated grid case, sample locations [%d] and [%d] are equal: %v", a, b, locs[a])
			}
		}
	}

	env.Success("Pipeline state is correct")

	// The colour target is read from the current pass before moving away
	// from the draw.
	texID, ok := pipe.CurrentPass.ColorAttachmentImage(0)
	if !ok {
		return harness.Failf("Couldn't find the colour attachment of the current pass")
	}
	tex, ok := findTexture(ctrl, texID)
	if !ok {
		return harness.Failf("Couldn't get dimensions of texture")
	}

	last, err := env.LastDraw()
	if err != nil {
		return err
	}
	if err := ctrl.SetFrameEvent(ctx, last.EventID, true); err != nil {
		return err
	}

	half := int(tex.Width) / 2
	left := image.Rect(0, 0, half, int(tex.Height))
	right := image.Rect(half, 0, int(tex.Width), int(tex.Height))

	env.Logf("Saving %d samples of %s (%dx%d)", sampleLocationsSamples, tex.Name, tex.Width, tex.Height)
	for i := range sampleLocationsSamples {
		ts := replay.TextureSave{
			ResourceID: texID,
			DestType:   replay.FilePNG,
			Sample:     replay.SampleSelection{SampleIndex: uint32(i)},
		}
		full := env.TmpPath(fmt.Sprintf("sample%d.png", i))
		if err := ctrl.SaveTexture(ts, full); err != nil {
			return err
		}
		if err := cropTo(env, full, degeneratePath(env, i), left); err != nil {
			return err
		}
		if err := cropTo(env, full, rotatedPath(env, i), right); err != nil {
			return err
		}
	}

	same, err := imgcmp.Compare(degeneratePath(env, 0), degeneratePath(env, 1), 0)
	if err != nil {
		return err
	}
	if !same {
		return harness.FailImages("Degenerate grid sample 0 and 1 are different",
			degeneratePath(env, 0), degeneratePath(env, 1))
	}
	same, err = imgcmp.Compare(degeneratePath(env, 2), degeneratePath(env, 3), 0)
	if err != nil {
		return err
	}
	if !same {
		return harness.FailImages("Degenerate grid sample 2 and 3 are different",
			degeneratePath(env, 2), degeneratePath(env, 3))
	}
	same, err = imgcmp.Compare(degeneratePath(env, 1), degeneratePath(env, 2), 0)
	if err != nil {
		return err
	}
	if same {
		return harness.FailImages("Degenerate grid sample 1 and 2 are identical",
			degeneratePath(env, 1), degeneratePath(env, 2))
	}
	env.Success("Degenerate grid sample images are as expected")

	for a := range sampleLocationsSamples {
		for b := a + 1; b < sampleLocationsSamples; b++ {
			same, err := imgcmp.Compare(rotatedPath(env, a), rotatedPath(env, b), 0)
			if err != nil {
				return err
			}
			if same {
				return harness.FailImages(fmt.Sprintf("Rotated grid sample %d and %d are identical", a, b),
					rotatedPath(env, a), rotatedPath(env, b))
			}
		}
	}
	env.Success("Rotated grid sample images are as expected")
	return nil
}

// drawAfter returns the drawcall following the first marker named name at
// or after startEvent.
func drawAfter(env *harness.Env, name string, startEvent uint32) (*replay.Drawcall, error) {
	marker, err := env.FindDrawFrom(name, startEvent)
	if err != nil {
		return nil, err
	}
	if marker.Next == nil {
		return nil, harness.Failf("Nothing follows %s", marker)
	}
	return marker.Next, nil
}

func checkGrid(pipe *replay.PipelineState) error {
	ms := pipe.Multisample
	if ms.RasterSamples != sampleLocationsSamples {
		return harness.Failf("MSAA sample count is %d, not %d", ms.RasterSamples, sampleLocationsSamples)
	}
	sl := ms.SampleLocations
	if sl.GridWidth != 1 {
		return harness.Failf("Sample locations grid width is %d, not 1", sl.GridWidth)
	}
	if sl.GridHeight != 1 {
		return harness.Failf("Sample locations grid height is %d, not 1", sl.GridHeight)
	}
	if len(sl.CustomLocations) != sampleLocationsSamples {
		return harness.Failf("Expected %d custom sample locations, got %d", sampleLocationsSamples, len(sl.CustomLocations))
	}
	return nil
}

func findTexture(ctrl *replay.Controller, id capture.ResourceID) (replay.TextureDescription, bool) {
	for _, t := range ctrl.Textures() {
		if t.ResourceID == id {
			return t, true
		}
	}
	return replay.TextureDescription{}, false
}

// cropTo crops src into dst. A src the replay failed to write is reported as
// a missing file.
func cropTo(env *harness.Env, src, dst string, r image.Rectangle) error {
	err := imgcmp.CropFile(src, dst, r)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: Can't open %s", harness.ErrFileNotFound, env.Sanitise(src))
	}
	return err
}

func degeneratePath(env *harness.Env, i int) string {
	return env.TmpPath(fmt.Sprintf("degenerate%d.png", i))
}

func rotatedPath(env *harness.Env, i int) string {
	return env.TmpPath(fmt.Sprintf("rotated%d.png", i))
}
