package demos

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/replaycheck/capture"
)

func init() {
	Register("VK_Sample_Locations", func() Demo { return NewSampleLocations(SampleLocationsOptions{}) })
}

// The left half of the target is drawn with two pairs of coincident
// samples, the right half with a rotated grid.
var (
	degenerateLocations = capture.SampleLocations{
		GridWidth:  1,
		GridHeight: 1,
		Locations: []capture.Vec2{
			{X: 0.25, Y: 0.25}, {X: 0.25, Y: 0.25},
			{X: 0.75, Y: 0.75}, {X: 0.75, Y: 0.75},
		},
	}
	rotatedLocations = capture.SampleLocations{
		GridWidth:  1,
		GridHeight: 1,
		Locations: []capture.Vec2{
			{X: 0.5625, Y: 0.1875}, {X: 0.8125, Y: 0.5625},
			{X: 0.4375, Y: 0.8125}, {X: 0.1875, Y: 0.4375},
		},
	}
)

// DegenerateLocations returns the pattern drawn on the left half: samples 0
// and 1 share a position, as do samples 2 and 3.
func DegenerateLocations() capture.SampleLocations { return degenerateLocations.Clone() }

// RotatedLocations returns the rotated-grid pattern drawn on the right half.
func RotatedLocations() capture.SampleLocations { return rotatedLocations.Clone() }

// sampleLocationsTriangle has no axis-aligned edges, so every sample
// position change moves its coverage.
var sampleLocationsTriangle = []capture.Vertex{
	{Position: [4]float32{-0.8, 0.8, 0, 1}, Color: [4]float32{1, 0, 0, 1}},
	{Position: [4]float32{0.0, -0.7, 0, 1}, Color: [4]float32{0, 1, 0, 1}},
	{Position: [4]float32{0.75, 0.65, 0, 1}, Color: [4]float32{0, 0, 1, 1}},
}

// SampleLocationsOptions overrides parts of the VK_Sample_Locations demo.
// Zero fields keep the demo's defaults.
type SampleLocationsOptions struct {
	// Samples is the sample count of the target and the pipeline.
	Samples uint32

	Degenerate capture.SampleLocations
	Rotated    capture.SampleLocations

	// Triangle replaces the vertices drawn on both halves.
	Triangle []capture.Vertex
}

// NewSampleLocations returns the VK_Sample_Locations demo configured by
// opts. Every slice in opts is copied.
func NewSampleLocations(opts SampleLocationsOptions) Demo {
	d := &sampleLocations{
		samples:    4,
		degenerate: degenerateLocations.Clone(),
		rotated:    rotatedLocations.Clone(),
		triangle:   sampleLocationsTriangle,
	}
	if opts.Samples != 0 {
		d.samples = opts.Samples
	}
	if opts.Degenerate.Locations != nil {
		d.degenerate = opts.Degenerate.Clone()
	}
	if opts.Rotated.Locations != nil {
		d.rotated = opts.Rotated.Clone()
	}
	if opts.Triangle != nil {
		d.triangle = append([]capture.Vertex(nil), opts.Triangle...)
	}
	return d
}

type sampleLocations struct {
	samples    uint32
	degenerate capture.SampleLocations
	rotated    capture.SampleLocations
	triangle   []capture.Vertex

	image    capture.ImageRef
	pass     capture.RenderPassRef
	fb       capture.FramebufferRef
	pipeline capture.PipelineRef
}

func (*sampleLocations) Info() Info {
	return Info{
		Name:        "VK_Sample_Locations",
		API:         "Vulkan",
		Description: "Draws a triangle with degenerate and rotated-grid programmable sample locations.",
		Width:       128,
		Height:      64,
	}
}

func (d *sampleLocations) Setup(rec *capture.Recorder) error {
	info := d.Info()
	shader, err := rec.CreateShaderModule("color triangle", colorTriangleWGSL)
	if err != nil {
		return err
	}

	d.image = rec.CreateImage(capture.ImageDesc{
		Name: "MSAA colour target",
		Size: gputypes.Extent3D{
			Width:              uint32(info.Width),
			Height:             uint32(info.Height),
			DepthOrArrayLayers: 1,
		},
		Format:  gputypes.TextureFormatRGBA8Unorm,
		Samples: d.samples,
		Usage:   gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	d.pass = rec.CreateRenderPass(capture.RenderPassDesc{
		Name:             "MSAA pass",
		ColorAttachments: []uint32{0},
		LoadOp:           gputypes.LoadOpClear,
		StoreOp:          gputypes.StoreOpStore,
		ClearColor:       gputypes.Color{R: 0.2, G: 0.2, B: 0.2, A: 1},
	})
	d.fb = rec.CreateFramebuffer("MSAA framebuffer", d.pass, d.image)
	d.pipeline = rec.CreatePipeline(capture.PipelineDesc{
		Name:     "sample locations pipeline",
		Vertex:   rec.Stage(shader, "vs_main"),
		Fragment: rec.Stage(shader, "fs_main"),
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample:            gputypes.MultisampleState{Count: d.samples, Mask: 0xFFFFFFFF},
		SampleShading:          true,
		MinSampleShading:       1,
		SampleLocationsEnable:  true,
		DynamicSampleLocations: true,
	})
	return rec.Err()
}

func (d *sampleLocations) Frame(rec *capture.Recorder, _ int) error {
	info := d.Info()
	half := float32(info.Width) / 2
	h := float32(info.Height)

	rec.BeginRenderPass(d.pass, d.fb)
	rec.BindPipeline(d.pipeline)

	rec.SetMarker("Degenerate")
	rec.SetViewport(capture.Viewport{X: 0, Y: 0, Width: half, Height: h, MaxDepth: 1})
	rec.SetSampleLocations(d.degenerate)
	rec.Draw(d.triangle...)

	rec.SetMarker("Rotated")
	rec.SetViewport(capture.Viewport{X: half, Y: 0, Width: half, Height: h, MaxDepth: 1})
	rec.SetSampleLocations(d.rotated)
	rec.Draw(d.triangle...)

	rec.EndRenderPass()
	rec.Present(d.image)
	return rec.Err()
}
