package replay

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/replaycheck/capture"
)

const triangleWGSL = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec4<f32>, @location(1) col: vec4<f32>) -> VertexOutput {
    var output: VertexOutput;
    output.position = pos;
    output.color = col;
    return output;
}

@fragment
fn fs_main(@location(0) color: vec4<f32>) -> @location(0) vec4<f32> {
    return color;
}
`

var (
	degenerateLocations = capture.SampleLocations{
		GridWidth: 1, GridHeight: 1,
		Locations: []capture.Vec2{{X: 0.25, Y: 0.25}, {X: 0.25, Y: 0.25}, {X: 0.75, Y: 0.75}, {X: 0.75, Y: 0.75}},
	}
	rotatedLocations = capture.SampleLocations{
		GridWidth: 1, GridHeight: 1,
		Locations: []capture.Vec2{{X: 0.5625, Y: 0.1875}, {X: 0.8125, Y: 0.5625}, {X: 0.4375, Y: 0.8125}, {X: 0.1875, Y: 0.4375}},
	}
	sceneTriangle = []capture.Vertex{
		{Position: [4]float32{-0.8, 0.8, 0, 1}, Color: [4]float32{1, 0, 0, 1}},
		{Position: [4]float32{0.0, -0.7, 0, 1}, Color: [4]float32{0, 1, 0, 1}},
		{Position: [4]float32{0.75, 0.65, 0, 1}, Color: [4]float32{0, 0, 1, 1}},
	}
)

const (
	sceneWidth  = 32
	sceneHeight = 16
)

// Event IDs of the scene recorded by recordScene.
const (
	evBeginPass       = 1
	evBindPipeline    = 2
	evPushScene       = 3
	evDegenerate      = 4
	evDegenerateDraw  = 7
	evPopScene        = 8
	evRotated         = 9
	evRotatedDraw     = 12
	evEndPass         = 13
	evPresent         = 14
	sceneEventCount   = 14
	sceneImageName    = "msaa target"
	scenePipelineName = "sample locations"
)

// recordScene records a 4x MSAA frame that draws the same triangle twice:
// with degenerate sample locations into the left half and with a rotated
// grid into the right half.
func recordScene(t *testing.T) *capture.Capture {
	t.Helper()
	rec := capture.NewRecorder(capture.Header{
		API: "Vulkan", Program: "unit", Test: "scene",
		Width: sceneWidth, Height: sceneHeight,
	}, 1)

	shader, err := rec.CreateShaderModule("triangle", triangleWGSL)
	if err != nil {
		t.Fatalf("CreateShaderModule: %v", err)
	}
	img := rec.CreateImage(capture.ImageDesc{
		Name:    sceneImageName,
		Size:    gputypes.Extent3D{Width: sceneWidth, Height: sceneHeight, DepthOrArrayLayers: 1},
		Format:  gputypes.TextureFormatRGBA8Unorm,
		Samples: 4,
		Usage:   gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	pass := rec.CreateRenderPass(capture.RenderPassDesc{
		Name:             "pass",
		ColorAttachments: []uint32{0},
		LoadOp:           gputypes.LoadOpClear,
		StoreOp:          gputypes.StoreOpStore,
		ClearColor:       gputypes.Color{R: 0.2, G: 0.2, B: 0.2, A: 1},
	})
	fb := rec.CreateFramebuffer("fb", pass, img)
	pipe := rec.CreatePipeline(capture.PipelineDesc{
		Name:     scenePipelineName,
		Vertex:   rec.Stage(shader, "vs_main"),
		Fragment: rec.Stage(shader, "fs_main"),
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample:            gputypes.MultisampleState{Count: 4, Mask: 0xFFFFFFFF},
		SampleShading:          true,
		MinSampleShading:       1,
		SampleLocationsEnable:  true,
		DynamicSampleLocations: true,
	})

	half := float32(sceneWidth / 2)
	rec.BeginRenderPass(pass, fb)
	rec.BindPipeline(pipe)
	rec.PushMarker("Scene")
	rec.SetMarker("Degenerate")
	rec.SetViewport(capture.Viewport{Width: half, Height: sceneHeight, MaxDepth: 1})
	rec.SetSampleLocations(degenerateLocations)
	rec.Draw(sceneTriangle...)
	rec.PopMarker()
	rec.SetMarker("Rotated")
	rec.SetViewport(capture.Viewport{X: half, Width: half, Height: sceneHeight, MaxDepth: 1})
	rec.SetSampleLocations(rotatedLocations)
	rec.Draw(sceneTriangle...)
	rec.EndRenderPass()
	rec.Present(img)

	c, err := rec.FinishRecording()
	if err != nil {
		t.Fatalf("FinishRecording: %v", err)
	}
	if c.EventCount() != sceneEventCount {
		t.Fatalf("scene has %d events, want %d", c.EventCount(), sceneEventCount)
	}
	return c
}
