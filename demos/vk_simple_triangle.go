package demos

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/replaycheck/capture"
)

func init() {
	Register("VK_Simple_Triangle", func() Demo { return &simpleTriangle{} })
}

// SimpleTriangleColor is the colour of every vertex of the simple triangle.
var SimpleTriangleColor = [4]float32{0, 1, 0, 1}

type simpleTriangle struct {
	image    capture.ImageRef
	pass     capture.RenderPassRef
	fb       capture.FramebufferRef
	pipeline capture.PipelineRef
}

func (*simpleTriangle) Info() Info {
	return Info{
		Name:        "VK_Simple_Triangle",
		API:         "Vulkan",
		Description: "Draws a single-sampled triangle.",
		Width:       64,
		Height:      64,
	}
}

func (d *simpleTriangle) Setup(rec *capture.Recorder) error {
	info := d.Info()
	shader, err := rec.CreateShaderModule("color triangle", colorTriangleWGSL)
	if err != nil {
		return err
	}
	d.image = rec.CreateImage(capture.ImageDesc{
		Name: "backbuffer",
		Size: gputypes.Extent3D{
			Width:              uint32(info.Width),
			Height:             uint32(info.Height),
			DepthOrArrayLayers: 1,
		},
		Format:  gputypes.TextureFormatBGRA8Unorm,
		Samples: 1,
		Usage:   gputypes.TextureUsageRenderAttachment,
	})
	d.pass = rec.CreateRenderPass(capture.RenderPassDesc{
		Name:             "backbuffer pass",
		ColorAttachments: []uint32{0},
		LoadOp:           gputypes.LoadOpClear,
		StoreOp:          gputypes.StoreOpStore,
		ClearColor:       gputypes.Color{R: 0.2, G: 0.2, B: 0.2, A: 1},
	})
	d.fb = rec.CreateFramebuffer("backbuffer framebuffer", d.pass, d.image)
	d.pipeline = rec.CreatePipeline(capture.PipelineDesc{
		Name:     "triangle pipeline",
		Vertex:   rec.Stage(shader, "vs_main"),
		Fragment: rec.Stage(shader, "fs_main"),
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	return rec.Err()
}

func (d *simpleTriangle) Frame(rec *capture.Recorder, _ int) error {
	info := d.Info()
	c := SimpleTriangleColor

	rec.BeginRenderPass(d.pass, d.fb)
	rec.BindPipeline(d.pipeline)
	rec.SetViewport(capture.Viewport{Width: float32(info.Width), Height: float32(info.Height), MaxDepth: 1})
	rec.SetMarker("Triangle")
	rec.Draw(
		capture.Vertex{Position: [4]float32{-0.5, 0.5, 0, 1}, Color: c},
		capture.Vertex{Position: [4]float32{0, -0.5, 0, 1}, Color: c},
		capture.Vertex{Position: [4]float32{0.5, 0.5, 0, 1}, Color: c},
	)
	rec.EndRenderPass()
	rec.Present(d.image)
	return rec.Err()
}
