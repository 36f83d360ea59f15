package replay

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/replaycheck/capture"
)

// FloatVector is a four component vector. Sample locations use X and Y.
type FloatVector struct {
	X, Y, Z, W float32
}

func (v FloatVector) String() string {
	return fmt.Sprintf("(%g, %g)", v.X, v.Y)
}

// SampleLocations is the sample location state in effect for a draw.
// When custom locations are disabled the grid is 0x0 and CustomLocations
// is empty.
type SampleLocations struct {
	GridWidth       uint32
	GridHeight      uint32
	CustomLocations []FloatVector
}

// Multisample is the multisample state of the bound pipeline.
type Multisample struct {
	RasterSamples    uint32
	SampleShading    bool
	MinSampleShading float32
	SampleMask       uint32
	SampleLocations  SampleLocations
}

// Attachment is one image bound to a framebuffer.
type Attachment struct {
	ImageResourceID capture.ResourceID
	ImageName       string
}

// RenderPass describes the render pass of the current pass instance.
type RenderPass struct {
	ResourceID       capture.ResourceID
	Name             string
	ColorAttachments []uint32
}

// Framebuffer describes the framebuffer of the current pass instance.
type Framebuffer struct {
	ResourceID  capture.ResourceID
	Name        string
	Width       uint32
	Height      uint32
	Attachments []Attachment
}

// CurrentPass is the render pass instance open at the current event.
// It is zero outside a render pass.
type CurrentPass struct {
	Renderpass  RenderPass
	Framebuffer Framebuffer
}

// ColorAttachmentImage returns the image bound to colour attachment i.
func (p CurrentPass) ColorAttachmentImage(i int) (capture.ResourceID, bool) {
	if i < 0 || i >= len(p.Renderpass.ColorAttachments) {
		return capture.NullResource, false
	}
	idx := int(p.Renderpass.ColorAttachments[i])
	if idx >= len(p.Framebuffer.Attachments) {
		return capture.NullResource, false
	}
	return p.Framebuffer.Attachments[idx].ImageResourceID, true
}

// EntryPoint is a reflected shader entry point.
type EntryPoint struct {
	Name  string
	Stage string
}

// Shader is a pipeline shader stage with reflection data.
type Shader struct {
	ResourceID  capture.ResourceID
	Name        string
	EntryPoint  string
	EntryPoints []EntryPoint
}

// PipelineState is a read-only snapshot of the state at the current event.
// Slices are copies; mutating them does not affect the controller.
type PipelineState struct {
	EventID      uint32
	Pipeline     capture.ResourceID
	PipelineName string

	Multisample    Multisample
	CurrentPass    CurrentPass
	Viewport       capture.Viewport
	VertexShader   Shader
	FragmentShader Shader
	Primitive      gputypes.PrimitiveState
}

func toFloatVectors(locs []capture.Vec2) []FloatVector {
	out := make([]FloatVector, len(locs))
	for i, l := range locs {
		out[i] = FloatVector{X: l.X, Y: l.Y}
	}
	return out
}
