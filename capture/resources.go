package capture

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// ResourceID identifies a resource for the lifetime of a capture.
// The zero value is the null resource.
type ResourceID uint64

// NullResource is the ResourceID of no resource.
const NullResource ResourceID = 0

// String returns the ResourceID in the form used by debugger UIs.
func (id ResourceID) String() string {
	return fmt.Sprintf("ResourceId::%d", uint64(id))
}

// Vec2 is a two component vector, used for sub-pixel sample offsets.
type Vec2 struct {
	X, Y float32
}

// String formats the vector as "(x, y)".
func (v Vec2) String() string {
	return fmt.Sprintf("(%g, %g)", v.X, v.Y)
}

// SampleLocations describes custom sample positions over a pixel grid.
//
// Locations holds GridWidth*GridHeight*samples entries. The location used
// for sample s of pixel (x, y) is
//
//	Locations[((y%GridHeight)*GridWidth + x%GridWidth)*samples + s]
//
// Offsets are in pixel units relative to the pixel's top-left corner and lie
// in [0, 1).
type SampleLocations struct {
	GridWidth  uint32
	GridHeight uint32
	Locations  []Vec2
}

// PerPixel returns the number of sample locations per pixel, or 0 if the
// grid is empty.
func (s SampleLocations) PerPixel() int {
	cells := int(s.GridWidth) * int(s.GridHeight)
	if cells == 0 {
		return 0
	}
	return len(s.Locations) / cells
}

// Clone returns a deep copy of s.
func (s SampleLocations) Clone() SampleLocations {
	out := s
	out.Locations = append([]Vec2(nil), s.Locations...)
	return out
}

// Viewport maps normalized device coordinates to framebuffer pixels.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// Vertex is a clip-space position with a colour.
type Vertex struct {
	Position [4]float32
	Color    [4]float32
}

// ImageDesc describes an image resource.
type ImageDesc struct {
	ID      ResourceID
	Name    string
	Size    gputypes.Extent3D
	Format  gputypes.TextureFormat
	Samples uint32
	Usage   gputypes.TextureUsage
}

// Width returns the image width in pixels.
func (d *ImageDesc) Width() int { return int(d.Size.Width) }

// Height returns the image height in pixels.
func (d *ImageDesc) Height() int { return int(d.Size.Height) }

// ShaderModule is a shader module as the application created it.
// Source is the WGSL the module was compiled from; SPIRV is the code the
// application handed to the driver.
type ShaderModule struct {
	ID     ResourceID
	Name   string
	Source string
	SPIRV  []uint32
}

// RenderPassDesc describes a render pass with colour attachments only.
// ColorAttachments are indices into the framebuffer attachment list.
type RenderPassDesc struct {
	ID               ResourceID
	Name             string
	ColorAttachments []uint32
	LoadOp           gputypes.LoadOp
	StoreOp          gputypes.StoreOp
	ClearColor       gputypes.Color
}

// FramebufferDesc binds images to the attachments of a render pass.
type FramebufferDesc struct {
	ID          ResourceID
	Name        string
	RenderPass  ResourceID
	Attachments []ResourceID
	Width       uint32
	Height      uint32
}

// ShaderStage names a shader module and the entry point a pipeline uses.
type ShaderStage struct {
	Module     ResourceID
	EntryPoint string
}

// PipelineDesc describes a graphics pipeline.
//
// When SampleLocationsEnable is set, rasterization uses custom sample
// locations: SampleLocations when DynamicSampleLocations is false, otherwise
// the locations set with SetSampleLocations at draw time.
type PipelineDesc struct {
	ID                     ResourceID
	Name                   string
	Vertex                 ShaderStage
	Fragment               ShaderStage
	Primitive              gputypes.PrimitiveState
	Multisample            gputypes.MultisampleState
	SampleShading          bool
	MinSampleShading       float32
	SampleLocationsEnable  bool
	DynamicSampleLocations bool
	SampleLocations        SampleLocations
}

// RasterSamples returns the rasterization sample count, treating 0 as 1.
func (d *PipelineDesc) RasterSamples() int {
	if n := int(d.Multisample.Count); n > 0 {
		return n
	}
	return 1
}
