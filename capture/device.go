package capture

// Device is the interface that replay targets implement.
// A Device receives resolved commands in recording order and manages its own
// state (bound pipeline, current render pass, dynamic state).
//
// # Implementation Contract
//
// Each device must:
//  1. Accept Begin before any other call and End after the last one
//  2. Handle every method, even if it is a no-op for the device
//  3. Reject commands that are invalid for its current state with an error
type Device interface {
	// Lifecycle methods

	// Begin initializes the device for a capture with the given
	// swapchain dimensions.
	Begin(width, height int) error

	// End finalizes playback.
	End() error

	// Initial state methods

	CreateImage(d *ImageDesc) error
	CreateShaderModule(m *ShaderModule) error
	CreateRenderPass(d *RenderPassDesc) error
	CreateFramebuffer(d *FramebufferDesc) error
	CreatePipeline(d *PipelineDesc) error

	// Frame methods

	// BeginRenderPass starts a render pass instance, performing the pass's
	// load operation on the framebuffer's colour attachments.
	BeginRenderPass(pass *RenderPassDesc, fb *FramebufferDesc) error

	// EndRenderPass ends the current render pass instance.
	EndRenderPass() error

	// BindPipeline binds a graphics pipeline for subsequent draws.
	BindPipeline(d *PipelineDesc) error

	// SetSampleLocations sets dynamic sample locations.
	SetSampleLocations(loc SampleLocations) error

	// SetViewport sets the viewport.
	SetViewport(vp Viewport) error

	// Draw rasterizes a triangle list with the current state.
	Draw(vertices []Vertex, instances uint32) error

	// Present presents an image.
	Present(img *ImageDesc) error
}

// EventObserver is implemented by devices that track the current event.
// SetEvent is called before each frame command is executed, including debug
// markers, which have no Device method of their own.
type EventObserver interface {
	SetEvent(eventID uint32, cmd Command)
}
