package capture

// CommandType identifies the type of a command.
// Each command type corresponds to one intercepted API call.
type CommandType uint8

const (
	// Initial state commands
	CmdCreateImage        CommandType = iota // Create an image
	CmdCreateShaderModule                    // Create a shader module
	CmdCreateRenderPass                      // Create a render pass
	CmdCreateFramebuffer                     // Create a framebuffer
	CmdCreatePipeline                        // Create a graphics pipeline

	// Frame commands
	CmdBeginRenderPass    // Begin a render pass instance
	CmdEndRenderPass      // End the current render pass instance
	CmdBindPipeline       // Bind a graphics pipeline
	CmdSetSampleLocations // Set dynamic sample locations
	CmdSetViewport        // Set the viewport
	CmdDraw               // Draw vertices
	CmdSetMarker          // Insert a debug label
	CmdPushMarker         // Open a debug label region
	CmdPopMarker          // Close a debug label region
	CmdPresent            // Present an image, ending the frame
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdCreateImage:        "CreateImage",
	CmdCreateShaderModule: "CreateShaderModule",
	CmdCreateRenderPass:   "CreateRenderPass",
	CmdCreateFramebuffer:  "CreateFramebuffer",
	CmdCreatePipeline:     "CreatePipeline",
	CmdBeginRenderPass:    "BeginRenderPass",
	CmdEndRenderPass:      "EndRenderPass",
	CmdBindPipeline:       "BindPipeline",
	CmdSetSampleLocations: "SetSampleLocations",
	CmdSetViewport:        "SetViewport",
	CmdDraw:               "Draw",
	CmdSetMarker:          "SetMarker",
	CmdPushMarker:         "PushMarker",
	CmdPopMarker:          "PopMarker",
	CmdPresent:            "Present",
}

// commandAPINames maps CommandType values to the Vulkan entry point they
// were recorded from.
var commandAPINames = [...]string{
	CmdCreateImage:        "vkCreateImage",
	CmdCreateShaderModule: "vkCreateShaderModule",
	CmdCreateRenderPass:   "vkCreateRenderPass",
	CmdCreateFramebuffer:  "vkCreateFramebuffer",
	CmdCreatePipeline:     "vkCreateGraphicsPipelines",
	CmdBeginRenderPass:    "vkCmdBeginRenderPass",
	CmdEndRenderPass:      "vkCmdEndRenderPass",
	CmdBindPipeline:       "vkCmdBindPipeline",
	CmdSetSampleLocations: "vkCmdSetSampleLocationsEXT",
	CmdSetViewport:        "vkCmdSetViewport",
	CmdDraw:               "vkCmdDraw",
	CmdSetMarker:          "vkCmdInsertDebugUtilsLabelEXT",
	CmdPushMarker:         "vkCmdBeginDebugUtilsLabelEXT",
	CmdPopMarker:          "vkCmdEndDebugUtilsLabelEXT",
	CmdPresent:            "vkQueuePresentKHR",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// APIName returns the name of the API entry point the command was recorded from.
func (c CommandType) APIName() string {
	if int(c) < len(commandAPINames) {
		return commandAPINames[c]
	}
	return "Unknown"
}

// IsInitialState reports whether commands of this type belong to the
// initial state chunk of a capture.
func (c CommandType) IsInitialState() bool {
	return c <= CmdCreatePipeline
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// --------------------------------------------------------------------------
// Reference Types
// --------------------------------------------------------------------------

// ImageRef is a reference to an image in the resource pool.
type ImageRef uint32

// ShaderRef is a reference to a shader module in the resource pool.
type ShaderRef uint32

// RenderPassRef is a reference to a render pass in the resource pool.
type RenderPassRef uint32

// FramebufferRef is a reference to a framebuffer in the resource pool.
type FramebufferRef uint32

// PipelineRef is a reference to a pipeline in the resource pool.
type PipelineRef uint32

// InvalidRef is the sentinel value for an invalid reference.
const InvalidRef = ^uint32(0)

// IsValid returns true if the reference points to a valid image.
func (r ImageRef) IsValid() bool { return uint32(r) != InvalidRef }

// IsValid returns true if the reference points to a valid shader module.
func (r ShaderRef) IsValid() bool { return uint32(r) != InvalidRef }

// IsValid returns true if the reference points to a valid render pass.
func (r RenderPassRef) IsValid() bool { return uint32(r) != InvalidRef }

// IsValid returns true if the reference points to a valid framebuffer.
func (r FramebufferRef) IsValid() bool { return uint32(r) != InvalidRef }

// IsValid returns true if the reference points to a valid pipeline.
func (r PipelineRef) IsValid() bool { return uint32(r) != InvalidRef }

// --------------------------------------------------------------------------
// Initial State Commands
// --------------------------------------------------------------------------

// CreateImageCommand creates an image.
type CreateImageCommand struct {
	Image ImageRef
}

// Type implements Command.
func (CreateImageCommand) Type() CommandType { return CmdCreateImage }

// CreateShaderModuleCommand creates a shader module.
type CreateShaderModuleCommand struct {
	Shader ShaderRef
}

// Type implements Command.
func (CreateShaderModuleCommand) Type() CommandType { return CmdCreateShaderModule }

// CreateRenderPassCommand creates a render pass.
type CreateRenderPassCommand struct {
	Pass RenderPassRef
}

// Type implements Command.
func (CreateRenderPassCommand) Type() CommandType { return CmdCreateRenderPass }

// CreateFramebufferCommand creates a framebuffer.
type CreateFramebufferCommand struct {
	Framebuffer FramebufferRef
}

// Type implements Command.
func (CreateFramebufferCommand) Type() CommandType { return CmdCreateFramebuffer }

// CreatePipelineCommand creates a graphics pipeline.
type CreatePipelineCommand struct {
	Pipeline PipelineRef
}

// Type implements Command.
func (CreatePipelineCommand) Type() CommandType { return CmdCreatePipeline }

// --------------------------------------------------------------------------
// Frame Commands
// --------------------------------------------------------------------------

// BeginRenderPassCommand begins a render pass instance on a framebuffer.
type BeginRenderPassCommand struct {
	Pass        RenderPassRef
	Framebuffer FramebufferRef
}

// Type implements Command.
func (BeginRenderPassCommand) Type() CommandType { return CmdBeginRenderPass }

// EndRenderPassCommand ends the current render pass instance.
type EndRenderPassCommand struct{}

// Type implements Command.
func (EndRenderPassCommand) Type() CommandType { return CmdEndRenderPass }

// BindPipelineCommand binds a graphics pipeline.
type BindPipelineCommand struct {
	Pipeline PipelineRef
}

// Type implements Command.
func (BindPipelineCommand) Type() CommandType { return CmdBindPipeline }

// SetSampleLocationsCommand sets the dynamic sample locations used by
// pipelines created with dynamic sample locations.
type SetSampleLocationsCommand struct {
	Locations SampleLocations
}

// Type implements Command.
func (SetSampleLocationsCommand) Type() CommandType { return CmdSetSampleLocations }

// SetViewportCommand sets the viewport.
type SetViewportCommand struct {
	Viewport Viewport
}

// Type implements Command.
func (SetViewportCommand) Type() CommandType { return CmdSetViewport }

// DrawCommand draws a triangle list.
// The vertex data is captured inline with the draw.
type DrawCommand struct {
	Vertices      []Vertex
	InstanceCount uint32
}

// Type implements Command.
func (DrawCommand) Type() CommandType { return CmdDraw }

// SetMarkerCommand inserts a single debug label.
type SetMarkerCommand struct {
	Label string
}

// Type implements Command.
func (SetMarkerCommand) Type() CommandType { return CmdSetMarker }

// PushMarkerCommand opens a debug label region.
type PushMarkerCommand struct {
	Label string
}

// Type implements Command.
func (PushMarkerCommand) Type() CommandType { return CmdPushMarker }

// PopMarkerCommand closes the innermost debug label region.
type PopMarkerCommand struct{}

// Type implements Command.
func (PopMarkerCommand) Type() CommandType { return CmdPopMarker }

// PresentCommand presents an image and ends the frame.
type PresentCommand struct {
	Image ImageRef
}

// Type implements Command.
func (PresentCommand) Type() CommandType { return CmdPresent }
