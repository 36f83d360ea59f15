package capture

// ResourcePool stores resources referenced by capture commands.
// Resources are stored in slices indexed by their reference types.
// Each Add operation copies mutable slices to ensure immutability.
//
// ResourcePool is not safe for concurrent use. If concurrent access is needed,
// external synchronization must be provided.
type ResourcePool struct {
	images       []*ImageDesc
	shaders      []*ShaderModule
	passes       []*RenderPassDesc
	framebuffers []*FramebufferDesc
	pipelines    []*PipelineDesc
}

// NewResourcePool creates an empty resource pool with pre-allocated capacity.
func NewResourcePool() *ResourcePool {
	return &ResourcePool{
		images:       make([]*ImageDesc, 0, 8),
		shaders:      make([]*ShaderModule, 0, 8),
		passes:       make([]*RenderPassDesc, 0, 4),
		framebuffers: make([]*FramebufferDesc, 0, 4),
		pipelines:    make([]*PipelineDesc, 0, 8),
	}
}

// AddImage adds an image description to the pool and returns its reference.
func (p *ResourcePool) AddImage(d ImageDesc) ImageRef {
	p.images = append(p.images, &d)
	// #nosec G115 -- pool size is bounded by available memory, well under uint32 max
	return ImageRef(uint32(len(p.images) - 1))
}

// GetImage returns the image for the given reference.
// Returns nil if the reference is invalid.
func (p *ResourcePool) GetImage(ref ImageRef) *ImageDesc {
	if int(ref) >= len(p.images) {
		return nil
	}
	return p.images[ref]
}

// ImageCount returns the number of images in the pool.
func (p *ResourcePool) ImageCount() int {
	return len(p.images)
}

// AddShader adds a shader module to the pool and returns its reference.
func (p *ResourcePool) AddShader(m ShaderModule) ShaderRef {
	m.SPIRV = append([]uint32(nil), m.SPIRV...)
	p.shaders = append(p.shaders, &m)
	// #nosec G115 -- pool size is bounded by available memory, well under uint32 max
	return ShaderRef(uint32(len(p.shaders) - 1))
}

// GetShader returns the shader module for the given reference.
// Returns nil if the reference is invalid.
func (p *ResourcePool) GetShader(ref ShaderRef) *ShaderModule {
	if int(ref) >= len(p.shaders) {
		return nil
	}
	return p.shaders[ref]
}

// ShaderCount returns the number of shader modules in the pool.
func (p *ResourcePool) ShaderCount() int {
	return len(p.shaders)
}

// AddRenderPass adds a render pass to the pool and returns its reference.
func (p *ResourcePool) AddRenderPass(d RenderPassDesc) RenderPassRef {
	d.ColorAttachments = append([]uint32(nil), d.ColorAttachments...)
	p.passes = append(p.passes, &d)
	// #nosec G115 -- pool size is bounded by available memory, well under uint32 max
	return RenderPassRef(uint32(len(p.passes) - 1))
}

// GetRenderPass returns the render pass for the given reference.
// Returns nil if the reference is invalid.
func (p *ResourcePool) GetRenderPass(ref RenderPassRef) *RenderPassDesc {
	if int(ref) >= len(p.passes) {
		return nil
	}
	return p.passes[ref]
}

// RenderPassCount returns the number of render passes in the pool.
func (p *ResourcePool) RenderPassCount() int {
	return len(p.passes)
}

// AddFramebuffer adds a framebuffer to the pool and returns its reference.
func (p *ResourcePool) AddFramebuffer(d FramebufferDesc) FramebufferRef {
	d.Attachments = append([]ResourceID(nil), d.Attachments...)
	p.framebuffers = append(p.framebuffers, &d)
	// #nosec G115 -- pool size is bounded by available memory, well under uint32 max
	return FramebufferRef(uint32(len(p.framebuffers) - 1))
}

// GetFramebuffer returns the framebuffer for the given reference.
// Returns nil if the reference is invalid.
func (p *ResourcePool) GetFramebuffer(ref FramebufferRef) *FramebufferDesc {
	if int(ref) >= len(p.framebuffers) {
		return nil
	}
	return p.framebuffers[ref]
}

// FramebufferCount returns the number of framebuffers in the pool.
func (p *ResourcePool) FramebufferCount() int {
	return len(p.framebuffers)
}

// AddPipeline adds a pipeline to the pool and returns its reference.
func (p *ResourcePool) AddPipeline(d PipelineDesc) PipelineRef {
	d.SampleLocations = d.SampleLocations.Clone()
	p.pipelines = append(p.pipelines, &d)
	// #nosec G115 -- pool size is bounded by available memory, well under uint32 max
	return PipelineRef(uint32(len(p.pipelines) - 1))
}

// GetPipeline returns the pipeline for the given reference.
// Returns nil if the reference is invalid.
func (p *ResourcePool) GetPipeline(ref PipelineRef) *PipelineDesc {
	if int(ref) >= len(p.pipelines) {
		return nil
	}
	return p.pipelines[ref]
}

// PipelineCount returns the number of pipelines in the pool.
func (p *ResourcePool) PipelineCount() int {
	return len(p.pipelines)
}

// Images returns all image descriptions in creation order.
func (p *ResourcePool) Images() []*ImageDesc {
	return p.images
}

// Shaders returns all shader modules in creation order.
func (p *ResourcePool) Shaders() []*ShaderModule {
	return p.shaders
}

// ImageByID returns the image with the given ResourceID, or nil.
func (p *ResourcePool) ImageByID(id ResourceID) *ImageDesc {
	for _, img := range p.images {
		if img.ID == id {
			return img
		}
	}
	return nil
}

// Clear removes all resources from the pool.
// This does not release the underlying memory; use NewResourcePool for that.
func (p *ResourcePool) Clear() {
	p.images = p.images[:0]
	p.shaders = p.shaders[:0]
	p.passes = p.passes[:0]
	p.framebuffers = p.framebuffers[:0]
	p.pipelines = p.pipelines[:0]
}
