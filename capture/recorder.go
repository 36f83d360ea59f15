package capture

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotInRenderPass is recorded when a command that needs a render
	// pass instance is issued outside one.
	ErrNotInRenderPass = errors.New("capture: command outside render pass")

	// ErrNestedRenderPass is recorded when a render pass is begun inside
	// another.
	ErrNestedRenderPass = errors.New("capture: nested render pass")

	// ErrMarkerUnderflow is recorded when PopMarker has no matching PushMarker.
	ErrMarkerUnderflow = errors.New("capture: marker pop without push")

	// ErrUnterminatedFrame is recorded when a frame is presented with an open
	// render pass or marker region.
	ErrUnterminatedFrame = errors.New("capture: frame ended with open scope")

	// ErrFrameNotCaptured is returned by FinishRecording when the application
	// never reached the frame selected for capture.
	ErrFrameNotCaptured = errors.New("capture: frame not reached")
)

// firstResourceID is the ID given to the first resource of a recording.
// IDs start above small integers so they are never confused with indices.
const firstResourceID ResourceID = 1000

// Recorder intercepts API calls and turns them into commands.
// Resource creation calls go into the initial state; calls between two
// Present calls form a frame, and only the frame selected for capture is kept.
//
// Recording methods do not return errors. The first misuse is remembered
// and reported by FinishRecording, like bufio.Writer.
//
// The Recorder is not safe for concurrent use.
type Recorder struct {
	header       Header
	captureFrame int
	frame        int

	resources *ResourcePool
	initial   []Command
	current   []Command
	captured  []Command
	done      bool

	nextID      ResourceID
	inPass      bool
	markerDepth int
	err         error
}

// NewRecorder creates a Recorder that captures the given 1-based frame.
// Header fields describing the application (API, Program, Test, Width,
// Height) are kept; ID, Frame and Recorded are filled in by FinishRecording.
func NewRecorder(h Header, captureFrame int) *Recorder {
	if captureFrame < 1 {
		captureFrame = 1
	}
	return &Recorder{
		header:       h,
		captureFrame: captureFrame,
		frame:        1,
		resources:    NewResourcePool(),
		initial:      make([]Command, 0, 32),
		current:      make([]Command, 0, 64),
		nextID:       firstResourceID,
	}
}

// FinishRecording returns an immutable Capture of the selected frame.
// After calling FinishRecording, the Recorder should not be used again.
func (r *Recorder) FinishRecording() (*Capture, error) {
	if r.err != nil {
		return nil, r.err
	}
	if !r.done {
		return nil, fmt.Errorf("%w: frame %d, application presented %d", ErrFrameNotCaptured, r.captureFrame, r.frame-1)
	}
	h := r.header
	h.ID = uuid.NewString()
	h.Frame = r.captureFrame
	h.Recorded = time.Now().UTC().Truncate(time.Second)
	return &Capture{
		header:    h,
		initial:   r.initial,
		frame:     r.captured,
		resources: r.resources,
	}, nil
}

// Frame returns the 1-based number of the frame currently being recorded.
func (r *Recorder) Frame() int {
	return r.frame
}

// Err returns the first recording error, if any.
func (r *Recorder) Err() error {
	return r.err
}

// Resources returns the resource pool.
func (r *Recorder) Resources() *ResourcePool {
	return r.resources
}

func (r *Recorder) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Recorder) allocID() ResourceID {
	id := r.nextID
	r.nextID++
	return id
}

func (r *Recorder) record(cmd Command) {
	if cmd.Type().IsInitialState() {
		r.initial = append(r.initial, cmd)
		return
	}
	r.current = append(r.current, cmd)
}

// --------------------------------------------------------------------------
// Resource creation
// --------------------------------------------------------------------------

// CreateImage records image creation and returns its reference.
// The ID field of d is assigned by the recorder.
func (r *Recorder) CreateImage(d ImageDesc) ImageRef {
	d.ID = r.allocID()
	if d.Samples == 0 {
		d.Samples = 1
	}
	ref := r.resources.AddImage(d)
	r.record(CreateImageCommand{Image: ref})
	return ref
}

// CreateShaderModule compiles WGSL source to SPIR-V and records the module.
func (r *Recorder) CreateShaderModule(name, source string) (ShaderRef, error) {
	words, err := CompileShader(source)
	if err != nil {
		return ShaderRef(InvalidRef), fmt.Errorf("%s: %w", name, err)
	}
	ref := r.resources.AddShader(ShaderModule{
		ID:     r.allocID(),
		Name:   name,
		Source: source,
		SPIRV:  words,
	})
	r.record(CreateShaderModuleCommand{Shader: ref})
	return ref, nil
}

// CreateRenderPass records render pass creation and returns its reference.
func (r *Recorder) CreateRenderPass(d RenderPassDesc) RenderPassRef {
	d.ID = r.allocID()
	ref := r.resources.AddRenderPass(d)
	r.record(CreateRenderPassCommand{Pass: ref})
	return ref
}

// CreateFramebuffer records framebuffer creation. The framebuffer takes its
// dimensions from the first attachment.
func (r *Recorder) CreateFramebuffer(name string, pass RenderPassRef, attachments ...ImageRef) FramebufferRef {
	rp := r.resources.GetRenderPass(pass)
	if rp == nil {
		r.fail(fmt.Errorf("%w: render pass %d", ErrInvalidRef, pass))
		return FramebufferRef(InvalidRef)
	}
	d := FramebufferDesc{
		ID:         r.allocID(),
		Name:       name,
		RenderPass: rp.ID,
	}
	for i, ref := range attachments {
		img := r.resources.GetImage(ref)
		if img == nil {
			r.fail(fmt.Errorf("%w: image %d", ErrInvalidRef, ref))
			return FramebufferRef(InvalidRef)
		}
		if i == 0 {
			d.Width, d.Height = img.Size.Width, img.Size.Height
		}
		d.Attachments = append(d.Attachments, img.ID)
	}
	ref := r.resources.AddFramebuffer(d)
	r.record(CreateFramebufferCommand{Framebuffer: ref})
	return ref
}

// Stage returns the ShaderStage for an entry point of a recorded module.
func (r *Recorder) Stage(ref ShaderRef, entryPoint string) ShaderStage {
	m := r.resources.GetShader(ref)
	if m == nil {
		r.fail(fmt.Errorf("%w: shader %d", ErrInvalidRef, ref))
		return ShaderStage{}
	}
	return ShaderStage{Module: m.ID, EntryPoint: entryPoint}
}

// CreatePipeline records graphics pipeline creation and returns its reference.
func (r *Recorder) CreatePipeline(d PipelineDesc) PipelineRef {
	d.ID = r.allocID()
	ref := r.resources.AddPipeline(d)
	r.record(CreatePipelineCommand{Pipeline: ref})
	return ref
}

// --------------------------------------------------------------------------
// Frame commands
// --------------------------------------------------------------------------

// BeginRenderPass records the start of a render pass instance.
func (r *Recorder) BeginRenderPass(pass RenderPassRef, fb FramebufferRef) {
	if r.inPass {
		r.fail(ErrNestedRenderPass)
	}
	r.inPass = true
	r.record(BeginRenderPassCommand{Pass: pass, Framebuffer: fb})
}

// EndRenderPass records the end of the current render pass instance.
func (r *Recorder) EndRenderPass() {
	if !r.inPass {
		r.fail(fmt.Errorf("%w: EndRenderPass", ErrNotInRenderPass))
	}
	r.inPass = false
	r.record(EndRenderPassCommand{})
}

// BindPipeline records a pipeline bind.
func (r *Recorder) BindPipeline(p PipelineRef) {
	r.record(BindPipelineCommand{Pipeline: p})
}

// SetSampleLocations records dynamic sample locations.
func (r *Recorder) SetSampleLocations(loc SampleLocations) {
	r.record(SetSampleLocationsCommand{Locations: loc.Clone()})
}

// SetViewport records a viewport change.
func (r *Recorder) SetViewport(vp Viewport) {
	r.record(SetViewportCommand{Viewport: vp})
}

// Draw records a single-instance draw of a triangle list.
func (r *Recorder) Draw(vertices ...Vertex) {
	if !r.inPass {
		r.fail(fmt.Errorf("%w: Draw", ErrNotInRenderPass))
	}
	r.record(DrawCommand{
		Vertices:      append([]Vertex(nil), vertices...),
		InstanceCount: 1,
	})
}

// SetMarker records a single debug label.
func (r *Recorder) SetMarker(label string) {
	r.record(SetMarkerCommand{Label: label})
}

// PushMarker opens a debug label region.
func (r *Recorder) PushMarker(label string) {
	r.markerDepth++
	r.record(PushMarkerCommand{Label: label})
}

// PopMarker closes the innermost debug label region.
func (r *Recorder) PopMarker() {
	if r.markerDepth == 0 {
		r.fail(ErrMarkerUnderflow)
		return
	}
	r.markerDepth--
	r.record(PopMarkerCommand{})
}

// Present records a present of img and ends the current frame.
func (r *Recorder) Present(img ImageRef) {
	if r.inPass || r.markerDepth != 0 {
		r.fail(fmt.Errorf("%w: frame %d", ErrUnterminatedFrame, r.frame))
	}
	r.record(PresentCommand{Image: img})

	if r.frame == r.captureFrame {
		r.captured = r.current
		r.current = make([]Command, 0, cap(r.captured))
		r.done = true
	} else {
		r.current = r.current[:0]
	}
	r.frame++
}
