package replay

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/replaycheck/capture"
	"github.com/gogpu/replaycheck/internal/raster"
)

var (
	// ErrUnsupportedFormat is returned when a capture creates an image in a
	// format the software device cannot store.
	ErrUnsupportedFormat = errors.New("replay: unsupported image format")

	// ErrInvalidState is returned when a command is replayed in a state the
	// API does not allow, such as a draw with no pipeline bound.
	ErrInvalidState = errors.New("replay: invalid state for command")
)

// imageState is a replayed image resource.
type imageState struct {
	desc   *capture.ImageDesc
	target *raster.Target
}

// softDevice replays captures on the software rasterizer and tracks the
// state needed to answer pipeline state queries.
type softDevice struct {
	log *slog.Logger

	width, height int

	images       map[capture.ResourceID]*imageState
	shaders      map[capture.ResourceID]*capture.ShaderModule
	renderPasses map[capture.ResourceID]*capture.RenderPassDesc
	framebuffers map[capture.ResourceID]*capture.FramebufferDesc
	pipelines    map[capture.ResourceID]*capture.PipelineDesc

	event    uint32
	pass     *capture.RenderPassDesc
	fb       *capture.FramebufferDesc
	pipeline *capture.PipelineDesc
	viewport capture.Viewport
	dynLocs  *capture.SampleLocations
	draws    int
	present  *capture.ImageDesc
}

func newSoftDevice(log *slog.Logger) *softDevice {
	return &softDevice{log: log}
}

var _ capture.Device = (*softDevice)(nil)
var _ capture.EventObserver = (*softDevice)(nil)

func (d *softDevice) Begin(width, height int) error {
	*d = softDevice{
		log:          d.log,
		width:        width,
		height:       height,
		images:       make(map[capture.ResourceID]*imageState),
		shaders:      make(map[capture.ResourceID]*capture.ShaderModule),
		renderPasses: make(map[capture.ResourceID]*capture.RenderPassDesc),
		framebuffers: make(map[capture.ResourceID]*capture.FramebufferDesc),
		pipelines:    make(map[capture.ResourceID]*capture.PipelineDesc),
	}
	return nil
}

func (d *softDevice) End() error {
	d.log.Debug("replay finished", "event", d.event, "draws", d.draws)
	return nil
}

func (d *softDevice) SetEvent(eventID uint32, _ capture.Command) {
	d.event = eventID
}

func formatName(f gputypes.TextureFormat) string {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm:
		return "R8G8B8A8_UNORM"
	case gputypes.TextureFormatBGRA8Unorm:
		return "B8G8R8A8_UNORM"
	default:
		return fmt.Sprintf("Format(%d)", uint32(f))
	}
}

func (d *softDevice) CreateImage(desc *capture.ImageDesc) error {
	switch desc.Format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, formatName(desc.Format))
	}
	samples := max(int(desc.Samples), 1)
	t, err := raster.NewTarget(desc.Width(), desc.Height(), samples)
	if err != nil {
		return err
	}
	d.images[desc.ID] = &imageState{desc: desc, target: t}
	return nil
}

func (d *softDevice) CreateShaderModule(m *capture.ShaderModule) error {
	if len(m.SPIRV) > 0 && !capture.IsSPIRV(m.SPIRV) {
		return fmt.Errorf("replay: shader %s: code is not SPIR-V", m.Name)
	}
	d.shaders[m.ID] = m
	return nil
}

func (d *softDevice) CreateRenderPass(desc *capture.RenderPassDesc) error {
	d.renderPasses[desc.ID] = desc
	return nil
}

func (d *softDevice) CreateFramebuffer(desc *capture.FramebufferDesc) error {
	for _, id := range desc.Attachments {
		if _, ok := d.images[id]; !ok {
			return fmt.Errorf("%w: framebuffer %s attachment %s", ErrNoSuchResource, desc.Name, id)
		}
	}
	d.framebuffers[desc.ID] = desc
	return nil
}

func (d *softDevice) CreatePipeline(desc *capture.PipelineDesc) error {
	for _, st := range []capture.ShaderStage{desc.Vertex, desc.Fragment} {
		if st.Module == capture.NullResource {
			continue
		}
		if _, ok := d.shaders[st.Module]; !ok {
			return fmt.Errorf("%w: pipeline %s shader %s", ErrNoSuchResource, desc.Name, st.Module)
		}
	}
	d.pipelines[desc.ID] = desc
	return nil
}

func (d *softDevice) BeginRenderPass(pass *capture.RenderPassDesc, fb *capture.FramebufferDesc) error {
	if d.pass != nil {
		return fmt.Errorf("%w: render pass %s already active", ErrInvalidState, d.pass.Name)
	}
	d.pass = pass
	d.fb = fb

	if pass.LoadOp != gputypes.LoadOpClear {
		return nil
	}
	c := raster.RGBA{
		R: float64(pass.ClearColor.R),
		G: float64(pass.ClearColor.G),
		B: float64(pass.ClearColor.B),
		A: float64(pass.ClearColor.A),
	}
	for _, idx := range pass.ColorAttachments {
		img, err := d.attachment(idx)
		if err != nil {
			return err
		}
		img.target.Clear(c)
	}
	return nil
}

func (d *softDevice) attachment(idx uint32) (*imageState, error) {
	if int(idx) >= len(d.fb.Attachments) {
		return nil, fmt.Errorf("%w: colour attachment %d of framebuffer %s", ErrNoSuchResource, idx, d.fb.Name)
	}
	id := d.fb.Attachments[idx]
	img, ok := d.images[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchResource, id)
	}
	return img, nil
}

func (d *softDevice) EndRenderPass() error {
	if d.pass == nil {
		return fmt.Errorf("%w: no active render pass", ErrInvalidState)
	}
	d.pass = nil
	d.fb = nil
	return nil
}

func (d *softDevice) BindPipeline(desc *capture.PipelineDesc) error {
	d.pipeline = desc
	return nil
}

func (d *softDevice) SetSampleLocations(loc capture.SampleLocations) error {
	l := loc.Clone()
	d.dynLocs = &l
	return nil
}

func (d *softDevice) SetViewport(vp capture.Viewport) error {
	d.viewport = vp
	return nil
}

// sampleLocations returns the custom sample locations in effect, or false
// when the bound pipeline uses the standard pattern.
func (d *softDevice) sampleLocations() (capture.SampleLocations, bool) {
	p := d.pipeline
	if p == nil || !p.SampleLocationsEnable {
		return capture.SampleLocations{}, false
	}
	if p.DynamicSampleLocations {
		if d.dynLocs == nil {
			return capture.SampleLocations{}, false
		}
		return *d.dynLocs, true
	}
	return p.SampleLocations, true
}

func (d *softDevice) rasterLocations(samples int) (raster.Locations, error) {
	custom, ok := d.sampleLocations()
	if !ok {
		if d.pipeline != nil && d.pipeline.SampleLocationsEnable {
			return raster.Locations{}, fmt.Errorf("%w: dynamic sample locations never set", ErrInvalidState)
		}
		return raster.Standard(samples)
	}
	pts := make([]raster.Point, len(custom.Locations))
	for i, l := range custom.Locations {
		pts[i] = raster.Point{X: l.X, Y: l.Y}
	}
	return raster.NewLocations(int(custom.GridWidth), int(custom.GridHeight), samples, pts)
}

func (d *softDevice) Draw(vertices []capture.Vertex, instances uint32) error {
	if d.pass == nil {
		return fmt.Errorf("%w: draw outside render pass", ErrInvalidState)
	}
	if d.pipeline == nil {
		return fmt.Errorf("%w: draw with no pipeline bound", ErrInvalidState)
	}
	p := d.pipeline
	samples := p.RasterSamples()

	locs, err := d.rasterLocations(samples)
	if err != nil {
		return err
	}
	mask := uint32(p.Multisample.Mask)
	if mask == 0 {
		mask = 0xFFFFFFFF
	}
	st := raster.DrawState{
		Viewport: raster.Viewport{
			X: d.viewport.X, Y: d.viewport.Y,
			Width: d.viewport.Width, Height: d.viewport.Height,
		},
		Locations:     locs,
		SampleShading: p.SampleShading && p.MinSampleShading > 0,
		SampleMask:    mask,
	}

	verts := make([]raster.Vertex, len(vertices))
	for i, v := range vertices {
		verts[i] = raster.Vertex{
			Position: v.Position,
			Color: raster.RGBA{
				R: float64(v.Color[0]), G: float64(v.Color[1]),
				B: float64(v.Color[2]), A: float64(v.Color[3]),
			},
		}
	}

	for _, idx := range d.pass.ColorAttachments {
		img, err := d.attachment(idx)
		if err != nil {
			return err
		}
		if img.target.Samples() != samples {
			return fmt.Errorf("%w: pipeline %s rasterizes %d samples into %d-sample image %s",
				ErrInvalidState, p.Name, samples, img.target.Samples(), img.desc.Name)
		}
		// Instances share vertex data and write identical values.
		if instances == 0 {
			continue
		}
		if err := raster.DrawTriangles(img.target, st, verts); err != nil {
			return err
		}
	}
	d.draws++
	return nil
}

func (d *softDevice) Present(img *capture.ImageDesc) error {
	if d.pass != nil {
		return fmt.Errorf("%w: present inside render pass", ErrInvalidState)
	}
	d.present = img
	return nil
}

// snapshot captures the pipeline state at the current event.
func (d *softDevice) snapshot(shaders map[capture.ResourceID]*shaderInfo) *PipelineState {
	ps := &PipelineState{EventID: d.event, Viewport: d.viewport}

	if p := d.pipeline; p != nil {
		ps.Pipeline = p.ID
		ps.PipelineName = p.Name
		ps.Primitive = p.Primitive
		ps.Multisample = Multisample{
			// #nosec G115 -- sample counts are small powers of two
			RasterSamples:    uint32(p.RasterSamples()),
			SampleShading:    p.SampleShading,
			MinSampleShading: p.MinSampleShading,
			SampleMask:       uint32(p.Multisample.Mask),
		}
		if loc, ok := d.sampleLocations(); ok {
			ps.Multisample.SampleLocations = SampleLocations{
				GridWidth:       loc.GridWidth,
				GridHeight:      loc.GridHeight,
				CustomLocations: toFloatVectors(loc.Locations),
			}
		}
		ps.VertexShader = d.shaderStage(p.Vertex, shaders)
		ps.FragmentShader = d.shaderStage(p.Fragment, shaders)
	}

	if d.pass != nil {
		ps.CurrentPass.Renderpass = RenderPass{
			ResourceID:       d.pass.ID,
			Name:             d.pass.Name,
			ColorAttachments: append([]uint32(nil), d.pass.ColorAttachments...),
		}
		fb := Framebuffer{ResourceID: d.fb.ID, Name: d.fb.Name, Width: d.fb.Width, Height: d.fb.Height}
		for _, id := range d.fb.Attachments {
			a := Attachment{ImageResourceID: id}
			if img, ok := d.images[id]; ok {
				a.ImageName = img.desc.Name
			}
			fb.Attachments = append(fb.Attachments, a)
		}
		ps.CurrentPass.Framebuffer = fb
	}
	return ps
}

func (d *softDevice) shaderStage(st capture.ShaderStage, shaders map[capture.ResourceID]*shaderInfo) Shader {
	m, ok := d.shaders[st.Module]
	if !ok {
		return Shader{}
	}
	return shaders[st.Module].stage(m.ID, m.Name, st.EntryPoint)
}
