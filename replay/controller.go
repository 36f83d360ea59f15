package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/replaycheck/capture"
)

var (
	// ErrNoSuchEvent is returned when an event ID is not part of the frame.
	ErrNoSuchEvent = errors.New("replay: no such event")

	// ErrNoSuchResource is returned when a resource ID is not in the capture.
	ErrNoSuchResource = errors.New("replay: no such resource")

	// ErrSampleOutOfRange is returned when saving a sample the texture does
	// not have.
	ErrSampleOutOfRange = errors.New("replay: sample index out of range")

	// ErrUnsupportedFileType is returned for an unknown TextureSave.DestType.
	ErrUnsupportedFileType = errors.New("replay: unsupported file type")

	// ErrShutdown is returned after Shutdown by the methods that replay or
	// read replayed state: SetFrameEvent, PipelineState and SaveTexture.
	ErrShutdown = errors.New("replay: controller is shut down")
)

// Controller replays a capture and answers state queries at a chosen event.
//
// A new Controller is positioned at the last event of the frame.
// Methods are serialized by an internal mutex, so a Controller may be shared,
// but queries always observe the event most recently selected by any caller.
// Capture, Drawcalls, FlatDrawcalls and Textures describe the capture itself
// rather than replayed state; they keep answering after Shutdown.
type Controller struct {
	mu      sync.Mutex
	capture *capture.Capture
	log     *slog.Logger

	roots   []*Drawcall
	flat    []*Drawcall
	shaders map[capture.ResourceID]*shaderInfo

	dev     *softDevice
	current uint32
	closed  bool
}

// Open prepares c for replay and replays it to its last event.
func Open(ctx context.Context, c *capture.Capture, opts ...Option) (*Controller, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log()

	ctrl := &Controller{
		capture: c,
		log:     log,
		shaders: make(map[capture.ResourceID]*shaderInfo),
		dev:     newSoftDevice(log),
	}
	ctrl.roots = buildDrawcalls(c)
	ctrl.flat = flatten(ctrl.roots)

	for _, m := range c.Resources().Shaders() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := reflectShader(m, o.validateShaders, log)
		if err != nil {
			return nil, err
		}
		ctrl.shaders[m.ID] = info
	}

	h := c.Header()
	log.Info("opened capture",
		"id", h.ID, "api", h.API, "program", h.Program, "test", h.Test,
		"frame", h.Frame, "events", c.EventCount(), "drawcalls", len(ctrl.flat))

	if err := ctrl.replayTo(ctx, c.EventCount()); err != nil {
		return nil, err
	}
	return ctrl, nil
}

func (c *Controller) replayTo(ctx context.Context, eventID uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.capture.Playback(c.dev, eventID); err != nil {
		return fmt.Errorf("replay: to event %d: %w", eventID, err)
	}
	c.current = eventID
	c.log.Debug("replayed", "event", eventID)
	return nil
}

// Capture returns the capture being replayed.
func (c *Controller) Capture() *capture.Capture {
	return c.capture
}

// Drawcalls returns the root drawcalls of the frame.
func (c *Controller) Drawcalls() []*Drawcall {
	return c.roots
}

// FlatDrawcalls returns every drawcall in pre-order.
func (c *Controller) FlatDrawcalls() []*Drawcall {
	return c.flat
}

// CurrentEvent returns the event the controller is positioned at.
func (c *Controller) CurrentEvent() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SetFrameEvent replays the frame up to and including eventID. When the
// controller is already at eventID the replay is skipped unless force is set.
func (c *Controller) SetFrameEvent(ctx context.Context, eventID uint32, force bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrShutdown
	}
	if eventID == 0 || eventID > c.capture.EventCount() {
		return fmt.Errorf("%w: %d (frame has %d events)", ErrNoSuchEvent, eventID, c.capture.EventCount())
	}
	if eventID == c.current && !force {
		return nil
	}
	return c.replayTo(ctx, eventID)
}

// PipelineState returns a snapshot of the state at the current event.
func (c *Controller) PipelineState() (*PipelineState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrShutdown
	}
	return c.dev.snapshot(c.shaders), nil
}

// Textures describes every image in the capture.
func (c *Controller) Textures() []TextureDescription {
	imgs := c.capture.Resources().Images()
	out := make([]TextureDescription, 0, len(imgs))
	for _, d := range imgs {
		out = append(out, TextureDescription{
			ResourceID: d.ID,
			Name:       d.Name,
			Width:      uint32(d.Size.Width),
			Height:     uint32(d.Size.Height),
			Depth:      max(uint32(d.Size.DepthOrArrayLayers), 1),
			MSSamp:     max(d.Samples, 1),
			Format:     formatName(d.Format),
		})
	}
	return out
}

// SaveTexture writes the contents of an image at the current event to path.
func (c *Controller) SaveTexture(ts TextureSave, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrShutdown
	}
	if ts.DestType < FilePNG || ts.DestType > FileJPG {
		return fmt.Errorf("%w: %s", ErrUnsupportedFileType, ts.DestType)
	}
	img, ok := c.dev.images[ts.ResourceID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchResource, ts.ResourceID)
	}
	pm, err := ts.selectPixels(img.target)
	if err != nil {
		return err
	}
	if err := writeImageFile(path, pm.ToImage(), ts); err != nil {
		return fmt.Errorf("replay: save %s: %w", ts.ResourceID, err)
	}
	c.log.Debug("saved texture", "resource", ts.ResourceID, "sample", ts.Sample.SampleIndex,
		"type", ts.DestType, "path", path)
	return nil
}

// Shutdown releases the replay. Later calls return ErrShutdown.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.dev = newSoftDevice(c.log)
	c.log.Debug("controller shut down", "capture", c.capture.Header().ID)
}
