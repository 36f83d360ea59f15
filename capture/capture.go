package capture

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEventOutOfRange is returned when playing back past the last event.
	ErrEventOutOfRange = errors.New("capture: event out of range")

	// ErrInvalidRef is returned when a command references a resource that
	// does not exist in the pool.
	ErrInvalidRef = errors.New("capture: invalid resource reference")
)

// Header describes where a capture came from.
type Header struct {
	// ID uniquely identifies the capture.
	ID string

	// API is the graphics API the application used.
	API string

	// Program is the application executable name.
	Program string

	// Test is the demo or test the application ran.
	Test string

	// Frame is the 1-based number of the captured frame.
	Frame int

	// Width and Height are the swapchain dimensions.
	Width  int
	Height int

	// Recorded is the time the capture was finished, truncated to seconds.
	Recorded time.Time
}

// Capture is an immutable recording of one frame and the resources it uses.
// It can be replayed to any Device implementation.
type Capture struct {
	header    Header
	initial   []Command
	frame     []Command
	resources *ResourcePool
}

// Header returns the capture header.
func (c *Capture) Header() Header {
	return c.header
}

// InitialState returns the resource creation commands.
func (c *Capture) InitialState() []Command {
	return c.initial
}

// Commands returns the frame commands. The command at index i has event ID i+1.
func (c *Capture) Commands() []Command {
	return c.frame
}

// Resources returns the resource pool.
func (c *Capture) Resources() *ResourcePool {
	return c.resources
}

// EventCount returns the number of events in the frame.
func (c *Capture) EventCount() uint32 {
	// #nosec G115 -- frame size is bounded by available memory, well under uint32 max
	return uint32(len(c.frame))
}

// Event returns the command with the given event ID.
func (c *Capture) Event(eventID uint32) (Command, bool) {
	if eventID == 0 || eventID > c.EventCount() {
		return nil, false
	}
	return c.frame[eventID-1], true
}

// Playback replays the initial state and every frame command up to and
// including until onto dev. An until of 0 replays only the initial state.
func (c *Capture) Playback(dev Device, until uint32) error {
	if until > c.EventCount() {
		return fmt.Errorf("%w: %d > %d", ErrEventOutOfRange, until, c.EventCount())
	}

	if err := dev.Begin(c.header.Width, c.header.Height); err != nil {
		return err
	}

	for _, cmd := range c.initial {
		if err := c.execute(dev, cmd); err != nil {
			return fmt.Errorf("capture: initial state %s: %w", cmd.Type().APIName(), err)
		}
	}

	obs, _ := dev.(EventObserver)
	for i, cmd := range c.frame[:until] {
		// #nosec G115 -- bounded by EventCount
		eventID := uint32(i + 1)
		if obs != nil {
			obs.SetEvent(eventID, cmd)
		}
		if err := c.execute(dev, cmd); err != nil {
			return fmt.Errorf("capture: event %d %s: %w", eventID, cmd.Type().APIName(), err)
		}
	}

	return dev.End()
}

// execute resolves the resources a command references and dispatches it.
func (c *Capture) execute(dev Device, cmd Command) error {
	r := c.resources
	switch cmd := cmd.(type) {
	case CreateImageCommand:
		d := r.GetImage(cmd.Image)
		if d == nil {
			return fmt.Errorf("%w: image %d", ErrInvalidRef, cmd.Image)
		}
		return dev.CreateImage(d)
	case CreateShaderModuleCommand:
		m := r.GetShader(cmd.Shader)
		if m == nil {
			return fmt.Errorf("%w: shader %d", ErrInvalidRef, cmd.Shader)
		}
		return dev.CreateShaderModule(m)
	case CreateRenderPassCommand:
		d := r.GetRenderPass(cmd.Pass)
		if d == nil {
			return fmt.Errorf("%w: render pass %d", ErrInvalidRef, cmd.Pass)
		}
		return dev.CreateRenderPass(d)
	case CreateFramebufferCommand:
		d := r.GetFramebuffer(cmd.Framebuffer)
		if d == nil {
			return fmt.Errorf("%w: framebuffer %d", ErrInvalidRef, cmd.Framebuffer)
		}
		return dev.CreateFramebuffer(d)
	case CreatePipelineCommand:
		d := r.GetPipeline(cmd.Pipeline)
		if d == nil {
			return fmt.Errorf("%w: pipeline %d", ErrInvalidRef, cmd.Pipeline)
		}
		return dev.CreatePipeline(d)
	case BeginRenderPassCommand:
		pass := r.GetRenderPass(cmd.Pass)
		fb := r.GetFramebuffer(cmd.Framebuffer)
		if pass == nil || fb == nil {
			return fmt.Errorf("%w: render pass %d, framebuffer %d", ErrInvalidRef, cmd.Pass, cmd.Framebuffer)
		}
		return dev.BeginRenderPass(pass, fb)
	case EndRenderPassCommand:
		return dev.EndRenderPass()
	case BindPipelineCommand:
		d := r.GetPipeline(cmd.Pipeline)
		if d == nil {
			return fmt.Errorf("%w: pipeline %d", ErrInvalidRef, cmd.Pipeline)
		}
		return dev.BindPipeline(d)
	case SetSampleLocationsCommand:
		return dev.SetSampleLocations(cmd.Locations)
	case SetViewportCommand:
		return dev.SetViewport(cmd.Viewport)
	case DrawCommand:
		return dev.Draw(cmd.Vertices, cmd.InstanceCount)
	case PresentCommand:
		d := r.GetImage(cmd.Image)
		if d == nil {
			return fmt.Errorf("%w: image %d", ErrInvalidRef, cmd.Image)
		}
		return dev.Present(d)
	case SetMarkerCommand, PushMarkerCommand, PopMarkerCommand:
		// Debug labels only annotate the command stream.
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}
