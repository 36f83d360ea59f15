// Package capture records a frame of graphics API calls so that it can be
// replayed and inspected later.
//
// # Architecture
//
// The package follows a Command Pattern with three main components:
//
//   - Recorder: intercepts API calls made by an application
//   - Capture: immutable recording of one frame plus its initial state
//   - Device: receives commands during playback
//
// Resource creation calls (images, shader modules, render passes,
// framebuffers, pipelines) form the initial state of a capture and are always
// replayed. Commands recorded between two Present calls form a frame; only the
// frame selected for capture is kept.
//
// # Events
//
// Frame commands are numbered with event IDs starting at 1. Playback to an
// event ID executes that event and everything before it.
//
//	rec := capture.NewRecorder(capture.Header{API: "Vulkan", Width: 128, Height: 64}, 5)
//	// ... application renders frames through rec ...
//	c, err := rec.FinishRecording()
//	if err != nil {
//	    return err
//	}
//	err = c.Playback(dev, c.EventCount())
//
// # File Format
//
// Captures are stored as an 8 byte magic, a little-endian version and a zstd
// compressed CBOR document. See [Encode] and [Decode].
//
// # Thread Safety
//
// Recorder is NOT safe for concurrent use. Capture objects are immutable
// after FinishRecording and can be played back from multiple goroutines.
package capture
