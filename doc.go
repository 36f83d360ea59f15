// Package replaycheck verifies pipeline state reconstructed by a graphics
// capture/replay debugger.
//
// # Overview
//
// A check runs a demo application for a number of frames, captures the last
// frame, replays the capture to selected events and asserts on what the
// replay reports: rasterization state, MSAA sample locations and the contents
// of individual samples of multisampled render targets.
//
// # Architecture
//
// The module is organized into:
//   - capture: frame capture model, recorder and on-disk format
//   - replay: replay controller (drawcall tree, pipeline state, texture export)
//   - imgcmp: image loading, cropping and tolerance-based comparison
//   - demos: demo applications that produce captures
//   - harness: test-case registry, runner and failure reporting
//   - cases/vulkan: the regression cases
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/replaycheck/harness"
//	    _ "github.com/gogpu/replaycheck/cases/vulkan"
//	)
//
//	r := harness.NewRunner(harness.WithTempRoot(os.TempDir()))
//	for _, res := range r.Run(ctx, "VK_Sample_Locations") {
//	    fmt.Println(res.Name, res.Status)
//	}
//
// # Logging
//
// By default nothing is logged. Call [SetLogger] to enable output; every
// sub-package shares the configured logger through [Logger].
package replaycheck

// Version is the current version of the module.
const Version = "0.3.0"
