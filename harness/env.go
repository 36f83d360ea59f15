package harness

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gogpu/replaycheck"
	"github.com/gogpu/replaycheck/capture"
	"github.com/gogpu/replaycheck/demos"
	"github.com/gogpu/replaycheck/replay"
)

// Env is the per-case environment handed to a TestCase. The Controller is
// only available during Check.
type Env struct {
	name       string
	tmpDir     string
	captureDir string
	log        *slog.Logger

	controller  *replay.Controller
	capturePath string
	successes   []string
}

// Name returns the name the case was registered under.
func (e *Env) Name() string { return e.name }

// TmpDir returns the case's private temporary directory.
func (e *Env) TmpDir() string { return e.tmpDir }

// TmpPath returns name joined onto the case's temporary directory.
func (e *Env) TmpPath(name string) string {
	return filepath.Join(e.tmpDir, name)
}

// Sanitise rewrites path for inclusion in a failure message.
func (e *Env) Sanitise(path string) string {
	return SanitiseFilename(path, e.tmpDir)
}

// Controller returns the replay controller of the capture under test.
func (e *Env) Controller() *replay.Controller { return e.controller }

// Logger returns the case's logger.
func (e *Env) Logger() *slog.Logger { return e.log }

// Logf logs an informational message for the case.
func (e *Env) Logf(format string, args ...any) {
	e.log.Info(fmt.Sprintf(format, args...))
}

// Success records a passed checkpoint.
func (e *Env) Success(msg string) {
	e.successes = append(e.successes, msg)
	e.log.Log(context.Background(), replaycheck.LevelSuccess, msg)
}

// RunAndCapture runs a demo program for frameCount frames and returns the
// capture of the last frame. The capture file is written to the runner's
// capture directory, or to the case's temporary directory if none is set.
func (e *Env) RunAndCapture(ctx context.Context, program, test string, frameCount int) (*capture.Capture, error) {
	c, path, err := demos.Run(ctx, program, test, frameCount, e.captureDirOrTmp())
	if err != nil {
		return nil, err
	}
	e.capturePath = path
	return c, nil
}

// CaptureDemo is RunAndCapture for a demo instance, such as one built with
// non-default options.
func (e *Env) CaptureDemo(ctx context.Context, d demos.Demo, frameCount int) (*capture.Capture, error) {
	c, path, err := demos.RunDemo(ctx, demos.Program, d, frameCount, e.captureDirOrTmp())
	if err != nil {
		return nil, err
	}
	e.capturePath = path
	return c, nil
}

func (e *Env) captureDirOrTmp() string {
	if e.captureDir != "" {
		return e.captureDir
	}
	return e.tmpDir
}

// FindDraw returns the first drawcall in pre-order whose name contains
// name.
func (e *Env) FindDraw(name string) (*replay.Drawcall, error) {
	return e.FindDrawFrom(name, 0)
}

// FindDrawFrom is FindDraw restricted to drawcalls at or after startEvent.
func (e *Env) FindDrawFrom(name string, startEvent uint32) (*replay.Drawcall, error) {
	if e.controller == nil {
		return nil, fmt.Errorf("harness: %s has no replay open", e.name)
	}
	for _, d := range e.controller.FlatDrawcalls() {
		if d.EventID >= startEvent && strings.Contains(d.Name, name) {
			return d, nil
		}
	}
	return nil, Failf("Couldn't find drawcall matching %q", name)
}

// LastDraw returns the final drawcall of the frame, descending into the
// children of the last root.
func (e *Env) LastDraw() (*replay.Drawcall, error) {
	if e.controller == nil {
		return nil, fmt.Errorf("harness: %s has no replay open", e.name)
	}
	roots := e.controller.Drawcalls()
	if len(roots) == 0 {
		return nil, Failf("Capture has no drawcalls")
	}
	d := roots[len(roots)-1]
	for len(d.Children) > 0 {
		d = d.Children[len(d.Children)-1]
	}
	return d, nil
}
