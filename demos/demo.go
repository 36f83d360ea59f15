// Package demos holds the demo applications the regression cases capture.
//
// A demo drives a capture.Recorder the way a real application drives the
// graphics API: it creates its resources once in Setup and then records one
// frame per Frame call, ending each with a present.
package demos

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/replaycheck"
	"github.com/gogpu/replaycheck/capture"
)

// Program is the name of the demo executable captures are attributed to.
const Program = "demos_x64"

var (
	// ErrUnknownDemo is returned for a demo name that is not registered.
	ErrUnknownDemo = errors.New("demos: unknown demo")

	// ErrUnknownProgram is returned when asked to run a program other than
	// Program.
	ErrUnknownProgram = errors.New("demos: unknown program")
)

// Info describes a demo.
type Info struct {
	Name        string
	API         string
	Description string
	Width       int
	Height      int
}

// Demo is an application that can be run under capture.
type Demo interface {
	Info() Info

	// Setup records resource creation.
	Setup(rec *capture.Recorder) error

	// Frame records the 1-based frame, including its present.
	Frame(rec *capture.Recorder, frame int) error
}

// Run runs the demo named test for frameCount frames and captures the last
// one. When dir is not empty the capture is also written there and its path
// returned.
func Run(ctx context.Context, program, test string, frameCount int, dir string) (*capture.Capture, string, error) {
	if program != Program {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownProgram, program)
	}
	d, err := New(test)
	if err != nil {
		return nil, "", err
	}
	return run(ctx, program, test, d, frameCount, dir)
}

// RunDemo is Run for a demo instance that need not be registered. The
// capture is attributed to the demo's Info name.
func RunDemo(ctx context.Context, program string, d Demo, frameCount int, dir string) (*capture.Capture, string, error) {
	if program != Program {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownProgram, program)
	}
	return run(ctx, program, d.Info().Name, d, frameCount, dir)
}

func run(ctx context.Context, program, test string, d Demo, frameCount int, dir string) (*capture.Capture, string, error) {
	if frameCount < 1 {
		return nil, "", fmt.Errorf("demos: frame count %d must be positive", frameCount)
	}

	info := d.Info()
	log := replaycheck.Logger()
	log.Info("running demo", "program", program, "test", test, "frames", frameCount)

	rec := capture.NewRecorder(capture.Header{
		API:     info.API,
		Program: program,
		Test:    test,
		Width:   info.Width,
		Height:  info.Height,
	}, frameCount)

	if err := d.Setup(rec); err != nil {
		return nil, "", fmt.Errorf("demos: %s setup: %w", test, err)
	}
	for f := 1; f <= frameCount; f++ {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		if err := d.Frame(rec, f); err != nil {
			return nil, "", fmt.Errorf("demos: %s frame %d: %w", test, f, err)
		}
	}

	c, err := rec.FinishRecording()
	if err != nil {
		return nil, "", fmt.Errorf("demos: %s: %w", test, err)
	}

	var path string
	if dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, "", err
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_frame%d%s", test, frameCount, capture.FileExtension))
		if err := capture.WriteFile(path, c); err != nil {
			return nil, "", err
		}
	}

	log.Info("captured frame", "test", test, "frame", c.Header().Frame,
		"events", c.EventCount(), "id", c.Header().ID, "path", path)
	return c, path, nil
}
