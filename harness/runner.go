package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gogpu/replaycheck"
	"github.com/gogpu/replaycheck/capture"
	"github.com/gogpu/replaycheck/imgcmp"
	"github.com/gogpu/replaycheck/replay"
)

// TestCase is a replay check. Capture produces the capture under test and
// Check inspects it through the Env's replay controller.
type TestCase interface {
	Capture(ctx context.Context, env *Env) (*capture.Capture, error)
	Check(ctx context.Context, env *Env) error
}

// Status is the outcome of a test case.
type Status int

const (
	// StatusPassed means Check returned nil.
	StatusPassed Status = iota

	// StatusFailed means a check did not hold, or an expected file was
	// missing.
	StatusFailed

	// StatusError means the case could not run: capture, replay or an
	// unexpected error.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is the outcome of one test case.
type Result struct {
	Name   string
	Status Status
	Err    error

	// Images lists a failure's images, followed by a difference image of
	// the first two when both could be read.
	Images    []string
	Successes []string

	// TmpDir is empty when the directory was removed after a pass.
	TmpDir      string
	CapturePath string
	Duration    time.Duration
}

// Runner runs registered test cases.
type Runner struct {
	tempRoot   string
	keepTemp   bool
	captureDir string
	log        *slog.Logger
	replayOpts []replay.Option
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTempRoot sets the directory per-case temporary directories are
// created in. It defaults to os.TempDir.
func WithTempRoot(dir string) RunnerOption {
	return func(r *Runner) { r.tempRoot = dir }
}

// WithKeepTemp keeps temporary directories of passing cases. Directories of
// failing cases are always kept.
func WithKeepTemp(keep bool) RunnerOption {
	return func(r *Runner) { r.keepTemp = keep }
}

// WithCaptureDir writes captures to dir instead of the case's temporary
// directory.
func WithCaptureDir(dir string) RunnerOption {
	return func(r *Runner) { r.captureDir = dir }
}

// WithLogger sets the runner's logger. It defaults to replaycheck.Logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

// WithReplayOptions passes options to every replay.Open.
func WithReplayOptions(opts ...replay.Option) RunnerOption {
	return func(r *Runner) { r.replayOpts = append(r.replayOpts, opts...) }
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = replaycheck.Logger()
	}
	return r
}

// Run runs every registered case whose name contains one of filters, or all
// cases when filters is empty. Cases run sequentially in name order.
func (r *Runner) Run(ctx context.Context, filters ...string) []Result {
	var results []Result
	for _, e := range Tests() {
		if !matches(e.Info.Name, filters) {
			continue
		}
		if ctx.Err() != nil {
			results = append(results, Result{Name: e.Info.Name, Status: StatusError, Err: ctx.Err()})
			continue
		}
		results = append(results, r.RunCase(ctx, e.Info.Name, e.Case))
	}
	return results
}

func matches(name string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if strings.Contains(name, f) {
			return true
		}
	}
	return false
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// RunCase runs a single test case, registered or not.
func (r *Runner) RunCase(ctx context.Context, name string, tc TestCase) (res Result) {
	start := time.Now()
	res.Name = name
	log := r.log.With("test", name)

	tmp, err := os.MkdirTemp(r.tempRoot, unsafeChars.ReplaceAllString(name, "_")+"-")
	if err != nil {
		res.Status, res.Err = StatusError, fmt.Errorf("harness: temp dir: %w", err)
		return res
	}
	res.TmpDir = tmp

	env := &Env{name: name, tmpDir: tmp, captureDir: r.captureDir, log: log}

	defer func() {
		res.Duration = time.Since(start)
		res.Successes = env.successes
		res.CapturePath = env.capturePath
		if res.Status == StatusPassed && !r.keepTemp {
			if err := os.RemoveAll(tmp); err != nil {
				log.Warn("removing temp dir", "dir", tmp, "err", err)
			} else {
				res.TmpDir = ""
			}
		}
		r.report(log, &res)
	}()

	log.Info("running", "tmp", tmp)
	err = r.runCase(ctx, env, tc)
	res.Status, res.Err = classify(err)
	if f, ok := AsFailure(err); ok {
		res.Images = append([]string(nil), f.Images...)
		if diff := writeDiff(log, tmp, f.Images); diff != "" {
			res.Images = append(res.Images, diff)
		}
	}
	return res
}

// writeDiff saves the difference of the first two images of a failure into
// dir and returns its path. It returns "" when there is no pair to compare
// or the images cannot be read.
func writeDiff(log *slog.Logger, dir string, images []string) string {
	if len(images) < 2 {
		return ""
	}
	a, b := images[0], images[1]
	name := fmt.Sprintf("diff_%s_%s.png", stem(a), stem(b))
	dst := filepath.Join(dir, name)
	delta, err := imgcmp.WriteDiff(a, b, dst)
	if err != nil {
		log.Warn("writing diff image", "a", filepath.Base(a), "b", filepath.Base(b), "err", err)
		return ""
	}
	log.Debug("wrote diff image", "path", dst, "max_delta", delta)
	return dst
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (r *Runner) runCase(ctx context.Context, env *Env, tc TestCase) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("harness: panic: %v\n%s", p, debug.Stack())
		}
	}()

	c, err := tc.Capture(ctx, env)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if c == nil {
		return errors.New("capture: no capture produced")
	}

	opts := append([]replay.Option{replay.WithLogger(env.log)}, r.replayOpts...)
	ctrl, err := replay.Open(ctx, c, opts...)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	defer ctrl.Shutdown()
	env.controller = ctrl
	defer func() { env.controller = nil }()

	return tc.Check(ctx, env)
}

func classify(err error) (Status, error) {
	switch {
	case err == nil:
		return StatusPassed, nil
	case errors.Is(err, ErrFileNotFound):
		return StatusFailed, err
	default:
		if _, ok := AsFailure(err); ok {
			return StatusFailed, err
		}
		return StatusError, err
	}
}

func (r *Runner) report(log *slog.Logger, res *Result) {
	switch res.Status {
	case StatusPassed:
		log.Log(context.Background(), replaycheck.LevelSuccess, "test passed", "duration", res.Duration)
	default:
		attrs := []any{"status", res.Status, "err", res.Err, "duration", res.Duration}
		if len(res.Images) > 0 {
			imgs := make([]string, len(res.Images))
			for i, p := range res.Images {
				imgs[i] = filepath.Base(p)
			}
			attrs = append(attrs, "images", imgs)
		}
		if res.TmpDir != "" {
			attrs = append(attrs, "tmp", res.TmpDir)
		}
		log.Error("test failed", attrs...)
	}
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Status != StatusPassed {
			return true
		}
	}
	return false
}
