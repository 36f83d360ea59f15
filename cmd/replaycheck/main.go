// Command replaycheck captures the demo programs, replays the captures and
// runs the registered checks against them.
//
// Usage:
//
//	replaycheck [-config run.jsonc] [-run VK_Sample] [-tmp dir] [-keep] [-v]
//	replaycheck -list
//	replaycheck -inspect VK_Sample_Locations_frame5.rcap
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/replaycheck"
	"github.com/gogpu/replaycheck/capture"
	_ "github.com/gogpu/replaycheck/cases/vulkan"
	"github.com/gogpu/replaycheck/config"
	"github.com/gogpu/replaycheck/harness"
	"github.com/gogpu/replaycheck/replay"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("replaycheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		list    = fs.Bool("list", false, "list the registered checks and exit")
		filter  = fs.String("run", "", "comma separated name substrings of the checks to run")
		cfgPath = fs.String("config", "", "run configuration file (JSON with comments)")
		tmp     = fs.String("tmp", "", "directory for per-check temporary directories")
		keep    = fs.Bool("keep", false, "keep temporary directories of passing checks")
		verbose = fs.Bool("v", false, "log debug output")
		inspect = fs.String("inspect", "", "print the drawcalls and textures of a capture file and exit")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := &config.Config{}
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
	}
	applyFlags(fs, cfg, *filter, *tmp, *keep, *verbose)

	p := message.NewPrinter(language.English)
	if *list {
		for _, e := range harness.Tests() {
			p.Fprintf(stdout, "%-24s %s\n", e.Info.Name, e.Info.Description)
		}
		return 0
	}

	if *inspect != "" {
		if err := inspectCapture(ctx, p, stdout, *inspect); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	level, err := cfg.Level()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaycheck.LevelName,
	}))
	replaycheck.SetLogger(log)

	if timeout, _ := cfg.TimeoutDuration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	r := harness.NewRunner(
		harness.WithTempRoot(cfg.TempDir),
		harness.WithKeepTemp(cfg.KeepTemp),
		harness.WithCaptureDir(cfg.CaptureDir),
		harness.WithLogger(log),
	)
	results := r.Run(ctx, cfg.Tests...)
	summarize(p, stdout, results)

	if len(results) == 0 || harness.Failed(results) {
		return 1
	}
	return 0
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(fs *flag.FlagSet, cfg *config.Config, filter, tmp string, keep, verbose bool) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "run":
			cfg.Tests = nil
			for _, s := range strings.Split(filter, ",") {
				if s = strings.TrimSpace(s); s != "" {
					cfg.Tests = append(cfg.Tests, s)
				}
			}
		case "tmp":
			cfg.TempDir = tmp
		case "keep":
			cfg.KeepTemp = keep
		case "v":
			if verbose {
				cfg.LogLevel = "debug"
			}
		}
	})
}

// inspectCapture prints the header, drawcall tree and textures of the
// capture file at path.
func inspectCapture(ctx context.Context, p *message.Printer, w io.Writer, path string) error {
	c, err := capture.ReadFile(path)
	if err != nil {
		return err
	}
	ctrl, err := replay.Open(ctx, c, replay.WithLogger(replaycheck.Logger()))
	if err != nil {
		return err
	}
	defer ctrl.Shutdown()

	h := c.Header()
	p.Fprintf(w, "%s %s/%s frame %d, %dx%d, %d events\n", h.API, h.Program, h.Test, h.Frame, h.Width, h.Height, c.EventCount())
	for _, d := range ctrl.FlatDrawcalls() {
		depth := 0
		for parent := d.Parent; parent != nil; parent = parent.Parent {
			depth++
		}
		p.Fprintf(w, "%s%v [%v]\n", strings.Repeat("  ", depth), d, d.Flags)
	}
	for _, tex := range ctrl.Textures() {
		p.Fprintf(w, "texture %v %q %dx%d %s x%d\n", tex.ResourceID, tex.Name, tex.Width, tex.Height, tex.Format, tex.MSSamp)
	}
	return nil
}

func summarize(p *message.Printer, w io.Writer, results []harness.Result) {
	var passed int
	for _, res := range results {
		p.Fprintf(w, "%-6s %-24s %v\n", strings.ToUpper(res.Status.String()), res.Name, res.Duration.Round(time.Millisecond))
		if res.Status == harness.StatusPassed {
			passed++
			continue
		}
		p.Fprintf(w, "       %v\n", res.Err)
		if res.TmpDir != "" {
			p.Fprintf(w, "       kept %s\n", res.TmpDir)
		}
	}
	p.Fprintf(w, "%d of %d checks passed\n", passed, len(results))
}
