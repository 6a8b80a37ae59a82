// Command render renders one TSX composition to a video file.
//
//	render -source Video.tsx -id MyComp -out out.mp4 [-width 1080 -height 1920 -fps 30 -frames 150]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	rerrors "reel/internal/pkg/errors"
	"reel/internal/pkg/logger"
	"reel/internal/render"
	"reel/internal/renderer"
)

const (
	exitOK       = 0
	exitFailed   = 1
	exitUsage    = 2
	exitCanceled = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type cliConfig struct {
	req      render.Request
	opts     renderer.Options
	logLevel string
}

func parseFlags(args []string, stderr io.Writer) (cliConfig, error) {
	cfg := cliConfig{opts: renderer.OptionsFromEnv()}

	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.req.SourcePath, "source", "", "path to the TSX source exporting the video component")
	fs.StringVar(&cfg.req.CompositionID, "id", "", "composition id (letters, digits, hyphens)")
	fs.StringVar(&cfg.req.OutputPath, "out", "", "output video path")
	fs.IntVar(&cfg.req.Width, "width", 0, fmt.Sprintf("width in pixels (default %d)", render.DefaultWidth))
	fs.IntVar(&cfg.req.Height, "height", 0, fmt.Sprintf("height in pixels (default %d)", render.DefaultHeight))
	fs.IntVar(&cfg.req.FPS, "fps", 0, fmt.Sprintf("frames per second (default %d)", render.DefaultFPS))
	fs.IntVar(&cfg.req.DurationInFrames, "frames", 0, fmt.Sprintf("duration in frames (default %d)", render.DefaultDurationInFrames))
	fs.StringVar(&cfg.opts.RootStrategy, "root", cfg.opts.RootStrategy, "root registration: inline or config")
	mock := fs.Bool("mock", cfg.opts.Backend == string(render.ModeMock), "skip the toolchain and write a placeholder")
	noResolve := fs.Bool("no-resolve", !cfg.opts.ResolveComposition, "do not read the composition back from the bundle")
	fs.StringVar(&cfg.logLevel, "log-level", "warn", "log level on stderr")

	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}
	if fs.NArg() > 0 {
		return cliConfig{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	for name, v := range map[string]string{"-source": cfg.req.SourcePath, "-id": cfg.req.CompositionID, "-out": cfg.req.OutputPath} {
		if v == "" {
			return cliConfig{}, fmt.Errorf("%s is required", name)
		}
	}

	if *mock {
		cfg.opts.Backend = string(render.ModeMock)
	} else if cfg.opts.Backend == string(render.ModeMock) {
		cfg.opts.Backend = string(render.ModeRemotion)
	}
	cfg.opts.ResolveComposition = !*noResolve
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, "render:", err)
		return exitUsage
	}

	log := logger.New(logger.Config{Level: cfg.logLevel, Format: "text", Output: stderr})
	p := newPresenter(stdout)

	orch, err := renderer.New(cfg.opts, log, p.listen)
	if err != nil {
		fmt.Fprintln(stderr, "render:", err)
		return exitUsage
	}

	p.start()
	res, err := orch.Render(ctx, cfg.req)
	p.stop()

	if err != nil {
		fmt.Fprintln(stderr, "render failed:", err)
		return exitCode(err)
	}
	fmt.Fprintf(stdout, "wrote %s (%d bytes, %dx%d @ %dfps, %d frames)\n",
		res.OutputPath, res.SizeBytes,
		res.Composition.Width, res.Composition.Height, res.Composition.FPS, res.Composition.DurationInFrames)
	return exitOK
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case rerrors.IsCanceled(err), errors.Is(err, context.Canceled):
		return exitCanceled
	case rerrors.IsValidation(err):
		return exitUsage
	default:
		return exitFailed
	}
}
