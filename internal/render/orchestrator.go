// Package render turns a TSX composition source into a video file. It
// materializes a throwaway project next to the source, bundles it, resolves
// the composition, renders it and verifies the output. The project directory
// is removed before Render returns, whatever the outcome.
package render

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reel/internal/pkg/errors"
	"reel/internal/pkg/logger"
)

// Mode selects the render backend.
type Mode string

const (
	ModeRemotion Mode = "remotion"
	// ModeMock skips the toolchain and writes a placeholder file.
	ModeMock Mode = "mock"
)

const (
	DefaultCodec     = "h264"
	DefaultMockDelay = 2 * time.Second
	MaxMockDelay     = time.Minute
)

// ParseMode maps "remotion" (or "") and "mock" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeRemotion:
		return ModeRemotion, nil
	case ModeMock:
		return ModeMock, nil
	default:
		return "", fmt.Errorf("unknown render backend %q", s)
	}
}

// Config configures an Orchestrator. Bundler and Renderer are required in
// remotion mode, Resolver only when ResolveComposition is set.
type Config struct {
	Mode     Mode
	Bundler  Bundler
	Resolver Resolver
	Renderer MediaRenderer

	Root RootStrategy
	// ResolveComposition asks the bundle for the composition. Request
	// parameters still win over the resolved dimensions, fps and duration;
	// only the resolved props are kept.
	ResolveComposition bool
	Codec              string
	MockDelay          time.Duration

	Logger *logger.Logger
	// Listener defaults to LogListener(Logger).
	Listener Listener
	Tracer   trace.Tracer
}

// Orchestrator runs render calls. It holds no per-call state and is safe
// for concurrent use.
type Orchestrator struct {
	cfg    Config
	log    *logger.Logger
	tracer trace.Tracer

	now       func() time.Time
	removeAll func(string) error
}

// New validates cfg and fills defaults.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModeRemotion
	}
	switch cfg.Mode {
	case ModeRemotion:
		if cfg.Bundler == nil || cfg.Renderer == nil {
			return nil, errors.New(errors.CodeFailedPrecond, "remotion mode requires a bundler and a renderer")
		}
		if cfg.ResolveComposition && cfg.Resolver == nil {
			return nil, errors.New(errors.CodeFailedPrecond, "composition resolution requires a resolver")
		}
	case ModeMock:
	default:
		return nil, errors.Newf(errors.CodeFailedPrecond, "unknown render mode %q", cfg.Mode)
	}

	if cfg.Root == nil {
		cfg.Root = InlineRoot{}
	}
	if cfg.Codec == "" {
		cfg.Codec = DefaultCodec
	}
	if cfg.MockDelay <= 0 {
		cfg.MockDelay = DefaultMockDelay
	}
	if cfg.MockDelay > MaxMockDelay {
		cfg.MockDelay = MaxMockDelay
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("render")
	if cfg.Listener == nil {
		cfg.Listener = LogListener(log)
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("reel/internal/render")
	}

	return &Orchestrator{
		cfg:       cfg,
		log:       log,
		tracer:    tracer,
		now:       time.Now,
		removeAll: os.RemoveAll,
	}, nil
}

// Mode reports the configured backend.
func (o *Orchestrator) Mode() Mode { return o.cfg.Mode }

// Render produces req.OutputPath. It makes a single attempt and enforces no
// timeout of its own; cancel ctx to abort the toolchain.
func (o *Orchestrator) Render(ctx context.Context, req Request) (*Result, error) {
	return o.RenderWith(ctx, req, nil)
}

// RenderWith is Render with an extra listener for this call only.
func (o *Orchestrator) RenderWith(ctx context.Context, req Request, listener Listener) (res *Result, err error) {
	req = req.WithDefaults()
	c := &call{
		o:      o,
		req:    req,
		listen: Tee(o.cfg.Listener, listener),
		log: o.log.FromContext(ctx).WithFields(map[string]any{
			"composition_id": req.CompositionID,
			"mode":           string(o.cfg.Mode),
		}),
	}

	ctx, span := o.tracer.Start(ctx, "render.Render", trace.WithAttributes(
		attribute.String("render.composition_id", req.CompositionID),
		attribute.String("render.mode", string(o.cfg.Mode)),
	))
	defer func() {
		endSpan(span, err)
	}()

	return c.run(ctx)
}

// call is the state of one Render invocation.
type call struct {
	o      *Orchestrator
	req    Request
	log    *logger.Logger
	listen Listener
}

func (c *call) run(ctx context.Context) (*Result, error) {
	req := c.req

	_, done := c.enter(ctx, PhaseValidate)
	if err := req.Validate(); err != nil {
		err = errors.Wrap(err, PhaseValidate.op(), "invalid render request")
		done(err)
		return nil, err
	}
	done(nil)

	if c.o.cfg.Mode == ModeMock {
		return c.mock(ctx)
	}

	dir := projectDir(req.SourcePath, c.o.now())
	defer c.cleanup(dir)

	project, err := c.materialize(ctx, dir)
	if err != nil {
		return nil, err
	}

	bundle, err := c.bundle(ctx, project)
	if err != nil {
		return nil, err
	}

	comp, err := c.compose(ctx, bundle)
	if err != nil {
		return nil, err
	}

	if err := c.media(ctx, bundle, comp); err != nil {
		return nil, err
	}

	res, err := c.verify(ctx, comp)
	if err != nil {
		return nil, err
	}

	c.emit(Event{Kind: EventPhase, Phase: PhaseDone})
	c.log.Debug("render completed", "output", res.OutputPath, "size_bytes", res.SizeBytes)
	return res, nil
}

func (c *call) materialize(ctx context.Context, dir string) (*Project, error) {
	_, done := c.enter(ctx, PhaseProject)

	project, err := createProject(dir)
	if err != nil {
		err = c.fail(ctx, PhaseProject, errors.CodeInternal, err, "failed to create temp project")
		done(err)
		return nil, err
	}

	source, err := os.ReadFile(c.req.SourcePath)
	if err != nil {
		err = c.fail(ctx, PhaseProject, errors.CodeValidation, err, "failed to read source file")
		done(err)
		return nil, err
	}

	if err := project.write(c.o.cfg.Root, c.req, source); err != nil {
		err = c.fail(ctx, PhaseProject, errors.CodeInternal, err, "failed to write temp project")
		done(err)
		return nil, err
	}

	c.log.Debug("temp project written", "dir", project.Dir, "root", c.o.cfg.Root.Name())
	done(nil)
	return project, nil
}

func (c *call) bundle(ctx context.Context, project *Project) (Bundle, error) {
	ctx, done := c.enter(ctx, PhaseBundle)

	b, err := c.o.cfg.Bundler.Bundle(ctx, project.EntryPoint(), BundleOptions{OutDir: project.BundleDir()})
	if err != nil {
		err = c.fail(ctx, PhaseBundle, errors.CodeBundle, err, "bundle failed")
		done(err)
		return Bundle{}, err
	}
	done(nil)
	return b, nil
}

func (c *call) compose(ctx context.Context, b Bundle) (Composition, error) {
	comp := requestComposition(c.req)
	if !c.o.cfg.ResolveComposition {
		return comp, nil
	}

	ctx, done := c.enter(ctx, PhaseCompose)
	resolved, err := c.o.cfg.Resolver.SelectComposition(ctx, b, c.req.CompositionID)
	if err != nil {
		err = c.fail(ctx, PhaseCompose, errors.CodeRender, err, "failed to select composition")
		done(err)
		return Composition{}, err
	}
	done(nil)

	if overridden(resolved, comp) {
		c.log.Debug("request parameters override composition metadata",
			"bundle_width", resolved.Width,
			"bundle_height", resolved.Height,
			"bundle_fps", resolved.FPS,
			"bundle_frames", resolved.DurationInFrames,
		)
	}
	comp.Props = resolved.Props
	return comp, nil
}

func (c *call) media(ctx context.Context, b Bundle, comp Composition) error {
	ctx, done := c.enter(ctx, PhaseMedia)

	err := c.o.cfg.Renderer.RenderMedia(ctx, RenderMediaInput{
		Composition: comp,
		Bundle:      b,
		Codec:       c.o.cfg.Codec,
		OutputPath:  c.req.OutputPath,
		OnProgress:  c.progressFunc(),
	})
	if err != nil {
		err = c.fail(ctx, PhaseMedia, errors.CodeRender, err, "render failed")
		done(err)
		return err
	}
	done(nil)
	return nil
}

func (c *call) verify(ctx context.Context, comp Composition) (*Result, error) {
	_, done := c.enter(ctx, PhaseVerify)

	fi, err := os.Stat(c.req.OutputPath)
	if err == nil && fi.IsDir() {
		err = fmt.Errorf("%s is a directory", c.req.OutputPath)
	}
	if err != nil {
		err = errors.WrapWithCode(err, errors.CodeOutputMissing, PhaseVerify.op(),
			"renderer reported success but the output file is missing").
			WithField("output_path", c.req.OutputPath)
		done(err)
		return nil, err
	}
	done(nil)

	return &Result{
		OutputPath:  c.req.OutputPath,
		Composition: comp,
		SizeBytes:   fi.Size(),
	}, nil
}

// mock waits MockDelay and writes a placeholder. No temp project is made
// and no collaborator is called.
func (c *call) mock(ctx context.Context) (*Result, error) {
	comp := requestComposition(c.req)
	ctx, done := c.enter(ctx, PhaseMedia)

	onProgress := c.progressFunc()
	onProgress(0)

	timer := time.NewTimer(c.o.cfg.MockDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		err := errors.WrapWithCode(ctx.Err(), errors.CodeCanceled, PhaseMedia.op(), "mock render canceled")
		done(err)
		return nil, err
	case <-timer.C:
	}

	if err := os.WriteFile(c.req.OutputPath, mockPayload(comp), 0o644); err != nil {
		err = errors.WrapWithCode(err, errors.CodeRender, PhaseMedia.op(), "failed to write mock output")
		done(err)
		return nil, err
	}
	onProgress(1)
	done(nil)

	res, err := c.verify(ctx, comp)
	if err != nil {
		return nil, err
	}
	c.emit(Event{Kind: EventPhase, Phase: PhaseDone})
	return res, nil
}

func mockPayload(comp Composition) []byte {
	return fmt.Appendf(nil, "reel mock render\ncomposition=%s\nsize=%dx%d\nfps=%d\nframes=%d\n",
		comp.ID, comp.Width, comp.Height, comp.FPS, comp.DurationInFrames)
}

// cleanup removes the project exactly once. Failures are reported, never
// returned.
func (c *call) cleanup(dir string) {
	if err := c.o.removeAll(dir); err != nil {
		warn := errors.Wrap(err, PhaseCleanup.op(), "failed to remove temp project").
			WithField("dir", dir)
		c.log.WithError(err).Warn("temp project cleanup failed", "dir", dir)
		c.emit(Event{Kind: EventCleanupWarning, Phase: PhaseCleanup, Err: warn})
		return
	}
	c.log.Debug("temp project removed", "dir", dir)
}

func (c *call) progressFunc() ProgressFunc {
	var (
		mu sync.Mutex
		t  progressThrottle
	)
	return func(p float64) {
		mu.Lock()
		defer mu.Unlock()
		if pct, ok := t.step(p); ok {
			c.emit(Event{Kind: EventProgress, Phase: PhaseMedia, Percent: pct})
		}
	}
}

func (c *call) emit(ev Event) {
	c.listen(ev)
}

// enter reports the phase and opens its span. The returned func ends it.
func (c *call) enter(ctx context.Context, p Phase) (context.Context, func(error)) {
	c.log.Debug("render phase", "phase", string(p))
	c.emit(Event{Kind: EventPhase, Phase: p})
	ctx, span := c.o.tracer.Start(ctx, p.op())
	return ctx, func(err error) { endSpan(span, err) }
}

// fail annotates err with the phase. A canceled context wins over code.
func (c *call) fail(ctx context.Context, p Phase, code errors.Code, err error, msg string) error {
	if ctx.Err() != nil || errors.IsContextError(err) {
		code = errors.CodeCanceled
	}
	return errors.WrapWithCode(err, code, p.op(), msg)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func requestComposition(req Request) Composition {
	return Composition{
		ID:               req.CompositionID,
		Width:            req.Width,
		Height:           req.Height,
		FPS:              req.FPS,
		DurationInFrames: req.DurationInFrames,
	}
}

func overridden(resolved, want Composition) bool {
	return resolved.Width != want.Width ||
		resolved.Height != want.Height ||
		resolved.FPS != want.FPS ||
		resolved.DurationInFrames != want.DurationInFrames
}
