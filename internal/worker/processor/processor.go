package processor

import (
	"context"
	"time"

	"reel/internal/metrics"
	"reel/internal/models"
	"reel/internal/pkg/errors"
	"reel/internal/pkg/logger"
	"reel/internal/ports"
	"reel/internal/render"
)

// Store is the subset of the render repository the processor writes to.
type Store interface {
	Get(ctx context.Context, id string) (*models.Render, error)
	MarkRunning(ctx context.Context, id string) error
	UpdateProgress(ctx context.Context, id string, percent int) error
	SaveOutput(ctx context.Context, id, outputKey string) error
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, errText string) error
}

// Renderer is satisfied by *render.Orchestrator.
type Renderer interface {
	RenderWith(ctx context.Context, req render.Request, listener render.Listener) (*render.Result, error)
}

type Deps struct {
	Store        Store
	Renderer     Renderer
	SP           ports.StorageProvider
	StorageRoot  string
	CleanupLocal bool
	Metrics      *metrics.Metrics
	Log          *logger.Logger
}

type Processor struct {
	store    Store
	renderer Renderer
	metrics  *metrics.Metrics
	log      *logger.Logger

	inputHandler  *InputHandler
	outputHandler *OutputHandler
	cleanup       *Cleanup
}

// failTimeout bounds the FAILED update, which runs even after ctx is done.
const failTimeout = 5 * time.Second

func New(d Deps) *Processor {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("processor")

	return &Processor{
		store:         d.Store,
		renderer:      d.Renderer,
		metrics:       d.Metrics,
		log:           log,
		inputHandler:  NewInputHandler(d.SP, d.StorageRoot),
		outputHandler: NewOutputHandler(d.SP),
		cleanup:       NewCleanup(d.StorageRoot, d.CleanupLocal),
	}
}

// ProcessJob runs one render job from QUEUED to DONE or FAILED.
func (p *Processor) ProcessJob(ctx context.Context, renderID string) (err error) {
	log := p.log.FromContext(ctx).WithRenderID(renderID)

	if p.metrics != nil {
		finish := p.metrics.RenderStarted()
		defer func() {
			switch {
			case err == nil:
				finish(metrics.StatusDone)
			case errors.IsCanceled(err):
				finish(metrics.StatusCanceled)
			default:
				finish(metrics.StatusFailed)
			}
		}()
	}

	// 1. Load the job
	log.Debug("fetching render")
	job, err := p.store.Get(ctx, renderID)
	if err != nil {
		return p.failJob(ctx, renderID, errors.Wrap(err, "processor.fetch", "failed to fetch render"))
	}
	if job.Status.Terminal() {
		log.Warn("render already finished, skipping", "status", string(job.Status))
		return nil
	}

	// 2. Mark as running
	if err := p.store.MarkRunning(ctx, renderID); err != nil {
		return p.failJob(ctx, renderID, errors.Wrap(err, "processor.status", "failed to mark render as running"))
	}

	// 3. Materialize the source
	sourcePath, err := p.inputHandler.Materialize(ctx, job)
	if err != nil {
		p.cleanup.CleanupJob(renderID)
		return p.failJob(ctx, renderID, errors.Wrap(err, "processor.materialize", "failed to materialize source"))
	}
	log.Debug("source materialized", "path", sourcePath)

	// 4. Render
	log.Info("starting render", "composition_id", job.CompositionID)
	res, err := p.renderer.RenderWith(ctx, render.Request{
		SourcePath:       sourcePath,
		CompositionID:    job.CompositionID,
		OutputPath:       p.inputHandler.OutputPath(renderID),
		Width:            job.Width,
		Height:           job.Height,
		FPS:              job.FPS,
		DurationInFrames: job.DurationInFrames,
	}, p.progressListener(ctx, log, renderID))
	if err != nil {
		p.cleanup.CleanupJob(renderID)
		return p.failJob(ctx, renderID, errors.Wrap(err, "processor.render", "render failed"))
	}
	log.Debug("render completed", "size_bytes", res.SizeBytes)

	// 5. Upload the output
	outputKey, err := p.outputHandler.Upload(ctx, renderID, res.OutputPath)
	if err != nil {
		p.cleanup.CleanupJob(renderID)
		return p.failJob(ctx, renderID, errors.Wrap(err, "processor.upload", "failed to upload output"))
	}

	// 6. Save the output key
	if err := p.store.SaveOutput(ctx, renderID, outputKey); err != nil {
		p.cleanup.CleanupJob(renderID)
		return p.failJob(ctx, renderID, errors.Wrap(err, "processor.save", "failed to save render output"))
	}

	// 7. Remove local job files
	p.cleanup.CleanupJob(renderID)

	// 8. Done
	if err := p.store.MarkDone(ctx, renderID); err != nil {
		return p.failJob(ctx, renderID, errors.Wrap(err, "processor.done", "failed to mark render as done"))
	}
	return nil
}

// progressListener persists each emitted progress step.
func (p *Processor) progressListener(ctx context.Context, log *logger.Logger, renderID string) render.Listener {
	return func(ev render.Event) {
		if ev.Kind != render.EventProgress {
			return
		}
		if p.metrics != nil {
			p.metrics.RenderProgress(ev.Percent)
		}
		if err := p.store.UpdateProgress(ctx, renderID, ev.Percent); err != nil {
			log.Debug("failed to persist progress", "percent", ev.Percent, "error", err.Error())
		}
	}
}

func (p *Processor) failJob(ctx context.Context, renderID string, cause error) error {
	log := p.log.FromContext(ctx).WithRenderID(renderID)

	var e *errors.Error
	if errors.As(cause, &e) {
		log.Error("render failed",
			"code", string(e.Code),
			"op", e.Op,
			"message", e.Message,
		)
	} else {
		log.Error("render failed", "error", cause.Error())
	}

	// The job context may already be canceled on shutdown.
	updCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failTimeout)
	defer cancel()
	if err := p.store.MarkFailed(updCtx, renderID, cause.Error()); err != nil {
		log.Warn("failed to mark render as failed", "error", err.Error())
	}

	return cause
}
