package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"reel/internal/pkg/logger"
	"reel/internal/worker/processor"
)

// Run pops render ids and processes them until ctx is canceled. A job that
// is running when ctx ends is canceled, marked FAILED and Run returns.
func Run(ctx context.Context, d Deps) error {
	d.withDefaults()
	log := d.Log.WithComponent("worker")

	p := processor.New(processor.Deps{
		Store:        d.Store,
		Renderer:     d.Renderer,
		SP:           d.SP,
		StorageRoot:  d.StorageRoot,
		CleanupLocal: d.CleanupLocal,
		Metrics:      d.Metrics,
		Log:          d.Log,
	})

	log.Info("worker started", "concurrency", d.Concurrency)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.Concurrency; i++ {
		slot := i
		g.Go(func() error {
			return loop(gctx, d, p, log.WithFields(map[string]any{"slot": slot}))
		})
	}
	return g.Wait()
}

func loop(ctx context.Context, d Deps, p *processor.Processor, log *logger.Logger) error {
	for {
		select {
		case <-ctx.Done():
			log.Info("worker context canceled, stopping")
			return ctx.Err()
		default:
		}

		renderID, err := d.Queue.Pop(ctx, d.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopping due to context cancellation")
				return ctx.Err()
			}

			log.Warn("queue pop error, retrying", "error", err.Error())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.RetryDelay):
			}
			continue
		}

		if renderID == "" {
			continue
		}

		jobCtx := logger.ContextWithRenderID(ctx, renderID)
		jobLog := log.WithRenderID(renderID)

		jobLog.Info("processing render")
		startTime := time.Now()

		if err := safeProcess(jobCtx, p, renderID); err != nil {
			jobLog.Error("render job failed",
				"error", err.Error(),
				"duration_ms", time.Since(startTime).Milliseconds(),
			)
		} else {
			jobLog.Info("render job completed",
				"duration_ms", time.Since(startTime).Milliseconds(),
			)
		}
	}
}

// safeProcess keeps one panicking job from taking the worker down.
func safeProcess(ctx context.Context, p *processor.Processor, renderID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing render %s: %v", renderID, r)
		}
	}()
	return p.ProcessJob(ctx, renderID)
}
