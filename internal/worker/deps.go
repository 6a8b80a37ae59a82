package worker

import (
	"context"
	"time"

	"reel/internal/metrics"
	"reel/internal/pkg/logger"
	"reel/internal/ports"
	"reel/internal/worker/processor"
)

// Queue is the consumer side of the render queue.
type Queue interface {
	Pop(ctx context.Context, timeout time.Duration) (string, error)
}

type Deps struct {
	Queue    Queue
	Store    processor.Store
	Renderer processor.Renderer
	SP       ports.StorageProvider

	StorageRoot  string
	CleanupLocal bool
	// Concurrency is the number of jobs processed at once. Defaults to 1.
	Concurrency int
	// PopTimeout bounds each blocking queue read. Defaults to 30s.
	PopTimeout time.Duration
	// RetryDelay is the pause after a queue error. Defaults to 1s.
	RetryDelay time.Duration

	Metrics *metrics.Metrics
	Log     *logger.Logger
}

func (d *Deps) withDefaults() {
	if d.Concurrency <= 0 {
		d.Concurrency = 1
	}
	if d.PopTimeout <= 0 {
		d.PopTimeout = 30 * time.Second
	}
	if d.RetryDelay <= 0 {
		d.RetryDelay = time.Second
	}
	if d.Log == nil {
		d.Log = logger.NewDefault()
	}
}
