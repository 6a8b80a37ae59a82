// Package handlers serves the render job API.
package handlers

import (
	"context"

	"reel/internal/models"
	"reel/internal/pkg/logger"
	"reel/internal/ports"
)

// Store is the subset of the render repository the API uses.
type Store interface {
	Create(ctx context.Context, m *models.Render) error
	Get(ctx context.Context, id string) (*models.Render, error)
	List(ctx context.Context, status models.RenderStatus, limit int) ([]models.Render, error)
	MarkFailed(ctx context.Context, id, errText string) error
	Ping(ctx context.Context) error
}

// Queue is the producer side of the render queue.
type Queue interface {
	Push(ctx context.Context, renderID string) error
	Ping(ctx context.Context) error
}

type Deps struct {
	Store Store
	Queue Queue
	SP    ports.StorageProvider
	Log   *logger.Logger
	// Version is reported by /health.
	Version string
}

type Handler struct {
	store   Store
	queue   Queue
	sp      ports.StorageProvider
	log     *logger.Logger
	version string
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	version := d.Version
	if version == "" {
		version = "dev"
	}
	return &Handler{
		store:   d.Store,
		queue:   d.Queue,
		sp:      d.SP,
		log:     log.WithComponent("api"),
		version: version,
	}
}
