package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"reel/internal/models"
	"reel/internal/ports"
	"reel/internal/render"
)

// InputHandler copies a render's source from storage into its local job
// directory, <root>/jobs/<id>.
type InputHandler struct {
	sp          ports.StorageProvider
	storageRoot string
}

func NewInputHandler(sp ports.StorageProvider, storageRoot string) *InputHandler {
	return &InputHandler{sp: sp, storageRoot: storageRoot}
}

func (ih *InputHandler) JobDir(renderID string) string {
	return filepath.Join(ih.storageRoot, "jobs", renderID)
}

func (ih *InputHandler) OutputPath(renderID string) string {
	return filepath.Join(ih.JobDir(renderID), "output.mp4")
}

// Materialize downloads the source and returns its local path.
func (ih *InputHandler) Materialize(ctx context.Context, job *models.Render) (string, error) {
	dir := ih.JobDir(job.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create job directory: %w", err)
	}

	rc, _, _, err := ih.sp.GetObject(ctx, job.SourceKey)
	if err != nil {
		return "", fmt.Errorf("download source failed key=%s: %w", job.SourceKey, err)
	}
	defer rc.Close()

	localPath := filepath.Join(dir, render.SourceFile)
	f, err := os.Create(localPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to save source locally: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return localPath, nil
}
