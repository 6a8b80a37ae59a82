package processor

import (
	"context"
	"fmt"
	"os"

	"reel/internal/models"
	"reel/internal/ports"
)

// OutputHandler uploads rendered videos.
type OutputHandler struct {
	sp ports.StorageProvider
}

func NewOutputHandler(sp ports.StorageProvider) *OutputHandler {
	return &OutputHandler{sp: sp}
}

// Upload stores localPath at renders/<id>/output.mp4 and returns the key
// the provider assigned.
func (oh *OutputHandler) Upload(ctx context.Context, renderID, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open output: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "", err
	}

	out, err := oh.sp.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   models.OutputKey(renderID),
		ContentType: "video/mp4",
		Reader:      f,
		Size:        st.Size(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload output: %w", err)
	}
	return out.ObjectKey, nil
}
