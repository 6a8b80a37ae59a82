package processor

import (
	"os"
	"path/filepath"
)

// Cleanup removes a job's local directory once its output is uploaded.
type Cleanup struct {
	storageRoot  string
	cleanupLocal bool
}

func NewCleanup(storageRoot string, cleanupLocal bool) *Cleanup {
	return &Cleanup{storageRoot: storageRoot, cleanupLocal: cleanupLocal}
}

// CleanupJob is a no-op unless local cleanup is enabled.
func (c *Cleanup) CleanupJob(renderID string) {
	if !c.cleanupLocal || renderID == "" {
		return
	}
	_ = os.RemoveAll(filepath.Join(c.storageRoot, "jobs", renderID))
}
