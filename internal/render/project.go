package render

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"reel/internal/pkg/ids"
)

// Generated file names inside a project directory.
const (
	EntryFile  = "index.ts"
	RootFile   = "Root.tsx"
	SourceFile = "Video.tsx"
	bundleDir  = "bundle"
)

// Project is the throwaway directory one render call owns.
type Project struct {
	Dir string
}

func (p *Project) EntryPoint() string { return filepath.Join(p.Dir, EntryFile) }
func (p *Project) RootPath() string   { return filepath.Join(p.Dir, RootFile) }
func (p *Project) SourcePath() string { return filepath.Join(p.Dir, SourceFile) }
func (p *Project) BundleDir() string  { return filepath.Join(p.Dir, bundleDir) }

// projectDir names a project next to sourcePath. The random suffix keeps
// calls started within the same clock tick apart.
func projectDir(sourcePath string, now time.Time) string {
	name := fmt.Sprintf("project_%d_%s", now.UnixNano(), ids.Short(12))
	return filepath.Join(filepath.Dir(sourcePath), name)
}

// createProject makes the directory. It succeeds when dir already exists.
func createProject(dir string) (*Project, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Project{Dir: dir}, nil
}

// write generates the entry and root files and copies source verbatim.
func (p *Project) write(strategy RootStrategy, req Request, source []byte) error {
	entry, err := entrySource()
	if err != nil {
		return fmt.Errorf("generate %s: %w", EntryFile, err)
	}
	root, err := strategy.RootSource(req)
	if err != nil {
		return fmt.Errorf("generate %s (%s): %w", RootFile, strategy.Name(), err)
	}

	files := []struct {
		path string
		data []byte
	}{
		{p.EntryPoint(), entry},
		{p.RootPath(), root},
		{p.SourcePath(), source},
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, f.data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes the project directory and everything below it.
func (p *Project) Remove() error {
	return os.RemoveAll(p.Dir)
}
