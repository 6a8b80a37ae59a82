package render

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"reel/internal/pkg/logger"
)

// fakeToolchain records calls and lets a test choose each step's outcome.
type fakeToolchain struct {
	mu sync.Mutex

	bundleErr   error
	selectErr   error
	renderErr   error
	resolved    Composition
	progress    []float64
	skipOutput  bool
	blockRender bool

	entryPoints []string
	projects    map[string]map[string]string
	selectIDs   []string
	renders     []RenderMediaInput
}

func newFakeToolchain() *fakeToolchain {
	return &fakeToolchain{projects: make(map[string]map[string]string)}
}

func (f *fakeToolchain) Bundle(ctx context.Context, entryPoint string, opts BundleOptions) (Bundle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entryPoints = append(f.entryPoints, entryPoint)
	dir := filepath.Dir(entryPoint)
	files := make(map[string]string)
	for _, name := range []string{EntryFile, RootFile, SourceFile} {
		if b, err := os.ReadFile(filepath.Join(dir, name)); err == nil {
			files[name] = string(b)
		}
	}
	f.projects[dir] = files

	if f.bundleErr != nil {
		return Bundle{}, f.bundleErr
	}
	return Bundle{ServeURL: opts.OutDir}, nil
}

func (f *fakeToolchain) SelectComposition(ctx context.Context, b Bundle, id string) (Composition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.selectIDs = append(f.selectIDs, id)
	if f.selectErr != nil {
		return Composition{}, f.selectErr
	}
	return f.resolved, nil
}

func (f *fakeToolchain) RenderMedia(ctx context.Context, in RenderMediaInput) error {
	f.mu.Lock()
	f.renders = append(f.renders, in)
	progress, block, renderErr, skip := f.progress, f.blockRender, f.renderErr, f.skipOutput
	f.mu.Unlock()

	for _, p := range progress {
		in.OnProgress(p)
	}
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if renderErr != nil {
		return renderErr
	}
	if skip {
		return nil
	}
	return os.WriteFile(in.OutputPath, []byte("mp4"), 0o644)
}

func (f *fakeToolchain) projectDirs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entryPoints))
	for _, e := range f.entryPoints {
		out = append(out, filepath.Dir(e))
	}
	return out
}

func (f *fakeToolchain) lastRender(t *testing.T) RenderMediaInput {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.renders) == 0 {
		t.Fatal("renderer was not called")
	}
	return f.renders[len(f.renders)-1]
}

// recorder collects events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) percents() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, ev := range r.events {
		if ev.Kind == EventProgress {
			out = append(out, ev.Percent)
		}
	}
	return out
}

func (r *recorder) phases() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Phase
	for _, ev := range r.events {
		if ev.Kind == EventPhase {
			out = append(out, ev.Phase)
		}
	}
	return out
}

func (r *recorder) kind(k EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}

const sampleSource = `import React from 'react';
import { AbsoluteFill } from 'remotion';

export const compositionConfig = { fps: 24 };

export default function Video() {
  return <AbsoluteFill style={{ backgroundColor: 'black' }} />;
}
`

// fixture writes Video.tsx into a fresh directory and returns a request
// rendering next to it.
func fixture(t *testing.T) (Request, string) {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "Video.tsx")
	if err := os.WriteFile(src, []byte(sampleSource), 0o644); err != nil {
		t.Fatal(err)
	}
	return Request{
		SourcePath:    src,
		CompositionID: "Promo",
		OutputPath:    filepath.Join(dir, "out.mp4"),
	}, dir
}

func newTestOrchestrator(t *testing.T, tc *fakeToolchain, rec *recorder, mutate ...func(*Config)) *Orchestrator {
	t.Helper()
	cfg := Config{
		Mode:               ModeRemotion,
		Bundler:            tc,
		Resolver:           tc,
		Renderer:           tc,
		ResolveComposition: true,
		Logger:             logger.Discard(),
	}
	if rec != nil {
		cfg.Listener = rec.listen
	}
	for _, m := range mutate {
		m(&cfg)
	}
	o, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

// leftoverProjects lists project_* directories under dir.
func leftoverProjects(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "project_*"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}
