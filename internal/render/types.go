package render

import "context"

// Bundle is the serve location produced by a Bundler. It is consumed by the
// resolve and render steps of the same call and never persisted.
type Bundle struct {
	ServeURL string `json:"serveUrl"`
}

// BundleOptions is passed through to the Bundler unchanged.
type BundleOptions struct {
	// OutDir is where the bundle is written. The orchestrator points it
	// inside the temp project so the bundle is removed with the project.
	OutDir string
	// PublicDir is an optional static asset directory.
	PublicDir string
}

// Composition is the resolved composition passed to the render step.
type Composition struct {
	ID               string         `json:"id"`
	Width            int            `json:"width"`
	Height           int            `json:"height"`
	FPS              int            `json:"fps"`
	DurationInFrames int            `json:"durationInFrames"`
	Props            map[string]any `json:"props,omitempty"`
}

// ProgressFunc receives render progress as a fraction in [0,1].
type ProgressFunc func(progress float64)

// RenderMediaInput is the argument of MediaRenderer.RenderMedia.
type RenderMediaInput struct {
	Composition Composition
	Bundle      Bundle
	Codec       string
	OutputPath  string
	OnProgress  ProgressFunc
}

// Result is returned once the output file has been verified.
type Result struct {
	OutputPath  string      `json:"output_path"`
	Composition Composition `json:"composition"`
	SizeBytes   int64       `json:"size_bytes"`
}

// Bundler packages a project entry point into a servable bundle.
type Bundler interface {
	Bundle(ctx context.Context, entryPoint string, opts BundleOptions) (Bundle, error)
}

// Resolver looks up a composition declared by a bundle.
type Resolver interface {
	SelectComposition(ctx context.Context, b Bundle, id string) (Composition, error)
}

// MediaRenderer renders a composition to a file.
type MediaRenderer interface {
	RenderMedia(ctx context.Context, in RenderMediaInput) error
}

// Toolchain is a backend that implements every render step.
type Toolchain interface {
	Bundler
	Resolver
	MediaRenderer
}
