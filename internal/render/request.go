package render

import (
	"os"
	"path/filepath"
	"regexp"

	"reel/internal/pkg/errors"
)

// Defaults applied to zero-valued numeric request fields.
const (
	DefaultWidth            = 1080
	DefaultHeight           = 1920
	DefaultFPS              = 30
	DefaultDurationInFrames = 150
)

// Remotion accepts letters, digits and hyphens in composition ids. The same
// rule keeps the id safe to inline in generated TSX.
var compositionIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// Request describes one render. Zero numeric fields take the package
// defaults; negative values are rejected.
type Request struct {
	SourcePath       string `json:"source_path"`
	CompositionID    string `json:"composition_id"`
	OutputPath       string `json:"output_path"`
	Width            int    `json:"width,omitempty"`
	Height           int    `json:"height,omitempty"`
	FPS              int    `json:"fps,omitempty"`
	DurationInFrames int    `json:"duration_in_frames,omitempty"`
}

// WithDefaults returns a copy of r with zero numeric fields replaced.
func (r Request) WithDefaults() Request {
	if r.Width == 0 {
		r.Width = DefaultWidth
	}
	if r.Height == 0 {
		r.Height = DefaultHeight
	}
	if r.FPS == 0 {
		r.FPS = DefaultFPS
	}
	if r.DurationInFrames == 0 {
		r.DurationInFrames = DefaultDurationInFrames
	}
	return r
}

// ValidateParams checks the fields that do not touch the filesystem. The
// HTTP API uses it before a source file exists.
func ValidateParams(compositionID string, width, height, fps, frames int) error {
	if compositionID == "" {
		return errors.ValidationField("composition_id", "composition id is required")
	}
	if !compositionIDPattern.MatchString(compositionID) {
		return errors.ValidationField("composition_id", "composition id may only contain letters, digits and hyphens").
			WithField("value", compositionID)
	}
	for _, f := range []struct {
		name  string
		value int
	}{
		{"width", width},
		{"height", height},
		{"fps", fps},
		{"duration_in_frames", frames},
	} {
		if f.value < 0 {
			return errors.ValidationField(f.name, f.name+" must be positive").WithField("value", f.value)
		}
	}
	return nil
}

// Validate checks r before any external call is made. The source must be a
// regular file and the output's parent an existing directory.
func (r Request) Validate() error {
	if r.SourcePath == "" {
		return errors.ValidationField("source_path", "source path is required")
	}
	if r.OutputPath == "" {
		return errors.ValidationField("output_path", "output path is required")
	}
	if err := ValidateParams(r.CompositionID, r.Width, r.Height, r.FPS, r.DurationInFrames); err != nil {
		return err
	}

	fi, err := os.Stat(r.SourcePath)
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeValidation, "render.validate", "source file is not readable").
			WithField("field", "source_path")
	}
	if !fi.Mode().IsRegular() {
		return errors.ValidationField("source_path", "source path is not a regular file").
			WithField("value", r.SourcePath)
	}

	dir := filepath.Dir(r.OutputPath)
	di, err := os.Stat(dir)
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeValidation, "render.validate", "output directory does not exist").
			WithField("field", "output_path")
	}
	if !di.IsDir() {
		return errors.ValidationField("output_path", "output parent is not a directory").
			WithField("value", dir)
	}
	return nil
}
