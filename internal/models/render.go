package models

import "time"

// RenderStatus is the lifecycle state of a render job.
type RenderStatus string

const (
	StatusQueued  RenderStatus = "QUEUED"
	StatusRunning RenderStatus = "RUNNING"
	StatusDone    RenderStatus = "DONE"
	StatusFailed  RenderStatus = "FAILED"
)

// Valid reports whether s is a known status.
func (s RenderStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusRunning, StatusDone, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the job will not change state again.
func (s RenderStatus) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Render is one row of the renders table.
type Render struct {
	ID               string       `json:"id"`
	CompositionID    string       `json:"composition_id"`
	SourceKey        string       `json:"source_key"`
	OutputKey        *string      `json:"output_key,omitempty"`
	Width            int          `json:"width"`
	Height           int          `json:"height"`
	FPS              int          `json:"fps"`
	DurationInFrames int          `json:"duration_in_frames"`
	Status           RenderStatus `json:"status"`
	Progress         int          `json:"progress"`
	ErrorText        *string      `json:"error_text,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	StartedAt        *time.Time   `json:"started_at,omitempty"`
	FinishedAt       *time.Time   `json:"finished_at,omitempty"`
}

// Object keys shared by the API and the worker.

// SourceKey is where the API stores a render's TSX source.
func SourceKey(id string) string { return "sources/" + id + "/Video.tsx" }

// OutputKey is where the worker uploads a render's video.
func OutputKey(id string) string { return "renders/" + id + "/output.mp4" }
