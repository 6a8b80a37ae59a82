package remotion

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Ops understood by driver.cjs.
const (
	opBundle = "bundle"
	opSelect = "select"
	opRender = "render"
)

// requestEnv carries the JSON request to the driver.
const requestEnv = "REEL_DRIVER_REQUEST"

type driverRequest struct {
	Op string `json:"op"`

	EntryPoint string `json:"entryPoint,omitempty"`
	OutDir     string `json:"outDir,omitempty"`
	PublicDir  string `json:"publicDir,omitempty"`

	ServeURL string `json:"serveUrl,omitempty"`
	ID       string `json:"id,omitempty"`

	Composition    *driverComposition `json:"composition,omitempty"`
	Codec          string             `json:"codec,omitempty"`
	OutputLocation string             `json:"outputLocation,omitempty"`
}

type driverComposition struct {
	ID               string         `json:"id"`
	Width            int            `json:"width"`
	Height           int            `json:"height"`
	FPS              int            `json:"fps"`
	DurationInFrames int            `json:"durationInFrames"`
	Props            map[string]any `json:"props,omitempty"`
}

type driverEvent struct {
	Type     string          `json:"type"`
	Progress float64         `json:"progress"`
	Result   json.RawMessage `json:"result"`
	Error    *struct {
		Message string `json:"message"`
		Stack   string `json:"stack"`
	} `json:"error"`
}

type bundleResult struct {
	ServeURL string `json:"serveUrl"`
}

type selectResult struct {
	Composition driverComposition `json:"composition"`
}

// DriverError is a failure reported by the driver or by the node process.
type DriverError struct {
	Op      string
	Message string
	Stack   string
	// Stderr is the tail of the process's stderr.
	Stderr string
}

func (e *DriverError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "remotion %s: %s", e.Op, e.Message)
	if e.Stack != "" {
		fmt.Fprintf(&sb, "\n\nStack:\n%s", e.Stack)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&sb, "\n\nStderr:\n%s", e.Stderr)
	}
	return sb.String()
}
