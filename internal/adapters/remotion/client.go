// Package remotion drives the Remotion bundler and renderer through a Node
// child process. Each operation starts `node -` with the embedded driver on
// stdin and reads newline-delimited JSON events from its stdout.
package remotion

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"reel/internal/pkg/logger"
	"reel/internal/render"
)

//go:embed driver.cjs
var driverSource string

const (
	defaultStderrLimit = 64 << 10
	maxEventLine       = 4 << 20
	waitDelay          = 5 * time.Second
)

// Config configures a Client.
type Config struct {
	// NodeBin is the node executable. Defaults to "node".
	NodeBin string
	// ToolchainDir holds node_modules with @remotion/bundler and
	// @remotion/renderer. Defaults to the working directory.
	ToolchainDir string
	// Env is appended to the process environment.
	Env         []string
	StderrLimit int
	Logger      *logger.Logger
}

// Client implements render.Toolchain.
type Client struct {
	nodeBin      string
	toolchainDir string
	env          []string
	stderrLimit  int
	log          *logger.Logger
}

var _ render.Toolchain = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if cfg.NodeBin == "" {
		cfg.NodeBin = "node"
	}
	if cfg.ToolchainDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		cfg.ToolchainDir = cwd
	}
	dir, err := filepath.Abs(cfg.ToolchainDir)
	if err != nil {
		return nil, fmt.Errorf("resolve toolchain dir: %w", err)
	}
	if cfg.StderrLimit <= 0 {
		cfg.StderrLimit = defaultStderrLimit
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault()
	}

	return &Client{
		nodeBin:      cfg.NodeBin,
		toolchainDir: dir,
		env:          cfg.Env,
		stderrLimit:  cfg.StderrLimit,
		log:          log.WithComponent("remotion"),
	}, nil
}

func (c *Client) Bundle(ctx context.Context, entryPoint string, opts render.BundleOptions) (render.Bundle, error) {
	raw, err := c.run(ctx, driverRequest{
		Op:         opBundle,
		EntryPoint: entryPoint,
		OutDir:     opts.OutDir,
		PublicDir:  opts.PublicDir,
	}, nil)
	if err != nil {
		return render.Bundle{}, err
	}

	var res bundleResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return render.Bundle{}, fmt.Errorf("decode bundle result: %w", err)
	}
	if res.ServeURL == "" {
		return render.Bundle{}, &DriverError{Op: opBundle, Message: "bundler returned no serve url"}
	}
	return render.Bundle{ServeURL: res.ServeURL}, nil
}

func (c *Client) SelectComposition(ctx context.Context, b render.Bundle, id string) (render.Composition, error) {
	raw, err := c.run(ctx, driverRequest{
		Op:       opSelect,
		ServeURL: b.ServeURL,
		ID:       id,
	}, nil)
	if err != nil {
		return render.Composition{}, err
	}

	var res selectResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return render.Composition{}, fmt.Errorf("decode composition: %w", err)
	}
	dc := res.Composition
	return render.Composition{
		ID:               dc.ID,
		Width:            dc.Width,
		Height:           dc.Height,
		FPS:              dc.FPS,
		DurationInFrames: dc.DurationInFrames,
		Props:            dc.Props,
	}, nil
}

func (c *Client) RenderMedia(ctx context.Context, in render.RenderMediaInput) error {
	comp := in.Composition
	_, err := c.run(ctx, driverRequest{
		Op:       opRender,
		ServeURL: in.Bundle.ServeURL,
		Composition: &driverComposition{
			ID:               comp.ID,
			Width:            comp.Width,
			Height:           comp.Height,
			FPS:              comp.FPS,
			DurationInFrames: comp.DurationInFrames,
			Props:            comp.Props,
		},
		Codec:          in.Codec,
		OutputLocation: in.OutputPath,
	}, in.OnProgress)
	return err
}

// run executes one driver op and returns the raw result payload.
func (c *Client) run(ctx context.Context, req driverRequest, onProgress render.ProgressFunc) (json.RawMessage, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode driver request: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.nodeBin, "-")
	cmd.Dir = c.toolchainDir
	cmd.Stdin = strings.NewReader(driverSource)
	cmd.Env = append(os.Environ(), c.env...)
	cmd.Env = append(cmd.Env,
		"NODE_PATH="+filepath.Join(c.toolchainDir, "node_modules"),
		requestEnv+"="+string(payload),
	)
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	log := c.log.WithFields(map[string]any{"op": req.Op})
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", c.nodeBin, err)
	}
	log.Debug("driver started", "pid", cmd.Process.Pid)

	var (
		result   json.RawMessage
		reported *DriverError
		tail     = newTailBuffer(c.stderrLimit)
	)

	var g errgroup.Group
	g.Go(func() error {
		sc := bufio.NewScanner(stdout)
		sc.Buffer(make([]byte, 0, 64<<10), maxEventLine)
		for sc.Scan() {
			line := bytes.TrimSpace(sc.Bytes())
			if len(line) == 0 {
				continue
			}
			var ev driverEvent
			if err := json.Unmarshal(line, &ev); err != nil {
				log.Debug("driver output", "line", string(line))
				continue
			}
			switch ev.Type {
			case "progress":
				if onProgress != nil {
					onProgress(clamp(ev.Progress))
				}
			case "result":
				result = append(json.RawMessage(nil), ev.Result...)
			case "error":
				if ev.Error != nil {
					reported = &DriverError{Op: req.Op, Message: ev.Error.Message, Stack: ev.Error.Stack}
				}
			}
		}
		if err := sc.Err(); err != nil {
			// Keep the pipe flowing so node can exit.
			_, _ = io.Copy(io.Discard, stdout)
			return err
		}
		return nil
	})
	g.Go(func() error {
		_, err := io.Copy(tail, stderr)
		return err
	})

	readErr := g.Wait()
	waitErr := cmd.Wait()
	log.Debug("driver exited", "duration_ms", time.Since(start).Milliseconds())

	if ctx.Err() != nil {
		return nil, fmt.Errorf("remotion %s: %w", req.Op, ctx.Err())
	}
	if reported != nil {
		reported.Stderr = tail.String()
		return nil, reported
	}
	if waitErr != nil {
		return nil, &DriverError{Op: req.Op, Message: "node exited: " + waitErr.Error(), Stderr: tail.String()}
	}
	if readErr != nil {
		return nil, fmt.Errorf("remotion %s: read driver output: %w", req.Op, readErr)
	}
	if result == nil {
		return nil, &DriverError{Op: req.Op, Message: "driver exited without a result", Stderr: tail.String()}
	}
	return result, nil
}

func clamp(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return math.Max(0, math.Min(1, p))
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}
