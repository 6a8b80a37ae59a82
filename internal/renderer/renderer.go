// Package renderer builds the render orchestrator from environment
// configuration. The worker and the render CLI share it.
package renderer

import (
	"time"

	"reel/internal/adapters/remotion"
	"reel/internal/pkg/env"
	"reel/internal/pkg/logger"
	"reel/internal/render"
)

// Options are the knobs the worker and CLI expose.
type Options struct {
	Backend            string
	RootStrategy       string
	ResolveComposition bool
	MockDelay          time.Duration
	Codec              string
	NodeBin            string
	ToolchainDir       string
}

// OptionsFromEnv reads the RENDER_* and REMOTION_* variables.
func OptionsFromEnv() Options {
	return Options{
		Backend:            env.Env("RENDER_BACKEND", string(render.ModeRemotion)),
		RootStrategy:       env.Env("RENDER_ROOT_STRATEGY", "inline"),
		ResolveComposition: env.BoolEnv("RENDER_RESOLVE_COMPOSITION", true),
		MockDelay:          env.DurationEnv("RENDER_MOCK_DELAY", render.DefaultMockDelay),
		Codec:              env.Env("RENDER_CODEC", render.DefaultCodec),
		NodeBin:            env.Env("REMOTION_NODE_BIN", "node"),
		ToolchainDir:       env.Env("REMOTION_TOOLCHAIN_DIR", ""),
	}
}

// New returns an orchestrator for opts. Listener may be nil.
func New(opts Options, log *logger.Logger, listener render.Listener) (*render.Orchestrator, error) {
	mode, err := render.ParseMode(opts.Backend)
	if err != nil {
		return nil, err
	}
	root, err := render.ParseRootStrategy(opts.RootStrategy)
	if err != nil {
		return nil, err
	}

	cfg := render.Config{
		Mode:               mode,
		Root:               root,
		ResolveComposition: opts.ResolveComposition,
		Codec:              opts.Codec,
		MockDelay:          opts.MockDelay,
		Logger:             log,
		Listener:           listener,
	}

	if mode == render.ModeRemotion {
		client, err := remotion.New(remotion.Config{
			NodeBin:      opts.NodeBin,
			ToolchainDir: opts.ToolchainDir,
			Logger:       log,
		})
		if err != nil {
			return nil, err
		}
		cfg.Bundler = client
		cfg.Resolver = client
		cfg.Renderer = client
	}

	return render.New(cfg)
}
