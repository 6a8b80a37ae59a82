package renderer

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"reel/internal/pkg/logger"
	"reel/internal/render"
)

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("RENDER_BACKEND", "mock")
	t.Setenv("RENDER_ROOT_STRATEGY", "config")
	t.Setenv("RENDER_RESOLVE_COMPOSITION", "false")
	t.Setenv("RENDER_MOCK_DELAY", "250ms")
	t.Setenv("RENDER_CODEC", "vp9")
	t.Setenv("REMOTION_NODE_BIN", "/usr/bin/node")
	t.Setenv("REMOTION_TOOLCHAIN_DIR", "/opt/reel")

	want := Options{
		Backend:            "mock",
		RootStrategy:       "config",
		ResolveComposition: false,
		MockDelay:          250 * time.Millisecond,
		Codec:              "vp9",
		NodeBin:            "/usr/bin/node",
		ToolchainDir:       "/opt/reel",
	}
	if diff := cmp.Diff(want, OptionsFromEnv()); diff != "" {
		t.Errorf("options (-want +got):\n%s", diff)
	}
}

func TestOptionsDefaults(t *testing.T) {
	for _, k := range []string{"RENDER_BACKEND", "RENDER_ROOT_STRATEGY", "RENDER_RESOLVE_COMPOSITION", "RENDER_MOCK_DELAY", "RENDER_CODEC"} {
		t.Setenv(k, "")
	}
	opts := OptionsFromEnv()
	if opts.Backend != "remotion" || opts.RootStrategy != "inline" || !opts.ResolveComposition ||
		opts.MockDelay != render.DefaultMockDelay || opts.Codec != render.DefaultCodec {
		t.Errorf("defaults = %+v", opts)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    render.Mode
		wantErr bool
	}{
		{"mock", Options{Backend: "mock", RootStrategy: "inline"}, render.ModeMock, false},
		{"remotion", Options{Backend: "remotion", RootStrategy: "config", ToolchainDir: t.TempDir()}, render.ModeRemotion, false},
		{"bad backend", Options{Backend: "ffmpeg", RootStrategy: "inline"}, "", true},
		{"bad root", Options{Backend: "mock", RootStrategy: "yaml"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := New(tt.opts, logger.Discard(), nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && o.Mode() != tt.want {
				t.Errorf("mode = %s, want %s", o.Mode(), tt.want)
			}
		})
	}
}
