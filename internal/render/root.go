package render

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// JSX is full of single braces, so the templates use [[ ]].
var templates = template.Must(
	template.New("root").Delims("[[", "]]").ParseFS(templateFS, "templates/*.tmpl"),
)

// RootStrategy generates the Root.tsx that declares the composition.
type RootStrategy interface {
	Name() string
	RootSource(req Request) ([]byte, error)
}

// InlineRoot writes the request parameters into the root as literals.
type InlineRoot struct{}

func (InlineRoot) Name() string { return "inline" }

func (InlineRoot) RootSource(req Request) ([]byte, error) {
	return execute("root_inline.tsx.tmpl", req)
}

// ConfigRoot reads an exported compositionConfig object from Video.tsx and
// falls back to the request parameters for keys it does not set.
type ConfigRoot struct{}

func (ConfigRoot) Name() string { return "config" }

func (ConfigRoot) RootSource(req Request) ([]byte, error) {
	return execute("root_config.tsx.tmpl", req)
}

// ParseRootStrategy maps "inline" (or "") and "config" to a strategy.
func ParseRootStrategy(name string) (RootStrategy, error) {
	switch name {
	case "", "inline":
		return InlineRoot{}, nil
	case "config":
		return ConfigRoot{}, nil
	default:
		return nil, fmt.Errorf("unknown root strategy %q", name)
	}
}

func entrySource() ([]byte, error) {
	return execute("index.ts.tmpl", nil)
}

func execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
