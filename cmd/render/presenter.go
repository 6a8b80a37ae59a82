package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"

	"reel/internal/render"
)

// presenter prints render events. On a terminal it drives a spinner,
// otherwise it writes one line per phase and progress step.
type presenter struct {
	mu      sync.Mutex
	out     io.Writer
	spin    *spinner.Spinner
	phase   render.Phase
	percent int
}

func newPresenter(out io.Writer) *presenter {
	p := &presenter{out: out}
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		p.spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	}
	return p
}

func (p *presenter) start() {
	if p.spin != nil {
		p.spin.Suffix = " starting"
		p.spin.Start()
	}
}

func (p *presenter) stop() {
	if p.spin != nil {
		p.spin.Stop()
	}
}

func (p *presenter) listen(ev render.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Kind {
	case render.EventPhase:
		p.phase = ev.Phase
	case render.EventProgress:
		p.percent = ev.Percent
	case render.EventCleanupWarning:
		p.line(fmt.Sprintf("warning: temp project not removed: %v", ev.Err))
		return
	}

	if p.spin != nil {
		p.spin.Lock()
		p.spin.Suffix = " " + p.status()
		p.spin.Unlock()
		return
	}
	p.line(p.status())
}

func (p *presenter) status() string {
	if p.phase == render.PhaseMedia {
		return fmt.Sprintf("%s %3d%%", p.phase, p.percent)
	}
	return string(p.phase)
}

func (p *presenter) line(s string) {
	if p.spin != nil {
		p.spin.Lock()
		defer p.spin.Unlock()
		fmt.Fprintf(p.out, "\r%s\n", s)
		return
	}
	fmt.Fprintln(p.out, s)
}
