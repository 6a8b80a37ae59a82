// Package shutdown runs cleanup hooks when a service is asked to stop.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"reel/internal/pkg/logger"
)

// DefaultTimeout bounds the whole shutdown when NewManager gets 0.
const DefaultTimeout = 30 * time.Second

// Manager collects cleanup hooks and runs them in reverse registration
// order, so a hook registered after its dependency stops before it.
type Manager struct {
	log      *logger.Logger
	timeout  time.Duration
	handlers []Handler
	mu       sync.Mutex
	once     sync.Once
	stopping chan struct{}
	done     chan struct{}
}

// Handler is a named cleanup hook.
type Handler struct {
	Name    string
	Cleanup func(ctx context.Context) error
}

func NewManager(log *logger.Logger, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Manager{
		log:      log.WithComponent("shutdown"),
		timeout:  timeout,
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (m *Manager) Register(name string, cleanup func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, Handler{Name: name, Cleanup: cleanup})
	m.log.Debug("registered shutdown handler", "name", name)
}

// RegisterSimple adds a hook that ignores its context and cannot fail.
func (m *Manager) RegisterSimple(name string, cleanup func()) {
	m.Register(name, func(context.Context) error {
		cleanup()
		return nil
	})
}

// Wait blocks until SIGINT, SIGTERM or SIGHUP, or until ctx is done, then
// runs Shutdown.
func (m *Manager) Wait(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		m.log.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		m.log.Info("context canceled, initiating shutdown")
	}

	m.Shutdown()
}

// Shutdown runs every hook once, last registered first. Hooks share one
// deadline; a hook still running when it passes is abandoned. Later calls
// wait for the first one to finish.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		close(m.stopping)
		defer close(m.done)

		m.mu.Lock()
		handlers := make([]Handler, len(m.handlers))
		copy(handlers, m.handlers)
		m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		m.log.Info("starting graceful shutdown", "handlers", len(handlers), "timeout", m.timeout.String())

		for i := len(handlers) - 1; i >= 0; i-- {
			if ctx.Err() != nil {
				m.log.Warn("shutdown timeout exceeded, skipping remaining handlers", "remaining", i+1)
				return
			}
			m.run(ctx, handlers[i])
		}
		m.log.Info("graceful shutdown completed")
	})
	<-m.done
}

func (m *Manager) run(ctx context.Context, h Handler) {
	start := time.Now()
	errCh := make(chan error, 1)
	go func() { errCh <- h.Cleanup(ctx) }()

	select {
	case err := <-errCh:
		if err != nil {
			m.log.Error("shutdown handler failed",
				"name", h.Name,
				"error", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return
		}
		m.log.Debug("shutdown handler completed",
			"name", h.Name,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	case <-ctx.Done():
		m.log.Warn("shutdown handler abandoned", "name", h.Name)
	}
}

// Done is closed once Shutdown has finished.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Context is canceled as soon as Shutdown starts, before any hook runs.
func (m *Manager) Context() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-m.stopping
		cancel()
	}()
	return ctx
}
