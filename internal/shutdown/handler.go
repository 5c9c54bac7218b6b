package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Manager coordinates the graceful shutdown of application components.
type Manager struct {
	shutdownTimeout time.Duration
	closers         []func(ctx context.Context) error
	trigger         chan struct{}
	triggerOnce     sync.Once
}

// NewManager creates a new Manager.
func NewManager(shutdownTimeout time.Duration) *Manager {
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	return &Manager{
		shutdownTimeout: shutdownTimeout,
		trigger:         make(chan struct{}),
	}
}

// Add adds a new cleanup function to the manager.
func (m *Manager) Add(closer func(ctx context.Context) error) {
	m.closers = append(m.closers, closer)
}

// Trigger initiates shutdown programmatically, e.g. when the stdio transport
// sees EOF. Safe to call multiple times and alongside OS signals.
func (m *Manager) Trigger() {
	m.triggerOnce.Do(func() { close(m.trigger) })
}

// Wait blocks until a shutdown signal is received or Trigger is called, then
// gracefully shuts down the application.
func (m *Manager) Wait() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("shutdown signal received", "signal", sig)
	case <-m.trigger:
		slog.Info("shutdown triggered")
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.shutdownTimeout)
	defer cancel()

	// Call all cleanup functions in reverse order.
	for i := len(m.closers) - 1; i >= 0; i-- {
		closer := m.closers[i]
		if err := closer(ctx); err != nil {
			slog.Error("shutdown error", "err", err)
		}
	}
	slog.Info("shutdown complete")
}
