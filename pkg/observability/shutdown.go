package observability

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// defaultShutdownTimeout bounds the whole shutdown sequence when the
// caller does not configure one.
const defaultShutdownTimeout = 30 * time.Second

// ShutdownFunc is one step of the shutdown sequence.
type ShutdownFunc func(context.Context) error

// ShutdownManager drains the HTTP server and then runs the registered
// shutdown steps sequentially, in registration order. Order matters
// here: extensions must deactivate before telemetry flushes.
type ShutdownManager struct {
	logger  *Logger
	server  *http.Server
	timeout time.Duration

	mu    sync.Mutex
	funcs []ShutdownFunc
}

// NewShutdownManager creates a shutdown manager for the server.
func NewShutdownManager(logger *Logger, server *http.Server, timeout time.Duration) *ShutdownManager {
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	return &ShutdownManager{
		logger:  logger,
		server:  server,
		timeout: timeout,
	}
}

// RegisterShutdownFunc appends a step to the shutdown sequence.
func (sm *ShutdownManager) RegisterShutdownFunc(fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.funcs = append(sm.funcs, fn)
}

// WaitForShutdown blocks until SIGINT or SIGTERM, then runs the
// shutdown sequence under the configured timeout.
func (sm *ShutdownManager) WaitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	sm.logger.Infof("Received signal %s, starting graceful shutdown", sig)

	ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
	defer cancel()

	return sm.shutdown(ctx)
}

// shutdown drains the server, then runs every registered step in
// order. A failing step does not stop the ones after it; all errors
// are reported together.
func (sm *ShutdownManager) shutdown(ctx context.Context) error {
	var errs []error

	if sm.server != nil {
		sm.logger.Info("Shutting down HTTP server")
		if err := sm.server.Shutdown(ctx); err != nil {
			sm.logger.WithError(err).Error("HTTP server shutdown failed")
			errs = append(errs, err)
		}
	}

	sm.mu.Lock()
	funcs := make([]ShutdownFunc, len(sm.funcs))
	copy(funcs, sm.funcs)
	sm.mu.Unlock()

	for i, fn := range funcs {
		if ctx.Err() != nil {
			sm.logger.Warn("Shutdown timeout reached, skipping remaining steps")
			errs = append(errs, ctx.Err())
			break
		}

		if err := fn(ctx); err != nil {
			sm.logger.WithError(err).Errorf("Shutdown step %d failed", i)
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	sm.logger.Info("Graceful shutdown complete")
	return nil
}
