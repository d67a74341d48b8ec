package observability

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietTestLogger() *Logger {
	return NewLogger(ErrorLevel, &bytes.Buffer{})
}

// TestNewShutdownManager_DefaultTimeout tests the timeout fallback
func TestNewShutdownManager_DefaultTimeout(t *testing.T) {
	sm := NewShutdownManager(quietTestLogger(), nil, 0)
	assert.Equal(t, defaultShutdownTimeout, sm.timeout)

	sm = NewShutdownManager(quietTestLogger(), nil, 5*time.Second)
	assert.Equal(t, 5*time.Second, sm.timeout)
}

// TestShutdown_RunsStepsInOrder tests sequential registration-order execution
func TestShutdown_RunsStepsInOrder(t *testing.T) {
	sm := NewShutdownManager(quietTestLogger(), nil, time.Second)

	var order []string
	for _, name := range []string{"api", "extensions", "telemetry"} {
		step := name
		sm.RegisterShutdownFunc(func(ctx context.Context) error {
			order = append(order, step)
			return nil
		})
	}

	require.NoError(t, sm.shutdown(context.Background()))
	assert.Equal(t, []string{"api", "extensions", "telemetry"}, order)
}

// TestShutdown_CollectsErrors tests that a failing step does not stop later ones
func TestShutdown_CollectsErrors(t *testing.T) {
	sm := NewShutdownManager(quietTestLogger(), nil, time.Second)

	var ran []int
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		ran = append(ran, 1)
		return errors.New("extensions refused to stop")
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		ran = append(ran, 2)
		return nil
	})

	err := sm.shutdown(context.Background())
	assert.ErrorContains(t, err, "extensions refused to stop")
	assert.Equal(t, []int{1, 2}, ran)
}

// TestShutdown_TimeoutSkipsRemaining tests the expired-context path
func TestShutdown_TimeoutSkipsRemaining(t *testing.T) {
	sm := NewShutdownManager(quietTestLogger(), nil, time.Second)

	var ran []int
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		ran = append(ran, 1)
		return nil
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		ran = append(ran, 2)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sm.shutdown(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ran)
}

// TestShutdown_DrainsServer tests that the HTTP server is shut down first
func TestShutdown_DrainsServer(t *testing.T) {
	server := &http.Server{}
	sm := NewShutdownManager(quietTestLogger(), server, time.Second)

	require.NoError(t, sm.shutdown(context.Background()))

	// A shut-down server refuses to serve again.
	assert.ErrorIs(t, server.ListenAndServe(), http.ErrServerClosed)
}

// TestWaitForShutdown_Signal tests the signal-driven path end to end
func TestWaitForShutdown_Signal(t *testing.T) {
	sm := NewShutdownManager(quietTestLogger(), nil, time.Second)

	ran := make(chan struct{})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		close(ran)
		return nil
	})

	done := make(chan error, 1)
	go func() {
		done <- sm.WaitForShutdown()
	}()

	// Give WaitForShutdown time to install its signal handler.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete after signal")
	}

	select {
	case <-ran:
	default:
		t.Fatal("shutdown step did not run")
	}
}
