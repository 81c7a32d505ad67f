package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// TestNewShutdownManager tests the creation of a new shutdown manager
func TestNewShutdownManager(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{
			name:            "with custom timeout",
			timeout:         10 * time.Second,
			expectedTimeout: 10 * time.Second,
		},
		{
			name:            "with zero timeout uses default",
			timeout:         0,
			expectedTimeout: 30 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := discardLogger()
			server := &http.Server{}

			sm := NewShutdownManager(logger, server, tt.timeout)

			if sm == nil {
				t.Fatal("Expected non-nil shutdown manager")
			}
			if sm.log != logger {
				t.Error("Logger not set correctly")
			}
			if sm.server != server {
				t.Error("Server not set correctly")
			}
			if sm.shutdownTimeout != tt.expectedTimeout {
				t.Errorf("Expected timeout %v, got %v", tt.expectedTimeout, sm.shutdownTimeout)
			}
			if len(sm.shutdownFuncs) != 0 {
				t.Error("Expected empty shutdown functions slice")
			}
		})
	}
}

// TestNewShutdownManagerWithNilLogger tests creation with nil logger
func TestNewShutdownManagerWithNilLogger(t *testing.T) {
	sm := NewShutdownManager(nil, nil, 5*time.Second)

	if sm.log == nil {
		t.Fatal("Expected default logger")
	}
}

// TestRegisterShutdownFunc tests registering shutdown functions
func TestRegisterShutdownFunc(t *testing.T) {
	sm := NewShutdownManager(discardLogger(), nil, 5*time.Second)

	sm.RegisterShutdownFunc(func(ctx context.Context) error { return nil })
	sm.RegisterShutdownFunc(nil)

	if len(sm.shutdownFuncs) != 1 {
		t.Errorf("Expected 1 shutdown function, got %d", len(sm.shutdownFuncs))
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sm.RegisterShutdownFunc(func(ctx context.Context) error { return nil })
		}()
	}
	wg.Wait()

	if len(sm.shutdownFuncs) != 11 {
		t.Errorf("Expected 11 shutdown functions, got %d", len(sm.shutdownFuncs))
	}
}

// TestShutdownFunctionsExecution tests that shutdown functions run in order and errors are joined
func TestShutdownFunctionsExecution(t *testing.T) {
	errFirst := errors.New("error 1")
	errThird := errors.New("error 3")

	sm := NewShutdownManager(discardLogger(), nil, 5*time.Second)

	var order []int
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		order = append(order, 1)
		return errFirst
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		order = append(order, 2)
		return nil
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		order = append(order, 3)
		return errThird
	})

	err := sm.Shutdown(context.Background())

	if !errors.Is(err, errFirst) || !errors.Is(err, errThird) {
		t.Errorf("Expected joined errors, got %v", err)
	}
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("Expected functions to run in registration order, got %v", order)
	}
}

// TestShutdownSuccess tests a clean shutdown
func TestShutdownSuccess(t *testing.T) {
	sm := NewShutdownManager(discardLogger(), nil, 5*time.Second)

	called := false
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		called = true
		return nil
	})

	if err := sm.Shutdown(context.Background()); err != nil {
		t.Errorf("Expected no error but got: %v", err)
	}
	if !called {
		t.Error("Expected shutdown function to be called")
	}
}

// TestShutdownTimeout tests that remaining functions are skipped once the timeout elapses
func TestShutdownTimeout(t *testing.T) {
	sm := NewShutdownManager(discardLogger(), nil, 20*time.Millisecond)

	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	skipped := true
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		skipped = false
		return nil
	})

	err := sm.Shutdown(context.Background())

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	if !skipped {
		t.Error("Expected second shutdown function to be skipped")
	}
}

// TestShutdownWithHTTPServer tests shutdown with a running HTTP server
func TestShutdownWithHTTPServer(t *testing.T) {
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	server.Start()
	defer server.Close()

	sm := NewShutdownManager(discardLogger(), server.Config, 5*time.Second)

	if err := sm.Shutdown(context.Background()); err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}

	if _, err := http.Get(server.URL); err == nil {
		t.Error("Expected request to fail after shutdown")
	}
}

// TestWaitForShutdown tests that cancellation of ctx triggers shutdown
func TestWaitForShutdown(t *testing.T) {
	sm := NewShutdownManager(discardLogger(), nil, 5*time.Second)

	done := make(chan struct{})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		close(done)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- sm.WaitForShutdown(ctx)
	}()

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Expected no error but got: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForShutdown did not return")
	}

	select {
	case <-done:
	default:
		t.Error("Expected shutdown function to be called")
	}
}
