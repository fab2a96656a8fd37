// Package app holds the process lifecycle shared by the daemon and the
// interactive browser: a single exit gate, signal handling, and the
// single-instance probe.
package app

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"go.clipstack.dev/clipstack/internal/ipc"
)

// App coordinates process shutdown. The first RequestExit wins; later calls
// are no-ops.
type App struct {
	mu       sync.Mutex
	closed   bool
	exitCode int
	done     chan struct{}

	// OnExit runs once, before Run returns, for teardown that must happen
	// on the main goroutine (saving tabs, removing the socket).
	OnExit func()
}

// New returns an App that has not been closed.
func New() *App {
	return &App{done: make(chan struct{})}
}

// Run blocks until RequestExit and returns the exit code. If the app was
// closed before Run was called, it returns immediately.
func (a *App) Run() int {
	<-a.done
	if a.OnExit != nil {
		a.OnExit()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.exitCode
}

// RequestExit closes the app with the given exit code. Only the first call
// has any effect.
func (a *App) RequestExit(code int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	a.exitCode = code
	close(a.done)
}

// WasClosed reports whether RequestExit has been called.
func (a *App) WasClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// HandleSignals requests a clean exit on the given signals. A failure to
// install handlers is not fatal; the app just won't react to signals.
func (a *App) HandleSignals(sigs ...os.Signal) {
	if len(sigs) == 0 {
		slog.Warn("no shutdown signals to handle")
		return
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		sig := <-ch
		slog.Info("received signal, shutting down", "signal", sig)
		a.RequestExit(0)
	}()
}

// EnsureSingleInstance reports whether this process may run: false when
// another daemon already answers on the IPC socket.
func EnsureSingleInstance() bool {
	return !ipc.IsRunning()
}
