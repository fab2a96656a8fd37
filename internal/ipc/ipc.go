// Package ipc provides helpers for the local IPC channel used by CLI tools
// (copy/paste/status) and the TUI browser to talk to a running clipstack
// daemon.
//
// The channel carries the newline-delimited JSON protocol from the message
// and wire packages over a Unix domain socket (a named pipe on Windows).
// The daemon listens on the socket; sub-commands probe for it with IsRunning
// and report an error if it is absent. The socket doubles as the
// single-instance lock: a second daemon refuses to start while the probe
// succeeds.
package ipc

import (
	"net"
	"os"
)

// SocketPath returns the platform-appropriate path for the IPC socket.
// Override with $CLIPSTACK_SOCKET.
func SocketPath() string {
	if s := os.Getenv("CLIPSTACK_SOCKET"); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a clipstack daemon appears to be listening on
// the IPC socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := Dial()
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates and returns a net.Listener on the IPC socket path, removing
// any stale socket file first.
func Listen() (net.Listener, error) {
	path := SocketPath()
	// Remove stale socket from a previous (crashed) run.
	_ = os.Remove(path)
	return listenIPC(path)
}

// Dial connects to the IPC socket of a running daemon.
func Dial() (net.Conn, error) {
	return dialIPC(SocketPath())
}
