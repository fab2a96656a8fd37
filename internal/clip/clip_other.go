//go:build !(linux || darwin || windows)

package clip

// New returns the headless backend on platforms without clipboard support.
func New() Backend { return NewHeadless() }
