// Package monitor owns the system clipboard: it watches for changes and
// appends them to the history tab, and applies copy requests back to the
// clipboard.
package monitor

import (
	"log/slog"
	"reflect"
	"sync"
	"time"

	"go.clipstack.dev/clipstack/internal/clip"
	"go.clipstack.dev/clipstack/internal/item"
	"go.clipstack.dev/clipstack/internal/tabs"
)

// Monitor bridges the clipboard backend and the tab engine.
type Monitor struct {
	backend clip.Backend
	engine  *tabs.Engine
	tab     string

	writeCh chan []clip.Item

	mu        sync.Mutex
	lastItems []clip.Item
	lastSeen  time.Time
}

// New creates the monitor but does not start it. Captured clipboard states
// are appended to the named tab.
func New(backend clip.Backend, engine *tabs.Engine, tab string) *Monitor {
	return &Monitor{
		backend: backend,
		engine:  engine,
		tab:     tab,
		writeCh: make(chan []clip.Item, 64),
	}
}

// LastSeen returns the time of the last observed clipboard change.
func (mon *Monitor) LastSeen() time.Time {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	return mon.lastSeen
}

// SetClipboard queues items to be written to the system clipboard.
func (mon *Monitor) SetClipboard(items []clip.Item) {
	select {
	case mon.writeCh <- items:
	default:
		slog.Warn("clipboard write queue full, dropping")
	}
}

// Run starts the write loop and blocks on the watch loop until the backend
// is closed; call in a goroutine.
func (mon *Monitor) Run() {
	slog.Info("clipboard monitor started", "backend", mon.backend.Name(), "tab", mon.tab)

	// Writer: apply copy requests to the system clipboard.
	go func() {
		for items := range mon.writeCh {
			if len(items) == 0 {
				continue
			}
			mon.mu.Lock()
			if reflect.DeepEqual(items, mon.lastItems) {
				mon.mu.Unlock()
				continue
			}
			mon.lastItems = items
			mon.lastSeen = time.Now()
			mon.mu.Unlock()

			if err := mon.backend.Write(items); err != nil {
				slog.Error("clipboard write failed", "err", err)
			} else {
				slog.Debug("clipboard updated", "items", len(items))
			}
		}
	}()

	// Watcher: capture clipboard changes into the history tab.
	for range mon.backend.Watch() {
		items, err := mon.backend.Read()
		if err != nil {
			slog.Error("clipboard read failed", "err", err)
			continue
		}
		if len(items) == 0 {
			continue
		}

		mon.mu.Lock()
		if reflect.DeepEqual(items, mon.lastItems) {
			mon.mu.Unlock()
			continue
		}
		mon.lastItems = items
		mon.lastSeen = time.Now()
		mon.mu.Unlock()

		slog.Debug("clipboard changed, capturing", "items", len(items))
		if err := mon.capture(items); err != nil {
			slog.Error("clipboard capture failed", "tab", mon.tab, "err", err)
		}
	}
}

// capture appends a clipboard state to the history tab, skipping an exact
// duplicate of the newest row.
func (mon *Monitor) capture(items []clip.Item) error {
	t, err := mon.engine.Open(mon.tab)
	if err != nil {
		return err
	}
	data := dataMap(items)
	if top := t.Model.At(0); top != nil && item.SameData(top.DataMap(), data) {
		return nil
	}
	return mon.engine.AddItem(t, data)
}

func dataMap(items []clip.Item) map[string][]byte {
	data := make(map[string][]byte, len(items))
	for _, it := range items {
		data[it.MIME] = it.Data
	}
	return data
}

// Items converts a payload mapping back to clipboard representations.
func Items(data map[string][]byte) []clip.Item {
	out := make([]clip.Item, 0, len(data))
	for mime, payload := range data {
		out = append(out, clip.Item{MIME: mime, Data: payload})
	}
	return out
}
