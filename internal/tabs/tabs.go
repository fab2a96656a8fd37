// Package tabs implements the tab engine: named, ordered collections of
// items, each bound to exactly one Saver produced by the loader registry.
// Tabs are created on first access, persisted through their saver on
// change, and destroyed on removal. All mutating operations (remove, move,
// copy) are gated by the tab's saver.
package tabs

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.clipstack.dev/clipstack/internal/item"
)

// RefusedError reports that a saver refused a removal, with the backend's
// human-readable reason.
type RefusedError struct {
	Reason string
}

func (e *RefusedError) Error() string {
	if e.Reason == "" {
		return "operation refused by tab backend"
	}
	return e.Reason
}

// Tab is a named, ordered collection of items with one associated saver.
type Tab struct {
	Name  string
	Model *item.Model
	Saver item.Saver
}

// Engine loads, persists and mutates tabs through the loader registry.
// It is safe for concurrent use; all operations serialize on one lock.
type Engine struct {
	reg      *item.Registry
	dir      string
	maxItems int

	mu   sync.Mutex
	tabs map[string]*Tab

	// onSaveFailed is invoked when persisting a tab fails; the in-memory
	// items stay unchanged.
	onSaveFailed func(tab string, err error)
}

// NewEngine returns an engine storing tab files under dir, capping every
// tab at maxItems rows (0 = unlimited).
func NewEngine(reg *item.Registry, dir string, maxItems int) *Engine {
	return &Engine{
		reg:      reg,
		dir:      dir,
		maxItems: maxItems,
		tabs:     make(map[string]*Tab),
	}
}

// SetSaveFailedHandler registers the save-failure notification hook.
func (e *Engine) SetSaveFailedHandler(fn func(tab string, err error)) {
	e.onSaveFailed = fn
}

// Dir returns the tab storage directory.
func (e *Engine) Dir() string { return e.dir }

// TabPath returns the backing file path for a tab name.
func (e *Engine) TabPath(name string) string {
	return filepath.Join(e.dir, url.PathEscape(name)+".tab")
}

// Names returns the names of all tabs present on disk or open in memory,
// sorted.
func (e *Engine) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	seen := make(map[string]bool, len(e.tabs))
	for name := range e.tabs {
		seen[name] = true
	}
	if entries, err := os.ReadDir(e.dir); err == nil {
		for _, ent := range entries {
			base := ent.Name()
			if filepath.Ext(base) != ".tab" {
				continue
			}
			name, err := url.PathUnescape(base[:len(base)-len(".tab")])
			if err == nil {
				seen[name] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Open returns the named tab, loading it from disk or creating it on first
// access.
func (e *Engine) Open(name string) (*Tab, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.tabs[name]; ok {
		return t, nil
	}
	if err := os.MkdirAll(e.dir, 0o700); err != nil {
		return nil, fmt.Errorf("tab dir: %w", err)
	}

	m := item.NewModel()
	path := e.TabPath(name)

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		saver, err := e.reg.LoadItems(name, m, f, e.maxItems)
		if err != nil {
			return nil, fmt.Errorf("load tab %q: %w", name, err)
		}
		if saver == nil {
			return nil, fmt.Errorf("load tab %q: no loader accepts its format", name)
		}
		t := &Tab{Name: name, Model: m, Saver: saver}
		e.tabs[name] = t
		slog.Info("tab loaded", "tab", name, "items", m.Len())
		return t, nil

	case errors.Is(err, os.ErrNotExist):
		saver, err := e.reg.InitializeTab(name, m, e.maxItems)
		if err != nil {
			return nil, fmt.Errorf("initialize tab %q: %w", name, err)
		}
		if saver == nil {
			return nil, fmt.Errorf("initialize tab %q: no loader can persist it", name)
		}
		t := &Tab{Name: name, Model: m, Saver: saver}
		e.tabs[name] = t
		slog.Info("tab created", "tab", name)
		return t, nil

	default:
		return nil, fmt.Errorf("open tab %q: %w", name, err)
	}
}

// Save persists a tab through its saver, writing to a temporary file and
// renaming it into place. On failure the in-memory items are unchanged and
// the save-failure hook fires.
func (e *Engine) Save(t *Tab) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saveNotify(t)
}

func (e *Engine) saveNotify(t *Tab) error {
	err := e.save(t)
	if err != nil {
		slog.Error("tab save failed", "tab", t.Name, "err", err)
		if e.onSaveFailed != nil {
			e.onSaveFailed(t.Name, err)
		}
	}
	return err
}

func (e *Engine) save(t *Tab) error {
	tmp, err := os.CreateTemp(e.dir, "."+url.PathEscape(t.Name)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := t.Saver.SaveItems(t.Name, t.Model, tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save items: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), e.TabPath(t.Name)); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	for _, it := range t.Model.Items() {
		it.Modified = false
	}
	return nil
}

// AddItem prepends a new item to the tab, evicts rows beyond the cap and
// persists.
func (e *Engine) AddItem(t *Tab, data map[string][]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t.Model.InsertFront(item.New(data))
	t.Model.Truncate(e.maxItems)
	return e.saveNotify(t)
}

// RemoveItems removes rows from the tab if its saver permits, notifies the
// saver and persists. A refusal is returned as a RefusedError.
func (e *Engine) RemoveItems(t *Tab, rows []int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok, reason := t.Saver.CanRemoveItems(rows)
	if !ok {
		return &RefusedError{Reason: reason}
	}
	t.Model.Remove(rows)
	t.Saver.ItemsRemovedByUser(rows)
	return e.saveNotify(t)
}

// MoveItems reorders rows within the tab if its saver permits and persists.
func (e *Engine) MoveItems(t *Tab, rows []int, target int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !t.Saver.CanMoveItems(rows) {
		return &RefusedError{Reason: "tab does not allow reordering"}
	}
	t.Model.Move(rows, target)
	return e.saveNotify(t)
}

// CopyItems duplicates rows of src into dst, passing each payload through
// dst's CopyItem transform hook, and persists dst.
func (e *Engine) CopyItems(src *Tab, rows []int, dst *Tab) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, row := range rows {
		it := src.Model.At(row)
		if it == nil {
			continue
		}
		data := dst.Saver.CopyItem(src.Model, it.DataMap())
		dst.Model.InsertFront(item.New(data))
	}
	dst.Model.Truncate(e.maxItems)
	return e.saveNotify(dst)
}

// UpdateItem replaces the textual payload of a row via the model's update
// path and persists.
func (e *Engine) UpdateItem(t *Tab, row int, text, html []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t.Model.UpdateText(row, text, html)
	return e.saveNotify(t)
}

// RemoveTab destroys a tab: its backing file is deleted and it is dropped
// from memory.
func (e *Engine) RemoveTab(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.tabs, name)
	if err := os.Remove(e.TabPath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove tab %q: %w", name, err)
	}
	slog.Info("tab removed", "tab", name)
	return nil
}

// Close persists every open tab, logging failures.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range e.tabs {
		_ = e.saveNotify(t)
	}
}
