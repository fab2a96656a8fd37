package item

import (
	"fmt"
	"io"
	"regexp"
)

// Registry is the process-wide ordered collection of Loaders. It is
// constructed once at startup and passed explicitly to the tab engine and
// the row container; loaders are consulted in registration order and every
// "declined" outcome falls through to the next candidate.
type Registry struct {
	loaders []Loader
}

// NewRegistry returns a registry holding loaders in the given order.
func NewRegistry(loaders ...Loader) *Registry {
	return &Registry{loaders: loaders}
}

// Register appends a loader.
func (r *Registry) Register(l Loader) { r.loaders = append(r.loaders, l) }

// Loaders returns the loaders in registration order.
func (r *Registry) Loaders() []Loader { return r.loaders }

// Loader returns the loader with the given ID, or nil.
func (r *Registry) Loader(id string) Loader {
	for _, l := range r.loaders {
		if l.ID() == id {
			return l
		}
	}
	return nil
}

// CreateSurface asks each loader in order for a surface and then offers the
// result to every loader's TransformSurface hook. Returns nil when no
// loader renders the payload.
func (r *Registry) CreateSurface(data map[string][]byte, preview bool) Surface {
	var s Surface
	for _, l := range r.loaders {
		if s = l.CreateSurface(data, preview); s != nil {
			break
		}
	}
	if s == nil {
		return nil
	}
	for _, l := range r.loaders {
		if t := l.TransformSurface(s, data); t != nil {
			s = t
		}
	}
	return s
}

// LoadItems probes each loader against the stream and lets the first one
// that accepts it parse the tab. The resulting saver is passed through
// every loader's TransformSaver hook. A nil saver means no loader handled
// the stream.
//
// Declines (false probe, nil saver) fall through to the next loader. A
// parse error from a loader whose probe claimed the stream propagates:
// the stream is that loader's format, and letting another loader misread
// it would hide the real failure (a locked vault, a corrupt database).
func (r *Registry) LoadItems(tabName string, m *Model, rs io.ReadSeeker, maxItems int) (Saver, error) {
	for _, l := range r.loaders {
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		if !l.CanLoadItems(rs) {
			continue
		}
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		saver, err := l.LoadItems(tabName, m, rs, maxItems)
		if err != nil {
			return nil, fmt.Errorf("loader %q: %w", l.ID(), err)
		}
		if saver == nil {
			continue
		}
		return r.TransformSaver(saver, m), nil
	}
	return nil, nil
}

// InitializeTab asks loaders in order to create a fresh backing store for a
// brand-new tab, then applies the TransformSaver chain. A nil saver means
// no loader can persist the tab.
func (r *Registry) InitializeTab(tabName string, m *Model, maxItems int) (Saver, error) {
	for _, l := range r.loaders {
		if !l.CanSaveItems(tabName) {
			continue
		}
		saver, err := l.InitializeTab(tabName, m, maxItems)
		if err != nil {
			return nil, err
		}
		if saver == nil {
			continue
		}
		return r.TransformSaver(saver, m), nil
	}
	return nil, nil
}

// TransformSaver offers the saver to every loader's TransformSaver hook in
// order.
func (r *Registry) TransformSaver(s Saver, m *Model) Saver {
	for _, l := range r.loaders {
		s = l.TransformSaver(s, m)
	}
	return s
}

// Matches reports whether any loader matches the item at row against re.
func (r *Registry) Matches(m *Model, row int, re *regexp.Regexp) bool {
	for _, l := range r.loaders {
		if l.Matches(m, row, re) {
			return true
		}
	}
	return false
}

// Commands collects the declarative actions of all loaders.
func (r *Registry) Commands() []Command {
	var out []Command
	for _, l := range r.loaders {
		out = append(out, l.Commands()...)
	}
	return out
}
