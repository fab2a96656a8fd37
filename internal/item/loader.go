package item

import (
	"io"
	"regexp"
)

// Command is a declarative action a loader contributes, shown as a
// context-menu entry for matching items.
type Command struct {
	Name string
	Key  string
	// Run receives the model and the rows the command was invoked on.
	Run func(m *Model, rows []int) error
}

// SelfTest is a named self-check a loader exposes; the doctor command runs
// every registered loader's suite.
type SelfTest struct {
	Name string
	Run  func() error
}

// Notification is an event emitted by a loader's signaler, e.g. when a
// backend changed out-of-band and the tab should reload.
type Notification struct {
	Loader string
	Event  string
	Tab    string
}

// Loader is the registry entry for one content-type family. Loaders are
// stateless: the registry consults them per candidate stream or creation
// request, and they produce Surfaces and Savers without owning either.
//
// Every method has a neutral default meaning "declined": false probes, nil
// factories, identity transforms. DefaultLoader provides those defaults.
type Loader interface {
	// ID returns the stable identifier of the content-type family.
	ID() string

	// CanLoadItems probes whether the stream holds items this loader can
	// parse. Implementations must not assume the stream position afterward.
	CanLoadItems(r io.ReadSeeker) bool

	// CanSaveItems probes whether this loader can persist the named tab.
	CanSaveItems(tabName string) bool

	// LoadItems parses the stream into m up to maxItems and returns the
	// tab's Saver. A nil Saver with nil error means "not handled".
	LoadItems(tabName string, m *Model, r io.ReadSeeker, maxItems int) (Saver, error)

	// InitializeTab creates a fresh empty backing store for a brand-new
	// tab. A nil Saver with nil error means "not handled".
	InitializeTab(tabName string, m *Model, maxItems int) (Saver, error)

	// CreateSurface builds a presentation surface for the payload, or nil
	// when this loader does not render this data. preview requests a
	// lighter rendering for preview panes.
	CreateSurface(data map[string][]byte, preview bool) Surface

	// TransformSurface may wrap another loader's surface (e.g. to add a
	// badge); nil means no transformation.
	TransformSurface(s Surface, data map[string][]byte) Surface

	// TransformSaver may wrap a tab's saver; the default returns the input
	// unchanged.
	TransformSaver(s Saver, m *Model) Saver

	// Matches reports whether the item at row matches the search pattern.
	Matches(m *Model, row int, re *regexp.Regexp) bool

	// Commands returns the declarative actions this loader contributes.
	Commands() []Command

	// ScriptableObject returns the loader's scripting bridge, or nil.
	ScriptableObject() *Scriptable

	// Signaler returns a read-only notification source, or nil.
	Signaler() <-chan Notification

	// SelfTests returns the loader's self-check suite, or nil.
	SelfTests() []SelfTest
}

// DefaultLoader implements every Loader method except ID with the neutral
// "declined" defaults. Content-type modules embed it and implement only the
// subset they need.
type DefaultLoader struct{}

func (DefaultLoader) CanLoadItems(io.ReadSeeker) bool { return false }

func (DefaultLoader) CanSaveItems(string) bool { return false }

func (DefaultLoader) LoadItems(string, *Model, io.ReadSeeker, int) (Saver, error) {
	return nil, nil
}

func (DefaultLoader) InitializeTab(string, *Model, int) (Saver, error) { return nil, nil }

func (DefaultLoader) CreateSurface(map[string][]byte, bool) Surface { return nil }

func (DefaultLoader) TransformSurface(Surface, map[string][]byte) Surface { return nil }

func (DefaultLoader) TransformSaver(s Saver, _ *Model) Saver { return s }

func (DefaultLoader) Matches(*Model, int, *regexp.Regexp) bool { return false }

func (DefaultLoader) Commands() []Command { return nil }

func (DefaultLoader) ScriptableObject() *Scriptable { return nil }

func (DefaultLoader) Signaler() <-chan Notification { return nil }

func (DefaultLoader) SelfTests() []SelfTest { return nil }
