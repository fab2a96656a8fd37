package item

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// fakeLoader is a configurable test loader; zero value declines everything.
type fakeLoader struct {
	DefaultLoader
	id string

	canLoad   bool
	loadErr   error
	surface   Surface
	transform func(Surface) Surface
	wrapSaver func(Saver) Saver

	probes int
	loads  int
}

func (l *fakeLoader) ID() string { return l.id }

func (l *fakeLoader) CanLoadItems(r io.ReadSeeker) bool {
	l.probes++
	// Consume part of the stream; the registry must rewind for the next probe.
	buf := make([]byte, 4)
	_, _ = r.Read(buf)
	return l.canLoad
}

func (l *fakeLoader) LoadItems(tabName string, m *Model, r io.ReadSeeker, maxItems int) (Saver, error) {
	l.loads++
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	b, _ := io.ReadAll(r)
	m.Append(New(map[string][]byte{MimeText: b}))
	return &DefaultSaver{}, nil
}

func (l *fakeLoader) CreateSurface(data map[string][]byte, preview bool) Surface {
	return l.surface
}

func (l *fakeLoader) TransformSurface(s Surface, data map[string][]byte) Surface {
	if l.transform == nil {
		return nil
	}
	return l.transform(s)
}

func (l *fakeLoader) TransformSaver(s Saver, m *Model) Saver {
	if l.wrapSaver == nil {
		return s
	}
	return l.wrapSaver(s)
}

type namedSaver struct {
	DefaultSaver
	name string
}

func TestLoadItemsFallsThroughToAcceptingLoader(t *testing.T) {
	declining := &fakeLoader{id: "no"}
	accepting := &fakeLoader{id: "yes", canLoad: true}
	reg := NewRegistry(declining, accepting)

	m := NewModel()
	saver, err := reg.LoadItems("tab", m, strings.NewReader("payload"), 0)
	if err != nil {
		t.Fatalf("LoadItems: %v", err)
	}
	if saver == nil {
		t.Fatalf("no loader accepted the stream")
	}
	if declining.loads != 0 {
		t.Errorf("declining loader was asked to parse")
	}
	if accepting.loads != 1 {
		t.Errorf("accepting loader parsed %d times, want 1", accepting.loads)
	}
	// The stream must be rewound before the accepted parse: the full
	// payload lands in the model even though earlier probes read from it.
	if m.Len() != 1 || m.At(0).Text() != "payload" {
		t.Errorf("model content = %v", rowTexts(m))
	}
}

func TestLoadItemsPropagatesClaimedLoaderError(t *testing.T) {
	// A loader whose probe claims the stream owns it: its parse error must
	// surface instead of letting later loaders misread the data.
	parseErr := errors.New("store is locked")
	failing := &fakeLoader{id: "bad", canLoad: true, loadErr: parseErr}
	fallback := &fakeLoader{id: "yes", canLoad: true}
	reg := NewRegistry(failing, fallback)

	saver, err := reg.LoadItems("tab", NewModel(), strings.NewReader("payload"), 0)
	if !errors.Is(err, parseErr) {
		t.Fatalf("err = %v, want the claiming loader's error", err)
	}
	if saver != nil {
		t.Fatalf("saver = %v, want nil", saver)
	}
	if fallback.loads != 0 {
		t.Errorf("later loader parsed a stream another loader claimed")
	}
}

func TestLoadItemsNilWhenNobodyAccepts(t *testing.T) {
	reg := NewRegistry(&fakeLoader{id: "no"}, &fakeLoader{id: "also-no"})
	saver, err := reg.LoadItems("tab", NewModel(), strings.NewReader("x"), 0)
	if err != nil {
		t.Fatalf("LoadItems: %v", err)
	}
	if saver != nil {
		t.Fatalf("saver = %v, want nil (declined)", saver)
	}
}

func TestTransformSaverChainRunsInOrder(t *testing.T) {
	var order []string
	wrap := func(tag string) func(Saver) Saver {
		return func(s Saver) Saver {
			order = append(order, tag)
			return &namedSaver{name: tag}
		}
	}
	reg := NewRegistry(
		&fakeLoader{id: "a", canLoad: true, wrapSaver: wrap("a")},
		&fakeLoader{id: "b", wrapSaver: wrap("b")},
	)

	saver, err := reg.LoadItems("tab", NewModel(), strings.NewReader("x"), 0)
	if err != nil || saver == nil {
		t.Fatalf("LoadItems: saver=%v err=%v", saver, err)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("transform order = %v, want [a b]", order)
	}
	if ns, ok := saver.(*namedSaver); !ok || ns.name != "b" {
		t.Fatalf("final saver = %#v, want namedSaver b", saver)
	}
}

func TestCreateSurfaceFirstNonNilWins(t *testing.T) {
	first := NewDefaultSurface(nil)
	second := NewDefaultSurface(nil)
	reg := NewRegistry(
		&fakeLoader{id: "none"},
		&fakeLoader{id: "first", surface: first},
		&fakeLoader{id: "second", surface: second},
	)
	if got := reg.CreateSurface(nil, false); got != Surface(first) {
		t.Fatalf("CreateSurface returned the wrong loader's surface")
	}
}

func TestCreateSurfaceAppliesTransforms(t *testing.T) {
	base := NewDefaultSurface(nil)
	wrapped := NewDefaultSurface(nil)
	reg := NewRegistry(
		&fakeLoader{id: "renders", surface: base},
		&fakeLoader{id: "decorates", transform: func(s Surface) Surface {
			if s != Surface(base) {
				t.Fatalf("transform received %v, want the rendered surface", s)
			}
			return wrapped
		}},
	)
	if got := reg.CreateSurface(nil, false); got != Surface(wrapped) {
		t.Fatalf("transform result was discarded")
	}
}

func TestCreateSurfaceNilWhenNobodyRenders(t *testing.T) {
	reg := NewRegistry(&fakeLoader{id: "none"})
	if s := reg.CreateSurface(map[string][]byte{MimeText: []byte("x")}, true); s != nil {
		t.Fatalf("surface = %v, want nil", s)
	}
}

func TestLoaderByID(t *testing.T) {
	a := &fakeLoader{id: "a"}
	reg := NewRegistry(a)
	if reg.Loader("a") != Loader(a) {
		t.Errorf("Loader(a) lookup failed")
	}
	if reg.Loader("missing") != nil {
		t.Errorf("unknown ID must return nil")
	}
}

// ---- Neutral defaults ----

func TestDefaultSaverNeutralBehavior(t *testing.T) {
	var s DefaultSaver

	if err := s.SaveItems("tab", NewModel(), io.Discard); !errors.Is(err, ErrNoBackend) {
		t.Errorf("SaveItems err = %v, want ErrNoBackend", err)
	}
	if ok, reason := s.CanRemoveItems([]int{0}); !ok || reason != "" {
		t.Errorf("CanRemoveItems = %v %q, want true \"\"", ok, reason)
	}
	if !s.CanMoveItems([]int{0}) {
		t.Errorf("CanMoveItems must default to true")
	}
	data := map[string][]byte{MimeText: []byte("x")}
	if got := s.CopyItem(NewModel(), data); !SameData(got, data) {
		t.Errorf("CopyItem must be the identity")
	}
	s.ItemsRemovedByUser([]int{0}) // must not panic
}

func TestDefaultLoaderNeutralBehavior(t *testing.T) {
	var l DefaultLoader

	if l.CanLoadItems(strings.NewReader("x")) {
		t.Errorf("CanLoadItems must default to false")
	}
	if l.CanSaveItems("tab") {
		t.Errorf("CanSaveItems must default to false")
	}
	if saver, err := l.LoadItems("tab", NewModel(), strings.NewReader("x"), 0); saver != nil || err != nil {
		t.Errorf("LoadItems = %v %v, want nil nil", saver, err)
	}
	if s := l.CreateSurface(nil, false); s != nil {
		t.Errorf("CreateSurface must default to nil")
	}
	in := &DefaultSaver{}
	if got := l.TransformSaver(in, nil); got != Saver(in) {
		t.Errorf("TransformSaver must default to the identity")
	}
	if l.TransformSurface(nil, nil) != nil {
		t.Errorf("TransformSurface must default to nil")
	}
	if l.Signaler() != nil || l.ScriptableObject() != nil || l.SelfTests() != nil {
		t.Errorf("optional hooks must default to nil")
	}
}

func TestScriptableBridge(t *testing.T) {
	s := NewScriptable(nil)
	if _, err := s.Eval("1+1"); !errors.Is(err, ErrNoInterpreter) {
		t.Fatalf("Eval without interpreter: err = %v", err)
	}
	if s.CurrentArguments() != nil {
		t.Fatalf("CurrentArguments without interpreter must be nil")
	}

	s.Attach(&stubInterpreter{result: 2})
	got, err := s.Eval("1+1")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got != 2 {
		t.Fatalf("Eval = %v, want 2", got)
	}
}

type stubInterpreter struct {
	result any
}

func (i *stubInterpreter) Call(method string, args []any) (any, error) { return i.result, nil }
func (i *stubInterpreter) CurrentArguments() []any                     { return nil }
