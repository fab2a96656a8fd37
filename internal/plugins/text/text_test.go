package text

import (
	"regexp"
	"strings"
	"testing"

	"go.clipstack.dev/clipstack/internal/item"
)

func modelOf(texts ...string) *item.Model {
	m := item.NewModel()
	for _, s := range texts {
		m.Append(item.New(map[string][]byte{item.MimeText: []byte(s)}))
	}
	return m
}

func TestSaveLoadRoundTrip(t *testing.T) {
	l := New()
	m := modelOf("first", "second line\nwith newline")
	m.At(0).Time = m.At(0).Time.Truncate(0)

	var buf strings.Builder
	if err := (&Saver{}).SaveItems("tab", m, &buf); err != nil {
		t.Fatalf("SaveItems: %v", err)
	}

	got := item.NewModel()
	saver, err := l.LoadItems("tab", got, strings.NewReader(buf.String()), 0)
	if err != nil {
		t.Fatalf("LoadItems: %v", err)
	}
	if saver == nil {
		t.Fatalf("loader declined its own output")
	}
	if got.Len() != 2 {
		t.Fatalf("len = %d, want 2", got.Len())
	}
	if got.At(1).Text() != "second line\nwith newline" {
		t.Errorf("newline payload mangled: %q", got.At(1).Text())
	}
	if !got.At(0).Time.Equal(m.At(0).Time) {
		t.Errorf("timestamp not preserved")
	}
}

func TestCanLoadItemsSniffsHeader(t *testing.T) {
	l := New()
	var buf strings.Builder
	_ = (&Saver{}).SaveItems("tab", modelOf("x"), &buf)

	if !l.CanLoadItems(strings.NewReader(buf.String())) {
		t.Errorf("own format not recognized")
	}
	if l.CanLoadItems(strings.NewReader("CSVAULT1\ngarbage")) {
		t.Errorf("foreign format accepted")
	}
	if l.CanLoadItems(strings.NewReader("")) {
		t.Errorf("empty stream accepted")
	}
}

func TestLoadItemsHonorsMaxItems(t *testing.T) {
	l := New()
	var buf strings.Builder
	_ = (&Saver{}).SaveItems("tab", modelOf("a", "b", "c", "d"), &buf)

	got := item.NewModel()
	if _, err := l.LoadItems("tab", got, strings.NewReader(buf.String()), 2); err != nil {
		t.Fatalf("LoadItems: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("len = %d, want 2", got.Len())
	}
}

func TestCanSaveItemsIsUniversal(t *testing.T) {
	if !New().CanSaveItems("anything at all") {
		t.Fatalf("text module must accept every tab")
	}
}

func TestCreateSurfaceRequiresText(t *testing.T) {
	l := New()
	if s := l.CreateSurface(map[string][]byte{item.MimePNG: {1}}, false); s != nil {
		t.Errorf("surface for image-only payload, want nil")
	}
	if s := l.CreateSurface(map[string][]byte{item.MimeText: []byte("hi")}, false); s == nil {
		t.Errorf("no surface for text payload")
	}
}

func TestSurfaceAnchorsFromURLs(t *testing.T) {
	s := NewSurface("see https://example.com/page for details", false)
	v := s.TextView()
	if v.AnchorAt(0) != "" {
		t.Errorf("anchor before the URL")
	}
	if got := v.AnchorAt(6); got != "https://example.com/page" {
		t.Errorf("AnchorAt(6) = %q", got)
	}
}

func TestMatchesRegexAndFuzzy(t *testing.T) {
	l := New()
	m := modelOf("the quick brown fox")

	if !l.Matches(m, 0, regexp.MustCompile("quick")) {
		t.Errorf("literal match failed")
	}
	// One edit away from "quick".
	if !l.Matches(m, 0, regexp.MustCompile("quik")) {
		t.Errorf("fuzzy match failed")
	}
	if l.Matches(m, 0, regexp.MustCompile("zebra")) {
		t.Errorf("unrelated pattern matched")
	}
	// Metacharacters disable the fuzzy fallback.
	if l.Matches(m, 0, regexp.MustCompile(`qu.ck\d`)) {
		t.Errorf("metacharacter pattern matched fuzzily")
	}
}

func TestTrimWhitespaceCommand(t *testing.T) {
	l := New()
	m := modelOf("  padded  ")

	cmds := l.Commands()
	if len(cmds) != 1 || cmds[0].Name != "Trim Whitespace" {
		t.Fatalf("commands = %+v", cmds)
	}
	if err := cmds[0].Run(m, []int{0}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if m.At(0).Text() != "padded" {
		t.Errorf("text = %q, want padded", m.At(0).Text())
	}
}

func TestSelfTestsPass(t *testing.T) {
	for _, st := range New().SelfTests() {
		if err := st.Run(); err != nil {
			t.Errorf("self-test %s: %v", st.Name, err)
		}
	}
}
