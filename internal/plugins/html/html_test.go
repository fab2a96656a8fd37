package html

import (
	"regexp"
	"strings"
	"testing"

	"go.clipstack.dev/clipstack/internal/item"
)

func TestExtractTextStripsMarkup(t *testing.T) {
	got := strings.TrimSpace(ExtractText("<p>hello <b>bold</b> world</p>"))
	if got != "hello bold world" {
		t.Fatalf("ExtractText = %q", got)
	}
}

func TestExtractTextSkipsScriptAndStyle(t *testing.T) {
	src := "<style>p{color:red}</style><p>visible</p><script>alert(1)</script>"
	got := strings.TrimSpace(ExtractText(src))
	if got != "visible" {
		t.Fatalf("ExtractText = %q", got)
	}
}

func TestCreateSurfaceRequiresHTML(t *testing.T) {
	l := New()
	if s := l.CreateSurface(map[string][]byte{item.MimeText: []byte("plain")}, false); s != nil {
		t.Errorf("surface without html payload, want nil")
	}
	if s := l.CreateSurface(map[string][]byte{item.MimeHTML: []byte("<b>x</b>")}, false); s == nil {
		t.Errorf("no surface for html payload")
	}
}

func TestSurfaceAnchorsFromLinks(t *testing.T) {
	s := NewSurface(`go to <a href="https://example.com">here</a> now`, false)
	v := s.TextView()
	// Visible text is "go to here now"; the anchor covers "here".
	if got := v.AnchorAt(6); got != "https://example.com" {
		t.Errorf("AnchorAt(6) = %q", got)
	}
	if v.AnchorAt(0) != "" {
		t.Errorf("anchor outside the link range")
	}
}

func TestMatchesSearchesVisibleTextOnly(t *testing.T) {
	l := New()
	m := item.NewModel()
	m.Append(item.New(map[string][]byte{
		item.MimeText: []byte("irrelevant"),
		item.MimeHTML: []byte(`<div class="needle">haystack</div>`),
	}))

	if !l.Matches(m, 0, regexp.MustCompile("haystack")) {
		t.Errorf("visible text not matched")
	}
	// Markup must never produce a hit.
	if l.Matches(m, 0, regexp.MustCompile("needle")) {
		t.Errorf("matched attribute markup")
	}
	if l.Matches(m, 0, regexp.MustCompile("div")) {
		t.Errorf("matched tag name")
	}
}

func TestMatchesDeclinesWithoutHTML(t *testing.T) {
	l := New()
	m := item.NewModel()
	m.Append(item.New(map[string][]byte{item.MimeText: []byte("plain")}))
	if l.Matches(m, 0, regexp.MustCompile("plain")) {
		t.Fatalf("matched an item without an html payload")
	}
}

func TestPreviewSurfaceClampsToOneLine(t *testing.T) {
	src := "<p>" + strings.Repeat("word ", 40) + "</p>"
	s := NewSurface(src, true)
	s.UpdateSize(item.Size{W: 20, H: 10}, 20)
	if got := s.Size().H; got != 1 {
		t.Fatalf("preview height = %d, want 1", got)
	}
	if lines := strings.Split(s.View(), "\n"); len(lines) != 1 {
		t.Fatalf("preview rendered %d lines", len(lines))
	}
}

func TestSelfTestsPass(t *testing.T) {
	for _, st := range New().SelfTests() {
		if err := st.Run(); err != nil {
			t.Errorf("self-test %s: %v", st.Name, err)
		}
	}
}
