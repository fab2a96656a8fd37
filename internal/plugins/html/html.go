// Package html implements the rich-text content-type module: items carrying
// a text/html payload are rendered with their formatting runs styled, and
// hyperlinks become clickable anchors for the mouse-interaction filter.
package html

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"go.clipstack.dev/clipstack/internal/item"
)

// Loader is the rich-text content-type module.
type Loader struct {
	item.DefaultLoader
}

// New returns the html loader.
func New() *Loader { return &Loader{} }

func (*Loader) ID() string { return "html" }

// CreateSurface renders items carrying a text/html payload.
func (*Loader) CreateSurface(data map[string][]byte, preview bool) item.Surface {
	htmlSrc, ok := data[item.MimeHTML]
	if !ok {
		return nil
	}
	return NewSurface(string(htmlSrc), preview)
}

// Matches searches the visible text extracted from the HTML payload, so
// markup never produces false positives.
func (*Loader) Matches(m *item.Model, row int, re *regexp.Regexp) bool {
	it := m.At(row)
	if it == nil || re == nil || !it.HasHTML() {
		return false
	}
	return re.MatchString(ExtractText(it.HTML()))
}

// SelfTests verifies text extraction strips markup.
func (*Loader) SelfTests() []item.SelfTest {
	return []item.SelfTest{{
		Name: "text extraction",
		Run: func() error {
			got := ExtractText("<p>a <b>b</b></p>")
			if strings.TrimSpace(got) != "a b" {
				return &extractError{got: got}
			}
			return nil
		},
	}}
}

type extractError struct{ got string }

func (e *extractError) Error() string { return "unexpected extraction: " + e.got }

// ExtractText returns the visible text of an HTML fragment.
func ExtractText(src string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return src
	}
	doc.Find("script,style").Remove()
	return doc.Text()
}

// Surface renders rich text: formatting runs become terminal attributes
// and anchors are underlined.
type Surface struct {
	*item.DefaultSurface
	text    string
	runs    []item.FormatRun
	preview bool
}

// NewSurface parses the HTML fragment once and builds the surface over its
// visible text.
func NewSurface(htmlSrc string, preview bool) *Surface {
	ed := item.NewEditor()
	ed.SetHTML(htmlSrc)

	text := ed.Text()
	runs := ed.Runs()

	view := item.NewTextView(text)
	view.SetAnchors(anchorsFromRuns(runs))

	s := &Surface{
		DefaultSurface: item.NewDefaultSurface(view),
		text:           text,
		runs:           runs,
		preview:        preview,
	}
	s.HeightForWidth = func(width int) int {
		if s.preview {
			return min(1, item.WrapHeight(s.text, width))
		}
		return item.WrapHeight(s.text, width)
	}
	return s
}

// View renders the styled runs clipped to the surface size, with search
// highlighting layered on top.
func (s *Surface) View() string {
	size := s.Size()
	re, style := s.Highlight()

	styled := renderRuns(s.text, s.runs)
	lines := strings.Split(styled, "\n")
	if size.H > 0 && len(lines) > size.H {
		lines = lines[:size.H]
	}
	for i, line := range lines {
		if size.W > 0 && ansi.StringWidth(line) > size.W {
			line = ansi.Truncate(line, size.W, "…")
		}
		lines[i] = highlightPlain(line, re, style)
	}
	return strings.Join(lines, "\n")
}

func anchorsFromRuns(runs []item.FormatRun) []item.Anchor {
	var out []item.Anchor
	for _, r := range runs {
		if r.Format.Anchor != "" {
			out = append(out, item.Anchor{Start: r.Start, End: r.End, Href: r.Format.Anchor})
		}
	}
	return out
}

// renderRuns applies run formatting to the raw text as ANSI attributes.
func renderRuns(text string, runs []item.FormatRun) string {
	runes := []rune(text)
	var b strings.Builder
	pos := 0
	for _, r := range runs {
		if r.Start < pos || r.Start >= len(runes) {
			continue
		}
		end := r.End
		if end > len(runes) {
			end = len(runes)
		}
		b.WriteString(string(runes[pos:r.Start]))
		st := lipgloss.NewStyle().
			Bold(r.Format.Bold).
			Italic(r.Format.Italic).
			Underline(r.Format.Underline || r.Format.Anchor != "")
		b.WriteString(st.Render(string(runes[r.Start:end])))
		pos = end
	}
	b.WriteString(string(runes[pos:]))
	return b.String()
}

// highlightPlain restyles pattern matches in a possibly styled line.
// Matching is done on the stripped text to keep offsets honest.
func highlightPlain(line string, re *regexp.Regexp, style lipgloss.Style) string {
	if re == nil || re.String() == "" {
		return line
	}
	plain := ansi.Strip(line)
	if !re.MatchString(plain) {
		return line
	}
	// Re-render from plain text; highlight wins over run styling on
	// matching lines.
	var b strings.Builder
	pos := 0
	for _, loc := range re.FindAllStringIndex(plain, -1) {
		b.WriteString(plain[pos:loc[0]])
		b.WriteString(style.Render(plain[loc[0]:loc[1]]))
		pos = loc[1]
	}
	b.WriteString(plain[pos:])
	return b.String()
}

var _ item.Loader = (*Loader)(nil)
var _ item.Surface = (*Surface)(nil)
