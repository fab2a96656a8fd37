package item

import (
	"context"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Size is a width/height pair in terminal cells.
type Size struct {
	W, H int
}

// ExternalEditor is a handle to an out-of-process editor launched for an
// item. Run blocks until the editor exits and returns the edited payload
// mapping, or nil when the user discarded the edit.
type ExternalEditor interface {
	Run(ctx context.Context) (map[string][]byte, error)
}

// Surface presents one Item inside a row of the item list and, on demand,
// provides an editable view of it. A Surface is bound 1:1 to one row while
// visible: the row container creates it when the row becomes visible and
// destroys it when the row scrolls out or the item is removed. It observes
// the Item; it never owns or mutates it directly.
type Surface interface {
	// SetHighlight updates search-highlight styling. A pattern structurally
	// equal to the currently applied one is a no-op; otherwise matches are
	// restyled. The style folds the highlight font and palette into one
	// lipgloss.Style.
	SetHighlight(re *regexp.Regexp, style lipgloss.Style)

	// CreateEditor constructs a transient editor pre-populated from the
	// current display content, or nil when the surface offers no in-place
	// editor. The row container owns the returned editor's lifetime.
	CreateEditor() *Editor

	// SetEditorData populates the editor from the Item: from its rich
	// content when a text/html payload is present, else from text/plain.
	// Afterwards the editor's content is fully selected and its modified
	// flag is clear.
	SetEditorData(ed *Editor, it *Item)

	// SetModelData commits editor content back to row of m: the textual
	// payload is cleared, text/plain is set to the editor's plain text,
	// and text/html is added iff the content is rich. Clears the editor's
	// modified flag.
	SetModelData(ed *Editor, m *Model, row int)

	// HasChanges reports whether the editor exists and holds uncommitted
	// edits.
	HasChanges(ed *Editor) bool

	// CreateExternalEditor returns a handle to an out-of-process editor for
	// the item, or nil when none is available (the default).
	CreateExternalEditor(it *Item) ExternalEditor

	// UpdateSize adapts the surface to a layout budget: maxSize caps both
	// dimensions and idealWidth is the width the list would prefer.
	UpdateSize(maxSize Size, idealWidth int)

	// SetCurrent marks the surface as the current row. While not current
	// the surface is transparent to pointer events so the row container's
	// own selection handling receives them.
	SetCurrent(current bool)

	// Size returns the size fixed by the last UpdateSize call.
	Size() Size

	// View renders the surface at its current size.
	View() string

	// TextView returns the interactive text state, or nil when the surface
	// shows no interactive text.
	TextView() *TextView
}

// DefaultSurface implements Surface with the neutral defaults of the
// contract and is meant to be embedded by content-type surfaces. The three
// hook fields let a concrete surface supply its own geometry and highlight
// behavior without re-implementing the contract.
type DefaultSurface struct {
	view    *TextView
	re      *regexp.Regexp
	style   lipgloss.Style
	size    Size
	maxSize Size
	current bool

	// HeightForWidth reports the height the content needs at a given
	// width, or 0 when the content has no preference (no wrapping).
	HeightForWidth func(width int) int
	// NaturalSize reports the content's unconstrained size.
	NaturalSize func() Size
	// OnHighlight is invoked when a highlight pattern actually changes.
	OnHighlight func(re *regexp.Regexp, style lipgloss.Style)
}

// NewDefaultSurface returns a surface over view, which may be nil for
// surfaces without interactive text.
func NewDefaultSurface(view *TextView) *DefaultSurface {
	return &DefaultSurface{view: view, maxSize: Size{W: 2048, H: 2048}}
}

// SetHighlight implements Surface. Patterns are compared structurally
// (by expression string), not by pointer.
func (s *DefaultSurface) SetHighlight(re *regexp.Regexp, style lipgloss.Style) {
	if regexEqual(s.re, re) {
		return
	}
	s.re = re
	s.style = style
	if s.OnHighlight != nil {
		s.OnHighlight(re, style)
	}
}

// Highlight returns the applied pattern and style.
func (s *DefaultSurface) Highlight() (*regexp.Regexp, lipgloss.Style) {
	return s.re, s.style
}

// CreateEditor returns a fresh text editor.
func (s *DefaultSurface) CreateEditor() *Editor { return NewEditor() }

// SetEditorData implements Surface.
func (s *DefaultSurface) SetEditorData(ed *Editor, it *Item) {
	if ed == nil || it == nil {
		return
	}
	if it.HasHTML() {
		ed.SetHTML(it.HTML())
	} else {
		ed.SetText(it.Text())
	}
	ed.SelectAll()
	ed.SetModified(false)
}

// SetModelData implements Surface.
func (s *DefaultSurface) SetModelData(ed *Editor, m *Model, row int) {
	if ed == nil || m == nil {
		return
	}
	var htmlPayload []byte
	if ed.ContainsRichText() {
		htmlPayload = []byte(ed.HTML())
	}
	m.UpdateText(row, []byte(ed.Text()), htmlPayload)
	ed.SetModified(false)
}

// HasChanges implements Surface.
func (s *DefaultSurface) HasChanges(ed *Editor) bool {
	return ed != nil && ed.Modified()
}

// CreateExternalEditor implements Surface; the default is none.
func (s *DefaultSurface) CreateExternalEditor(*Item) ExternalEditor { return nil }

// UpdateSize implements Surface. If the content reports no preferred height
// at either the ideal or the maximum width, the surface takes its natural
// size; if the preferred heights differ, the content reflows, so height is
// fixed to the max-width case and width to the maximum; otherwise both
// dimensions are fixed to the ideal case.
func (s *DefaultSurface) UpdateSize(maxSize Size, idealWidth int) {
	s.maxSize = maxSize
	idealH := s.heightForWidth(idealWidth)
	maxH := s.heightForWidth(maxSize.W)
	switch {
	case idealH <= 0 && maxH <= 0:
		s.size = s.naturalSize()
	case idealH != maxH:
		s.size = Size{W: maxSize.W, H: maxH}
	default:
		s.size = Size{W: idealWidth, H: idealH}
	}
	if s.size.W > maxSize.W {
		s.size.W = maxSize.W
	}
	if s.size.H > maxSize.H {
		s.size.H = maxSize.H
	}
}

// SetCurrent implements Surface. Pointer events pass through to the item
// list until the row is current.
func (s *DefaultSurface) SetCurrent(current bool) {
	s.current = current
	if s.view != nil {
		s.view.SetTransparent(!current)
	}
}

// Current reports whether the surface is the current row.
func (s *DefaultSurface) Current() bool { return s.current }

// Size implements Surface.
func (s *DefaultSurface) Size() Size { return s.size }

// View renders the text view content with highlight styling, or "" when
// the surface has no text view.
func (s *DefaultSurface) View() string {
	if s.view == nil {
		return ""
	}
	return RenderHighlighted(s.view.Text(), s.size.W, s.size.H, s.re, s.style)
}

// TextView implements Surface.
func (s *DefaultSurface) TextView() *TextView { return s.view }

func (s *DefaultSurface) heightForWidth(width int) int {
	if s.HeightForWidth == nil {
		return 0
	}
	return s.HeightForWidth(width)
}

func (s *DefaultSurface) naturalSize() Size {
	if s.NaturalSize != nil {
		return s.NaturalSize()
	}
	if s.view == nil {
		return Size{}
	}
	w, h := textExtent(s.view.Text())
	return Size{W: w, H: h}
}

func regexEqual(a, b *regexp.Regexp) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// textExtent returns the unwrapped width and height of text in cells.
func textExtent(text string) (w, h int) {
	for line := range strings.SplitSeq(text, "\n") {
		h++
		if lw := lipgloss.Width(line); lw > w {
			w = lw
		}
	}
	return w, h
}

// WrapHeight returns the number of lines text occupies when hard-wrapped to
// width, or 0 for a non-positive width.
func WrapHeight(text string, width int) int {
	if width <= 0 {
		return 0
	}
	return len(wrapLines(text, width))
}

// RenderHighlighted hard-wraps text to width, clips it to height lines and
// restyles every match of re with style. A nil pattern renders unstyled.
func RenderHighlighted(text string, width, height int, re *regexp.Regexp, style lipgloss.Style) string {
	lines := wrapLines(text, width)
	if height > 0 && len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		lines[i] = highlightLine(line, re, style)
	}
	return strings.Join(lines, "\n")
}

func wrapLines(text string, width int) []string {
	var out []string
	for line := range strings.SplitSeq(text, "\n") {
		runes := []rune(line)
		if width <= 0 || len(runes) <= width {
			out = append(out, line)
			continue
		}
		for len(runes) > width {
			out = append(out, string(runes[:width]))
			runes = runes[width:]
		}
		out = append(out, string(runes))
	}
	return out
}

func highlightLine(line string, re *regexp.Regexp, style lipgloss.Style) string {
	if re == nil || re.String() == "" {
		return line
	}
	var b strings.Builder
	pos := 0
	for _, loc := range re.FindAllStringIndex(line, -1) {
		b.WriteString(line[pos:loc[0]])
		b.WriteString(style.Render(line[loc[0]:loc[1]]))
		pos = loc[1]
	}
	b.WriteString(line[pos:])
	return b.String()
}
