package item

// Anchor is a hyperlink range inside a TextView's text, addressed by rune
// offsets.
type Anchor struct {
	Start, End int
	Href       string
}

// CursorShape is the pointer shape a surface asks the row container to show.
type CursorShape int

const (
	CursorDefault CursorShape = iota
	CursorText
	CursorPointer
)

// TextView is the interactive text state of a Surface: the displayed text,
// its hyperlink anchors, the text cursor and selection, and the capability
// flags that gate whether native mouse interaction acts on the content.
// The row container translates terminal cells to rune offsets before
// calling into it.
type TextView struct {
	text    []rune
	anchors []Anchor

	// Capability flags. Both off means the content ignores pointer input
	// and the row container's own selection handling takes over.
	selectable     bool
	linksClickable bool

	mouseTracking bool
	cursorShape   CursorShape
	transparent   bool

	cursor   int
	selStart int
	selEnd   int
}

// NewTextView returns a view over text with no anchors and interaction off.
func NewTextView(text string) *TextView {
	v := &TextView{selStart: -1, selEnd: -1}
	v.SetText(text)
	return v
}

// SetText replaces the text and resets cursor and selection.
func (v *TextView) SetText(text string) {
	v.text = []rune(text)
	v.cursor = 0
	v.ClearSelection()
}

// Text returns the full text.
func (v *TextView) Text() string { return string(v.text) }

// Len returns the text length in runes.
func (v *TextView) Len() int { return len(v.text) }

// SetAnchors replaces the hyperlink ranges.
func (v *TextView) SetAnchors(anchors []Anchor) { v.anchors = anchors }

// AnchorAt returns the href of the anchor covering offset, or "".
func (v *TextView) AnchorAt(offset int) string {
	for _, a := range v.anchors {
		if offset >= a.Start && offset < a.End {
			return a.Href
		}
	}
	return ""
}

// MoveCursor places the text cursor at offset, clamped to the text,
// and clears any selection.
func (v *TextView) MoveCursor(offset int) {
	v.cursor = clamp(offset, 0, len(v.text))
	v.ClearSelection()
}

// Cursor returns the text cursor offset.
func (v *TextView) Cursor() int { return v.cursor }

// Select sets the selection range [start, end).
func (v *TextView) Select(start, end int) {
	start = clamp(start, 0, len(v.text))
	end = clamp(end, 0, len(v.text))
	if end < start {
		start, end = end, start
	}
	v.selStart, v.selEnd = start, end
}

// ClearSelection removes any selection.
func (v *TextView) ClearSelection() { v.selStart, v.selEnd = -1, -1 }

// HasSelection reports whether a non-empty selection exists.
func (v *TextView) HasSelection() bool {
	return v.selStart >= 0 && v.selEnd > v.selStart
}

// Selection returns the selected text, or "".
func (v *TextView) Selection() string {
	if !v.HasSelection() {
		return ""
	}
	return string(v.text[v.selStart:v.selEnd])
}

// SetSelectable turns the selectable-by-mouse capability flag on or off.
func (v *TextView) SetSelectable(on bool) { v.selectable = on }

// Selectable reports the selectable-by-mouse capability flag.
func (v *TextView) Selectable() bool { return v.selectable }

// SetLinksClickable turns the link-clickable capability flag on or off.
func (v *TextView) SetLinksClickable(on bool) { v.linksClickable = on }

// LinksClickable reports the link-clickable capability flag.
func (v *TextView) LinksClickable() bool { return v.linksClickable }

// SetMouseTracking enables or disables hover tracking.
func (v *TextView) SetMouseTracking(on bool) { v.mouseTracking = on }

// MouseTracking reports whether hover tracking is enabled.
func (v *TextView) MouseTracking() bool { return v.mouseTracking }

// SetCursorShape records the pointer shape the content wants shown.
func (v *TextView) SetCursorShape(s CursorShape) { v.cursorShape = s }

// CursorShape returns the pointer shape the content wants shown.
func (v *TextView) CursorShape() CursorShape { return v.cursorShape }

// SetTransparent makes the view transparent to pointer events, so the row
// container's own selection and drag handling receives them instead.
func (v *TextView) SetTransparent(on bool) { v.transparent = on }

// Transparent reports whether the view ignores pointer events.
func (v *TextView) Transparent() bool { return v.transparent }

func clamp(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
