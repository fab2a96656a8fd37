package item

// MouseEventType identifies a pointer event forwarded by the row container.
type MouseEventType int

const (
	MouseEnter MouseEventType = iota
	MousePress
	MouseDoubleClick
	MouseMove
	MouseRelease
)

// MouseButton identifies the pressed button, if any.
type MouseButton int

const (
	ButtonNone MouseButton = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
)

// MouseEvent is a pointer event translated by the row container: the cell
// under the pointer has already been hit-tested into a rune offset.
type MouseEvent struct {
	Type   MouseEventType
	Offset int
	Button MouseButton
	Shift  bool
}

// MouseFilter arbitrates between "selectable row" behavior and "interact
// with rich content" behavior for the same pointer events. Interaction with
// the content is permitted only while Shift is held; otherwise the event is
// a row-selection gesture and the content must not intercept it.
//
// OpenURL and CopyText perform the externally visible actions; either may
// be nil, in which case the corresponding action is skipped.
type MouseFilter struct {
	OpenURL  func(url string)
	CopyText func(text string)
}

// Filter runs the interaction state machine for one event against the
// content's TextView and reports whether the event was consumed (true means
// the row container must not run its own selection handling for it).
//
// The decision is a pure function of (event type, Shift state, offset);
// the only state carried between events is the view's own capability flags,
// which gate whether the next native event acts on the content.
func (f *MouseFilter) Filter(view *TextView, ev MouseEvent) bool {
	allow := true

	switch ev.Type {
	case MouseEnter:
		view.SetMouseTracking(true)
		view.SetCursorShape(CursorDefault)
		return false

	case MousePress, MouseDoubleClick:
		if !ev.Shift {
			allow = false
		} else if ev.Button == ButtonLeft {
			view.MoveCursor(ev.Offset)
		}

	case MouseMove:
		if !ev.Shift {
			allow = false
		}

	case MouseRelease:
		if ev.Shift && view.HasSelection() && f.CopyText != nil {
			f.CopyText(view.Selection())
		}
		// Release always hands the next event back to the row container.
		allow = false

	default:
		return false
	}

	view.SetSelectable(allow)
	view.SetLinksClickable(allow)

	if ev.Type == MousePress || ev.Type == MouseMove {
		if allow {
			if anchor := view.AnchorAt(ev.Offset); anchor != "" {
				view.SetCursorShape(CursorPointer)
				if ev.Type == MousePress {
					if f.OpenURL != nil {
						f.OpenURL(anchor)
					}
					return true
				}
			} else {
				view.SetCursorShape(CursorText)
			}
		} else {
			view.SetCursorShape(CursorDefault)
		}
	}

	return false
}
