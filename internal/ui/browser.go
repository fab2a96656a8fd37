// Package ui implements the interactive history browser: a bubbletea row
// container over one tab. Each visible row is rendered by a content-type
// surface; surfaces are created when a row scrolls into view and destroyed
// when it leaves. Pointer events are hit-tested into rune offsets and run
// through the mouse-interaction filter before the browser's own selection
// handling sees them.
package ui

import (
	"fmt"
	"regexp"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"go.clipstack.dev/clipstack/internal/item"
	"go.clipstack.dev/clipstack/internal/tabs"
)

const headerLines = 2

// LoaderEvent is delivered when a loader signals an out-of-band change
// (e.g. the vault unlocking); the browser refreshes its rows.
type LoaderEvent item.Notification

// Browser is the tea.Model of the history view.
type Browser struct {
	engine *tabs.Engine
	reg    *item.Registry
	tab    *tabs.Tab

	width  int
	height int

	cursor int
	top    int

	// rows holds the model indices currently shown, after search filtering.
	rows     []int
	surfaces map[int]item.Surface

	filter  *item.MouseFilter
	lastRow int

	searching bool
	query     string
	queryRE   *regexp.Regexp

	editing  bool
	editRow  int
	editor   *item.Editor
	editSurf item.Surface

	status    string
	statusErr bool

	// OnCopy receives the payload of an item the user copies; the caller
	// wires it to the clipboard or the daemon.
	OnCopy func(data map[string][]byte)
	// OnOpenURL receives activated hyperlinks.
	OnOpenURL func(url string)
}

// NewBrowser returns a browser over the given tab.
func NewBrowser(engine *tabs.Engine, reg *item.Registry, tab *tabs.Tab) *Browser {
	b := &Browser{
		engine:   engine,
		reg:      reg,
		tab:      tab,
		surfaces: make(map[int]item.Surface),
		lastRow:  -1,
	}
	b.filter = &item.MouseFilter{
		OpenURL: func(url string) {
			if b.OnOpenURL != nil {
				b.OnOpenURL(url)
			}
			b.setStatus("opened "+url, false)
		},
		CopyText: func(text string) {
			if b.OnCopy != nil {
				b.OnCopy(map[string][]byte{item.MimeText: []byte(text)})
			}
			b.setStatus("selection copied", false)
		},
	}
	b.refilter()
	return b
}

func (b *Browser) Init() tea.Cmd {
	return nil
}

func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.resizeSurfaces()
		return b, nil

	case tea.MouseMsg:
		b.handleMouse(msg)
		return b, nil

	case tea.KeyMsg:
		if b.editing {
			return b.updateEditing(msg)
		}
		if b.searching {
			return b.updateSearching(msg)
		}
		return b.updateBrowsing(msg)

	case LoaderEvent:
		b.setStatus(msg.Loader+" "+msg.Event, false)
		b.refilter()
		return b, nil
	}
	return b, nil
}

func (b *Browser) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return b, tea.Quit

	case "up", "k":
		b.moveCursor(-1)
	case "down", "j":
		b.moveCursor(1)
	case "pgup":
		b.moveCursor(-b.visibleRows())
	case "pgdown":
		b.moveCursor(b.visibleRows())
	case "home":
		b.setCursor(0)
	case "end":
		b.setCursor(len(b.rows) - 1)

	case "/":
		b.searching = true
		b.query = ""
		b.setStatus("", false)

	case "enter":
		if it := b.currentItem(); it != nil && b.OnCopy != nil {
			b.OnCopy(it.DataMap())
			b.setStatus("item copied", false)
		}

	case "e":
		b.beginEdit()

	case "d":
		b.removeCurrent()

	case "esc":
		if b.query != "" {
			b.query = ""
			b.applyQuery()
		}

	default:
		b.runCommand(msg.String())
	}
	return b, nil
}

// runCommand dispatches a loader-contributed command bound to the pressed
// key against the current row.
func (b *Browser) runCommand(key string) {
	row := b.currentRow()
	if row < 0 {
		return
	}
	for _, cmd := range b.reg.Commands() {
		if cmd.Key != key {
			continue
		}
		if err := cmd.Run(b.tab.Model, []int{row}); err != nil {
			b.setStatus(cmd.Name+": "+err.Error(), true)
			return
		}
		if err := b.engine.Save(b.tab); err != nil {
			b.setStatus("save failed: "+err.Error(), true)
			return
		}
		b.surfaces = make(map[int]item.Surface)
		b.setStatus(cmd.Name+" applied", false)
		return
	}
}

func (b *Browser) updateSearching(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		b.searching = false
		b.query = ""
		b.applyQuery()
	case "enter":
		b.searching = false
	case "backspace":
		if b.query != "" {
			b.query = b.query[:len(b.query)-1]
			b.applyQuery()
		}
	default:
		if msg.Type == tea.KeyRunes {
			b.query += string(msg.Runes)
			b.applyQuery()
		}
	}
	return b, nil
}

func (b *Browser) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if b.editSurf.HasChanges(b.editor) {
			b.setStatus("edit discarded", true)
		}
		b.endEdit()
	case "ctrl+s":
		b.editSurf.SetModelData(b.editor, b.tab.Model, b.editRow)
		if err := b.engine.Save(b.tab); err != nil {
			b.setStatus("save failed: "+err.Error(), true)
		} else {
			b.setStatus("item saved", false)
		}
		b.endEdit()
		b.refilter()
	case "enter":
		b.editor.InsertText("\n")
	case "backspace":
		text := b.editor.Text()
		if text != "" {
			runes := []rune(text)
			b.editor.SetText(string(runes[:len(runes)-1]))
			b.editor.SetModified(true)
		}
	default:
		if msg.Type == tea.KeyRunes {
			b.editor.InsertText(string(msg.Runes))
		}
	}
	return b, nil
}

// handleMouse hit-tests the pointer into a row and a rune offset and runs
// the interaction filter. Only if the filter does not consume the event does
// the browser's own selection handling act on it.
func (b *Browser) handleMouse(msg tea.MouseMsg) {
	if b.editing {
		return
	}
	pos := msg.Y - headerLines
	if pos < 0 || b.top+pos >= len(b.rows) {
		return
	}
	idx := b.top + pos

	s := b.surface(idx)
	if s == nil || s.TextView() == nil {
		if msg.Action == tea.MouseActionPress {
			b.setCursor(idx)
		}
		return
	}
	view := s.TextView()

	if idx != b.lastRow {
		b.filter.Filter(view, item.MouseEvent{Type: item.MouseEnter})
		b.lastRow = idx
	}

	ev := item.MouseEvent{
		Offset: b.hitTest(view, msg.X),
		Shift:  msg.Shift,
	}
	switch msg.Action {
	case tea.MouseActionPress:
		ev.Type = item.MousePress
	case tea.MouseActionRelease:
		ev.Type = item.MouseRelease
	case tea.MouseActionMotion:
		ev.Type = item.MouseMove
	default:
		return
	}
	switch msg.Button {
	case tea.MouseButtonLeft:
		ev.Button = item.ButtonLeft
	case tea.MouseButtonRight:
		ev.Button = item.ButtonRight
	case tea.MouseButtonMiddle:
		ev.Button = item.ButtonMiddle
	}

	// Shift-drag extends the content selection before the filter decides
	// what to do on release.
	if ev.Type == item.MouseMove && ev.Shift && ev.Button == item.ButtonLeft {
		view.Select(view.Cursor(), ev.Offset)
	}

	if b.filter.Filter(view, ev) {
		return
	}
	if ev.Type == item.MousePress && !ev.Shift {
		b.setCursor(idx)
	}
}

// hitTest maps a terminal column to a rune offset in the view's first line.
func (b *Browser) hitTest(view *item.TextView, x int) int {
	x -= rowNumWidth
	if x < 0 {
		x = 0
	}
	text := []rune(view.Text())
	if nl := strings.IndexRune(view.Text(), '\n'); nl >= 0 {
		text = []rune(view.Text()[:nl])
	}
	if x > len(text) {
		x = len(text)
	}
	return x
}

const rowNumWidth = 4

func (b *Browser) View() string {
	var sb strings.Builder

	title := fmt.Sprintf("clipstack — %s (%d items)", b.tab.Name, b.tab.Model.Len())
	sb.WriteString(headerStyle.Render(title))
	sb.WriteString("\n")
	if b.searching || b.query != "" {
		sb.WriteString(searchStyle.Render("/" + b.query))
	} else {
		sb.WriteString(headerBarStyle.Render(strings.Repeat("─", max(b.width, 1))))
	}
	sb.WriteString("\n")

	if b.editing {
		sb.WriteString(b.editorView())
		return sb.String()
	}

	visible := b.visibleRows()
	for pos := 0; pos < visible && b.top+pos < len(b.rows); pos++ {
		idx := b.top + pos
		line := b.rowView(idx)
		if idx == b.cursor {
			line = currentRowStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString(b.footerView())
	return sb.String()
}

func (b *Browser) rowView(idx int) string {
	num := rowNumStyle.Render(fmt.Sprintf("%3d ", b.rows[idx]))
	s := b.surface(idx)
	if s == nil {
		return num + helpDescStyle.Render("(no presentation)")
	}
	view := s.View()
	if nl := strings.IndexByte(view, '\n'); nl >= 0 {
		view = view[:nl]
	}
	w := b.width - rowNumWidth
	if w > 0 && ansi.StringWidth(view) > w {
		view = ansi.Truncate(view, w, "…")
	}
	return num + view
}

func (b *Browser) editorView() string {
	var sb strings.Builder
	sb.WriteString(editorStyle.Width(max(b.width-2, 10)).Render(b.editor.Text()))
	sb.WriteString("\n")
	sb.WriteString(helpKeys("ctrl+s", "save", "esc", "discard"))
	return sb.String()
}

func (b *Browser) footerView() string {
	var sb strings.Builder
	if b.status != "" {
		style := statusStyle
		if b.statusErr {
			style = statusErrStyle
		}
		sb.WriteString(style.Render(b.status))
		sb.WriteString("\n")
	}
	sb.WriteString(helpKeys(
		"↑/↓", "select", "enter", "copy", "e", "edit",
		"d", "delete", "/", "search", "q", "quit"))
	return sb.String()
}

func helpKeys(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, keyStyle.Render(pairs[i])+" "+helpDescStyle.Render(pairs[i+1]))
	}
	return strings.Join(parts, "  ")
}

// surface returns the row's surface, creating it lazily.
func (b *Browser) surface(idx int) item.Surface {
	if s, ok := b.surfaces[idx]; ok {
		return s
	}
	it := b.tab.Model.At(b.rows[idx])
	if it == nil {
		return nil
	}
	s := b.reg.CreateSurface(it.DataMap(), true)
	if s == nil {
		return nil
	}
	s.UpdateSize(item.Size{W: b.contentWidth(), H: 1}, b.contentWidth())
	s.SetCurrent(idx == b.cursor)
	if b.queryRE != nil {
		s.SetHighlight(b.queryRE, highlightStyle)
	}
	b.surfaces[idx] = s
	return s
}

// dropOffscreen destroys surfaces whose rows are no longer visible.
func (b *Browser) dropOffscreen() {
	lo, hi := b.top, b.top+b.visibleRows()
	for idx := range b.surfaces {
		if idx < lo || idx >= hi {
			delete(b.surfaces, idx)
		}
	}
}

func (b *Browser) resizeSurfaces() {
	for _, s := range b.surfaces {
		s.UpdateSize(item.Size{W: b.contentWidth(), H: 1}, b.contentWidth())
	}
	b.clampScroll()
}

func (b *Browser) contentWidth() int {
	return max(b.width-rowNumWidth, 1)
}

func (b *Browser) visibleRows() int {
	// header + footer chrome
	return max(b.height-headerLines-2, 1)
}

func (b *Browser) moveCursor(delta int) { b.setCursor(b.cursor + delta) }

func (b *Browser) setCursor(idx int) {
	if len(b.rows) == 0 {
		b.cursor = 0
		return
	}
	idx = min(max(idx, 0), len(b.rows)-1)
	if idx == b.cursor {
		return
	}
	if s, ok := b.surfaces[b.cursor]; ok {
		s.SetCurrent(false)
	}
	b.cursor = idx
	b.tab.Model.SetCurrent(b.rows[idx])
	if s := b.surface(idx); s != nil {
		s.SetCurrent(true)
	}
	b.clampScroll()
}

func (b *Browser) clampScroll() {
	visible := b.visibleRows()
	if b.cursor < b.top {
		b.top = b.cursor
	}
	if b.cursor >= b.top+visible {
		b.top = b.cursor - visible + 1
	}
	b.dropOffscreen()
}

func (b *Browser) currentItem() *item.Item {
	if b.cursor >= len(b.rows) {
		return nil
	}
	return b.tab.Model.At(b.rows[b.cursor])
}

func (b *Browser) beginEdit() {
	if b.cursor >= len(b.rows) {
		return
	}
	s := b.surface(b.cursor)
	if s == nil {
		return
	}
	ed := s.CreateEditor()
	if ed == nil {
		b.setStatus("item is not editable", true)
		return
	}
	s.SetEditorData(ed, b.currentItem())
	b.editing = true
	b.editRow = b.rows[b.cursor]
	b.editor = ed
	b.editSurf = s
}

func (b *Browser) endEdit() {
	b.editing = false
	b.editor = nil
	b.editSurf = nil
}

func (b *Browser) removeCurrent() {
	if b.cursor >= len(b.rows) {
		return
	}
	row := b.rows[b.cursor]
	if err := b.engine.RemoveItems(b.tab, []int{row}); err != nil {
		b.setStatus(err.Error(), true)
		return
	}
	b.setStatus("item removed", false)
	b.refilter()
}

// applyQuery recompiles the search pattern, updates highlights on live
// surfaces and refilters the rows.
func (b *Browser) applyQuery() {
	b.queryRE = compileQuery(b.query)
	for _, s := range b.surfaces {
		s.SetHighlight(b.queryRE, highlightStyle)
	}
	b.refilter()
}

// refilter rebuilds the row list from the model through loader matching.
func (b *Browser) refilter() {
	prev := b.currentRow()
	b.rows = b.rows[:0]
	for row := 0; row < b.tab.Model.Len(); row++ {
		if b.queryRE == nil || b.reg.Matches(b.tab.Model, row, b.queryRE) {
			b.rows = append(b.rows, row)
		}
	}
	b.surfaces = make(map[int]item.Surface)
	b.cursor = 0
	for idx, row := range b.rows {
		if row == prev {
			b.cursor = idx
			break
		}
	}
	b.clampScroll()
}

func (b *Browser) currentRow() int {
	if b.cursor < len(b.rows) {
		return b.rows[b.cursor]
	}
	return -1
}

func (b *Browser) setStatus(s string, isErr bool) {
	b.status = s
	b.statusErr = isErr
}

// compileQuery turns the search text into a case-insensitive pattern,
// falling back to a literal match when it is not a valid expression.
func compileQuery(q string) *regexp.Regexp {
	if q == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + q)
	if err != nil {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(q))
	}
	return re
}

var _ tea.Model = (*Browser)(nil)
