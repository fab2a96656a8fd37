package item

import "sort"

// Model is the ordered list of Items in one tab. It owns the Items; a
// Surface observes an Item by index and never mutates it directly — all
// payload mutation goes through UpdateData/UpdateText, the Saver update
// path.
type Model struct {
	items   []*Item
	current int
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{current: -1}
}

// Len returns the number of items.
func (m *Model) Len() int { return len(m.items) }

// At returns the item at row i, or nil if out of range.
func (m *Model) At(i int) *Item {
	if i < 0 || i >= len(m.items) {
		return nil
	}
	return m.items[i]
}

// Append adds an item at the end of the list.
func (m *Model) Append(it *Item) { m.items = append(m.items, it) }

// InsertFront adds an item at row 0 (newest first, the history order).
func (m *Model) InsertFront(it *Item) {
	m.items = append([]*Item{it}, m.items...)
	if m.current >= 0 {
		m.current++
	}
}

// Truncate drops items beyond max rows. A max of 0 or less is a no-op.
func (m *Model) Truncate(max int) {
	if max > 0 && len(m.items) > max {
		m.items = m.items[:max]
	}
}

// Current returns the current row, or -1.
func (m *Model) Current() int { return m.current }

// SetCurrent marks row i current and clears the flag on the previous row.
func (m *Model) SetCurrent(i int) {
	if prev := m.At(m.current); prev != nil {
		prev.Current = false
	}
	m.current = -1
	if it := m.At(i); it != nil {
		it.Current = true
		m.current = i
	}
}

// UpdateData replaces the full payload mapping of row i.
func (m *Model) UpdateData(i int, data map[string][]byte) {
	it := m.At(i)
	if it == nil {
		return
	}
	it.data = cloneData(data)
	it.Modified = true
}

// UpdateText replaces the textual payloads of row i: text/plain is set to
// text and text/html is set to html, or removed when html is nil. All other
// payloads are preserved.
func (m *Model) UpdateText(i int, text []byte, html []byte) {
	it := m.At(i)
	if it == nil {
		return
	}
	delete(it.data, MimeText)
	delete(it.data, MimeHTML)
	it.data[MimeText] = append([]byte(nil), text...)
	if html != nil {
		it.data[MimeHTML] = append([]byte(nil), html...)
	}
	it.Modified = true
}

// Remove deletes the given rows and returns the removed items in row order.
func (m *Model) Remove(rows []int) []*Item {
	if len(rows) == 0 {
		return nil
	}
	drop := make(map[int]bool, len(rows))
	for _, r := range rows {
		drop[r] = true
	}
	var removed []*Item
	kept := m.items[:0]
	for i, it := range m.items {
		if drop[i] {
			removed = append(removed, it)
			continue
		}
		kept = append(kept, it)
	}
	m.items = kept
	m.current = -1
	return removed
}

// Move relocates the given rows so the first lands at row target,
// preserving their relative order.
func (m *Model) Move(rows []int, target int) {
	if len(rows) == 0 {
		return
	}
	sorted := append([]int(nil), rows...)
	sort.Ints(sorted)

	moving := make([]*Item, 0, len(sorted))
	drop := make(map[int]bool, len(sorted))
	for _, r := range sorted {
		if it := m.At(r); it != nil {
			moving = append(moving, it)
			drop[r] = true
			if r < target {
				target--
			}
		}
	}
	if len(moving) == 0 {
		return
	}

	kept := make([]*Item, 0, len(m.items)-len(moving))
	for i, it := range m.items {
		if !drop[i] {
			kept = append(kept, it)
		}
	}
	if target < 0 {
		target = 0
	}
	if target > len(kept) {
		target = len(kept)
	}
	out := make([]*Item, 0, len(m.items))
	out = append(out, kept[:target]...)
	out = append(out, moving...)
	out = append(out, kept[target:]...)
	m.items = out
}

// Items returns the backing slice for read-only iteration.
func (m *Model) Items() []*Item { return m.items }
