package item

import "testing"

func textModel(texts ...string) *Model {
	m := NewModel()
	for _, s := range texts {
		m.Append(New(map[string][]byte{MimeText: []byte(s)}))
	}
	return m
}

func rowTexts(m *Model) []string {
	out := make([]string, 0, m.Len())
	for _, it := range m.Items() {
		out = append(out, it.Text())
	}
	return out
}

func equalTexts(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestInsertFrontOrdersNewestFirst(t *testing.T) {
	m := NewModel()
	m.InsertFront(New(map[string][]byte{MimeText: []byte("first")}))
	m.InsertFront(New(map[string][]byte{MimeText: []byte("second")}))

	if got := rowTexts(m); !equalTexts(got, []string{"second", "first"}) {
		t.Fatalf("rows = %v", got)
	}
}

func TestTruncateEvictsOldest(t *testing.T) {
	m := textModel("a", "b", "c", "d")
	m.Truncate(2)
	if got := rowTexts(m); !equalTexts(got, []string{"a", "b"}) {
		t.Fatalf("rows = %v", got)
	}
	m.Truncate(0) // unlimited
	if m.Len() != 2 {
		t.Fatalf("truncate(0) must be a no-op, len = %d", m.Len())
	}
}

func TestRemoveRows(t *testing.T) {
	m := textModel("a", "b", "c", "d")
	removed := m.Remove([]int{3, 1})
	if len(removed) != 2 {
		t.Fatalf("removed %d rows, want 2", len(removed))
	}
	if got := rowTexts(m); !equalTexts(got, []string{"a", "c"}) {
		t.Fatalf("rows = %v", got)
	}
}

func TestMoveRows(t *testing.T) {
	m := textModel("a", "b", "c", "d")
	m.Move([]int{2, 3}, 0)
	if got := rowTexts(m); !equalTexts(got, []string{"c", "d", "a", "b"}) {
		t.Fatalf("rows = %v", got)
	}
}

func TestSetCurrentMovesFlag(t *testing.T) {
	m := textModel("a", "b")
	m.SetCurrent(0)
	m.SetCurrent(1)
	if m.At(0).Current {
		t.Errorf("row 0 still flagged current")
	}
	if !m.At(1).Current {
		t.Errorf("row 1 not flagged current")
	}
	if m.Current() != 1 {
		t.Errorf("Current() = %d, want 1", m.Current())
	}
}

func TestUpdateTextPreservesOtherPayloads(t *testing.T) {
	m := NewModel()
	m.Append(New(map[string][]byte{
		MimeText: []byte("old"),
		MimeHTML: []byte("<b>old</b>"),
		MimePNG:  []byte{9},
	}))
	m.UpdateText(0, []byte("new"), nil)

	it := m.At(0)
	if it.Text() != "new" || it.HasHTML() || !it.Has(MimePNG) {
		t.Fatalf("payloads after update: %v", it.Formats())
	}
	if !it.Modified {
		t.Errorf("update must set the modified flag")
	}
}

func TestItemPayloadIsolation(t *testing.T) {
	src := map[string][]byte{MimeText: []byte("abc")}
	it := New(src)
	src[MimeText][0] = 'x'
	delete(src, MimeText)

	if it.Text() != "abc" {
		t.Fatalf("item payload aliased caller's map: %q", it.Text())
	}

	out := it.DataMap()
	out[MimeText][0] = 'y'
	if it.Text() != "abc" {
		t.Fatalf("DataMap aliased internal payload: %q", it.Text())
	}
}

func TestSameData(t *testing.T) {
	a := map[string][]byte{MimeText: []byte("abc")}
	if !SameData(a, map[string][]byte{MimeText: []byte("abc")}) {
		t.Errorf("identical payload not recognized")
	}
	if SameData(a, map[string][]byte{MimeText: []byte("abd")}) {
		t.Errorf("different payload reported equal")
	}
	if SameData(a, map[string][]byte{MimeText: []byte("abc"), MimePNG: {1}}) {
		t.Errorf("extra format reported equal")
	}
}
