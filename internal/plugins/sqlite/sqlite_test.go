package sqlite

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"go.clipstack.dev/clipstack/internal/item"
)

func textModel(texts ...string) *item.Model {
	m := item.NewModel()
	for _, s := range texts {
		m.Append(item.New(map[string][]byte{item.MimeText: []byte(s)}))
	}
	return m
}

func TestSaveLoadRoundTrip(t *testing.T) {
	l := New(t.TempDir(), []string{"db"})
	saver, err := l.InitializeTab("db", item.NewModel(), 0)
	if err != nil {
		t.Fatalf("InitializeTab: %v", err)
	}

	m := item.NewModel()
	m.Append(item.New(map[string][]byte{
		item.MimeText: []byte("newest"),
		item.MimePNG:  {1, 2, 3},
	}))
	m.Append(item.New(map[string][]byte{item.MimeText: []byte("older")}))

	var stream bytes.Buffer
	if err := saver.SaveItems("db", m, &stream); err != nil {
		t.Fatalf("SaveItems: %v", err)
	}
	// The stream holds only the pointer record.
	if bytes.Contains(stream.Bytes(), []byte("newest")) {
		t.Fatalf("item payload leaked into the tab stream")
	}

	got := item.NewModel()
	saver2, err := l.LoadItems("db", got, bytes.NewReader(stream.Bytes()), 0)
	if err != nil {
		t.Fatalf("LoadItems: %v", err)
	}
	if saver2 == nil {
		t.Fatalf("pointer record not recognized")
	}
	if got.Len() != 2 {
		t.Fatalf("len = %d, want 2", got.Len())
	}
	if got.At(0).Text() != "newest" || got.At(1).Text() != "older" {
		t.Errorf("order = %q, %q", got.At(0).Text(), got.At(1).Text())
	}
	if !bytes.Equal(got.At(0).Data(item.MimePNG), []byte{1, 2, 3}) {
		t.Errorf("binary payload mangled")
	}
	if !got.At(0).Time.Equal(m.At(0).Time) {
		t.Errorf("timestamp not preserved")
	}
}

func TestLoadItemsHonorsMaxItems(t *testing.T) {
	l := New(t.TempDir(), []string{"db"})
	saver, _ := l.InitializeTab("db", item.NewModel(), 0)

	var stream bytes.Buffer
	if err := saver.SaveItems("db", textModel("a", "b", "c"), &stream); err != nil {
		t.Fatalf("SaveItems: %v", err)
	}
	got := item.NewModel()
	if _, err := l.LoadItems("db", got, bytes.NewReader(stream.Bytes()), 2); err != nil {
		t.Fatalf("LoadItems: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("len = %d, want 2", got.Len())
	}
}

func TestCanLoadItemsSniffsPointer(t *testing.T) {
	l := New(t.TempDir(), nil)
	if !l.CanLoadItems(strings.NewReader(`{"format":"clipstack-sqlite","version":1,"path":"db.db"}` + "\n")) {
		t.Errorf("pointer record not recognized")
	}
	if l.CanLoadItems(strings.NewReader(`{"format":"clipstack-jsonl","version":1}` + "\n")) {
		t.Errorf("jsonl header claimed")
	}
	if l.CanLoadItems(strings.NewReader("not json")) {
		t.Errorf("garbage claimed")
	}
}

func TestLoadItemsDeclinesForeignStream(t *testing.T) {
	l := New(t.TempDir(), nil)
	saver, err := l.LoadItems("db", item.NewModel(), strings.NewReader("plain text\n"), 0)
	if saver != nil || err != nil {
		t.Fatalf("foreign stream: saver=%v err=%v, want nil nil", saver, err)
	}
}

func TestInitializeTabOnlyConfigured(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, []string{"db"})

	if saver, err := l.InitializeTab("history", item.NewModel(), 0); saver != nil || err != nil {
		t.Fatalf("unconfigured tab: saver=%v err=%v, want nil nil", saver, err)
	}
	if _, err := l.InitializeTab("db", item.NewModel(), 0); err != nil {
		t.Fatalf("InitializeTab: %v", err)
	}
	if _, err := os.Stat(l.DBPath("db")); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
	if !l.CanSaveItems("db") || l.CanSaveItems("history") {
		t.Errorf("CanSaveItems gating wrong")
	}
}

func TestDBPathEscapesTabName(t *testing.T) {
	l := New("/data", nil)
	if got := l.DBPath("work/дела"); strings.ContainsAny(got[len("/data/"):], "/") {
		t.Fatalf("tab name not escaped: %q", got)
	}
}

func TestSaveRewritesDatabase(t *testing.T) {
	l := New(t.TempDir(), []string{"db"})
	saver, _ := l.InitializeTab("db", item.NewModel(), 0)

	var first bytes.Buffer
	if err := saver.SaveItems("db", textModel("a", "b", "c"), &first); err != nil {
		t.Fatalf("SaveItems: %v", err)
	}
	var second bytes.Buffer
	if err := saver.SaveItems("db", textModel("only"), &second); err != nil {
		t.Fatalf("SaveItems: %v", err)
	}

	got := item.NewModel()
	if _, err := l.LoadItems("db", got, bytes.NewReader(second.Bytes()), 0); err != nil {
		t.Fatalf("LoadItems: %v", err)
	}
	if got.Len() != 1 || got.At(0).Text() != "only" {
		t.Fatalf("stale rows survived the rewrite: %d items", got.Len())
	}
}

func TestSelfTestsPass(t *testing.T) {
	for _, st := range New(t.TempDir(), nil).SelfTests() {
		if err := st.Run(); err != nil {
			t.Errorf("self-test %s: %v", st.Name, err)
		}
	}
}
