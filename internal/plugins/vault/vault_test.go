package vault

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"go.clipstack.dev/clipstack/internal/item"
)

func unlocked(t *testing.T, tabs ...string) *Loader {
	t.Helper()
	l := New(tabs)
	if err := l.Unlock("correct horse"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	return l
}

func sealTab(t *testing.T, l *Loader, texts ...string) []byte {
	t.Helper()
	m := item.NewModel()
	for _, s := range texts {
		m.Append(item.New(map[string][]byte{item.MimeText: []byte(s)}))
	}
	saver, err := l.InitializeTab("secrets", m, 0)
	if err != nil {
		t.Fatalf("InitializeTab: %v", err)
	}
	var buf bytes.Buffer
	if err := saver.SaveItems("secrets", m, &buf); err != nil {
		t.Fatalf("SaveItems: %v", err)
	}
	return buf.Bytes()
}

func TestSaveLoadRoundTrip(t *testing.T) {
	l := unlocked(t, "secrets")
	sealed := sealTab(t, l, "token", "password")

	if !bytes.HasPrefix(sealed, magic) {
		t.Fatalf("sealed blob missing magic prefix")
	}
	if bytes.Contains(sealed, []byte("token")) {
		t.Fatalf("plaintext leaked into the sealed blob")
	}

	got := item.NewModel()
	saver, err := l.LoadItems("secrets", got, bytes.NewReader(sealed), 0)
	if err != nil {
		t.Fatalf("LoadItems: %v", err)
	}
	if _, ok := saver.(*Saver); !ok {
		t.Fatalf("saver = %T, want sealing saver", saver)
	}
	if got.Len() != 2 || got.At(0).Text() != "token" {
		t.Fatalf("round trip content: len=%d", got.Len())
	}
}

func TestLockedVaultErrorsInsteadOfDeclining(t *testing.T) {
	l := unlocked(t, "secrets")
	sealed := sealTab(t, l, "x")
	l.Lock()

	// A locked vault must not fall through: another loader would misread
	// the blob.
	if _, err := l.LoadItems("secrets", item.NewModel(), bytes.NewReader(sealed), 0); !errors.Is(err, ErrLocked) {
		t.Errorf("LoadItems err = %v, want ErrLocked", err)
	}
	if _, err := l.InitializeTab("secrets", item.NewModel(), 0); !errors.Is(err, ErrLocked) {
		t.Errorf("InitializeTab err = %v, want ErrLocked", err)
	}
}

func TestSaveWhileLocked(t *testing.T) {
	l := unlocked(t, "secrets")
	m := item.NewModel()
	saver, err := l.InitializeTab("secrets", m, 0)
	if err != nil {
		t.Fatalf("InitializeTab: %v", err)
	}
	l.Lock()
	if err := saver.SaveItems("secrets", m, &bytes.Buffer{}); !errors.Is(err, ErrLocked) {
		t.Fatalf("SaveItems err = %v, want ErrLocked", err)
	}
}

func TestCanLoadItemsSniffsMagic(t *testing.T) {
	l := New(nil)
	if !l.CanLoadItems(bytes.NewReader(append(magic, 1, 2, 3))) {
		t.Errorf("sealed blob not recognized")
	}
	if l.CanLoadItems(strings.NewReader(`{"format":"clipstack-jsonl"}`)) {
		t.Errorf("plain stream claimed")
	}
	if l.CanLoadItems(strings.NewReader("CS")) {
		t.Errorf("short stream claimed")
	}
}

func TestLoadItemsDeclinesForeignStream(t *testing.T) {
	l := unlocked(t, "secrets")
	saver, err := l.LoadItems("secrets", item.NewModel(), strings.NewReader("plain"), 0)
	if err != nil || saver != nil {
		t.Fatalf("foreign stream: saver=%v err=%v, want nil nil", saver, err)
	}
}

func TestCanSaveItemsOnlyConfiguredTabs(t *testing.T) {
	l := New([]string{"secrets"})
	if !l.CanSaveItems("secrets") {
		t.Errorf("configured tab not claimed")
	}
	if l.CanSaveItems("history") {
		t.Errorf("unconfigured tab claimed")
	}
	if l.Protects("history") {
		t.Errorf("Protects(history) = true")
	}
}

func TestInitializeTabDeclinesUnprotected(t *testing.T) {
	l := unlocked(t, "secrets")
	saver, err := l.InitializeTab("history", item.NewModel(), 0)
	if saver != nil || err != nil {
		t.Fatalf("unprotected tab: saver=%v err=%v, want nil nil", saver, err)
	}
}

func TestWrongPassphraseFailsUnseal(t *testing.T) {
	l := unlocked(t, "secrets")
	sealed := sealTab(t, l, "x")

	other := New([]string{"secrets"})
	if err := other.Unlock("wrong"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if _, err := other.LoadItems("secrets", item.NewModel(), bytes.NewReader(sealed), 0); err == nil {
		t.Fatalf("unseal with the wrong key succeeded")
	}
}

func TestSignalerEmitsLockTransitions(t *testing.T) {
	l := New(nil)
	events := l.Signaler()

	if err := l.Unlock("pw"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	l.Lock()

	want := []string{"unlocked", "locked"}
	for _, event := range want {
		select {
		case n := <-events:
			if n.Loader != "vault" || n.Event != event {
				t.Fatalf("notification = %+v, want %s", n, event)
			}
		default:
			t.Fatalf("missing %s notification", event)
		}
	}
}

func TestSelfTestsPass(t *testing.T) {
	for _, st := range New(nil).SelfTests() {
		if err := st.Run(); err != nil {
			t.Errorf("self-test %s: %v", st.Name, err)
		}
	}
}
