// Package vault implements encrypted tab storage. Tabs listed in the vault
// configuration are persisted as a sealed blob: a magic prefix followed by a
// secretbox-encrypted JSONL stream. While the vault is locked those tabs
// cannot be opened; unlocking derives the key from the passphrase and emits
// a notification so open views can reload.
package vault

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"go.clipstack.dev/clipstack/internal/crypto"
	"go.clipstack.dev/clipstack/internal/item"
	"go.clipstack.dev/clipstack/internal/plugins/text"
)

// magic prefixes every sealed tab file.
var magic = []byte("CSVAULT1\n")

// ErrLocked is returned when a protected tab is accessed while the vault has
// no key.
var ErrLocked = fmt.Errorf("vault is locked")

// Loader persists its configured tabs encrypted. Parsing and rendering of
// the decrypted stream is delegated to the plain-text module.
type Loader struct {
	item.DefaultLoader

	inner *text.Loader
	tabs  map[string]bool
	key   *[32]byte

	events chan item.Notification
}

// New returns a vault protecting the named tabs, initially locked.
func New(tabNames []string) *Loader {
	tabs := make(map[string]bool, len(tabNames))
	for _, name := range tabNames {
		tabs[name] = true
	}
	return &Loader{
		inner:  text.New(),
		tabs:   tabs,
		events: make(chan item.Notification, 8),
	}
}

func (*Loader) ID() string { return "vault" }

// Unlock derives the sealing key from passphrase and notifies listeners.
func (l *Loader) Unlock(passphrase string) error {
	key, err := crypto.DeriveKey(passphrase)
	if err != nil {
		return fmt.Errorf("derive vault key: %w", err)
	}
	l.key = key
	l.notify("unlocked", "")
	return nil
}

// Lock discards the key and notifies listeners.
func (l *Loader) Lock() {
	l.key = nil
	l.notify("locked", "")
}

// Locked reports whether the vault currently holds no key.
func (l *Loader) Locked() bool { return l.key == nil }

// Protects reports whether the named tab belongs to the vault.
func (l *Loader) Protects(tabName string) bool { return l.tabs[tabName] }

// Signaler implements Loader: lock-state transitions are published here.
func (l *Loader) Signaler() <-chan item.Notification { return l.events }

func (l *Loader) notify(event, tab string) {
	select {
	case l.events <- item.Notification{Loader: "vault", Event: event, Tab: tab}:
	default:
	}
}

// CanLoadItems sniffs the sealed-blob magic.
func (l *Loader) CanLoadItems(r io.ReadSeeker) bool {
	buf := make([]byte, len(magic))
	if _, err := io.ReadFull(r, buf); err != nil {
		return false
	}
	return bytes.Equal(buf, magic)
}

// CanSaveItems claims only the configured tabs. The vault is registered
// before the plain-text module so protected tabs never fall through to an
// unencrypted backing store.
func (l *Loader) CanSaveItems(tabName string) bool { return l.tabs[tabName] }

// LoadItems unseals the stream and hands the cleartext JSONL to the text
// module. A locked vault is an error, not a decline: falling through would
// let another loader misread the blob.
func (l *Loader) LoadItems(tabName string, m *item.Model, r io.ReadSeeker, maxItems int) (item.Saver, error) {
	sealed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("tab %q: %w", tabName, err)
	}
	if !bytes.HasPrefix(sealed, magic) {
		return nil, nil
	}
	if l.key == nil {
		return nil, fmt.Errorf("tab %q: %w", tabName, ErrLocked)
	}
	plain, err := crypto.Open(sealed[len(magic):], l.key)
	if err != nil {
		return nil, fmt.Errorf("tab %q: unseal: %w", tabName, err)
	}
	inner, err := l.inner.LoadItems(tabName, m, bytes.NewReader(plain), maxItems)
	if err != nil {
		return nil, fmt.Errorf("tab %q: %w", tabName, err)
	}
	if inner == nil {
		return nil, fmt.Errorf("tab %q: sealed payload is not a tab stream", tabName)
	}
	return WrapSaver(inner, l), nil
}

// InitializeTab creates a sealed backing store for a protected tab.
func (l *Loader) InitializeTab(tabName string, m *item.Model, maxItems int) (item.Saver, error) {
	if !l.tabs[tabName] {
		return nil, nil
	}
	if l.key == nil {
		return nil, fmt.Errorf("tab %q: %w", tabName, ErrLocked)
	}
	inner, err := l.inner.InitializeTab(tabName, m, maxItems)
	if err != nil {
		return nil, err
	}
	return WrapSaver(inner, l), nil
}

// SelfTests exercises a seal/unseal round trip with a throwaway key.
func (l *Loader) SelfTests() []item.SelfTest {
	return []item.SelfTest{{
		Name: "seal round trip",
		Run: func() error {
			key, err := crypto.DeriveKey("selftest")
			if err != nil {
				return err
			}
			sealed, err := crypto.Seal([]byte("vault"), key)
			if err != nil {
				return err
			}
			plain, err := crypto.Open(sealed, key)
			if err != nil {
				return err
			}
			if string(plain) != "vault" {
				return fmt.Errorf("round trip mismatch")
			}
			return nil
		},
	}}
}

// Saver seals the output of an inner saver. It refuses nothing itself; the
// inner saver's gates still apply.
type Saver struct {
	item.Saver
	vault *Loader
}

// WrapSaver decorates inner so that everything it writes is sealed with the
// vault's key.
func WrapSaver(inner item.Saver, vault *Loader) *Saver {
	return &Saver{Saver: inner, vault: vault}
}

// SaveItems writes the magic prefix and the sealed inner stream.
func (s *Saver) SaveItems(tabName string, m *item.Model, w io.Writer) error {
	if s.vault.key == nil {
		return fmt.Errorf("tab %q: %w", tabName, ErrLocked)
	}
	var plain strings.Builder
	if err := s.Saver.SaveItems(tabName, m, &plain); err != nil {
		return err
	}
	sealed, err := crypto.Seal([]byte(plain.String()), s.vault.key)
	if err != nil {
		return fmt.Errorf("tab %q: %w", tabName, err)
	}
	if _, err := w.Write(magic); err != nil {
		return fmt.Errorf("tab %q: %w", tabName, err)
	}
	if _, err := w.Write(sealed); err != nil {
		return fmt.Errorf("tab %q: %w", tabName, err)
	}
	return nil
}

var _ item.Loader = (*Loader)(nil)
var _ item.Saver = (*Saver)(nil)
