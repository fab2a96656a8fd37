package item

import (
	"errors"
	"io"
)

// ErrNoBackend is returned by SaveItems when a tab has no persistence
// backend.
var ErrNoBackend = errors.New("no persistence backend")

// Saver mediates all destructive and structural operations between the tab
// engine and a persistence backend. A Saver instance is bound to exactly
// one tab and is never shared; it is stateless across items and operates on
// row index sets.
type Saver interface {
	// SaveItems serialises the full ordered item sequence of m to w.
	SaveItems(tabName string, m *Model, w io.Writer) error

	// CanRemoveItems reports whether the rows may be removed; when it
	// refuses, the returned reason is suitable for user-facing display.
	CanRemoveItems(rows []int) (bool, string)

	// CanMoveItems reports whether the rows may be reordered.
	CanMoveItems(rows []int) bool

	// ItemsRemovedByUser notifies the backend that the user removed rows.
	// Fire-and-forget.
	ItemsRemovedByUser(rows []int)

	// CopyItem transforms an item's payload when it is duplicated into a
	// tab backed by this saver. The default is identity.
	CopyItem(m *Model, data map[string][]byte) map[string][]byte
}

// DefaultSaver implements Saver with the neutral defaults of the contract:
// no persistence, unconditional remove/move, identity copy. Backends embed
// it and override what they support.
type DefaultSaver struct{}

func (DefaultSaver) SaveItems(string, *Model, io.Writer) error { return ErrNoBackend }

func (DefaultSaver) CanRemoveItems([]int) (bool, string) { return true, "" }

func (DefaultSaver) CanMoveItems([]int) bool { return true }

func (DefaultSaver) ItemsRemovedByUser([]int) {}

func (DefaultSaver) CopyItem(_ *Model, data map[string][]byte) map[string][]byte { return data }
