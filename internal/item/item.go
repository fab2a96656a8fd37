// Package item defines the content-type plugin contract of clipstack: the
// Item data model, the Surface that presents one Item inside a row of the
// item list, the Editor used for in-place edits, the Saver and Loader
// contracts a content-type module implements, the ordered Loader registry,
// and the mouse-interaction filter that arbitrates between row selection
// and rich-content interaction.
//
// Every contract member has a safe neutral default: a nil Surface or Saver,
// a false capability probe, or an identity transform all mean "this module
// declines to participate" and are never errors.
package item

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// MIME types recognized across the core.
const (
	MimeText = "text/plain"
	MimeHTML = "text/html"
	MimeSVG  = "image/svg+xml"
	MimePNG  = "image/png"
	MimeBMP  = "image/bmp"
	MimeJPEG = "image/jpeg"
	MimeGIF  = "image/gif"
)

// Item is one clipboard entry: a mapping from MIME type to raw payload,
// plus transient UI state owned by the Model. The payload mapping is
// immutable except through the Model's update path.
type Item struct {
	ID   string
	Time time.Time

	data map[string][]byte

	// Transient UI state. Selected and Current are maintained by the row
	// container; Modified marks unsaved edits.
	Selected bool
	Current  bool
	Modified bool
}

// New creates an Item from a MIME→payload mapping. The mapping is copied.
func New(data map[string][]byte) *Item {
	return &Item{
		ID:   uuid.NewString(),
		Time: time.Now(),
		data: cloneData(data),
	}
}

// Data returns the payload for mime, or nil.
func (it *Item) Data(mime string) []byte { return it.data[mime] }

// Has reports whether a payload exists for mime.
func (it *Item) Has(mime string) bool {
	_, ok := it.data[mime]
	return ok
}

// HasHTML reports whether the item carries a text/html payload.
func (it *Item) HasHTML() bool { return it.Has(MimeHTML) }

// Text returns the text/plain payload as a string, or "".
func (it *Item) Text() string { return string(it.data[MimeText]) }

// HTML returns the text/html payload as a string, or "".
func (it *Item) HTML() string { return string(it.data[MimeHTML]) }

// Formats returns the sorted list of MIME types present.
func (it *Item) Formats() []string {
	out := make([]string, 0, len(it.data))
	for mime := range it.data {
		out = append(out, mime)
	}
	sort.Strings(out)
	return out
}

// DataMap returns a copy of the full MIME→payload mapping.
func (it *Item) DataMap() map[string][]byte { return cloneData(it.data) }

// SameData reports whether two payload mappings hold identical content.
func SameData(a, b map[string][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for mime, pa := range a {
		pb, ok := b[mime]
		if !ok || string(pa) != string(pb) {
			return false
		}
	}
	return true
}

func cloneData(data map[string][]byte) map[string][]byte {
	out := make(map[string][]byte, len(data))
	for mime, b := range data {
		cp := make([]byte, len(b))
		copy(cp, b)
		out[mime] = cp
	}
	return out
}
