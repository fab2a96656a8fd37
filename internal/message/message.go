// Package message defines the clipstack IPC protocol.
//
// All messages are newline-delimited JSON. Payloads are always base64-encoded
// so that binary content (images, etc.) is safe to embed in JSON strings.
// Each message is exactly one line: <json>\n
package message

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies the kind of message.
type Type string

const (
	// TypeAdd appends items to a tab (copy command → daemon).
	TypeAdd Type = "ADD"
	// TypeGet requests the newest items of a tab (paste command → daemon).
	TypeGet Type = "GET"
	// TypeList requests a listing of tab contents.
	TypeList Type = "LIST"
	// TypeStatus requests daemon status.
	TypeStatus Type = "STATUS"

	TypeItems          Type = "ITEMS"
	TypeStatusResponse Type = "STATUS_RESPONSE"
	TypeOK             Type = "OK"
	TypeError          Type = "ERROR"
)

// HistoryTab is the name of the tab the daemon appends clipboard changes to.
const HistoryTab = "history"

// Item is a single clipboard representation with a MIME type.
// Data is always base64-encoded.
type Item struct {
	MIME string `json:"mime"`
	Data string `json:"data"` // base64-encoded
}

// NewTextItem creates a text/plain Item from a plain string.
func NewTextItem(text string) Item {
	return Item{
		MIME: "text/plain",
		Data: base64.StdEncoding.EncodeToString([]byte(text)),
	}
}

// NewBinaryItem creates an Item from raw bytes with the given MIME type.
func NewBinaryItem(mime string, data []byte) Item {
	return Item{
		MIME: mime,
		Data: base64.StdEncoding.EncodeToString(data),
	}
}

// Decode returns the raw bytes of the item payload.
func (it Item) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(it.Data)
}

// Entry is one history entry in a LIST response: the MIME→payload mapping
// of a stored item plus its position in the tab.
type Entry struct {
	Row   int       `json:"row"`
	Items []Item    `json:"items"`
	Time  time.Time `json:"time,omitzero"`
}

// TabInfo carries per-tab metadata for STATUS responses.
type TabInfo struct {
	Name  string `json:"name"`
	Items int    `json:"items"`
	Saver string `json:"saver,omitempty"`
}

// Message is the top-level wire envelope.
type Message struct {
	// Always present
	Type   Type   `json:"type"`
	Source string `json:"source,omitempty"`
	Tab    string `json:"tab,omitempty"`

	// ADD / ITEMS — one Item per MIME representation of a single entry
	Items []Item `json:"items,omitempty"`

	// GET — preferred MIME type and the row index to fetch;
	// LIST — maximum rows (0 = all)
	MIME string `json:"mime,omitempty"`
	Rows int    `json:"rows,omitempty"`

	// LIST response
	Entries []Entry `json:"entries,omitempty"`

	// STATUS_RESPONSE
	Version string    `json:"version,omitempty"`
	Tabs    []TabInfo `json:"tabs,omitempty"`

	// ERROR
	Error string `json:"error,omitempty"`
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	return &m, nil
}

// TabOf returns the effective tab name, defaulting to HistoryTab.
func (m *Message) TabOf() string {
	if m.Tab == "" {
		return HistoryTab
	}
	return m.Tab
}

// TextPayload returns the decoded content of the first text/plain item, or "".
func (m *Message) TextPayload() string {
	for _, it := range m.Items {
		if it.MIME == "text/plain" {
			b, err := it.Decode()
			if err != nil {
				return ""
			}
			return string(b)
		}
	}
	return ""
}

// ItemsToMap decodes a slice of wire Items into a MIME→payload mapping.
// Items that fail to decode are skipped.
func ItemsToMap(items []Item) map[string][]byte {
	out := make(map[string][]byte, len(items))
	for _, it := range items {
		b, err := it.Decode()
		if err != nil {
			continue
		}
		out[it.MIME] = b
	}
	return out
}

// ItemsFromMap encodes a MIME→payload mapping as wire Items.
func ItemsFromMap(data map[string][]byte) []Item {
	out := make([]Item, 0, len(data))
	for mime, b := range data {
		out = append(out, NewBinaryItem(mime, b))
	}
	return out
}
