package message

import (
	"bytes"
	"testing"
)

func TestTabOfDefaultsToHistory(t *testing.T) {
	m := &Message{Type: TypeAdd}
	if got := m.TabOf(); got != HistoryTab {
		t.Fatalf("TabOf = %q, want %q", got, HistoryTab)
	}
	m.Tab = "work"
	if got := m.TabOf(); got != "work" {
		t.Fatalf("TabOf = %q, want work", got)
	}
}

func TestTextPayloadFindsFirstText(t *testing.T) {
	m := &Message{Items: []Item{
		NewBinaryItem("image/png", []byte{1, 2}),
		NewTextItem("hello"),
	}}
	if got := m.TextPayload(); got != "hello" {
		t.Fatalf("TextPayload = %q", got)
	}
	if got := (&Message{}).TextPayload(); got != "" {
		t.Fatalf("empty message payload = %q", got)
	}
}

func TestItemsToMapSkipsBadBase64(t *testing.T) {
	items := []Item{
		NewTextItem("ok"),
		{MIME: "image/png", Data: "not base64!!!"},
	}
	got := ItemsToMap(items)
	if len(got) != 1 || string(got["text/plain"]) != "ok" {
		t.Fatalf("ItemsToMap = %v", got)
	}
}

func TestItemsRoundTripThroughMap(t *testing.T) {
	data := map[string][]byte{
		"text/plain": []byte("x"),
		"image/png":  {0x89, 0x50},
	}
	got := ItemsToMap(ItemsFromMap(data))
	if len(got) != 2 || !bytes.Equal(got["image/png"], data["image/png"]) {
		t.Fatalf("round trip = %v", got)
	}
}

func TestEncodeDecode(t *testing.T) {
	in := &Message{Type: TypeGet, Tab: "history", MIME: "text/plain", Rows: 1}
	b, err := in.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Type != TypeGet || out.Tab != "history" || out.Rows != 1 {
		t.Fatalf("decoded = %+v", out)
	}
	if _, err := Decode([]byte("{")); err == nil {
		t.Fatalf("truncated JSON decoded")
	}
}
