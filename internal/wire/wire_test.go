package wire

import (
	"net"
	"strings"
	"testing"

	"go.clipstack.dev/clipstack/internal/crypto"
	"go.clipstack.dev/clipstack/internal/message"
)

func roundTrip(t *testing.T, key *[32]byte) *message.Message {
	t.Helper()
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		_ = New(client, key).WriteMsg(&message.Message{
			Type:  message.TypeAdd,
			Tab:   "history",
			Items: []message.Item{message.NewTextItem("hello")},
		})
	}()

	got, err := New(server, key).ReadMsg()
	if err != nil {
		t.Fatalf("ReadMsg: %v", err)
	}
	return got
}

func TestPlaintextRoundTrip(t *testing.T) {
	got := roundTrip(t, nil)
	if got.Type != message.TypeAdd || got.Tab != "history" {
		t.Fatalf("message = %+v", got)
	}
	if got.TextPayload() != "hello" {
		t.Errorf("payload = %q", got.TextPayload())
	}
}

func TestSealedRoundTrip(t *testing.T) {
	key, err := crypto.DeriveKey("shared")
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	got := roundTrip(t, key)
	if got.TextPayload() != "hello" {
		t.Fatalf("payload = %q", got.TextPayload())
	}
}

func TestSealedMessageIsOpaqueOnTheWire(t *testing.T) {
	key, err := crypto.DeriveKey("shared")
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		_ = New(client, key).WriteMsg(&message.Message{
			Items: []message.Item{message.NewTextItem("secret")},
		})
	}()

	buf := make([]byte, 64*1024)
	n, err := server.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(buf[:n]), "secret") ||
		strings.Contains(string(buf[:n]), `"type"`) {
		t.Fatalf("envelope visible on the wire: %q", buf[:n])
	}
}

func TestWrongKeyFailsToRead(t *testing.T) {
	good, err := crypto.DeriveKey("shared")
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	bad, err := crypto.DeriveKey("other")
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		_ = New(client, good).WriteMsg(&message.Message{Type: message.TypeStatus})
	}()

	if _, err := New(server, bad).ReadMsg(); err == nil {
		t.Fatalf("read with the wrong key succeeded")
	}
}
