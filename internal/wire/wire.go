// Package wire frames IPC messages over a net.Conn: one newline-terminated
// JSON envelope per message. With a key, the envelope is sealed with NaCl
// secretbox and base64-encoded before the newline, so the framing stays
// line-based either way:
//
//	<json>\n
//	<base64(nonce+ciphertext)>\n
package wire

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"net"
	"time"

	"go.clipstack.dev/clipstack/internal/crypto"
	"go.clipstack.dev/clipstack/internal/message"
)

const (
	// maxMessageSize bounds a single line; a clipboard item with a large
	// image payload still fits comfortably.
	maxMessageSize = 16 * 1024 * 1024

	writeDeadline = 5 * time.Second
)

// Conn frames messages over a net.Conn.
type Conn struct {
	conn net.Conn
	br   *bufio.Reader
	key  *[32]byte // nil = plaintext
}

// New wraps conn. A non-nil key seals every outgoing message and unseals
// every incoming one.
func New(conn net.Conn, key *[32]byte) *Conn {
	return &Conn{
		conn: conn,
		br:   bufio.NewReaderSize(conn, 64*1024),
		key:  key,
	}
}

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.conn.Close() }

// WriteMsg sends one message, sealing it when the connection has a key.
func (c *Conn) WriteMsg(msg *message.Message) error {
	raw, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	var line []byte
	if c.key != nil {
		ct, err := crypto.Seal(raw, c.key)
		if err != nil {
			return fmt.Errorf("encrypt: %w", err)
		}
		b64 := base64.StdEncoding.EncodeToString(ct)
		line = append([]byte(b64), '\n')
	} else {
		line = append(raw, '\n')
	}

	c.setWriteDeadline(writeDeadline)
	_, err = c.conn.Write(line)
	c.setWriteDeadline(0)
	return err
}

// ReadMsg receives one message, unsealing it when the connection has a key.
func (c *Conn) ReadMsg() (*message.Message, error) {
	line, err := c.br.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	if len(line) > maxMessageSize {
		return nil, fmt.Errorf("message too large (%d bytes)", len(line))
	}
	line = line[:len(line)-1]

	var raw []byte
	if c.key != nil {
		ct, err := base64.StdEncoding.DecodeString(string(line))
		if err != nil {
			return nil, fmt.Errorf("base64 decode: %w", err)
		}
		raw, err = crypto.Open(ct, c.key)
		if err != nil {
			return nil, fmt.Errorf("decrypt: %w", err)
		}
	} else {
		raw = line
	}

	return message.Decode(raw)
}

func (c *Conn) setWriteDeadline(d time.Duration) {
	if d == 0 {
		_ = c.conn.SetWriteDeadline(time.Time{})
	} else {
		_ = c.conn.SetWriteDeadline(time.Now().Add(d))
	}
}
