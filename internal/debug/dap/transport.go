// Package dap implements the client side of the Debug Adapter Protocol
// needed to drive an already running debug adapter over TCP.
package dap

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
)

// MaxContentLength bounds the body of a single message (10MB).
const MaxContentLength = 10 * 1024 * 1024

// ErrMissingContentLength is returned for a header block without a
// Content-Length header.
var ErrMissingContentLength = errors.New("missing Content-Length header")

// Transport moves framed DAP messages.
type Transport interface {
	Send(msg *Message) error
	Receive() (*Message, error)
	Close() error
}

// Message is a framed DAP message.
type Message struct {
	ContentType string
	Content     json.RawMessage
}

// streamTransport frames messages over any reader/writer pair.
type streamTransport struct {
	w      io.Writer
	reader *bufio.Reader
	mu     sync.Mutex
	close  func() error
}

func (t *streamTransport) Send(msg *Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return writeMessage(t.w, msg)
}

func (t *streamTransport) Receive() (*Message, error) {
	return readMessage(t.reader)
}

func (t *streamTransport) Close() error {
	return t.close()
}

// NewRawTransport frames messages over rwc.
func NewRawTransport(rwc io.ReadWriteCloser) Transport {
	return &streamTransport{w: rwc, reader: bufio.NewReader(rwc), close: rwc.Close}
}

// DialSocket connects to a debug adapter listening on address.
func DialSocket(ctx context.Context, address string) (Transport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	return NewRawTransport(conn), nil
}

func writeMessage(w io.Writer, msg *Message) error {
	var header strings.Builder
	fmt.Fprintf(&header, "Content-Length: %d\r\n", len(msg.Content))
	if msg.ContentType != "" {
		fmt.Fprintf(&header, "Content-Type: %s\r\n", msg.ContentType)
	}
	header.WriteString("\r\n")

	if _, err := io.WriteString(w, header.String()); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	if _, err := w.Write(msg.Content); err != nil {
		return fmt.Errorf("write content: %w", err)
	}
	return nil
}

func readMessage(r *bufio.Reader) (*Message, error) {
	length := -1
	var contentType string

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header: %q", line)
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(name)) {
		case "content-length":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid content-length: %w", err)
			}
			if n < 0 || n > MaxContentLength {
				return nil, fmt.Errorf("content-length %d outside 0..%d", n, MaxContentLength)
			}
			length = n
		case "content-type":
			contentType = value
		}
	}

	if length < 0 {
		return nil, ErrMissingContentLength
	}

	content := make([]byte, length)
	if _, err := io.ReadFull(r, content); err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	return &Message{ContentType: contentType, Content: content}, nil
}
