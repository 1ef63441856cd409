package dap

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

func TestWriteMessage(t *testing.T) {
	var buf bytes.Buffer
	msg := &Message{Content: json.RawMessage(`{"test": "value"}`)}

	if err := writeMessage(&buf, msg); err != nil {
		t.Fatalf("write message: %v", err)
	}

	want := "Content-Length: 17\r\n\r\n{\"test\": \"value\"}"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWriteMessageWithContentType(t *testing.T) {
	var buf bytes.Buffer
	msg := &Message{ContentType: "application/json", Content: json.RawMessage(`{}`)}

	if err := writeMessage(&buf, msg); err != nil {
		t.Fatalf("write message: %v", err)
	}
	if !strings.Contains(buf.String(), "Content-Type: application/json\r\n") {
		t.Errorf("missing Content-Type header: %q", buf.String())
	}
}

func TestReadMessage(t *testing.T) {
	input := "Content-Length: 17\r\nContent-Type: application/json\r\n\r\n{\"test\": \"value\"}"

	msg, err := readMessage(bufio.NewReader(strings.NewReader(input)))
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	if string(msg.Content) != `{"test": "value"}` {
		t.Errorf("content = %q", msg.Content)
	}
	if msg.ContentType != "application/json" {
		t.Errorf("content type = %q", msg.ContentType)
	}
}

func TestReadMessageErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing length", "Content-Type: x\r\n\r\n{}"},
		{"invalid header", "garbage\r\n\r\n"},
		{"bad length", "Content-Length: abc\r\n\r\n"},
		{"negative length", "Content-Length: -1\r\n\r\n"},
		{"too large", "Content-Length: 99999999999\r\n\r\n"},
		{"short body", "Content-Length: 10\r\n\r\n{}"},
		{"eof in headers", "Content-Length: 2\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := readMessage(bufio.NewReader(strings.NewReader(tt.input))); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := readMessage(bufio.NewReader(strings.NewReader("X: y\r\n\r\n")))
	if !errors.Is(err, ErrMissingContentLength) {
		t.Errorf("error = %v, want ErrMissingContentLength", err)
	}
}

func TestReadMessageSequence(t *testing.T) {
	var buf bytes.Buffer
	for _, body := range []string{`{"seq":1}`, `{"seq":2}`} {
		if err := writeMessage(&buf, &Message{Content: json.RawMessage(body)}); err != nil {
			t.Fatal(err)
		}
	}

	r := bufio.NewReader(&buf)
	for _, want := range []string{`{"seq":1}`, `{"seq":2}`} {
		msg, err := readMessage(r)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(msg.Content) != want {
			t.Errorf("content = %s, want %s", msg.Content, want)
		}
	}
}

func TestDialSocket(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	received := make(chan *Message, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		msg, err := readMessage(bufio.NewReader(conn))
		if err == nil {
			received <- msg
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tr, err := DialSocket(ctx, ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer tr.Close()

	if err := tr.Send(&Message{Content: json.RawMessage(`{"seq":1}`)}); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case msg := <-received:
		if string(msg.Content) != `{"seq":1}` {
			t.Errorf("content = %s", msg.Content)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestDialSocketRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := DialSocket(ctx, addr); err == nil {
		t.Error("expected dial error")
	}
}

