// Package daptest provides an in-process debug adapter for tests.
package daptest

import (
	"encoding/json"
	"net"
	"sync"
	"testing"

	"github.com/dshills/nodedebug/internal/debug/dap"
)

// Adapter accepts DAP connections on a loopback port. It answers every
// request with a success response, except initialize when configured to
// fail, and records each request it receives.
type Adapter struct {
	ln           net.Listener
	requests     chan dap.Request
	capabilities dap.Capabilities
	initErr      string

	mu    sync.Mutex
	conns []net.Conn
	wg    sync.WaitGroup
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithCapabilities sets the body of the initialize response.
func WithCapabilities(caps dap.Capabilities) Option {
	return func(a *Adapter) { a.capabilities = caps }
}

// WithInitializeError makes initialize fail with message.
func WithInitializeError(message string) Option {
	return func(a *Adapter) { a.initErr = message }
}

// NewAdapter starts an adapter that is closed when the test ends.
func NewAdapter(t testing.TB, opts ...Option) *Adapter {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("daptest: listen: %v", err)
	}
	a := &Adapter{ln: ln, requests: make(chan dap.Request, 64)}
	for _, opt := range opts {
		opt(a)
	}

	a.wg.Add(1)
	go a.acceptLoop()
	t.Cleanup(a.Close)
	return a
}

// Addr returns the host:port to dial.
func (a *Adapter) Addr() string {
	return a.ln.Addr().String()
}

// Requests delivers received requests in arrival order.
func (a *Adapter) Requests() <-chan dap.Request {
	return a.requests
}

// Close stops accepting, drops open connections and waits for their
// handlers.
func (a *Adapter) Close() {
	a.ln.Close()
	a.mu.Lock()
	for _, c := range a.conns {
		c.Close()
	}
	a.mu.Unlock()
	a.wg.Wait()
}

func (a *Adapter) acceptLoop() {
	defer a.wg.Done()
	for {
		conn, err := a.ln.Accept()
		if err != nil {
			return
		}
		a.mu.Lock()
		a.conns = append(a.conns, conn)
		a.mu.Unlock()

		a.wg.Add(1)
		go a.serve(dap.NewRawTransport(conn))
	}
}

func (a *Adapter) serve(t dap.Transport) {
	defer a.wg.Done()
	defer t.Close()

	seq := 0
	next := func() int {
		seq++
		return seq
	}

	for {
		msg, err := t.Receive()
		if err != nil {
			return
		}
		var req dap.Request
		if err := json.Unmarshal(msg.Content, &req); err != nil {
			return
		}
		select {
		case a.requests <- req:
		default:
		}

		resp := dap.Response{
			ProtocolMessage: dap.ProtocolMessage{Seq: next(), Type: dap.TypeResponse},
			RequestSeq:      req.Seq,
			Success:         true,
			Command:         req.Command,
		}
		if req.Command == "initialize" {
			if a.initErr != "" {
				resp.Success = false
				resp.Message = a.initErr
			} else {
				resp.Body, _ = json.Marshal(a.capabilities)
			}
		}
		if err := send(t, resp); err != nil {
			return
		}

		if req.Command == "initialize" && resp.Success {
			evt := dap.Event{
				ProtocolMessage: dap.ProtocolMessage{Seq: next(), Type: dap.TypeEvent},
				Event:           "initialized",
			}
			if err := send(t, evt); err != nil {
				return
			}
		}
	}
}

func send(t dap.Transport, v any) error {
	content, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.Send(&dap.Message{Content: content})
}
