package dap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrClientClosed is returned for requests issued after Close or after the
// transport failed.
var ErrClientClosed = errors.New("dap client closed")

// ResponseError reports a response with success == false.
type ResponseError struct {
	Command string
	Message string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed", e.Command)
	}
	return fmt.Sprintf("%s failed: %s", e.Command, e.Message)
}

// Client is a DAP client. A background goroutine reads from the transport
// until it fails or the client is closed.
type Client struct {
	transport Transport
	seq       int64

	pendingMu sync.Mutex
	pending   map[int]chan result

	handlerMu sync.RWMutex
	onEvent   func(Event)

	done      chan struct{}
	closeOnce sync.Once

	errMu sync.RWMutex
	err   error
}

type result struct {
	resp *Response
	err  error
}

// NewClient starts a client on transport.
func NewClient(transport Transport) *Client {
	c := &Client{
		transport: transport,
		pending:   make(map[int]chan result),
		done:      make(chan struct{}),
	}
	go c.receiveLoop()
	return c
}

// Close stops the client and closes the transport.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return c.transport.Close()
}

// Err returns the error that stopped the receive loop, if any.
func (c *Client) Err() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()
	return c.err
}

// OnEvent sets the handler called for every event.
func (c *Client) OnEvent(handler func(Event)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onEvent = handler
}

func (c *Client) receiveLoop() {
	for {
		msg, err := c.transport.Receive()
		if err != nil {
			select {
			case <-c.done:
				err = ErrClientClosed
			default:
			}
			c.fail(err)
			return
		}

		select {
		case <-c.done:
			c.fail(ErrClientClosed)
			return
		default:
		}

		c.dispatch(msg)
	}
}

func (c *Client) fail(err error) {
	c.errMu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.errMu.Unlock()

	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for seq, ch := range c.pending {
		ch <- result{err: err}
		delete(c.pending, seq)
	}
}

func (c *Client) dispatch(msg *Message) {
	var base ProtocolMessage
	if err := json.Unmarshal(msg.Content, &base); err != nil {
		return
	}

	switch base.Type {
	case TypeResponse:
		var resp Response
		if err := json.Unmarshal(msg.Content, &resp); err != nil {
			return
		}
		c.pendingMu.Lock()
		ch, ok := c.pending[resp.RequestSeq]
		delete(c.pending, resp.RequestSeq)
		c.pendingMu.Unlock()
		// Responses to notifications have no waiter and are dropped.
		if ok {
			ch <- result{resp: &resp}
		}

	case TypeEvent:
		var evt Event
		if err := json.Unmarshal(msg.Content, &evt); err != nil {
			return
		}
		c.handlerMu.RLock()
		handler := c.onEvent
		c.handlerMu.RUnlock()
		if handler != nil {
			handler(evt)
		}
	}
}

func (c *Client) encode(command string, args any) (int, *Message, error) {
	seq := int(atomic.AddInt64(&c.seq, 1))

	var raw json.RawMessage
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal %s arguments: %w", command, err)
		}
		raw = b
	}

	content, err := json.Marshal(Request{
		ProtocolMessage: ProtocolMessage{Seq: seq, Type: TypeRequest},
		Command:         command,
		Arguments:       raw,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("marshal %s request: %w", command, err)
	}
	return seq, &Message{Content: content}, nil
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return c.Err() != nil
	}
}

// Notify sends a request without waiting for its response.
func (c *Client) Notify(command string, args any) error {
	if c.closed() {
		return ErrClientClosed
	}
	_, msg, err := c.encode(command, args)
	if err != nil {
		return err
	}
	if err := c.transport.Send(msg); err != nil {
		return fmt.Errorf("send %s: %w", command, err)
	}
	return nil
}

// Request sends a request and waits for its response. A response with
// success == false is returned together with a *ResponseError.
func (c *Client) Request(ctx context.Context, command string, args any) (*Response, error) {
	if c.closed() {
		return nil, ErrClientClosed
	}
	seq, msg, err := c.encode(command, args)
	if err != nil {
		return nil, err
	}

	// fail records the error before draining pending, so checking it under
	// the lock guarantees the waiter is either drained or never registered.
	ch := make(chan result, 1)
	c.pendingMu.Lock()
	if err := c.Err(); err != nil {
		c.pendingMu.Unlock()
		return nil, err
	}
	c.pending[seq] = ch
	c.pendingMu.Unlock()

	if err := c.transport.Send(msg); err != nil {
		c.forget(seq)
		return nil, fmt.Errorf("send %s: %w", command, err)
	}

	select {
	case <-ctx.Done():
		c.forget(seq)
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		if !r.resp.Success {
			return r.resp, &ResponseError{Command: command, Message: r.resp.Message}
		}
		return r.resp, nil
	}
}

func (c *Client) forget(seq int) {
	c.pendingMu.Lock()
	delete(c.pending, seq)
	c.pendingMu.Unlock()
}

// Initialize sends "initialize" and decodes the adapter capabilities.
func (c *Client) Initialize(ctx context.Context, args InitializeRequestArguments) (*Capabilities, error) {
	resp, err := c.Request(ctx, "initialize", args)
	if err != nil {
		return nil, err
	}
	var caps Capabilities
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &caps); err != nil {
			return nil, fmt.Errorf("unmarshal capabilities: %w", err)
		}
	}
	return &caps, nil
}

// Disconnect sends "disconnect".
func (c *Client) Disconnect(ctx context.Context, args DisconnectArguments) error {
	_, err := c.Request(ctx, "disconnect", args)
	return err
}
