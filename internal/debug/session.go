// Package debug forwards editor commands to a running debug session.
package debug

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/nodedebug/internal/debug/dap"
	"github.com/dshills/nodedebug/internal/logging"
)

// ErrNoSession is returned when connecting without an adapter address.
var ErrNoSession = errors.New("no debug session")

// Session is a live debugging session that accepts custom requests.
type Session interface {
	// CustomRequest sends command with args to the debug adapter.
	CustomRequest(ctx context.Context, command string, args any) error
}

// DAPSession is a Session backed by a DAP client. Custom requests are sent
// without waiting for the adapter's response.
type DAPSession struct {
	client *dap.Client
	caps   *dap.Capabilities
	logger *logging.Logger
}

// NewDAPSession wraps a client that has already been initialized.
func NewDAPSession(client *dap.Client, logger *logging.Logger) *DAPSession {
	if logger == nil {
		logger = logging.Nop()
	}
	return &DAPSession{client: client, caps: &dap.Capabilities{}, logger: logger.WithComponent("dap")}
}

// ConnectConfig configures Connect.
type ConnectConfig struct {
	// Address is the host:port the debug adapter listens on.
	Address string
	// Timeout bounds dialing and the initialize handshake. Zero means
	// DefaultConnectTimeout.
	Timeout time.Duration
	// AdapterID is sent in the initialize request. Empty means
	// DefaultAdapterID.
	AdapterID string
	Logger    *logging.Logger
}

const (
	// DefaultConnectTimeout is used when ConnectConfig.Timeout is zero.
	DefaultConnectTimeout = 5 * time.Second
	// DefaultAdapterID identifies the client to Node debug adapters.
	DefaultAdapterID = "node2"
	// DisconnectTimeout bounds the disconnect request sent by Close.
	DisconnectTimeout = time.Second
)

// Connect dials a debug adapter over TCP and performs the initialize
// handshake. Adapters reject other requests on a connection before
// initialize.
func Connect(ctx context.Context, cfg ConnectConfig) (*DAPSession, error) {
	if cfg.Address == "" {
		return nil, ErrNoSession
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	adapterID := cfg.AdapterID
	if adapterID == "" {
		adapterID = DefaultAdapterID
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	transport, err := dap.DialSocket(ctx, cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("connect to debug adapter: %w", err)
	}

	s := NewDAPSession(dap.NewClient(transport), cfg.Logger)
	s.client.OnEvent(func(evt dap.Event) {
		s.logger.Debug("event %s", evt.Event)
	})

	caps, err := s.client.Initialize(ctx, dap.InitializeRequestArguments{
		ClientID:        "nodedebug",
		ClientName:      "nodedebug",
		AdapterID:       adapterID,
		LinesStartAt1:   true,
		ColumnsStartAt1: true,
		PathFormat:      "path",
	})
	if err != nil {
		_ = s.client.Close()
		return nil, fmt.Errorf("initialize debug adapter: %w", err)
	}
	s.caps = caps
	return s, nil
}

// CustomRequest implements Session.
func (s *DAPSession) CustomRequest(ctx context.Context, command string, args any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.client.Notify(command, args)
}

// Capabilities returns what the adapter reported during initialize.
func (s *DAPSession) Capabilities() dap.Capabilities {
	if s.caps == nil {
		return dap.Capabilities{}
	}
	return *s.caps
}

// Close sends disconnect, leaving the debuggee running, and closes the
// connection.
func (s *DAPSession) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), DisconnectTimeout)
	defer cancel()

	if err := s.client.Disconnect(ctx, dap.DisconnectArguments{}); err != nil {
		s.logger.Debug("disconnect: %v", err)
	}
	return s.client.Close()
}
