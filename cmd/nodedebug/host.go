package main

import (
	"context"
	"fmt"

	"github.com/dshills/nodedebug/internal/debug"
	"github.com/dshills/nodedebug/internal/workspace"
)

// cliHost is the editor state assembled from command-line flags.
type cliHost struct {
	root    string
	docs    []workspace.Document
	active  string
	session debug.Session
}

func newCLIHost(root string, open []string, active string) *cliHost {
	h := &cliHost{root: root, active: active}
	for _, name := range open {
		h.docs = append(h.docs, workspace.NewDocument(name))
	}
	return h
}

func (h *cliHost) WorkspaceRoot() string               { return h.root }
func (h *cliHost) TextDocuments() []workspace.Document { return h.docs }
func (h *cliHost) ActiveEditorFile() string            { return h.active }
func (h *cliHost) ActiveDebugSession() debug.Session   { return h.session }

// connect attaches the host to the adapter at address. An empty address
// leaves the host without a session. The returned func closes the
// connection.
func (a *app) connect(ctx context.Context, h *cliHost, address string) (func(), error) {
	if address == "" {
		address = a.cfg.Session.Address
	}
	if address == "" {
		return func() {}, nil
	}

	timeout, err := a.cfg.SessionTimeout()
	if err != nil {
		return nil, err
	}
	session, err := debug.Connect(ctx, debug.ConnectConfig{
		Address:   address,
		Timeout:   timeout,
		AdapterID: a.cfg.Debug.Type,
		Logger:    a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", address, err)
	}
	a.logger.Debug("connected to debug adapter at %s (capabilities %+v)", address, session.Capabilities())

	h.session = session
	return func() {
		if err := session.Close(); err != nil {
			a.logger.Debug("close session: %v", err)
		}
	}, nil
}
