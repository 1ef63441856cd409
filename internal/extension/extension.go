// Package extension wires the Node debug helpers into a host editor's
// command system.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/nodedebug/internal/command"
	"github.com/dshills/nodedebug/internal/debug"
	"github.com/dshills/nodedebug/internal/launchconfig"
	"github.com/dshills/nodedebug/internal/logging"
	"github.com/dshills/nodedebug/internal/manifest"
	"github.com/dshills/nodedebug/internal/workspace"
)

// Command IDs registered by Activate.
const (
	CommandProvideInitialConfigurations = "extension.node-debug2.provideInitialConfigurations"
	CommandToggleSkippingFile           = "extension.node-debug2.toggleSkippingFile"
)

// ErrAlreadyActive is returned when Activate is called twice.
var ErrAlreadyActive = errors.New("extension already active")

// Host is the editor state the extension reads.
type Host interface {
	// WorkspaceRoot returns the root folder, or "" when none is open.
	WorkspaceRoot() string
	// TextDocuments returns the currently open documents.
	TextDocuments() []workspace.Document
	// ActiveEditorFile returns the focused document's path, or "".
	ActiveEditorFile() string
	// ActiveDebugSession returns the live session, or nil.
	ActiveDebugSession() debug.Session
}

// Options configures the extension.
type Options struct {
	Template launchconfig.Options
	// SourceMapLanguages overrides workspace.DefaultSourceMapLanguages.
	SourceMapLanguages []string
	Logger             *logging.Logger
}

// Extension implements the node-debug2 commands against a Host.
type Extension struct {
	host     Host
	opts     Options
	logger   *logging.Logger
	manifest *manifest.Reader
	toggler  *debug.SkipFileToggler

	registry *command.Registry
}

// New creates an inactive extension.
func New(host Host, opts Options) *Extension {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Extension{
		host:     host,
		opts:     opts,
		logger:   logger.WithComponent("extension"),
		manifest: manifest.NewReader(logger),
		toggler:  debug.NewSkipFileToggler(logger),
	}
}

// Activate registers the extension's commands.
func (e *Extension) Activate(registry *command.Registry) error {
	if e.registry != nil {
		return ErrAlreadyActive
	}

	if err := registry.Register(CommandProvideInitialConfigurations, e.provideInitialConfigurations); err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	if err := registry.Register(CommandToggleSkippingFile, e.toggleSkippingFile); err != nil {
		registry.Unregister(CommandProvideInitialConfigurations)
		return fmt.Errorf("activate: %w", err)
	}

	e.registry = registry
	e.logger.Debug("activated")
	return nil
}

// Deactivate removes the commands registered by Activate.
func (e *Extension) Deactivate() {
	if e.registry == nil {
		return
	}
	e.registry.Unregister(CommandProvideInitialConfigurations)
	e.registry.Unregister(CommandToggleSkippingFile)
	e.registry = nil
}

// ProvideInitialConfigurations returns the starter launch.json document for
// the host's workspace.
func (e *Extension) ProvideInitialConfigurations() string {
	hint := e.manifest.ProgramHint(e.host.WorkspaceRoot())
	signal := workspace.SourceMapSignal(e.host.TextDocuments(), e.opts.SourceMapLanguages)

	e.logger.Debug("synthesizing initial configurations (program=%q, sourceMaps=%v)", hint, signal)
	return launchconfig.Synthesize(hint, signal, e.opts.Template)
}

// ToggleSkippingFile toggles skip-file status for arg (a path or a source
// reference) or, without one, for the focused document. An argument that
// identifies no source sends nothing. It reports whether a request was sent
// to the active session.
func (e *Extension) ToggleSkippingFile(ctx context.Context, arg any) bool {
	target, err := debug.ParseSkipFileTarget(arg)
	if err != nil {
		e.logger.Debug("toggle skipping file: %v", err)
		return false
	}
	return e.toggler.Toggle(ctx, e.host.ActiveDebugSession(), target, e.host.ActiveEditorFile())
}

func (e *Extension) provideInitialConfigurations(ctx context.Context, args ...any) (any, error) {
	return e.ProvideInitialConfigurations(), nil
}

func (e *Extension) toggleSkippingFile(ctx context.Context, args ...any) (any, error) {
	var arg any
	if len(args) > 0 {
		arg = args[0]
	}
	e.ToggleSkippingFile(ctx, arg)
	return nil, nil
}
