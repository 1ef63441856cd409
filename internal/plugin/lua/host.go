// Package lua runs user scripts against the nodedebug commands.
//
// Scripts see a global "nodedebug" table:
//
//	nodedebug.provideInitialConfigurations() -> string
//	nodedebug.toggleSkippingFile([path | sourceReference])
//	nodedebug.commands() -> { id, ... }
//
// Only the base, table, string and math libraries are opened, and base
// functions that load code from files or strings are removed.
package lua

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/nodedebug/internal/command"
	"github.com/dshills/nodedebug/internal/extension"
)

// ModuleName is the global table exposed to scripts.
const ModuleName = "nodedebug"

// DefaultExecutionTimeout bounds a single script run.
const DefaultExecutionTimeout = 5 * time.Second

// ErrClosed is returned when running a script on a closed host.
var ErrClosed = errors.New("lua host closed")

// ScriptError wraps a Lua error with the script name.
type ScriptError struct {
	Script string
	Err    error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s: %v", e.Script, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// Host owns a sandboxed Lua state bound to a command registry.
//
// gopher-lua states are not goroutine-safe; the mutex serializes runs.
type Host struct {
	mu       sync.Mutex
	L        *lua.LState
	registry *command.Registry
	output   io.Writer
	timeout  time.Duration
	closed   bool
}

// Option configures a Host.
type Option func(*Host)

// WithOutput redirects print from scripts. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(h *Host) {
		h.output = w
	}
}

// WithExecutionTimeout bounds each script run. Zero disables the bound.
func WithExecutionTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.timeout = d
	}
}

// NewHost creates a host whose scripts call into registry.
func NewHost(registry *command.Registry, opts ...Option) *Host {
	h := &Host{
		registry: registry,
		output:   os.Stdout,
		timeout:  DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(h.L)
	h.installPrint()
	h.installModule()
	return h
}

func openSafeLibraries(L *lua.LState) {
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

func (h *Host) installPrint() {
	h.L.SetGlobal("print", h.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		fmt.Fprintln(h.output, strings.Join(parts, "\t"))
		return 0
	}))
}

func (h *Host) installModule() {
	mod := h.L.NewTable()
	h.L.SetField(mod, "provideInitialConfigurations", h.L.NewFunction(h.provideInitialConfigurations))
	h.L.SetField(mod, "toggleSkippingFile", h.L.NewFunction(h.toggleSkippingFile))
	h.L.SetField(mod, "commands", h.L.NewFunction(h.commands))
	h.L.SetGlobal(ModuleName, mod)
}

func (h *Host) context(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// provideInitialConfigurations() -> string
func (h *Host) provideInitialConfigurations(L *lua.LState) int {
	out, err := h.registry.Execute(h.context(L), extension.CommandProvideInitialConfigurations)
	if err != nil {
		L.RaiseError("provideInitialConfigurations: %v", err)
		return 0
	}
	doc, _ := out.(string)
	L.Push(lua.LString(doc))
	return 1
}

// toggleSkippingFile([path | sourceReference])
func (h *Host) toggleSkippingFile(L *lua.LState) int {
	var args []any
	switch v := L.Get(1).(type) {
	case lua.LString:
		args = append(args, string(v))
	case lua.LNumber:
		args = append(args, float64(v))
	case *lua.LNilType:
	default:
		L.ArgError(1, "path (string) or sourceReference (number) expected")
		return 0
	}

	if _, err := h.registry.Execute(h.context(L), extension.CommandToggleSkippingFile, args...); err != nil {
		L.RaiseError("toggleSkippingFile: %v", err)
	}
	return 0
}

// commands() -> { id, ... }
func (h *Host) commands(L *lua.LState) int {
	tbl := L.NewTable()
	for _, id := range h.registry.IDs() {
		tbl.Append(lua.LString(id))
	}
	L.Push(tbl)
	return 1
}

// RunString executes source. name labels errors.
func (h *Host) RunString(ctx context.Context, name, source string) error {
	return h.run(ctx, name, func() error { return h.L.DoString(source) })
}

// RunFile executes the script at path.
func (h *Host) RunFile(ctx context.Context, path string) error {
	return h.run(ctx, path, func() error { return h.L.DoFile(path) })
}

func (h *Host) run(ctx context.Context, name string, fn func() error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	h.L.SetContext(ctx)
	defer h.L.RemoveContext()

	if err := fn(); err != nil {
		return &ScriptError{Script: name, Err: err}
	}
	return nil
}

// Close releases the Lua state.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		h.L.Close()
	}
}
