package extension

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/nodedebug/internal/command"
	"github.com/dshills/nodedebug/internal/debug"
	"github.com/dshills/nodedebug/internal/debug/dap"
	"github.com/dshills/nodedebug/internal/launchconfig"
	"github.com/dshills/nodedebug/internal/logging"
	"github.com/dshills/nodedebug/internal/workspace"
)

type request struct {
	command string
	args    any
}

type recordingSession struct {
	requests []request
}

func (s *recordingSession) CustomRequest(ctx context.Context, command string, args any) error {
	s.requests = append(s.requests, request{command, args})
	return nil
}

type mockHost struct {
	root    string
	docs    []workspace.Document
	active  string
	session debug.Session
}

func (h *mockHost) WorkspaceRoot() string              { return h.root }
func (h *mockHost) TextDocuments() []workspace.Document { return h.docs }
func (h *mockHost) ActiveEditorFile() string           { return h.active }
func (h *mockHost) ActiveDebugSession() debug.Session  { return h.session }

func newExtension(host Host) *Extension {
	return New(host, Options{Template: launchconfig.DefaultOptions(), Logger: logging.Nop()})
}

func TestActivate_RegistersCommands(t *testing.T) {
	reg := command.NewRegistry()
	ext := newExtension(&mockHost{})

	if err := ext.Activate(reg); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	for _, id := range []string{CommandProvideInitialConfigurations, CommandToggleSkippingFile} {
		if !reg.Has(id) {
			t.Errorf("command %s not registered", id)
		}
	}

	if err := ext.Activate(reg); !errors.Is(err, ErrAlreadyActive) {
		t.Errorf("second Activate() error = %v, want ErrAlreadyActive", err)
	}

	ext.Deactivate()
	if len(reg.IDs()) != 0 {
		t.Errorf("commands left after Deactivate: %v", reg.IDs())
	}
	ext.Deactivate()
}

func TestActivate_Conflict(t *testing.T) {
	reg := command.NewRegistry()
	_ = reg.Register(CommandToggleSkippingFile, func(ctx context.Context, args ...any) (any, error) { return nil, nil })

	ext := newExtension(&mockHost{})
	if err := ext.Activate(reg); !errors.Is(err, command.ErrCommandExists) {
		t.Fatalf("Activate() error = %v, want ErrCommandExists", err)
	}
	if reg.Has(CommandProvideInitialConfigurations) {
		t.Error("partial registration left behind")
	}
}

func TestProvideInitialConfigurations(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"main": "lib/app.js"}`), 0644); err != nil {
		t.Fatal(err)
	}
	host := &mockHost{
		root: dir,
		docs: []workspace.Document{workspace.NewDocument(filepath.Join(dir, "src", "app.ts"))},
	}

	reg := command.NewRegistry()
	ext := newExtension(host)
	if err := ext.Activate(reg); err != nil {
		t.Fatal(err)
	}

	out, err := reg.Execute(context.Background(), CommandProvideInitialConfigurations)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	doc, ok := out.(string)
	if !ok {
		t.Fatalf("result type %T, want string", out)
	}

	if !strings.Contains(doc, `"program": "${workspaceFolder}/lib/app.js"`) {
		t.Errorf("missing program, got:\n%s", doc)
	}
	if strings.Count(doc, `"outFiles": []`) != 2 {
		t.Errorf("expected outFiles on both records, got:\n%s", doc)
	}
}

func TestProvideInitialConfigurations_NoWorkspace(t *testing.T) {
	ext := newExtension(&mockHost{})

	got := ext.ProvideInitialConfigurations()
	want := launchconfig.Synthesize("", false, launchconfig.DefaultOptions())
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestProvideInitialConfigurations_CustomLanguages(t *testing.T) {
	host := &mockHost{docs: []workspace.Document{{FileName: "a.ts", LanguageID: "typescript"}}}
	ext := New(host, Options{SourceMapLanguages: []string{"coffeescript"}, Logger: logging.Nop()})

	if strings.Contains(ext.ProvideInitialConfigurations(), "outFiles") {
		t.Error("typescript is not on the custom allow-list")
	}
}

func TestToggleSkippingFile(t *testing.T) {
	tests := []struct {
		name   string
		args   []any
		active string
		want   []dap.ToggleSkipFileStatusArguments
	}{
		{"path", []any{"foo.js"}, "", []dap.ToggleSkipFileStatusArguments{{Path: "foo.js"}}},
		{"source reference", []any{42}, "", []dap.ToggleSkipFileStatusArguments{{SourceReference: 42}}},
		{"active editor", nil, "/w/open.js", []dap.ToggleSkipFileStatusArguments{{Path: "/w/open.js"}}},
		{"nothing", nil, "", nil},
		{"unsigned source reference", []any{uint64(42)}, "/w/open.js", []dap.ToggleSkipFileStatusArguments{{SourceReference: 42}}},
		{"fractional number", []any{42.5}, "/w/open.js", nil},
		{"unsupported type", []any{true}, "/w/open.js", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &recordingSession{}
			reg := command.NewRegistry()
			ext := newExtension(&mockHost{active: tt.active, session: session})
			if err := ext.Activate(reg); err != nil {
				t.Fatal(err)
			}

			out, err := reg.Execute(context.Background(), CommandToggleSkippingFile, tt.args...)
			if err != nil || out != nil {
				t.Fatalf("Execute() = (%v, %v), want (nil, nil)", out, err)
			}

			if len(session.requests) != len(tt.want) {
				t.Fatalf("got %d requests, want %d", len(session.requests), len(tt.want))
			}
			for i, want := range tt.want {
				if session.requests[i].command != "toggleSkipFileStatus" {
					t.Errorf("command = %q", session.requests[i].command)
				}
				if session.requests[i].args != want {
					t.Errorf("args = %+v, want %+v", session.requests[i].args, want)
				}
			}
		})
	}
}

func TestToggleSkippingFile_NoSession(t *testing.T) {
	ext := newExtension(&mockHost{active: "/w/open.js"})

	if ext.ToggleSkippingFile(context.Background(), "foo.js") {
		t.Error("request reported as sent without a session")
	}
	if ext.ToggleSkippingFile(context.Background(), 42) {
		t.Error("request reported as sent without a session")
	}
}
