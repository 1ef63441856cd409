package manifest

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/nodedebug/internal/logging"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write package.json: %v", err)
	}
	return dir
}

func TestProgramHint(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    ProgramHint
	}{
		{"main", `{"main": "x.js"}`, "x.js"},
		{"main wins over start", `{"main": "lib/index.js", "scripts": {"start": "node server.js"}}`, "lib/index.js"},
		{"start script", `{"scripts": {"start": "node server.js"}}`, "server.js"},
		{"start script last token", `{"scripts": {"start": "node server.js --flag"}}`, "--flag"},
		{"start script single word", `{"scripts": {"start": "app.js"}}`, "app.js"},
		{"start script extra spaces", `{"scripts": {"start": "node   server.js  "}}`, "server.js"},
		{"empty main falls back", `{"main": "", "scripts": {"start": "node a.js"}}`, "a.js"},
		{"non-string main ignored", `{"main": 3, "scripts": {"start": "node a.js"}}`, "a.js"},
		{"non-string start", `{"scripts": {"start": ["node", "a.js"]}}`, ""},
		{"no scripts", `{"name": "pkg"}`, ""},
		{"empty start", `{"scripts": {"start": ""}}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeManifest(t, tt.content)
			if got := ResolveProgramHint(dir); got != tt.want {
				t.Errorf("ResolveProgramHint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRead_NoWorkspace(t *testing.T) {
	_, err := NewReader(nil).Read("")
	if !errors.Is(err, ErrNoWorkspace) {
		t.Fatalf("Read(\"\") error = %v, want ErrNoWorkspace", err)
	}
	if hint := ResolveProgramHint(""); hint != "" {
		t.Errorf("ResolveProgramHint(\"\") = %q, want empty", hint)
	}
}

func TestRead_NotFound(t *testing.T) {
	dir := t.TempDir()

	_, err := NewReader(nil).Read(dir)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read() error = %v, want ErrNotFound", err)
	}
	if hint := ResolveProgramHint(dir); hint.Resolved() {
		t.Errorf("expected unresolved hint, got %q", hint)
	}
}

func TestRead_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `{"main": `},
		{"array", `["main"]`},
		{"string", `"main"`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeManifest(t, tt.content)

			_, err := NewReader(nil).Read(dir)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Read() error = %v, want *ParseError", err)
			}
			if errors.Is(err, ErrNotFound) {
				t.Error("malformed manifest must be distinguishable from a missing one")
			}
			if hint := ResolveProgramHint(dir); hint != "" {
				t.Errorf("ResolveProgramHint() = %q, want empty", hint)
			}
		})
	}
}

type failingFS struct {
	err error
}

func (f failingFS) ReadFile(path string) ([]byte, error) {
	return nil, f.err
}

func TestRead_Unreadable(t *testing.T) {
	cause := fs.ErrPermission
	r := NewReaderWithFS(failingFS{err: cause}, nil)

	_, err := r.Read("/workspace")
	var readErr *ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("Read() error = %v, want *ReadError", err)
	}
	if readErr.Path != filepath.Join("/workspace", FileName) {
		t.Errorf("ReadError.Path = %q", readErr.Path)
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Error("ReadError should unwrap to the cause")
	}
}

func TestProgramHint_LogsSwallowedError(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf})
	r := NewReaderWithFS(failingFS{err: fs.ErrNotExist}, logger)

	if hint := r.ProgramHint("/workspace"); hint != "" {
		t.Fatalf("ProgramHint() = %q, want empty", hint)
	}
	if !strings.Contains(buf.String(), "no program hint") {
		t.Errorf("expected debug log, got %q", buf.String())
	}
}

func TestManifest_Accessors(t *testing.T) {
	m, err := Parse("package.json", []byte(`{"main": "index.js", "scripts": {"start": "node index.js"}}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if main, ok := m.Main(); !ok || main != "index.js" {
		t.Errorf("Main() = (%q, %v)", main, ok)
	}
	if start, ok := m.StartScript(); !ok || start != "node index.js" {
		t.Errorf("StartScript() = (%q, %v)", start, ok)
	}
	if m.Path() != "package.json" {
		t.Errorf("Path() = %q", m.Path())
	}
}
