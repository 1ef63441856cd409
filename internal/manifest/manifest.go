// Package manifest reads package.json files and infers a program entry point.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/nodedebug/internal/logging"
)

// FileName is the manifest file looked up at the workspace root.
const FileName = "package.json"

var (
	// ErrNoWorkspace indicates that no workspace root was supplied.
	ErrNoWorkspace = errors.New("no workspace root")

	// ErrNotFound indicates that the workspace has no manifest.
	ErrNotFound = errors.New("manifest not found")
)

// ReadError reports a manifest that exists but could not be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ParseError reports a manifest whose content is not a JSON object.
type ParseError struct {
	Path    string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Manifest is a parsed package.json.
type Manifest struct {
	path string
	root gjson.Result
}

// FileSystem is the subset of file access the reader needs.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

type osFS struct{}

func (osFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Reader loads manifests from a FileSystem.
type Reader struct {
	fs     FileSystem
	logger *logging.Logger
}

// NewReader creates a reader over the OS file system.
func NewReader(logger *logging.Logger) *Reader {
	return NewReaderWithFS(osFS{}, logger)
}

// NewReaderWithFS creates a reader over a custom file system.
func NewReaderWithFS(fsys FileSystem, logger *logging.Logger) *Reader {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Reader{fs: fsys, logger: logger.WithComponent("manifest")}
}

// Read loads <root>/package.json.
func (r *Reader) Read(root string) (*Manifest, error) {
	if root == "" {
		return nil, ErrNoWorkspace
	}

	path := filepath.Join(root, FileName)
	data, err := r.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, &ReadError{Path: path, Err: err}
	}

	return Parse(path, data)
}

// Parse parses manifest content. The path is only used in errors.
func Parse(path string, data []byte) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ParseError{Path: path, Message: "invalid JSON"}
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &ParseError{Path: path, Message: "top-level value is not an object"}
	}
	return &Manifest{path: path, root: root}, nil
}

// Path returns the file the manifest was read from.
func (m *Manifest) Path() string {
	return m.path
}

// Main returns the "main" field when it is a non-empty string.
func (m *Manifest) Main() (string, bool) {
	v := m.root.Get("main")
	if v.Type != gjson.String || v.Str == "" {
		return "", false
	}
	return v.Str, true
}

// StartScript returns "scripts.start" when it is a string.
func (m *Manifest) StartScript() (string, bool) {
	v := m.root.Get("scripts.start")
	if v.Type != gjson.String {
		return "", false
	}
	return v.Str, true
}

// EntryPoint infers the program entry point: "main" verbatim, otherwise the
// last whitespace-separated token of "scripts.start", otherwise "".
func (m *Manifest) EntryPoint() string {
	if main, ok := m.Main(); ok {
		return main
	}
	if start, ok := m.StartScript(); ok {
		return lastToken(start)
	}
	return ""
}

func lastToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// ProgramHint is an inferred path to the application's entry file.
// The empty hint means unresolved.
type ProgramHint string

// Resolved reports whether the hint names a program.
func (h ProgramHint) Resolved() bool {
	return h != ""
}

// ProgramHint resolves the entry point of the workspace at root. Every
// failure collapses to the empty hint and is only logged at debug level.
func (r *Reader) ProgramHint(root string) ProgramHint {
	m, err := r.Read(root)
	if err != nil {
		r.logger.Debug("no program hint: %v", err)
		return ""
	}
	return ProgramHint(m.EntryPoint())
}

// ResolveProgramHint resolves the entry point of the workspace at root using
// the OS file system.
func ResolveProgramHint(root string) ProgramHint {
	return NewReader(logging.Default()).ProgramHint(root)
}
