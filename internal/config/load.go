package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileNames are the config files looked up in a workspace root, in order.
var FileNames = []string{".nodedebug.toml", ".nodedebug.yaml", ".nodedebug.yml"}

// EnvPrefix prefixes every environment variable read by LoadEnv.
const EnvPrefix = "NODEDEBUG_"

// FileSystem is the file access the loader needs.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

type osFS struct{}

func (osFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader builds a Config from defaults, a file and the environment.
type Loader struct {
	fs     FileSystem
	lookup func(string) (string, bool)
}

// NewLoader creates a loader over the OS file system and environment.
func NewLoader() *Loader {
	return &Loader{fs: osFS{}, lookup: os.LookupEnv}
}

// NewLoaderWith creates a loader with custom file and environment access.
func NewLoaderWith(fsys FileSystem, lookup func(string) (string, bool)) *Loader {
	return &Loader{fs: fsys, lookup: lookup}
}

// Load returns the validated configuration. An explicit path must exist;
// otherwise the first of FileNames found in root is used, if any.
func (l *Loader) Load(path, root string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := l.LoadFile(cfg, path); err != nil {
			return nil, err
		}
	} else if root != "" {
		for _, name := range FileNames {
			err := l.LoadFile(cfg, filepath.Join(root, name))
			if err == nil {
				break
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := l.LoadEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes the file at path over cfg. The format is chosen by
// extension. Keys absent from the file keep their current values.
func (l *Loader) LoadFile(cfg *Config, path string) error {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document decodes to io.EOF and leaves cfg unchanged.
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

// LoadEnv applies NODEDEBUG_* variables over cfg.
func (l *Loader) LoadEnv(cfg *Config) error {
	if v, ok := l.lookup(EnvPrefix + "LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := l.lookup(EnvPrefix + "DEBUG_TYPE"); ok {
		cfg.Debug.Type = v
	}
	if v, ok := l.lookup(EnvPrefix + "ATTACH_PORT"); ok {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &ParseError{Path: EnvPrefix + "ATTACH_PORT", Message: "not an integer", Err: err}
		}
		cfg.Debug.AttachPort = port
	}
	if v, ok := l.lookup(EnvPrefix + "SOURCEMAP_LANGUAGES"); ok {
		cfg.Debug.SourceMapLanguages = splitList(v)
	}
	if v, ok := l.lookup(EnvPrefix + "SESSION_ADDRESS"); ok {
		cfg.Session.Address = v
	}
	if v, ok := l.lookup(EnvPrefix + "SESSION_TIMEOUT"); ok {
		cfg.Session.Timeout = v
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
