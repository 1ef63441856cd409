// Package config holds nodedebug settings.
//
// Settings are layered: built-in defaults, then a workspace config file
// (.nodedebug.toml or .nodedebug.yaml), then NODEDEBUG_* environment
// variables. Later layers override only the keys they set.
package config

import (
	"fmt"
	"time"

	"github.com/dshills/nodedebug/internal/launchconfig"
	"github.com/dshills/nodedebug/internal/logging"
	"github.com/dshills/nodedebug/internal/workspace"
)

// Config is the complete nodedebug configuration.
type Config struct {
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Debug   DebugConfig   `toml:"debug" yaml:"debug"`
	Session SessionConfig `toml:"session" yaml:"session"`
}

// LoggingConfig configures diagnostics.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`
}

// DebugConfig shapes the generated launch configurations.
type DebugConfig struct {
	// Type is the debugger type written into each configuration.
	Type string `toml:"type" yaml:"type"`
	// AttachPort is the inspector port of the attach configuration.
	AttachPort int `toml:"attachPort" yaml:"attachPort"`
	// SourceMapLanguages are the language IDs that trigger outFiles.
	SourceMapLanguages []string `toml:"sourceMapLanguages" yaml:"sourceMapLanguages"`
}

// SessionConfig locates a running debug adapter.
type SessionConfig struct {
	// Address is the adapter's host:port. Empty means no session.
	Address string `toml:"address" yaml:"address"`
	// Timeout is a duration string bounding connection attempts.
	Timeout string `toml:"timeout" yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Debug: DebugConfig{
			Type:               launchconfig.DefaultDebugType,
			AttachPort:         launchconfig.DefaultAttachPort,
			SourceMapLanguages: append([]string(nil), workspace.DefaultSourceMapLanguages...),
		},
		Session: SessionConfig{Timeout: "5s"},
	}
}

// Validate checks the configuration for values the rest of the program
// cannot use.
func (c *Config) Validate() error {
	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		return fmt.Errorf("%w: logging.level %q (must be debug, info, warn, or error)", ErrValidationFailed, c.Logging.Level)
	}
	if c.Debug.Type == "" {
		return fmt.Errorf("%w: debug.type must not be empty", ErrValidationFailed)
	}
	if c.Debug.AttachPort < 1 || c.Debug.AttachPort > 65535 {
		return fmt.Errorf("%w: debug.attachPort %d outside 1..65535", ErrValidationFailed, c.Debug.AttachPort)
	}
	if _, err := c.SessionTimeout(); err != nil {
		return fmt.Errorf("%w: session.timeout: %v", ErrValidationFailed, err)
	}
	return nil
}

// LogLevel returns the parsed logging level.
func (c *Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Logging.Level)
	return level
}

// SessionTimeout returns the parsed session timeout. An empty value is zero.
func (c *Config) SessionTimeout() (time.Duration, error) {
	if c.Session.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Session.Timeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", c.Session.Timeout)
	}
	return d, nil
}

// TemplateOptions returns the launch template options.
func (c *Config) TemplateOptions() launchconfig.Options {
	return launchconfig.Options{
		DebugType:  c.Debug.Type,
		AttachPort: c.Debug.AttachPort,
	}
}
