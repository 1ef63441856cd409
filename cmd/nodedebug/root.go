package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/nodedebug/internal/command"
	"github.com/dshills/nodedebug/internal/config"
	"github.com/dshills/nodedebug/internal/extension"
	"github.com/dshills/nodedebug/internal/logging"
)

// app carries the state shared by subcommands once the root pre-run has
// loaded configuration.
type app struct {
	configPath string
	logLevel   string
	// workspace is bound by the subcommands that take -w.
	workspace string

	root   string
	cfg    *config.Config
	logger *logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "nodedebug",
		Short: "Node.js debug configuration helpers",
		Long: `nodedebug generates starter launch configurations for Node.js
projects and forwards skip-file toggles to a running debug adapter.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to configuration file")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newInitCmd(a))
	cmd.AddCommand(newToggleSkipCmd(a))
	cmd.AddCommand(newScriptCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setup resolves the workspace root, loads configuration from it and
// installs the process logger. The root defaults to the working directory.
// Diagnostics go to stderr so generated documents on stdout stay clean.
func (a *app) setup(cmd *cobra.Command) error {
	root := a.workspace
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}
	a.root = root

	cfg, err := config.NewLoader().Load(a.configPath, root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel()
	if a.logLevel != "" {
		var ok bool
		if level, ok = logging.ParseLevel(a.logLevel); !ok {
			return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", a.logLevel)
		}
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.Output = cmd.ErrOrStderr()
	a.logger = logging.New(logCfg)
	logging.SetDefault(a.logger)

	a.cfg = cfg
	return nil
}

// activate builds an extension over host and registers its commands.
func (a *app) activate(host extension.Host) (*extension.Extension, *command.Registry, error) {
	ext := extension.New(host, extension.Options{
		Template:           a.cfg.TemplateOptions(),
		SourceMapLanguages: a.cfg.Debug.SourceMapLanguages,
		Logger:             a.logger,
	})
	registry := command.NewRegistry()
	if err := ext.Activate(registry); err != nil {
		return nil, nil, err
	}
	return ext, registry, nil
}
