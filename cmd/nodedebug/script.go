package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/nodedebug/internal/plugin/lua"
)

func newScriptCmd(a *app) *cobra.Command {
	var (
		open    []string
		active  string
		address string
	)

	cmd := &cobra.Command{
		Use:   "script file.lua",
		Short: "Run a Lua script against the nodedebug commands",
		Long: `Run a sandboxed Lua script. The script sees a global nodedebug table
with provideInitialConfigurations, toggleSkippingFile and commands.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host := newCLIHost(a.root, open, active)
			closeSession, err := a.connect(cmd.Context(), host, address)
			if err != nil {
				return err
			}
			defer closeSession()

			ext, registry, err := a.activate(host)
			if err != nil {
				return err
			}
			defer ext.Deactivate()

			h := lua.NewHost(registry, lua.WithOutput(cmd.OutOrStdout()))
			defer h.Close()

			return h.RunFile(cmd.Context(), args[0])
		},
	}

	cmd.Flags().StringVarP(&a.workspace, "workspace", "w", "", "Workspace folder containing package.json and the config file (default: working directory)")
	cmd.Flags().StringArrayVar(&open, "open", nil, "File treated as an open document (repeatable)")
	cmd.Flags().StringVar(&active, "active", "", "File treated as the focused document")
	cmd.Flags().StringVar(&address, "address", "", "Debug adapter host:port (default from session.address)")

	return cmd
}
