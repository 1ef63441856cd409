package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newToggleSkipCmd(a *app) *cobra.Command {
	var (
		address string
		active  string
	)

	cmd := &cobra.Command{
		Use:   "toggle-skip [path|sourceReference]",
		Short: "Toggle skip-file status in a running debug session",
		Long: `Send a toggleSkipFileStatus request to the debug adapter.

A numeric argument is a source reference; anything else is a path. Without
an argument the --active file is used. Without an adapter address nothing
is sent.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host := newCLIHost("", nil, active)
			closeSession, err := a.connect(cmd.Context(), host, address)
			if err != nil {
				return err
			}
			defer closeSession()

			ext, _, err := a.activate(host)
			if err != nil {
				return err
			}
			defer ext.Deactivate()

			var arg any
			if len(args) == 1 {
				arg = parseToggleArg(args[0])
			}
			if !ext.ToggleSkippingFile(cmd.Context(), arg) {
				a.logger.Warn("nothing sent (session=%v)", host.session != nil)
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "toggleSkipFileStatus sent")
			return err
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Debug adapter host:port (default from session.address)")
	cmd.Flags().StringVar(&active, "active", "", "File treated as the focused document")

	return cmd
}

func parseToggleArg(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}
