package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	var (
		open   []string
		output string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Print the initial launch configurations for a workspace",
		Long: `Print a launch.json document with a launch and an attach configuration.

The program is taken from package.json in the workspace, which defaults to
the working directory. Files passed with
--open stand in for open editor documents; TypeScript or CoffeeScript among
them adds an outFiles entry to every configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ext, _, err := a.activate(newCLIHost(a.root, open, ""))
			if err != nil {
				return err
			}
			defer ext.Deactivate()

			doc := ext.ProvideInitialConfigurations()
			if output == "" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), doc)
				return err
			}

			if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return fmt.Errorf("create %s: %w", filepath.Dir(output), err)
			}
			if err := os.WriteFile(output, []byte(doc+"\n"), 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			a.logger.Info("wrote %s", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&a.workspace, "workspace", "w", "", "Workspace folder containing package.json and the config file (default: working directory)")
	cmd.Flags().StringArrayVar(&open, "open", nil, "File treated as an open document (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the document to this file instead of stdout")

	return cmd
}
