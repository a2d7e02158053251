package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nuln/workbox/workspace"
)

func newFSCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fs OPERATION [ARG...]",
		Short: "Run one workspace operation",
		Long: "Run one workspace operation and print its result.\n\nOperations: " +
			strings.Join(workspace.Operations(), ", "),
		Example: `  $ workbox fs mkdir reports
  $ workbox fs download https://example.com/paper.pdf reports/paper.pdf
  $ workbox fs listdir reports`,
		Args: cobra.MinimumNArgs(1),
		RunE: fsAction,
	}
}

func fsAction(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	return printResult(cmd, store.Invoke(cmd.Context(), args[0], args[1:]))
}

// printResult writes a tool result, routing "Error: " results to stderr.
func printResult(cmd *cobra.Command, result string) error {
	if strings.HasPrefix(result, "Error: ") {
		fmt.Fprintln(cmd.ErrOrStderr(), result)
		return errToolFailed
	}
	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}
