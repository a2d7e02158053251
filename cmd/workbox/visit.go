package main

import (
	"github.com/spf13/cobra"
)

func newVisitCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "visit URL",
		Short:   "Print a web page as markdown",
		Example: "  $ workbox visit https://go.dev/doc/effective_go",
		Args:    cobra.ExactArgs(1),
		RunE:    visitAction,
	}
}

func visitAction(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return printResult(cmd, newGateway(cfg).Invoke(cmd.Context(), args[0]))
}
