package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nuln/workbox/config"
	"github.com/nuln/workbox/gateway"
	"github.com/nuln/workbox/internal/util"
	"github.com/nuln/workbox/workspace"
)

// Version is set at build time via ldflags.
var Version = "dev"

// errToolFailed marks a tool call whose "Error: " text was already printed.
var errToolFailed = errors.New("tool call failed")

func main() {
	err := newApp().Execute()
	if err == nil {
		return
	}
	if !errors.Is(err, errToolFailed) {
		fmt.Fprintln(os.Stderr, "workbox:", err)
	}
	os.Exit(1)
}

func newApp() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "workbox",
		Short:   "workbox: a sandboxed workspace and content gateway for agents",
		Version: Version,
		Example: `  Write and read a file in the sandbox:
  $ workbox fs write notes/todo.md "buy milk"
  $ workbox fs read notes/todo.md

  Read a web page as markdown:
  $ workbox visit https://example.com

  Offer both tools to an MCP client:
  $ workbox serve mcp`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Configuration file (Default $"+config.EnvConfig+" or ~/.workbox/config.yaml)")
	rootCmd.PersistentFlags().String("root", "", "Sandbox root directory, overrides the configuration")
	rootCmd.PersistentFlags().String("log-level", "", "Set the logging level [trace, debug, info, warn, error]")
	rootCmd.PersistentFlags().Bool("debug", false, "Debug mode")

	rootCmd.AddCommand(
		newFSCommand(),
		newVisitCommand(),
		newServeCommand(),
		newDriversCommand(),
	)
	return rootCmd
}

// loadConfig reads the configuration named by the global flags and sets up
// logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if root, _ := cmd.Flags().GetString("root"); root != "" {
		cfg.Root = root
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		cfg.LogLevel = l
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.LogLevel = "debug"
	}

	lvl, err := util.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	util.InitializeLogger(lvl)
	return cfg, nil
}

func openStore(cfg *config.Config) (*workspace.Store, error) {
	storage, err := cfg.Storage()
	if err != nil {
		return nil, err
	}
	return workspace.OpenConfig(storage,
		workspace.WithDownloadTimeout(cfg.DownloadTimeout),
		workspace.WithMaxDownloadBytes(cfg.MaxDownloadBytes),
	)
}

func newGateway(cfg *config.Config) *gateway.Gateway {
	return gateway.NewHTTP(cfg.ProbeTimeout, cfg.RetrieveTimeout, cfg.MaxContentChars)
}
