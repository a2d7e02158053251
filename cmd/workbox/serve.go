package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nuln/workbox/internal/util"
	"github.com/nuln/workbox/mcpserver"
	"github.com/nuln/workbox/server"
)

func newServeCommand() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Offer the tools to agents",
	}

	httpCmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the tools as JSON endpoints",
		Args:  cobra.NoArgs,
		RunE:  serveHTTPAction,
	}
	httpCmd.Flags().String("addr", "", "Listen address, overrides the configuration")

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tools over MCP on stdin and stdout",
		Args:  cobra.NoArgs,
		RunE:  serveMCPAction,
	}

	serveCmd.AddCommand(httpCmd, mcpCmd)
	return serveCmd
}

func serveHTTPAction(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTPAddr = addr
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	util.GetLogger("cmd").Info().Str("root", store.Root()).Msg("Starting HTTP server")
	return server.New(store, newGateway(cfg)).ListenAndServe(ctx, cfg.HTTPAddr)
}

func serveMCPAction(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	util.GetLogger("cmd").Info().Str("root", store.Root()).Msg("Serving MCP over stdio")
	return mcpserver.ServeStdio(mcpserver.New(store, newGateway(cfg)))
}
