// Package mcpserver provides the command that serves fabkit's read-only tools over MCP.
package mcpserver

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/mcp"
)

const (
	transportStdio = "stdio"
	transportHTTP  = "http"
)

// NewCommand returns the mcp-server command. newClient is called once, before serving.
func NewCommand(newClient func(ctx context.Context) (*api.Client, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve fabkit's read-only tools to AI assistants over MCP",
		Long: `Starts a Model Context Protocol server exposing search, path resolution, lineage, DAX
queries and admin listings as tools. No tool changes the tenant.

The stdio transport is what desktop assistants launch. The http transport serves the
streamable HTTP protocol on --addr.`,
		Example: `fabkit mcp-server
fabkit mcp-server --transport http --addr 127.0.0.1:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			transport, _ := cmd.Flags().GetString("transport")
			addr, _ := cmd.Flags().GetString("addr")
			if transport != transportStdio && transport != transportHTTP {
				return errUtils.Build(fmt.Errorf("%w: transport %q", errUtils.ErrInvalidArgument, transport)).
					WithHint("Use --transport stdio or --transport http").
					Err()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			srv := mcp.NewServer(client)

			if transport == transportHTTP {
				return mcp.ServeHTTP(ctx, srv, addr)
			}
			return mcp.ServeStdio(ctx, srv)
		},
	}
	cmd.Flags().String("transport", transportStdio, "Transport: stdio or http")
	cmd.Flags().String("addr", "127.0.0.1:8080", "Listen address for the http transport")
	return cmd
}
