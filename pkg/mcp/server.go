// Package mcp exposes the read-only Fabric operations as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"net/http"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
	"github.com/data-goblin/fabric-cli-plugin/pkg/version"
)

// ServerName is the implementation name reported to clients.
const ServerName = "fabkit-mcp-server"

const instructions = "fabkit exposes read-only Microsoft Fabric and Power BI discovery tools. " +
	"Search items tenant-wide, resolve Workspace.Workspace/Item.Type paths, trace lineage and run DAX queries. " +
	"No tool changes anything in the tenant."

// NewServer creates an MCP server with every tool registered on a read-only view of c.
func NewServer(c *api.Client) *sdk.Server {
	t := NewTools(c)

	srv := sdk.NewServer(&sdk.Implementation{
		Name:    ServerName,
		Version: version.Version,
	}, &sdk.ServerOptions{Instructions: instructions})

	sdk.AddTool(srv, &sdk.Tool{
		Name:        "search_items",
		Description: "Search items of one type across every workspace (admin API). Returns paths and ids.",
	}, t.SearchItems)

	sdk.AddTool(srv, &sdk.Tool{
		Name:        "resolve_path",
		Description: "Resolve a Workspace.Workspace/Item.Type path to workspace and item ids.",
	}, t.ResolvePath)

	sdk.AddTool(srv, &sdk.Tool{
		Name:        "trace_lineage",
		Description: "List the upstream sources an item's definition refers to, or walk the upstream chain.",
	}, t.TraceLineage)

	sdk.AddTool(srv, &sdk.Tool{
		Name:        "execute_dax",
		Description: "Run a DAX query (EVALUATE or DEFINE) against a semantic model and return the rows.",
	}, t.ExecuteDAX)

	sdk.AddTool(srv, &sdk.Tool{
		Name:        "list_workspaces",
		Description: "List workspaces tenant-wide (admin API), optionally filtered by state, capacity or name.",
	}, t.ListWorkspaces)

	sdk.AddTool(srv, &sdk.Tool{
		Name:        "list_capacities",
		Description: "List capacities tenant-wide (admin API).",
	}, t.ListCapacities)

	return srv
}

// ServeStdio runs srv over stdin/stdout until the client disconnects or ctx ends.
func ServeStdio(ctx context.Context, srv *sdk.Server) error {
	log.Info("MCP server listening", "transport", "stdio")
	err := srv.Run(ctx, &sdk.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// ServeHTTP runs srv with the streamable HTTP transport on addr until ctx ends.
func ServeHTTP(ctx context.Context, srv *sdk.Server, addr string) error {
	handler := sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server { return srv }, nil)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("MCP server listening", "transport", "http", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
