package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/admin"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/dax"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/discovery"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/lineage"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/resolve"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
)

// defaultChainDepth bounds trace_lineage chain walks when the caller gives no depth.
const defaultChainDepth = 3

// Tools holds the clients behind every tool. Calls are serialized: the clients memoize
// lookups without locking and the service calls are sequential anyway.
type Tools struct {
	mu        sync.Mutex
	discovery *discovery.Client
	names     *resolve.WorkspaceNames
	resolver  *resolve.Resolver
	tracer    *lineage.Tracer
	dax       *dax.Executor
	admin     *admin.Client
}

// NewTools builds the tool handlers on a read-only view of c.
func NewTools(c *api.Client) *Tools {
	ro := c.ReadOnly()
	return &Tools{
		discovery: discovery.New(ro),
		names:     resolve.NewWorkspaceNames(ro),
		resolver:  resolve.New(ro),
		tracer:    lineage.NewTracer(ro),
		dax:       dax.New(ro),
		admin:     admin.New(ro),
	}
}

type SearchItemsInput struct {
	Type        string `json:"type" jsonschema:"Item type, for example SemanticModel, Report, Lakehouse or Notebook"`
	Name        string `json:"name,omitempty" jsonschema:"Substring of the item name; empty matches every item"`
	IgnoreCase  bool   `json:"ignoreCase,omitempty" jsonschema:"Match the name case-insensitively"`
	WorkspaceID string `json:"workspaceId,omitempty" jsonschema:"Only search this workspace id"`
	SinglePage  bool   `json:"singlePage,omitempty" jsonschema:"Fetch only the first page of results"`
}

type SearchItemsOutput struct {
	Items   []resolve.Resolved `json:"items"`
	Skipped []resolve.Skipped  `json:"skipped,omitempty"`
	// More is set when SinglePage stopped before the last page.
	More bool `json:"more,omitempty"`
}

type PathInput struct {
	Path string `json:"path" jsonschema:"Item path in the form Workspace.Workspace/Item.Type"`
}

type ResolvePathOutput struct {
	Path        fabric.Path `json:"path"`
	WorkspaceID string      `json:"workspaceId"`
	ItemID      string      `json:"itemId,omitempty"`
	Exists      bool        `json:"exists"`
}

type TraceLineageInput struct {
	Path   string `json:"path" jsonschema:"Item path in the form Workspace.Workspace/Item.Type"`
	Verify bool   `json:"verify,omitempty" jsonschema:"Check that referenced items exist"`
	Chain  bool   `json:"chain,omitempty" jsonschema:"Walk upstream through every reachable item"`
	Depth  int    `json:"depth,omitempty" jsonschema:"Maximum hops for chain walks (default 3)"`
}

type ExecuteDAXInput struct {
	Path         string `json:"path" jsonschema:"Semantic model path in the form Workspace.Workspace/Model.SemanticModel"`
	Query        string `json:"query" jsonschema:"DAX query starting with EVALUATE or DEFINE"`
	IncludeNulls bool   `json:"includeNulls,omitempty" jsonschema:"Keep null values in the rows"`
}

type ListWorkspacesInput struct {
	State      string `json:"state,omitempty" jsonschema:"Workspace state, for example Active or Deleted"`
	CapacityID string `json:"capacityId,omitempty" jsonschema:"Only workspaces on this capacity"`
	Name       string `json:"name,omitempty" jsonschema:"Workspace name"`
}

func (t *Tools) SearchItems(ctx context.Context, _ *sdk.CallToolRequest, in SearchItemsInput) (*sdk.CallToolResult, any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	itemType, err := fabric.ParseItemType(in.Type)
	if err != nil {
		return toolError(err), nil, nil
	}
	q := discovery.Query{Type: itemType, NamePattern: in.Name, IgnoreCase: in.IgnoreCase, WorkspaceID: in.WorkspaceID}

	var out SearchItemsOutput
	var items []fabric.Item
	if in.SinglePage {
		page, err := t.discovery.SearchPage(ctx, q, "")
		if err != nil {
			return toolError(err), nil, nil
		}
		items, out.More = page.Items, page.ContinuationToken != ""
	} else if items, err = t.discovery.SearchAll(ctx, q); err != nil {
		return toolError(err), nil, nil
	}

	out.Items, out.Skipped, err = t.names.Paths(ctx, items)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(out)
}

func (t *Tools) ResolvePath(ctx context.Context, _ *sdk.CallToolRequest, in PathInput) (*sdk.CallToolResult, any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	path, err := fabric.ParsePath(in.Path)
	if err != nil {
		return toolError(err), nil, nil
	}
	ws, item, exists, err := t.resolver.Lookup(ctx, path)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(ResolvePathOutput{Path: path, WorkspaceID: ws.ID, ItemID: item.ID, Exists: exists})
}

func (t *Tools) TraceLineage(ctx context.Context, _ *sdk.CallToolRequest, in TraceLineageInput) (*sdk.CallToolResult, any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	path, err := fabric.ParsePath(in.Path)
	if err != nil {
		return toolError(err), nil, nil
	}

	if in.Chain {
		depth := in.Depth
		if depth <= 0 {
			depth = defaultChainDepth
		}
		chain, err := t.tracer.Chain(ctx, path, depth)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(chain)
	}

	result, err := t.tracer.Trace(ctx, path)
	if err != nil {
		return toolError(err), nil, nil
	}
	if in.Verify {
		if err := t.tracer.Verify(ctx, &result); err != nil {
			return toolError(err), nil, nil
		}
	}
	return toolJSON(result)
}

func (t *Tools) ExecuteDAX(ctx context.Context, _ *sdk.CallToolRequest, in ExecuteDAXInput) (*sdk.CallToolResult, any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	path, err := fabric.ParsePathWithDefault(in.Path, fabric.ItemTypeSemanticModel)
	if err != nil {
		return toolError(err), nil, nil
	}
	result, err := t.dax.Execute(ctx, dax.Request{Path: path, Query: in.Query, IncludeNulls: in.IncludeNulls})
	if err != nil {
		return toolError(err), nil, nil
	}
	text, err := dax.Render(result, dax.FormatJSON)
	if err != nil {
		return toolError(errUtils.WithStage(err, errUtils.StageFormatOutput)), nil, nil
	}
	return toolText(text), nil, nil
}

func (t *Tools) ListWorkspaces(ctx context.Context, _ *sdk.CallToolRequest, in ListWorkspacesInput) (*sdk.CallToolResult, any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	workspaces, err := t.admin.Workspaces(ctx, admin.WorkspaceFilter{State: in.State, CapacityID: in.CapacityID, Name: in.Name})
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(workspaces)
}

func (t *Tools) ListCapacities(ctx context.Context, _ *sdk.CallToolRequest, _ struct{}) (*sdk.CallToolResult, any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	capacities, err := t.admin.Capacities(ctx)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(capacities)
}

func toolText(text string) *sdk.CallToolResult {
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: text}},
	}
}

// toolError reports a failed call as tool output so the client can read the stage and hints.
func toolError(err error) *sdk.CallToolResult {
	msg := err.Error()
	if stage, ok := errUtils.GetStage(err); ok {
		msg = fmt.Sprintf("%s failed: %s", stage, msg)
	}
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		msg += "\nHints:\n  - " + strings.Join(hints, "\n  - ")
	}
	log.Debug("Tool call failed", "error", err)
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: msg}},
		IsError: true,
	}
}

func toolJSON(v any) (*sdk.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolText(string(data)), nil, nil
}
