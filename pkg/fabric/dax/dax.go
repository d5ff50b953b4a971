// Package dax runs DAX queries against semantic models through the executeQueries endpoint.
package dax

import (
	"context"
	"fmt"
	"strings"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/resolve"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
)

// Request is one query against one model.
type Request struct {
	Path         fabric.Path
	Query        string
	Format       Format
	IncludeNulls bool
}

type queryPayload struct {
	Queries            []query            `json:"queries"`
	SerializerSettings serializerSettings `json:"serializerSettings"`
}

type query struct {
	Query string `json:"query"`
}

type serializerSettings struct {
	IncludeNulls bool `json:"includeNulls"`
}

// Executor resolves a model and submits queries to it.
type Executor struct {
	api      *api.Client
	resolver *resolve.Resolver
}

// New creates an executor. Queries are read-only, so the client is restricted to safe requests.
func New(c *api.Client) *Executor {
	ro := c.ReadOnly()
	return &Executor{api: ro, resolver: resolve.New(ro)}
}

// ValidateQuery checks that q is a DAX query rather than an expression or statement fragment.
func ValidateQuery(q string) error {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		return errUtils.Build(fmt.Errorf("%w: query is empty", errUtils.ErrInvalidQuery)).
			WithHint("Pass a query with -q, for example -q \"EVALUATE VALUES('Date'[Year])\"").
			Err()
	}
	upper := strings.ToUpper(trimmed)
	for _, kw := range []string{"EVALUATE", "DEFINE"} {
		if strings.HasPrefix(upper, kw) {
			return nil
		}
	}
	return errUtils.Build(fmt.Errorf("%w: query must start with EVALUATE or DEFINE", errUtils.ErrInvalidQuery)).
		WithHint("Wrap table expressions in EVALUATE, for example EVALUATE TOPN(10, 'Sales')").
		WithHint("Qualify columns with their table: 'Sales'[Amount]").
		Err()
}

// Endpoint returns the executeQueries endpoint for a model.
func Endpoint(ref fabric.ItemRef) string {
	return fmt.Sprintf("groups/%s/datasets/%s/executeQueries", ref.WorkspaceID, ref.ItemID)
}

// Execute runs resolve-workspace, resolve-model, submit-query in order. A resolution failure
// returns before anything is submitted. Every error carries the stage it failed in.
func (e *Executor) Execute(ctx context.Context, req Request) (*Result, error) {
	if err := ValidateQuery(req.Query); err != nil {
		return nil, err
	}
	path := req.Path
	if path.Type == "" {
		path.Type = fabric.ItemTypeSemanticModel
	}
	if path.Type != fabric.ItemTypeSemanticModel {
		return nil, errUtils.Build(fmt.Errorf("%w: DAX queries need a SemanticModel, got %s", errUtils.ErrUnsupportedItemType, path.Type)).
			WithStage(errUtils.StageResolveItem).
			Err()
	}

	log.Debug("Resolving model", "path", path.String())
	ref, err := e.resolver.ResolveItem(ctx, path)
	if err != nil {
		return nil, err
	}

	payload := queryPayload{
		Queries:            []query{{Query: req.Query}},
		SerializerSettings: serializerSettings{IncludeNulls: req.IncludeNulls},
	}
	log.Debug("Executing DAX query", "model", ref.ItemID, "workspace", ref.WorkspaceID)
	resp, err := e.api.Post(ctx, session.AudiencePowerBI, Endpoint(ref), payload)
	if err != nil {
		return nil, errUtils.WithStage(err, errUtils.StageSubmitQuery)
	}

	result, err := ParseResult(resp.Body)
	if err != nil {
		return nil, errUtils.WithStage(err, errUtils.StageSubmitQuery)
	}
	return result, nil
}
