// Package directlake materializes a lakehouse table as a queryable Direct Lake semantic model.
package directlake

import (
	"context"
	"fmt"
	"sort"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/resolve"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
)

// Request describes one model to create.
type Request struct {
	Source      fabric.Path
	Destination fabric.Path
	Table       TableRef
}

// Result describes the created model. The model is left in place; deleting it is up to the caller.
type Result struct {
	Model       fabric.Path `json:"model" yaml:"model"`
	WorkspaceID string      `json:"workspaceId" yaml:"workspaceId"`
	ItemID      string      `json:"itemId,omitempty" yaml:"itemId,omitempty"`
	Table       TableRef    `json:"table" yaml:"table"`
	Columns     []Column    `json:"columns" yaml:"columns"`
	Files       []string    `json:"files" yaml:"files"`
	Cleanup     string      `json:"cleanup" yaml:"cleanup"`
}

// Creator runs the read-only checks and then publishes the model.
type Creator struct {
	reader    *api.Client
	resolver  *resolve.Resolver
	schemas   SchemaSource
	publisher Publisher
	renderer  *Renderer
}

// NewCreator creates a Creator. Lookups always go through a read-only view of c;
// publisher is the only component allowed to mutate.
func NewCreator(c *api.Client, schemas SchemaSource, publisher Publisher, renderer *Renderer) *Creator {
	ro := c.ReadOnly()
	return &Creator{reader: ro, resolver: resolve.New(ro), schemas: schemas, publisher: publisher, renderer: renderer}
}

// Validate checks the request shape before anything is called.
func (r Request) Validate() error {
	if r.Source.Type != fabric.ItemTypeLakehouse {
		return errUtils.Build(fmt.Errorf("%w: source must be a Lakehouse, got %s", errUtils.ErrUnsupportedItemType, r.Source.Type)).
			WithHint(`Sources look like "Bronze.Workspace/Sales.Lakehouse"`).
			Err()
	}
	if r.Destination.Type != fabric.ItemTypeSemanticModel {
		return errUtils.Build(fmt.Errorf("%w: destination must be a SemanticModel, got %s", errUtils.ErrUnsupportedItemType, r.Destination.Type)).
			Err()
	}
	if r.Table.Schema == "" || r.Table.Name == "" {
		_, err := ParseTable(r.Table.String())
		return err
	}
	return nil
}

// Create refuses an occupied destination before doing anything else, then reads the source
// table and publishes the model. Every failure is terminal; nothing is retried or cleaned up.
func (c *Creator) Create(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	destWS, _, exists, err := c.resolver.Lookup(ctx, req.Destination)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errUtils.Build(fmt.Errorf("%w: %s", errUtils.ErrDestinationExists, req.Destination)).
			WithHint("Pick another model name; existing models are never overwritten").
			WithStage(errUtils.StageCollisionCheck).
			Err()
	}

	source, err := c.resolver.ResolveItem(ctx, req.Source)
	if err != nil {
		return nil, err
	}
	lh := Lakehouse{Path: req.Source, WorkspaceID: source.WorkspaceID, ID: source.ItemID}
	if lh.Endpoint, err = c.sqlEndpoint(ctx, source); err != nil {
		return nil, errUtils.WithStage(err, errUtils.StageReadSchema)
	}

	log.Debug("Reading table schema", "lakehouse", req.Source.String(), "table", req.Table.String())
	columns, err := c.schemas.TableSchema(ctx, lh, req.Table)
	if err != nil {
		return nil, errUtils.WithStage(err, errUtils.StageReadSchema)
	}
	if len(columns) == 0 {
		return nil, errUtils.Build(fmt.Errorf("%w: %s in %s", errUtils.ErrTableNotFound, req.Table, req.Source)).
			WithHintf("List tables with `fab ls %s/Tables`", req.Source.Quoted()).
			WithStage(errUtils.StageReadSchema).
			Err()
	}

	files, err := c.renderer.Render(ModelSpec{Model: req.Destination.Item, Table: req.Table, Columns: columns, Endpoint: lh.Endpoint})
	if err != nil {
		return nil, err
	}

	item, err := c.publisher.Publish(ctx, destWS.ID, req.Destination, files)
	if err != nil {
		return nil, errUtils.WithStage(err, errUtils.StageCreateItem)
	}
	if item.ID == "" {
		if found, ok, ferr := c.resolver.FindItem(ctx, destWS.ID, req.Destination.Item, fabric.ItemTypeSemanticModel); ferr == nil && ok {
			item.ID = found.ID
		}
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return &Result{
		Model:       req.Destination,
		WorkspaceID: destWS.ID,
		ItemID:      item.ID,
		Table:       req.Table,
		Columns:     columns,
		Files:       paths,
		Cleanup:     fmt.Sprintf("fab rm %s -f", req.Destination.Quoted()),
	}, nil
}

// sqlEndpoint reads properties.sqlEndpointProperties of the lakehouse.
func (c *Creator) sqlEndpoint(ctx context.Context, lh fabric.ItemRef) (SQLEndpoint, error) {
	var body struct {
		Properties struct {
			SQLEndpointProperties *SQLEndpoint `json:"sqlEndpointProperties"`
		} `json:"properties"`
	}
	endpoint := fmt.Sprintf("workspaces/%s/lakehouses/%s", lh.WorkspaceID, lh.ItemID)
	if err := c.reader.GetJSON(ctx, session.AudienceFabric, endpoint, nil, &body); err != nil {
		return SQLEndpoint{}, err
	}
	ep := body.Properties.SQLEndpointProperties
	if ep == nil || ep.ConnectionString == "" || ep.ID == "" {
		status := ""
		if ep != nil {
			status = ep.ProvisioningStatus
		}
		return SQLEndpoint{}, errUtils.Build(fmt.Errorf("%w: %s", errUtils.ErrSQLEndpointUnavailable, lh.Path)).
			WithHint("New lakehouses need a few minutes before the SQL endpoint is provisioned").
			WithContext("provisioning_status", status).
			Err()
	}
	return *ep, nil
}
