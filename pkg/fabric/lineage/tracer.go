package lineage

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/definition"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/discovery"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/resolve"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
)

// Tracer reads item definitions and extracts lineage candidates. It never mutates anything.
type Tracer struct {
	resolver    *resolve.Resolver
	definitions *definition.Client
	discovery   *discovery.Client
	names       *resolve.WorkspaceNames

	verified map[string]verification
}

type verification struct {
	item  fabric.Item
	found bool
}

// NewTracer creates a tracer on a read-only view of c.
func NewTracer(c *api.Client) *Tracer {
	ro := c.ReadOnly()
	return &Tracer{
		resolver:    resolve.New(ro),
		definitions: definition.New(ro),
		discovery:   discovery.New(ro),
		names:       resolve.NewWorkspaceNames(ro),
		verified:    map[string]verification{},
	}
}

// Trace resolves path, fetches its definition and parses it. Types without a lineage parser
// return StatusUnsupported before any request is made.
func (t *Tracer) Trace(ctx context.Context, path fabric.Path) (Result, error) {
	if !Supported(path.Type) {
		return unsupported(path, fmt.Sprintf("lineage cannot be traced for %s items", path.Type)), nil
	}
	ref, err := t.resolver.ResolveItem(ctx, path)
	if err != nil {
		return Result{}, err
	}
	return t.TraceRef(ctx, ref)
}

// TraceRef traces an already resolved item.
func (t *Tracer) TraceRef(ctx context.Context, ref fabric.ItemRef) (Result, error) {
	path := ref.Path
	if path.Type == "" {
		path.Type = ref.Type
	}
	parser, ok := ParserFor(ref.Type)
	if !ok || !ref.Type.SupportsDefinition() {
		return unsupported(path, fmt.Sprintf("lineage cannot be traced for %s items", ref.Type)), nil
	}

	def, err := t.definitions.Get(ctx, ref)
	if errors.Is(err, errUtils.ErrDefinitionEmpty) {
		return unsupported(path, "the item has no definition to search"), nil
	}
	if err != nil {
		return Result{}, err
	}

	decoded := def.Decode()
	structured, err := parser.Parse(path, decoded.Files)
	if err != nil {
		return Result{}, errUtils.WithStage(err, errUtils.StageFetchDefinition)
	}
	edges := Merge(structured, Scan(path, decoded.Files))

	status := StatusFound
	if len(edges) == 0 {
		status = StatusNoneFound
	}
	log.Debug("Traced lineage", "item", path.String(), "structured", len(structured), "edges", len(edges))
	return Result{Item: path, Type: ref.Type, Status: status, Edges: edges, Failed: decoded.Failed}, nil
}

func unsupported(path fabric.Path, reason string) Result {
	return Result{Item: path, Type: path.Type, Status: StatusUnsupported, Edges: []Edge{}, Reason: reason}
}

// Verify cross-checks edges that name an item ID by looking the ID up in the tenant.
// Confirmed edges get Verified and the target's name and workspace filled in.
func (t *Tracer) Verify(ctx context.Context, result *Result) error {
	for i := range result.Edges {
		e := &result.Edges[i]
		itemType, ok := verifiableType(e.Target)
		if !ok {
			continue
		}
		item, found, err := t.lookup(ctx, itemType, e.Target.ID)
		if err != nil {
			return err
		}
		if !found {
			e.Note = appendNote(e.Note, fmt.Sprintf("%s %s not found", itemType, e.Target.ID))
			continue
		}
		e.Verified = true
		e.Target.Name = item.Name
		e.Target.WorkspaceID = item.WorkspaceID
	}
	return nil
}

func verifiableType(ref Reference) (fabric.ItemType, bool) {
	if ref.ID == "" {
		return "", false
	}
	switch ref.Kind {
	case TargetSemanticModel:
		return fabric.ItemTypeSemanticModel, true
	case TargetLakehouse:
		return fabric.ItemTypeLakehouse, true
	}
	return "", false
}

func (t *Tracer) lookup(ctx context.Context, itemType fabric.ItemType, id string) (fabric.Item, bool, error) {
	key := string(itemType) + "/" + id
	if v, ok := t.verified[key]; ok {
		return v.item, v.found, nil
	}
	item, err := t.discovery.FindByID(ctx, itemType, id)
	switch {
	case errors.Is(err, errUtils.ErrItemNotFound):
		t.verified[key] = verification{}
		return fabric.Item{}, false, nil
	case err != nil:
		return fabric.Item{}, false, err
	}
	t.verified[key] = verification{item: item, found: true}
	return item, true, nil
}

func appendNote(note, s string) string {
	if note == "" {
		return s
	}
	return note + "; " + s
}
