package lineage

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
)

// Node is an item or external source in a lineage chain.
type Node struct {
	Key       string          `json:"key" yaml:"key"`
	Path      fabric.Path     `json:"path,omitzero" yaml:"path,omitempty"`
	Type      fabric.ItemType `json:"type,omitempty" yaml:"type,omitempty"`
	Reference *Reference      `json:"reference,omitempty" yaml:"reference,omitempty"`
	Status    Status          `json:"status,omitempty" yaml:"status,omitempty"`
	Depth     int             `json:"depth" yaml:"depth"`
}

// Link connects two nodes by key. Links point upstream, from consumer to source.
type Link struct {
	From     string   `json:"from" yaml:"from"`
	To       string   `json:"to" yaml:"to"`
	Kind     EdgeKind `json:"kind" yaml:"kind"`
	Verified bool     `json:"verified" yaml:"verified"`
}

// Chain is the upstream graph reachable from one item.
type Chain struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Links []Link `json:"links" yaml:"links"`
}

type queued struct {
	ref   fabric.ItemRef
	depth int
}

// Chain walks upstream breadth-first from start, following verified edges to items that can
// be traced in turn: report to model to lakehouse or source. maxDepth bounds the hops.
func (t *Tracer) Chain(ctx context.Context, start fabric.Path, maxDepth int) (Chain, error) {
	chain := Chain{Nodes: []Node{}, Links: []Link{}}
	startKey := itemKey(start)
	if !Supported(start.Type) {
		chain.Nodes = append(chain.Nodes, Node{Key: startKey, Path: start, Type: start.Type, Status: StatusUnsupported})
		return chain, nil
	}
	ref, err := t.resolver.ResolveItem(ctx, start)
	if err != nil {
		return chain, err
	}

	visited := map[string]bool{startKey: true}
	queue := []queued{{ref: ref, depth: 0}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		fromKey := itemKey(current.ref.Path)

		result, err := t.TraceRef(ctx, current.ref)
		if err != nil {
			return chain, err
		}
		chain.Nodes = append(chain.Nodes, Node{Key: fromKey, Path: current.ref.Path, Type: current.ref.Type, Status: result.Status, Depth: current.depth})
		if result.Status != StatusFound || current.depth >= maxDepth {
			continue
		}
		if err := t.Verify(ctx, &result); err != nil {
			return chain, err
		}

		linked := map[string]bool{}
		for _, e := range result.Edges {
			next, key, ok, err := t.follow(ctx, current.ref, e)
			if err != nil {
				return chain, err
			}
			if !ok {
				continue
			}
			if !linked[key] {
				linked[key] = true
				chain.Links = append(chain.Links, Link{From: fromKey, To: key, Kind: e.Kind, Verified: e.Verified})
			}
			if visited[key] {
				continue
			}
			visited[key] = true
			if next.ItemID != "" && Supported(next.Type) {
				queue = append(queue, queued{ref: next, depth: current.depth + 1})
				continue
			}
			ref := e.Target
			node := Node{Key: key, Depth: current.depth + 1, Reference: &ref}
			if next.Path.Item != "" {
				node.Path = next.Path
				node.Type = next.Type
				if !Supported(next.Type) {
					node.Status = StatusUnsupported
				}
			}
			chain.Nodes = append(chain.Nodes, node)
		}
	}
	return chain, nil
}

// follow turns an edge into the next hop. Low-confidence hits and unverified IDs are not
// followed, since the walk would otherwise chase text fragments.
func (t *Tracer) follow(ctx context.Context, from fabric.ItemRef, e Edge) (fabric.ItemRef, string, bool, error) {
	switch {
	case e.Verified:
		itemType, _ := verifiableType(e.Target)
		ws, err := t.names.DisplayName(ctx, e.Target.WorkspaceID)
		if errors.Is(err, errUtils.ErrWorkspaceNotFound) {
			return fabric.ItemRef{}, "", false, nil
		}
		if err != nil {
			return fabric.ItemRef{}, "", false, err
		}
		path := fabric.NewPath(ws, e.Target.Name, itemType)
		return fabric.ItemRef{WorkspaceID: e.Target.WorkspaceID, ItemID: e.Target.ID, Type: itemType, Path: path}, itemKey(path), true, nil
	case e.Confidence != ConfidenceHigh:
		return fabric.ItemRef{}, "", false, nil
	case e.Target.Kind == TargetModelPath && e.Target.Name != "":
		path := fabric.NewPath(from.Path.Workspace, e.Target.Name, fabric.ItemTypeSemanticModel)
		item, found, err := t.resolver.FindItem(ctx, from.WorkspaceID, path.Item, path.Type)
		if err != nil || !found {
			return fabric.ItemRef{Path: path, Type: path.Type}, itemKey(path), true, nil
		}
		return fabric.ItemRef{WorkspaceID: from.WorkspaceID, ItemID: item.ID, Type: path.Type, Path: path}, itemKey(path), true, nil
	case e.Target.Kind == TargetSemanticModel || e.Target.Kind == TargetLakehouse:
		// An ID the tenant does not know is reported on the edge but not walked.
		return fabric.ItemRef{}, "", false, nil
	default:
		return fabric.ItemRef{}, referenceKey(e.Target), true, nil
	}
}

func itemKey(p fabric.Path) string {
	return p.String()
}

func referenceKey(r Reference) string {
	parts := []string{r.Kind}
	for _, v := range []string{r.ID, r.Server, r.Database, r.Schema, r.Table} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ":")
}
