package resolve

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
)

// Resolver turns display-name paths into IDs.
type Resolver struct {
	api *api.Client
}

// New creates a read-only resolver.
func New(c *api.Client) *Resolver {
	return &Resolver{api: c.ReadOnly()}
}

type listedItem struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Type        string `json:"type"`
	Description string `json:"description"`
	WorkspaceID string `json:"workspaceId"`
}

// ResolveWorkspace finds a workspace the caller can access by display name.
func (r *Resolver) ResolveWorkspace(ctx context.Context, name string) (fabric.Workspace, error) {
	pager := api.ListPager[fabric.Workspace](r.api, session.AudienceFabric, "workspaces", nil, "value")
	var folded []fabric.Workspace
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return fabric.Workspace{}, errUtils.WithStage(err, errUtils.StageResolveWorkspace)
		}
		for _, ws := range page {
			if ws.DisplayName == name {
				return ws, nil
			}
			if strings.EqualFold(ws.DisplayName, name) {
				folded = append(folded, ws)
			}
		}
	}
	if len(folded) == 1 {
		return folded[0], nil
	}
	return fabric.Workspace{}, errUtils.Build(fmt.Errorf("%w: %q", errUtils.ErrWorkspaceNotFound, name)).
		WithHint("Check the name with `fab ls`, or search with `fabkit search`").
		WithStage(errUtils.StageResolveWorkspace).
		Err()
}

// FindItem looks up an item by display name and type inside a workspace.
// found is false when nothing matches.
func (r *Resolver) FindItem(ctx context.Context, workspaceID, name string, itemType fabric.ItemType) (item fabric.Item, found bool, err error) {
	query := url.Values{}
	if itemType != "" {
		query.Set("type", string(itemType))
	}
	listed, err := api.ListPager[listedItem](r.api, session.AudienceFabric, "workspaces/"+workspaceID+"/items", query, "value").All(ctx)
	if err != nil {
		return fabric.Item{}, false, err
	}

	var exact, folded []listedItem
	for _, li := range listed {
		switch {
		case li.DisplayName == name:
			exact = append(exact, li)
		case strings.EqualFold(li.DisplayName, name):
			folded = append(folded, li)
		}
	}
	matches := exact
	if len(matches) == 0 {
		matches = folded
	}

	switch len(matches) {
	case 0:
		return fabric.Item{}, false, nil
	case 1:
		li := matches[0]
		t := itemType
		if parsed, perr := fabric.ParseItemType(li.Type); perr == nil {
			t = parsed
		}
		return fabric.Item{ID: li.ID, Name: li.DisplayName, Type: t, WorkspaceID: workspaceID, Description: li.Description}, true, nil
	default:
		return fabric.Item{}, false, errUtils.Build(fmt.Errorf("%w: %d items named %q", errUtils.ErrAmbiguousItem, len(matches), name)).
			WithHint("Rename one of the items or address it by ID").
			Err()
	}
}

// ResolveItem resolves a full path to IDs.
func (r *Resolver) ResolveItem(ctx context.Context, path fabric.Path) (fabric.ItemRef, error) {
	ws, err := r.ResolveWorkspace(ctx, path.Workspace)
	if err != nil {
		return fabric.ItemRef{}, err
	}

	item, found, err := r.FindItem(ctx, ws.ID, path.Item, path.Type)
	if err != nil {
		return fabric.ItemRef{}, errUtils.WithStage(err, errUtils.StageResolveItem)
	}
	if !found {
		return fabric.ItemRef{}, errUtils.Build(fmt.Errorf("%w: %s", errUtils.ErrItemNotFound, path)).
			WithHintf("List the workspace with `fab ls %s`", fabric.NewPath(path.Workspace, "", "").Quoted()).
			WithStage(errUtils.StageResolveItem).
			Err()
	}
	return fabric.ItemRef{WorkspaceID: ws.ID, ItemID: item.ID, Type: item.Type, Path: path}, nil
}

// Lookup resolves the workspace of path and reports whether the item exists.
// The workspace must exist; a missing item is not an error.
func (r *Resolver) Lookup(ctx context.Context, path fabric.Path) (ws fabric.Workspace, item fabric.Item, exists bool, err error) {
	ws, err = r.ResolveWorkspace(ctx, path.Workspace)
	if err != nil {
		return ws, fabric.Item{}, false, err
	}
	item, exists, err = r.FindItem(ctx, ws.ID, path.Item, path.Type)
	if err != nil && !errors.Is(err, errUtils.ErrAmbiguousItem) {
		return ws, fabric.Item{}, false, errUtils.WithStage(err, errUtils.StageResolveItem)
	}
	if errors.Is(err, errUtils.ErrAmbiguousItem) {
		return ws, fabric.Item{}, true, nil
	}
	return ws, item, exists, nil
}
