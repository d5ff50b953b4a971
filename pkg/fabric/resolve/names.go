package resolve

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
)

type nameEntry struct {
	name string
	err  error
}

// WorkspaceNames maps workspace IDs to display names, memoizing every answer
// (including not-found) for the lifetime of one operation.
type WorkspaceNames struct {
	api   *api.Client
	cache map[string]nameEntry
}

// NewWorkspaceNames creates a resolver. Use one per operation.
func NewWorkspaceNames(c *api.Client) *WorkspaceNames {
	return &WorkspaceNames{api: c.ReadOnly(), cache: map[string]nameEntry{}}
}

// DisplayName returns the display name of a workspace.
// A workspace deleted since the search returns ErrWorkspaceNotFound.
func (w *WorkspaceNames) DisplayName(ctx context.Context, workspaceID string) (string, error) {
	if e, ok := w.cache[workspaceID]; ok {
		return e.name, e.err
	}

	var ws struct {
		Name string `json:"name"`
	}
	err := w.api.GetJSON(ctx, session.AudienceFabric, "admin/workspaces/"+workspaceID, nil, &ws)
	switch {
	case errors.Is(err, errUtils.ErrNotFound):
		e := nameEntry{err: fmt.Errorf("%w: %s", errUtils.ErrWorkspaceNotFound, workspaceID)}
		w.cache[workspaceID] = e
		return "", e.err
	case err != nil:
		return "", err
	}

	w.cache[workspaceID] = nameEntry{name: ws.Name}
	return ws.Name, nil
}

// Resolved is a search result with its path.
type Resolved struct {
	Item fabric.Item `json:"item" yaml:"item"`
	Path fabric.Path `json:"path" yaml:"path"`
}

// Skipped is a search result whose path could not be built.
type Skipped struct {
	Item   fabric.Item `json:"item" yaml:"item"`
	Reason string      `json:"reason" yaml:"reason"`
}

// Paths builds paths for items. Items whose workspace vanished are skipped, not fatal.
func (w *WorkspaceNames) Paths(ctx context.Context, items []fabric.Item) ([]Resolved, []Skipped, error) {
	resolved := make([]Resolved, 0, len(items))
	var skipped []Skipped
	for _, item := range items {
		name, err := w.DisplayName(ctx, item.WorkspaceID)
		if errors.Is(err, errUtils.ErrWorkspaceNotFound) {
			log.Warn("Workspace no longer exists", "workspace_id", item.WorkspaceID, "item", item.Name)
			skipped = append(skipped, Skipped{Item: item, Reason: err.Error()})
			continue
		}
		if err != nil {
			return resolved, skipped, errUtils.WithStage(err, errUtils.StageResolveWorkspace)
		}
		resolved = append(resolved, Resolved{Item: item, Path: fabric.NewPath(name, item.Name, item.Type)})
	}
	return resolved, skipped, nil
}
