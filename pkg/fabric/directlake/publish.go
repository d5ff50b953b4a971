package directlake

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/definition"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/fabcli"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
)

// Publisher creates a semantic model from rendered definition files. It is the only mutating
// step of a Direct Lake creation.
type Publisher interface {
	Publish(ctx context.Context, workspaceID string, dest fabric.Path, files map[string]string) (fabric.Item, error)
}

// APIPublisher creates the model with POST workspaces/{id}/semanticModels.
type APIPublisher struct {
	api *api.Client
}

// NewAPIPublisher creates a publisher on a client that may mutate.
func NewAPIPublisher(c *api.Client) *APIPublisher {
	return &APIPublisher{api: c}
}

type createModel struct {
	DisplayName string                `json:"displayName"`
	Description string                `json:"description,omitempty"`
	Definition  definition.Definition `json:"definition"`
}

// Publish implements Publisher.
func (p *APIPublisher) Publish(ctx context.Context, workspaceID string, dest fabric.Path, files map[string]string) (fabric.Item, error) {
	body := createModel{
		DisplayName: dest.Item,
		Description: "Direct Lake model created by fabkit",
		Definition:  definition.Definition{Parts: definition.EncodeParts(files)},
	}

	resp, err := p.api.Post(ctx, session.AudienceFabric, fmt.Sprintf("workspaces/%s/semanticModels", workspaceID), body)
	if err != nil {
		return fabric.Item{}, err
	}
	item := fabric.Item{
		ID:          resp.Get("id").String(),
		Name:        dest.Item,
		Type:        fabric.ItemTypeSemanticModel,
		WorkspaceID: workspaceID,
	}
	log.Debug("Created semantic model", "path", dest.String(), "id", item.ID)
	return item, nil
}

// ImportPublisher writes the definition to a temporary folder and runs `fab import`.
type ImportPublisher struct {
	cli *fabcli.CLI
	fs  afero.Fs
}

// NewImportPublisher creates a publisher that imports through the fab CLI.
func NewImportPublisher(cli *fabcli.CLI, fs afero.Fs) *ImportPublisher {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &ImportPublisher{cli: cli, fs: fs}
}

// Publish implements Publisher. The returned item has no ID; fab import does not report it.
func (p *ImportPublisher) Publish(ctx context.Context, workspaceID string, dest fabric.Path, files map[string]string) (fabric.Item, error) {
	tmp, err := afero.TempDir(p.fs, "", "fabkit-directlake-")
	if err != nil {
		return fabric.Item{}, fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err)
	}
	defer func() {
		if err := p.fs.RemoveAll(tmp); err != nil {
			log.Warn("Cannot remove temporary model folder", "dir", tmp, "error", err)
		}
	}()

	dir := filepath.Join(tmp, definition.SafeName(dest.Item)+"."+string(fabric.ItemTypeSemanticModel))
	if err := definition.WriteFiles(p.fs, dir, files); err != nil {
		return fabric.Item{}, err
	}
	if err := p.cli.Import(ctx, dest.String(), dir); err != nil {
		return fabric.Item{}, err
	}
	return fabric.Item{Name: dest.Item, Type: fabric.ItemTypeSemanticModel, WorkspaceID: workspaceID}, nil
}
