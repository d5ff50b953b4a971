package definition

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
)

// PayloadInlineBase64 is the only payload type the service returns.
const PayloadInlineBase64 = "InlineBase64"

// Part is one file of an item definition.
type Part struct {
	Path        string `json:"path"`
	Payload     string `json:"payload"`
	PayloadType string `json:"payloadType"`
}

// Definition is the set of files describing an item.
type Definition struct {
	Format string `json:"format,omitempty"`
	Parts  []Part `json:"parts"`
}

// Decoded holds decoded part contents by path.
type Decoded struct {
	Files  map[string]string
	Failed []string
}

// Paths returns the decoded paths in sorted order.
func (d Decoded) Paths() []string {
	paths := make([]string, 0, len(d.Files))
	for p := range d.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Decode base64-decodes every part. Parts that fail are listed in Failed.
func (d Definition) Decode() Decoded {
	out := Decoded{Files: make(map[string]string, len(d.Parts))}
	for _, part := range d.Parts {
		data, err := base64.StdEncoding.DecodeString(part.Payload)
		if err != nil {
			log.Warn("Cannot decode definition part", "path", part.Path, "error", err)
			out.Failed = append(out.Failed, part.Path)
			continue
		}
		out.Files[part.Path] = string(data)
	}
	return out
}

// EncodeParts builds inline base64 parts from file contents, sorted by path.
func EncodeParts(files map[string]string) []Part {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	parts := make([]Part, 0, len(paths))
	for _, p := range paths {
		parts = append(parts, Part{
			Path:        p,
			Payload:     base64.StdEncoding.EncodeToString([]byte(files[p])),
			PayloadType: PayloadInlineBase64,
		})
	}
	return parts
}

// Client fetches item definitions.
type Client struct {
	api *api.Client
}

// New creates a read-only definition client.
func New(c *api.Client) *Client {
	return &Client{api: c.ReadOnly()}
}

// Endpoint returns the getDefinition endpoint for ref. Semantic models are requested as TMDL.
func Endpoint(ref fabric.ItemRef) string {
	endpoint := fmt.Sprintf("workspaces/%s/items/%s/getDefinition", ref.WorkspaceID, ref.ItemID)
	if ref.Type == fabric.ItemTypeSemanticModel {
		endpoint += "?format=TMDL"
	}
	return endpoint
}

// Get fetches the definition of ref, waiting for the long running operation when needed.
func (c *Client) Get(ctx context.Context, ref fabric.ItemRef) (Definition, error) {
	if !ref.Type.SupportsDefinition() {
		return Definition{}, errUtils.Build(fmt.Errorf("%w: %s has no definition", errUtils.ErrUnsupportedItemType, ref.Type)).
			WithStage(errUtils.StageFetchDefinition).
			Err()
	}

	var body struct {
		Definition Definition `json:"definition"`
	}
	if err := c.api.PostJSON(ctx, session.AudienceFabric, Endpoint(ref), nil, &body); err != nil {
		return Definition{}, errUtils.WithStage(err, errUtils.StageFetchDefinition)
	}
	if len(body.Definition.Parts) == 0 {
		return Definition{}, errUtils.WithStage(fmt.Errorf("%w: %s", errUtils.ErrDefinitionEmpty, ref.Path), errUtils.StageFetchDefinition)
	}
	log.Debug("Fetched definition", "item", ref.Path.String(), "parts", len(body.Definition.Parts))
	return body.Definition, nil
}

// IsTMDL reports whether path is a TMDL file.
func IsTMDL(path string) bool {
	return strings.HasSuffix(path, ".tmdl")
}
