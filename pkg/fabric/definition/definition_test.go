package definition

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api/apitest"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

var modelRef = fabric.ItemRef{
	WorkspaceID: "w1",
	ItemID:      "m1",
	Type:        fabric.ItemTypeSemanticModel,
	Path:        fabric.NewPath("Sales", "Sales Model", fabric.ItemTypeSemanticModel),
}

func TestGet_SemanticModelAsTMDL(t *testing.T) {
	fake := apitest.New().On(http.MethodPost, "workspaces/w1/items/m1/getDefinition?format=TMDL", apitest.JSON(map[string]any{
		"definition": map[string]any{"parts": []map[string]string{
			{"path": "definition/model.tmdl", "payload": b64("model Model"), "payloadType": "InlineBase64"},
		}},
	}))

	def, err := New(api.NewClient(fake)).Get(context.Background(), modelRef)
	require.NoError(t, err)
	require.Len(t, def.Parts, 1)
	assert.Equal(t, "model Model", def.Decode().Files["definition/model.tmdl"])
	assert.Empty(t, fake.Mutations())
}

func TestGet_Unsupported(t *testing.T) {
	fake := apitest.New()
	ref := fabric.ItemRef{WorkspaceID: "w1", ItemID: "l1", Type: fabric.ItemTypeLakehouse}

	_, err := New(api.NewClient(fake)).Get(context.Background(), ref)
	assert.ErrorIs(t, err, errUtils.ErrUnsupportedItemType)
	assert.Empty(t, fake.Calls())
}

func TestGet_EmptyAndFailures(t *testing.T) {
	fake := apitest.New().
		On(http.MethodPost, "workspaces/w1/items/m1/getDefinition?format=TMDL", apitest.JSON(map[string]any{"definition": map[string]any{"parts": []any{}}})).
		On(http.MethodPost, "workspaces/w1/items/r1/getDefinition", apitest.Status(http.StatusForbidden))
	client := New(api.NewClient(fake))

	_, err := client.Get(context.Background(), modelRef)
	assert.ErrorIs(t, err, errUtils.ErrDefinitionEmpty)

	_, err = client.Get(context.Background(), fabric.ItemRef{WorkspaceID: "w1", ItemID: "r1", Type: fabric.ItemTypeReport})
	assert.ErrorIs(t, err, errUtils.ErrUnauthorized)
	stage, ok := errUtils.GetStage(err)
	require.True(t, ok)
	assert.Equal(t, errUtils.StageFetchDefinition, stage)
}

func TestDecode_ReportsFailures(t *testing.T) {
	def := Definition{Parts: []Part{
		{Path: "b.json", Payload: b64("{}")},
		{Path: "a.json", Payload: "!!not base64!!"},
	}}
	decoded := def.Decode()
	assert.Equal(t, []string{"b.json"}, decoded.Paths())
	assert.Equal(t, []string{"a.json"}, decoded.Failed)
}

func TestEncodeParts(t *testing.T) {
	parts := EncodeParts(map[string]string{"z.tmdl": "z", "a.pbism": "{}"})
	require.Len(t, parts, 2)
	assert.Equal(t, "a.pbism", parts[0].Path)
	assert.Equal(t, PayloadInlineBase64, parts[0].PayloadType)
	assert.Equal(t, map[string]string{"z.tmdl": "z", "a.pbism": "{}"}, Definition{Parts: parts}.Decode().Files)
}
