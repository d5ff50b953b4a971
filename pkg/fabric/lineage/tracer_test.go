package lineage

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

func parts(files map[string]string) map[string]any {
	var out []map[string]string
	for _, p := range sortedKeys(files) {
		out = append(out, map[string]string{
			"path":        p,
			"payload":     base64.StdEncoding.EncodeToString([]byte(files[p])),
			"payloadType": "InlineBase64",
		})
	}
	return map[string]any{"definition": map[string]any{"parts": out}}
}

const execPBIR = `{
  "datasetReference": {
    "byConnection": {
      "connectionString": "Data Source=powerbi://api.powerbi.com/v1.0/myorg/Sales;Initial Catalog=Sales Model;semanticmodelid=m1"
    }
  }
}`

// tenant has a Sales workspace with a Direct Lake model and a report on top of it.
func tenant() *apitest.Fake {
	return apitest.New().
		On(http.MethodGet, "workspaces", apitest.JSON(map[string]any{
			"value": []map[string]string{{"id": "w1", "displayName": "Sales"}},
		})).
		On(http.MethodGet, "workspaces/w1/items?type=SemanticModel", apitest.JSON(map[string]any{
			"value": []map[string]string{
				{"id": "m1", "displayName": "Sales Model", "type": "SemanticModel"},
				{"id": "m2", "displayName": "Empty Model", "type": "SemanticModel"},
				{"id": "m3", "displayName": "Blank", "type": "SemanticModel"},
			},
		})).
		On(http.MethodGet, "workspaces/w1/items?type=Report", apitest.JSON(map[string]any{
			"value": []map[string]string{{"id": "r1", "displayName": "Exec", "type": "Report"}},
		})).
		On(http.MethodPost, "workspaces/w1/items/m1/getDefinition?format=TMDL", apitest.JSON(parts(modelFiles()))).
		On(http.MethodPost, "workspaces/w1/items/m2/getDefinition?format=TMDL", apitest.JSON(parts(map[string]string{
			"definition/model.tmdl": "model Model\n\tculture: en-US\n",
		}))).
		On(http.MethodPost, "workspaces/w1/items/m3/getDefinition?format=TMDL", apitest.JSON(map[string]any{
			"definition": map[string]any{"parts": []any{}},
		})).
		On(http.MethodPost, "workspaces/w1/items/r1/getDefinition", apitest.JSON(parts(map[string]string{
			"definition.pbir": execPBIR,
		}))).
		On(http.MethodGet, "admin/items?type=SemanticModel", apitest.JSON(map[string]any{
			"itemEntities": []map[string]string{{"id": "m1", "name": "Sales Model", "type": "SemanticModel", "workspaceId": "w1"}},
		})).
		On(http.MethodGet, "admin/workspaces/w1", apitest.JSON(map[string]string{"id": "w1", "name": "Sales"}))
}

func TestTrace_Unsupported(t *testing.T) {
	fake := tenant()
	tracer := NewTracer(api.NewClient(fake))

	result, err := tracer.Trace(context.Background(), fabric.NewPath("Sales", "Bronze", fabric.ItemTypeLakehouse))
	require.NoError(t, err)
	assert.Equal(t, StatusUnsupported, result.Status)
	assert.NotNil(t, result.Edges)
	assert.Empty(t, result.Edges)
	assert.NotEmpty(t, result.Reason)
	assert.Empty(t, fake.Calls())
}

func TestTrace_NoneFound(t *testing.T) {
	tracer := NewTracer(api.NewClient(tenant()))

	result, err := tracer.Trace(context.Background(), fabric.NewPath("Sales", "Empty Model", fabric.ItemTypeSemanticModel))
	require.NoError(t, err)
	assert.Equal(t, StatusNoneFound, result.Status)
	assert.Empty(t, result.Edges)
}

func TestTrace_EmptyDefinitionIsUnsupported(t *testing.T) {
	tracer := NewTracer(api.NewClient(tenant()))

	result, err := tracer.Trace(context.Background(), fabric.NewPath("Sales", "Blank", fabric.ItemTypeSemanticModel))
	require.NoError(t, err)
	assert.Equal(t, StatusUnsupported, result.Status)
}

func TestTrace_Found(t *testing.T) {
	fake := tenant()
	tracer := NewTracer(api.NewClient(fake))

	result, err := tracer.Trace(context.Background(), modelPath)
	require.NoError(t, err)
	assert.Equal(t, StatusFound, result.Status)
	assert.Len(t, result.Edges, 2)
	assert.Equal(t, fabric.ItemTypeSemanticModel, result.Type)
	assert.Empty(t, fake.Mutations())
}

func TestTrace_ItemNotFound(t *testing.T) {
	tracer := NewTracer(api.NewClient(tenant()))

	_, err := tracer.Trace(context.Background(), fabric.NewPath("Sales", "Missing", fabric.ItemTypeReport))
	assert.ErrorIs(t, err, errUtils.ErrItemNotFound)
	stage, _ := errUtils.GetStage(err)
	assert.Equal(t, errUtils.StageResolveItem, stage)
}

func TestVerify(t *testing.T) {
	fake := tenant()
	tracer := NewTracer(api.NewClient(fake))

	result, err := tracer.Trace(context.Background(), fabric.NewPath("Sales", "Exec", fabric.ItemTypeReport))
	require.NoError(t, err)
	require.Len(t, result.Edges, 1)
	assert.False(t, result.Edges[0].Verified)

	require.NoError(t, tracer.Verify(context.Background(), &result))
	assert.True(t, result.Edges[0].Verified)
	assert.Equal(t, "w1", result.Edges[0].Target.WorkspaceID)

	require.NoError(t, tracer.Verify(context.Background(), &result))
	assert.Equal(t, 1, fake.Count(http.MethodGet, "admin/items"))
}

func TestVerify_UnknownID(t *testing.T) {
	tracer := NewTracer(api.NewClient(tenant()))
	result := Result{Edges: []Edge{{Kind: KindReportModel, Target: Reference{Kind: TargetSemanticModel, ID: "gone"}}}}

	require.NoError(t, tracer.Verify(context.Background(), &result))
	assert.False(t, result.Edges[0].Verified)
	assert.Contains(t, result.Edges[0].Note, "not found")
}

func TestChain(t *testing.T) {
	tracer := NewTracer(api.NewClient(tenant()))

	chain, err := tracer.Chain(context.Background(), fabric.NewPath("Sales", "Exec", fabric.ItemTypeReport), 3)
	require.NoError(t, err)

	require.Len(t, chain.Nodes, 4)
	assert.Equal(t, "Sales.Workspace/Exec.Report", chain.Nodes[0].Key)
	assert.Equal(t, "Sales.Workspace/Sales Model.SemanticModel", chain.Nodes[1].Key)
	assert.Equal(t, 1, chain.Nodes[1].Depth)
	assert.Equal(t, StatusFound, chain.Nodes[1].Status)
	assert.Equal(t, 2, chain.Nodes[2].Depth)

	require.Len(t, chain.Links, 3)
	assert.Equal(t, KindReportModel, chain.Links[0].Kind)
	assert.True(t, chain.Links[0].Verified)
	assert.Equal(t, "Sales.Workspace/Sales Model.SemanticModel", chain.Links[1].From)
}

func TestChain_DepthLimit(t *testing.T) {
	tracer := NewTracer(api.NewClient(tenant()))

	chain, err := tracer.Chain(context.Background(), fabric.NewPath("Sales", "Exec", fabric.ItemTypeReport), 0)
	require.NoError(t, err)
	assert.Len(t, chain.Nodes, 1)
	assert.Empty(t, chain.Links)
}

func TestChain_UnsupportedStart(t *testing.T) {
	fake := tenant()
	chain, err := NewTracer(api.NewClient(fake)).Chain(context.Background(), fabric.NewPath("Sales", "Bronze", fabric.ItemTypeLakehouse), 3)
	require.NoError(t, err)
	require.Len(t, chain.Nodes, 1)
	assert.Equal(t, StatusUnsupported, chain.Nodes[0].Status)
	assert.Empty(t, fake.Calls())
}
