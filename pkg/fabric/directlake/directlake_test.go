package directlake

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api/apitest"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/fabcli"
	"github.com/data-goblin/fabric-cli-plugin/pkg/schema"
)

type staticSchemas []Column

func (s staticSchemas) TableSchema(context.Context, Lakehouse, TableRef) ([]Column, error) {
	return s, nil
}

var orderColumns = staticSchemas{{Name: "order_id", SQLType: "bigint"}, {Name: "amount", SQLType: "double"}}

func tenant() *apitest.Fake {
	return apitest.New().
		On(http.MethodGet, "workspaces", apitest.JSON(map[string]any{
			"value": []map[string]string{
				{"id": "w1", "displayName": "Bronze"},
				{"id": "w2", "displayName": "Sandbox"},
			},
		})).
		On(http.MethodGet, "workspaces/w1/items?type=Lakehouse", apitest.JSON(map[string]any{
			"value": []map[string]string{{"id": "lh1", "displayName": "Sales", "type": "Lakehouse"}},
		})).
		On(http.MethodGet, "workspaces/w2/items?type=SemanticModel", apitest.JSON(map[string]any{
			"value": []map[string]string{{"id": "m0", "displayName": "Taken", "type": "SemanticModel"}},
		})).
		On(http.MethodGet, "workspaces/w1/lakehouses/lh1", apitest.JSON(map[string]any{
			"id": "lh1",
			"properties": map[string]any{
				"sqlEndpointProperties": map[string]string{
					"id":                 "ep-1",
					"connectionString":   "abc.datawarehouse.fabric.microsoft.com",
					"provisioningStatus": "Success",
				},
			},
		}))
}

func request(model string) Request {
	return Request{
		Source:      fabric.NewPath("Bronze", "Sales", fabric.ItemTypeLakehouse),
		Destination: fabric.NewPath("Sandbox", model, fabric.ItemTypeSemanticModel),
		Table:       TableRef{Schema: "dbo", Name: "orders"},
	}
}

func newCreator(t *testing.T, fake *apitest.Fake, schemas SchemaSource) *Creator {
	t.Helper()
	client := api.NewClient(fake, api.WithSleep(func(context.Context, time.Duration) error { return nil }))
	renderer, err := NewRenderer()
	require.NoError(t, err)
	return NewCreator(client, schemas, NewAPIPublisher(client), renderer)
}

func TestCreate(t *testing.T) {
	fake := tenant().
		On(http.MethodPost, "workspaces/w2/semanticModels", apitest.Accepted("op-1")).
		On(http.MethodGet, "operations/op-1", apitest.JSON(map[string]any{"status": "Succeeded"})).
		On(http.MethodGet, "operations/op-1/result", apitest.JSON(map[string]any{"id": "m9", "displayName": "Orders DL", "type": "SemanticModel"}))

	result, err := newCreator(t, fake, orderColumns).Create(context.Background(), request("Orders DL"))
	require.NoError(t, err)

	assert.Equal(t, "m9", result.ItemID)
	assert.Equal(t, "w2", result.WorkspaceID)
	assert.Len(t, result.Columns, 2)
	assert.Contains(t, result.Files, "definition/tables/orders.tmdl")
	assert.Equal(t, `fab rm "Sandbox.Workspace/Orders DL.SemanticModel" -f`, result.Cleanup)

	mutations := fake.Mutations()
	require.Len(t, mutations, 1)
	assert.Equal(t, "workspaces/w2/semanticModels", mutations[0].Target)
	assert.Contains(t, string(mutations[0].Body), `"displayName":"Orders DL"`)
	assert.Contains(t, string(mutations[0].Body), `"path":"definition/tables/orders.tmdl"`)
}

func TestCreate_DestinationExists(t *testing.T) {
	fake := tenant()

	_, err := newCreator(t, fake, orderColumns).Create(context.Background(), request("Taken"))
	require.ErrorIs(t, err, errUtils.ErrDestinationExists)
	stage, _ := errUtils.GetStage(err)
	assert.Equal(t, errUtils.StageCollisionCheck, stage)
	assert.Empty(t, fake.Mutations())
	assert.Zero(t, fake.Count(http.MethodGet, "workspaces/w1/lakehouses"))
}

func TestCreate_TableNotFound(t *testing.T) {
	fake := tenant()

	_, err := newCreator(t, fake, staticSchemas{}).Create(context.Background(), request("Orders DL"))
	require.ErrorIs(t, err, errUtils.ErrTableNotFound)
	stage, _ := errUtils.GetStage(err)
	assert.Equal(t, errUtils.StageReadSchema, stage)
	assert.Empty(t, fake.Mutations())
}

func TestCreate_Forbidden(t *testing.T) {
	fake := tenant().
		On(http.MethodPost, "workspaces/w2/semanticModels", apitest.Error(http.StatusForbidden, "InsufficientPrivileges", "no access"))

	_, err := newCreator(t, fake, orderColumns).Create(context.Background(), request("Orders DL"))
	require.ErrorIs(t, err, errUtils.ErrUnauthorized)
	stage, _ := errUtils.GetStage(err)
	assert.Equal(t, errUtils.StageCreateItem, stage)
	assert.Len(t, fake.Mutations(), 1)
}

func TestCreate_NoSQLEndpoint(t *testing.T) {
	fake := apitest.New().
		On(http.MethodGet, "workspaces", apitest.JSON(map[string]any{
			"value": []map[string]string{{"id": "w1", "displayName": "Bronze"}, {"id": "w2", "displayName": "Sandbox"}},
		})).
		On(http.MethodGet, "workspaces/w1/items?type=Lakehouse", apitest.JSON(map[string]any{
			"value": []map[string]string{{"id": "lh1", "displayName": "Sales", "type": "Lakehouse"}},
		})).
		On(http.MethodGet, "workspaces/w2/items?type=SemanticModel", apitest.JSON(map[string]any{"value": []any{}})).
		On(http.MethodGet, "workspaces/w1/lakehouses/lh1", apitest.JSON(map[string]any{"id": "lh1", "properties": map[string]any{}}))

	_, err := newCreator(t, fake, orderColumns).Create(context.Background(), request("Orders DL"))
	require.ErrorIs(t, err, errUtils.ErrSQLEndpointUnavailable)
	assert.Empty(t, fake.Mutations())
}

func TestCreate_InvalidRequest(t *testing.T) {
	fake := tenant()
	req := request("Orders DL")
	req.Source.Type = fabric.ItemTypeWarehouse

	_, err := newCreator(t, fake, orderColumns).Create(context.Background(), req)
	assert.ErrorIs(t, err, errUtils.ErrUnsupportedItemType)
	assert.Empty(t, fake.Calls())
}

func TestImportPublisher(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := fabcli.NewMockRunner(ctrl)
	fs := afero.NewMemMapFs()
	var importedDir string
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, inv fabcli.Invocation) (fabcli.Result, error) {
		require.Equal(t, []string{"import", "Sandbox.Workspace/Orders.SemanticModel", "-i"}, inv.Args[:3])
		importedDir = inv.Args[3]
		data, err := afero.ReadFile(fs, importedDir+"/definition/model.tmdl")
		require.NoError(t, err)
		assert.Equal(t, "model Model", string(data))
		return fabcli.Result{}, nil
	})

	pub := NewImportPublisher(fabcli.New(schema.Fab{Binary: "fab"}, runner), fs)
	item, err := pub.Publish(context.Background(), "w2", fabric.NewPath("Sandbox", "Orders", fabric.ItemTypeSemanticModel), map[string]string{
		"definition/model.tmdl": "model Model",
	})
	require.NoError(t, err)
	assert.Empty(t, item.ID)
	assert.True(t, strings.HasSuffix(importedDir, "Orders.SemanticModel"))

	exists, err := afero.DirExists(fs, importedDir)
	require.NoError(t, err)
	assert.False(t, exists)
}
