package mcp

import (
	"context"
	"net/http"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api/apitest"
)

func tenant() *apitest.Fake {
	return apitest.New().
		On(http.MethodGet, "admin/items?type=SemanticModel", apitest.JSON(map[string]any{
			"itemEntities": []map[string]string{
				{"id": "m1", "name": "Sales Model", "type": "SemanticModel", "workspaceId": "w1"},
				{"id": "m2", "name": "Inventory", "type": "SemanticModel", "workspaceId": "w1"},
			},
		})).
		On(http.MethodGet, "admin/workspaces/w1", apitest.JSON(map[string]string{"id": "w1", "name": "Sales"})).
		On(http.MethodGet, "workspaces", apitest.JSON(map[string]any{
			"value": []map[string]string{{"id": "w1", "displayName": "Sales"}},
		})).
		On(http.MethodGet, "workspaces/w1/items?type=SemanticModel", apitest.JSON(map[string]any{
			"value": []map[string]string{{"id": "m1", "displayName": "Sales Model", "type": "SemanticModel"}},
		})).
		On(http.MethodPost, "groups/w1/datasets/m1/executeQueries", apitest.JSON(
			`{"results":[{"tables":[{"rows":[{"Date[Year]": 2024}]}]}]}`,
		)).
		On(http.MethodGet, "admin/capacities", apitest.JSON(map[string]any{
			"value": []map[string]string{{"id": "c1", "displayName": "Prod F64", "sku": "F64"}},
		}))
}

func connect(t *testing.T, fake *apitest.Fake) *sdk.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := sdk.NewInMemoryTransports()

	_, err := NewServer(api.NewClient(fake)).Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	session, err := sdk.NewClient(&sdk.Implementation{Name: "test-client"}, nil).Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func call(t *testing.T, session *sdk.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &sdk.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*sdk.TextContent)
	require.True(t, ok)
	return text.Text, result.IsError
}

func TestServer_ListTools(t *testing.T) {
	session := connect(t, tenant())

	result, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"search_items", "resolve_path", "trace_lineage", "execute_dax", "list_workspaces", "list_capacities",
	}, names)
}

func TestSearchItems(t *testing.T) {
	fake := tenant()
	session := connect(t, fake)

	text, isError := call(t, session, "search_items", map[string]any{"type": "SemanticModel", "name": "sales", "ignoreCase": true})
	require.False(t, isError, text)
	assert.Equal(t, int64(1), gjson.Get(text, "items.#").Int())
	assert.Equal(t, "Sales.Workspace/Sales Model.SemanticModel", gjson.Get(text, "items.0.path").String())
	assert.Empty(t, fake.Mutations())
}

func TestSearchItems_UnknownType(t *testing.T) {
	session := connect(t, tenant())

	text, isError := call(t, session, "search_items", map[string]any{"type": "Spreadsheet"})
	assert.True(t, isError)
	assert.Contains(t, text, "Spreadsheet")
}

func TestResolvePath(t *testing.T) {
	session := connect(t, tenant())

	text, isError := call(t, session, "resolve_path", map[string]any{"path": "Sales.Workspace/Sales Model.SemanticModel"})
	require.False(t, isError, text)
	assert.Equal(t, "w1", gjson.Get(text, "workspaceId").String())
	assert.Equal(t, "m1", gjson.Get(text, "itemId").String())
	assert.True(t, gjson.Get(text, "exists").Bool())

	text, isError = call(t, session, "resolve_path", map[string]any{"path": "Sales.Workspace/Missing.SemanticModel"})
	require.False(t, isError, text)
	assert.False(t, gjson.Get(text, "exists").Bool())
}

func TestExecuteDAX(t *testing.T) {
	fake := tenant()
	session := connect(t, fake)

	text, isError := call(t, session, "execute_dax", map[string]any{
		"path":  "Sales.Workspace/Sales Model.SemanticModel",
		"query": "EVALUATE VALUES('Date'[Year])",
	})
	require.False(t, isError, text)
	assert.Contains(t, text, "2024")
	assert.Empty(t, fake.Mutations())
}

func TestExecuteDAX_FailureNamesStage(t *testing.T) {
	session := connect(t, tenant())

	text, isError := call(t, session, "execute_dax", map[string]any{
		"path":  "Nowhere.Workspace/Sales Model.SemanticModel",
		"query": "EVALUATE VALUES('Date'[Year])",
	})
	assert.True(t, isError)
	assert.Contains(t, text, "resolve-workspace failed")
}

func TestListCapacities(t *testing.T) {
	session := connect(t, tenant())

	text, isError := call(t, session, "list_capacities", map[string]any{})
	require.False(t, isError, text)
	assert.Equal(t, "F64", gjson.Get(text, "0.sku").String())
}
