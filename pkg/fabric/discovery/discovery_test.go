package discovery

import (
	"context"
	"net/http"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api/apitest"
)

func entity(id, name, ws string) map[string]string {
	return map[string]string{"id": id, "name": name, "type": "SemanticModel", "workspaceId": ws}
}

func tenant() *apitest.Fake {
	return apitest.New().
		On(http.MethodGet, "admin/items?type=SemanticModel", apitest.JSON(map[string]any{
			"itemEntities":      []any{entity("m1", "Sales Model", "w1"), entity("m2", "Inventory", "w1")},
			"continuationToken": "page2",
		})).
		On(http.MethodGet, "admin/items?continuationToken=page2&type=SemanticModel", apitest.JSON(map[string]any{
			"itemEntities": []any{entity("m3", "Regional Sales", "w2"), entity("m1", "Sales Model", "w1")},
		}))
}

func names(items []fabric.Item) []string {
	return lo.Map(items, func(i fabric.Item, _ int) string { return i.Name })
}

func TestSearchAll_SubstringCaseSensitive(t *testing.T) {
	client := New(api.NewClient(tenant()))

	items, err := client.SearchAll(context.Background(), Query{Type: fabric.ItemTypeSemanticModel, NamePattern: "Sales"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sales Model", "Regional Sales"}, names(items))

	items, err = client.SearchAll(context.Background(), Query{Type: fabric.ItemTypeSemanticModel, NamePattern: "saLes"})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestSearchAll_IgnoreCase(t *testing.T) {
	client := New(api.NewClient(tenant()))

	items, err := client.SearchAll(context.Background(), Query{Type: fabric.ItemTypeSemanticModel, NamePattern: "saLes", IgnoreCase: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sales Model", "Regional Sales"}, names(items))
}

func TestSearchAll_NoDuplicateIDs(t *testing.T) {
	client := New(api.NewClient(tenant()))

	items, err := client.SearchAll(context.Background(), Query{Type: fabric.ItemTypeSemanticModel})
	require.NoError(t, err)
	ids := lo.Map(items, func(i fabric.Item, _ int) string { return i.ID })
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids)
	assert.Equal(t, lo.Uniq(ids), ids)
}

func TestSearchAll_EmptyForEveryType(t *testing.T) {
	fake := apitest.New()
	for _, itemType := range fabric.ItemTypes() {
		fake.On(http.MethodGet, "admin/items?type="+string(itemType), apitest.JSON(map[string]any{
			"itemEntities": []any{map[string]string{"id": "x", "name": "Something", "type": string(itemType)}},
		}))
	}
	client := New(api.NewClient(fake))

	for _, itemType := range fabric.ItemTypes() {
		items, err := client.SearchAll(context.Background(), Query{Type: itemType, NamePattern: "no such name"})
		require.NoError(t, err, itemType)
		assert.Empty(t, items, itemType)
	}
}

func TestSearchPage_SinglePage(t *testing.T) {
	fake := tenant()
	client := New(api.NewClient(fake))

	page, err := client.SearchPage(context.Background(), Query{Type: fabric.ItemTypeSemanticModel, NamePattern: "Sales"}, "")
	require.NoError(t, err)
	assert.Equal(t, "page2", page.ContinuationToken)
	assert.Equal(t, 2, page.Scanned)
	assert.Equal(t, []string{"Sales Model"}, names(page.Items))
	assert.Len(t, fake.Calls(), 1)
}

func TestSearch_LazyAndRestartable(t *testing.T) {
	fake := tenant()
	pager := New(api.NewClient(fake)).Search(Query{Type: fabric.ItemTypeSemanticModel})
	assert.Empty(t, fake.Calls())

	first, err := pager.All(context.Background())
	require.NoError(t, err)

	pager.Reset()
	second, err := pager.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, fake.Calls(), 4)
}

func TestSearch_WorkspaceFilter(t *testing.T) {
	fake := apitest.New().On(http.MethodGet, "admin/items?type=Report&workspaceId=w9", apitest.JSON(map[string]any{"itemEntities": []any{}}))
	client := New(api.NewClient(fake))

	items, err := client.SearchAll(context.Background(), Query{Type: fabric.ItemTypeReport, WorkspaceID: "w9"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSearch_ErrorClasses(t *testing.T) {
	tests := []struct {
		status   int
		sentinel error
	}{
		{http.StatusUnauthorized, errUtils.ErrUnauthenticated},
		{http.StatusForbidden, errUtils.ErrUnauthorized},
		{http.StatusNotFound, errUtils.ErrNotFound},
		{http.StatusTooManyRequests, errUtils.ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			fake := apitest.New().On(http.MethodGet, "admin/items?type=Report", apitest.Status(tt.status))
			client := New(api.NewClient(fake))

			_, err := client.SearchAll(context.Background(), Query{Type: fabric.ItemTypeReport})
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Len(t, fake.Calls(), 1)
		})
	}
}

func TestFindByID(t *testing.T) {
	fake := tenant()
	client := New(api.NewClient(fake))

	item, err := client.FindByID(context.Background(), fabric.ItemTypeSemanticModel, "M2")
	require.NoError(t, err)
	assert.Equal(t, "Inventory", item.Name)
	assert.Len(t, fake.Calls(), 1)

	_, err = client.FindByID(context.Background(), fabric.ItemTypeSemanticModel, "zz")
	assert.ErrorIs(t, err, errUtils.ErrItemNotFound)
}

func TestQuery_Matches(t *testing.T) {
	assert.True(t, Query{}.Matches("anything"))
	assert.True(t, Query{NamePattern: "Sales"}.Matches("Regional Sales"))
	assert.False(t, Query{NamePattern: "sales"}.Matches("Regional Sales"))
	assert.True(t, Query{NamePattern: "sales", IgnoreCase: true}.Matches("Regional Sales"))
}
