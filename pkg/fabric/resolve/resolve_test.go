package resolve

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api/apitest"
)

func workspaces() *apitest.Fake {
	return apitest.New().
		On(http.MethodGet, "workspaces", apitest.JSON(map[string]any{
			"value":             []map[string]string{{"id": "w1", "displayName": "Sales"}},
			"continuationToken": "n",
		})).
		On(http.MethodGet, "workspaces?continuationToken=n", apitest.JSON(map[string]any{
			"value": []map[string]string{{"id": "w2", "displayName": "Finance Team"}},
		})).
		On(http.MethodGet, "workspaces/w2/items?type=SemanticModel", apitest.JSON(map[string]any{
			"value": []map[string]string{
				{"id": "m1", "displayName": "Budget", "type": "SemanticModel"},
				{"id": "m2", "displayName": "Twin", "type": "SemanticModel"},
				{"id": "m3", "displayName": "Twin", "type": "SemanticModel"},
			},
		}))
}

func TestWorkspaceNames_Memoized(t *testing.T) {
	fake := apitest.New().
		On(http.MethodGet, "admin/workspaces/w1", apitest.JSON(map[string]string{"id": "w1", "name": "Sales"}))
	names := NewWorkspaceNames(api.NewClient(fake))

	for range 3 {
		name, err := names.DisplayName(context.Background(), "w1")
		require.NoError(t, err)
		assert.Equal(t, "Sales", name)
	}
	assert.Len(t, fake.Calls(), 1)
}

func TestWorkspaceNames_DeletedWorkspace(t *testing.T) {
	fake := apitest.New()
	names := NewWorkspaceNames(api.NewClient(fake))

	_, err := names.DisplayName(context.Background(), "gone")
	assert.ErrorIs(t, err, errUtils.ErrWorkspaceNotFound)
	_, err = names.DisplayName(context.Background(), "gone")
	assert.ErrorIs(t, err, errUtils.ErrWorkspaceNotFound)
	assert.Len(t, fake.Calls(), 1)
}

func TestWorkspaceNames_Paths(t *testing.T) {
	fake := apitest.New().
		On(http.MethodGet, "admin/workspaces/w1", apitest.JSON(map[string]string{"name": "Sales"}))
	names := NewWorkspaceNames(api.NewClient(fake))

	items := []fabric.Item{
		{ID: "m1", Name: "Sales Model", Type: fabric.ItemTypeSemanticModel, WorkspaceID: "w1"},
		{ID: "r1", Name: "Orders", Type: fabric.ItemTypeReport, WorkspaceID: "gone"},
		{ID: "r2", Name: "Pipeline", Type: fabric.ItemTypeReport, WorkspaceID: "w1"},
	}
	resolved, skipped, err := names.Paths(context.Background(), items)
	require.NoError(t, err)

	require.Len(t, resolved, 2)
	assert.Equal(t, "Sales.Workspace/Sales Model.SemanticModel", resolved[0].Path.String())
	assert.Equal(t, "Sales.Workspace/Pipeline.Report", resolved[1].Path.String())
	require.Len(t, skipped, 1)
	assert.Equal(t, "r1", skipped[0].Item.ID)
	assert.Len(t, fake.Calls(), 2)
}

func TestWorkspaceNames_PathsAbortOnAuthErrors(t *testing.T) {
	fake := apitest.New().On(http.MethodGet, "admin/workspaces/w1", apitest.Status(http.StatusForbidden))
	names := NewWorkspaceNames(api.NewClient(fake))

	_, _, err := names.Paths(context.Background(), []fabric.Item{{ID: "m1", WorkspaceID: "w1"}})
	assert.ErrorIs(t, err, errUtils.ErrUnauthorized)
	stage, ok := errUtils.GetStage(err)
	require.True(t, ok)
	assert.Equal(t, errUtils.StageResolveWorkspace, stage)
}

func TestResolveWorkspace(t *testing.T) {
	r := New(api.NewClient(workspaces()))

	ws, err := r.ResolveWorkspace(context.Background(), "Finance Team")
	require.NoError(t, err)
	assert.Equal(t, "w2", ws.ID)

	ws, err = r.ResolveWorkspace(context.Background(), "sales")
	require.NoError(t, err)
	assert.Equal(t, "w1", ws.ID)

	_, err = r.ResolveWorkspace(context.Background(), "Nope")
	assert.ErrorIs(t, err, errUtils.ErrWorkspaceNotFound)
	stage, _ := errUtils.GetStage(err)
	assert.Equal(t, errUtils.StageResolveWorkspace, stage)
}

func TestResolveItem(t *testing.T) {
	r := New(api.NewClient(workspaces()))

	ref, err := r.ResolveItem(context.Background(), fabric.NewPath("Finance Team", "Budget", fabric.ItemTypeSemanticModel))
	require.NoError(t, err)
	assert.Equal(t, fabric.ItemRef{
		WorkspaceID: "w2",
		ItemID:      "m1",
		Type:        fabric.ItemTypeSemanticModel,
		Path:        fabric.NewPath("Finance Team", "Budget", fabric.ItemTypeSemanticModel),
	}, ref)
}

func TestResolveItem_Failures(t *testing.T) {
	r := New(api.NewClient(workspaces()))

	_, err := r.ResolveItem(context.Background(), fabric.NewPath("Finance Team", "Missing", fabric.ItemTypeSemanticModel))
	assert.ErrorIs(t, err, errUtils.ErrItemNotFound)
	stage, _ := errUtils.GetStage(err)
	assert.Equal(t, errUtils.StageResolveItem, stage)

	_, err = r.ResolveItem(context.Background(), fabric.NewPath("Finance Team", "Twin", fabric.ItemTypeSemanticModel))
	assert.ErrorIs(t, err, errUtils.ErrAmbiguousItem)

	_, err = r.ResolveItem(context.Background(), fabric.NewPath("Ghost", "Budget", fabric.ItemTypeSemanticModel))
	assert.ErrorIs(t, err, errUtils.ErrWorkspaceNotFound)
	stage, _ = errUtils.GetStage(err)
	assert.Equal(t, errUtils.StageResolveWorkspace, stage)
}

func TestLookup(t *testing.T) {
	r := New(api.NewClient(workspaces()))

	ws, item, exists, err := r.Lookup(context.Background(), fabric.NewPath("Finance Team", "Budget", fabric.ItemTypeSemanticModel))
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "w2", ws.ID)
	assert.Equal(t, "m1", item.ID)

	_, _, exists, err = r.Lookup(context.Background(), fabric.NewPath("Finance Team", "New Model", fabric.ItemTypeSemanticModel))
	require.NoError(t, err)
	assert.False(t, exists)

	_, _, exists, err = r.Lookup(context.Background(), fabric.NewPath("Finance Team", "Twin", fabric.ItemTypeSemanticModel))
	require.NoError(t, err)
	assert.True(t, exists)
}
