package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithStage(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.NoError(t, WithStage(nil, StageResolveItem))
	})

	t.Run("message carries stage", func(t *testing.T) {
		err := WithStage(ErrWorkspaceNotFound, StageResolveWorkspace)
		assert.Equal(t, "resolve-workspace: workspace not found", err.Error())
		assert.ErrorIs(t, err, ErrWorkspaceNotFound)
	})

	t.Run("innermost stage wins", func(t *testing.T) {
		inner := WithStage(ErrItemNotFound, StageResolveItem)
		outer := WithStage(fmt.Errorf("dax: %w", inner), StageSubmitQuery)

		stage, ok := GetStage(outer)
		assert.True(t, ok)
		assert.Equal(t, StageResolveItem, stage)
	})

	t.Run("untagged error", func(t *testing.T) {
		_, ok := GetStage(ErrNotFound)
		assert.False(t, ok)
	})
}
