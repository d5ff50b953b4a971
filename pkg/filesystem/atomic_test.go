package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

func TestWriteOutput(t *testing.T) {
	name := filepath.Join(t.TempDir(), "nested", "result.csv")

	require.NoError(t, WriteOutput(name, []byte("a,b\n")))
	require.NoError(t, WriteOutput(name, []byte("c,d\n")))

	got, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "c,d\n", string(got))
}

func TestWriteOutput_Failure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := WriteOutput(filepath.Join(blocker, "out.json"), []byte("{}"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errUtils.ErrOutputWrite)
	stage, ok := errUtils.GetStage(err)
	require.True(t, ok)
	assert.Equal(t, errUtils.StageWriteOutput, stage)
}
