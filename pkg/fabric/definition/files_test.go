package definition

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

func TestSafeName(t *testing.T) {
	assert.Equal(t, "a_b_c", SafeName(`a<b>c`))
	assert.Equal(t, "Sales_ Model", SafeName("Sales: Model"))
	assert.Equal(t, "Sales Model", SafeName("  Sales \t  Model "))
}

func TestSafeName_DotsAndEmpty(t *testing.T) {
	assert.Equal(t, "_", SafeName(".."))
	assert.Equal(t, "_", SafeName("."))
	assert.Equal(t, "_", SafeName(" . . "))
	assert.Equal(t, "_", SafeName(""))
	assert.Equal(t, "_", SafeName("   "))
	assert.Equal(t, "..hidden", SafeName("..hidden"))
}

func TestWriteFiles(t *testing.T) {
	fs := afero.NewMemMapFs()

	err := WriteFiles(fs, "/out/Model", map[string]string{
		"definition/model.tmdl":         "model Model\n",
		"definition/tables/Orders.tmdl": "table Orders\n",
	})
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, filepath.Join("/out/Model", "definition", "tables", "Orders.tmdl"))
	require.NoError(t, err)
	assert.Equal(t, "table Orders\n", string(data))
}

func TestWriteFiles_RejectsEscapingParts(t *testing.T) {
	fs := afero.NewMemMapFs()

	err := WriteFiles(fs, "/out/Model", map[string]string{"../../etc/passwd": "x"})
	assert.ErrorIs(t, err, errUtils.ErrOutputWrite)
	exists, _ := afero.Exists(fs, "/etc/passwd")
	assert.False(t, exists)
}
