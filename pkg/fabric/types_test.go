package fabric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

func TestParseItemType(t *testing.T) {
	tests := []struct {
		input    string
		expected ItemType
	}{
		{"SemanticModel", ItemTypeSemanticModel},
		{"semanticmodel", ItemTypeSemanticModel},
		{" Report ", ItemTypeReport},
		{"SparkJobDef", ItemTypeSparkJobDefinition},
		{"SparkJobDefinition", ItemTypeSparkJobDefinition},
		{"OrgApp", ItemTypeOrgApp},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseItemType(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseItemType_Unknown(t *testing.T) {
	_, err := ParseItemType("Spreadsheet")
	assert.ErrorIs(t, err, errUtils.ErrUnknownItemType)
}

func TestSupportsDefinition(t *testing.T) {
	assert.True(t, ItemTypeSemanticModel.SupportsDefinition())
	assert.True(t, ItemTypeReport.SupportsDefinition())
	assert.True(t, ItemTypeNotebook.SupportsDefinition())
	assert.False(t, ItemTypeLakehouse.SupportsDefinition())
	assert.False(t, ItemTypeWarehouse.SupportsDefinition())
	assert.False(t, ItemTypeOrgApp.SupportsDefinition())
}

func TestItemTypes_Complete(t *testing.T) {
	assert.Len(t, ItemTypes(), 15)
	assert.Len(t, ItemTypeNames(), 15)
	assert.Equal(t, "CopyJob", ItemTypeNames()[0])
}
