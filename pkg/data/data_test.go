package data

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type sample struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	restore := SetWriter(buf)
	t.Cleanup(restore)
	return buf
}

func TestWriteln(t *testing.T) {
	buf := capture(t)

	require.NoError(t, Writeln("Sales.Workspace/Sales Model.SemanticModel"))
	require.NoError(t, Writef("%d items\n", 2))

	assert.Equal(t, "Sales.Workspace/Sales Model.SemanticModel\n2 items\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	buf := capture(t)

	require.NoError(t, WriteJSON([]sample{{ID: "1", Name: "Sales"}}))

	var got []sample
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Sales", got[0].Name)
}

func TestWriteYAML(t *testing.T) {
	buf := capture(t)

	require.NoError(t, WriteYAML(sample{ID: "1", Name: "Sales"}))

	var got sample
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "1", got.ID)
}

func TestWriteFormatted_Text(t *testing.T) {
	buf := capture(t)

	require.NoError(t, WriteFormatted("table", nil, func() string { return "plain\n" }))

	assert.Equal(t, "plain\n", buf.String())
}
