package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestStatusLines(t *testing.T) {
	color.NoColor = true
	buf := &bytes.Buffer{}
	restore := SetWriter(buf)
	defer restore()

	Successf("created %s", "Orders.SemanticModel")
	Warningf("skipped %d items", 2)
	Errorf("failed")
	Infof("resolving")

	out := buf.String()
	assert.Contains(t, out, "✓ created Orders.SemanticModel\n")
	assert.Contains(t, out, "! skipped 2 items\n")
	assert.Contains(t, out, "✗ failed\n")
	assert.Contains(t, out, "• resolving\n")
}

func TestTable(t *testing.T) {
	out := Table([]string{"Name", "Type"}, [][]string{{"Sales Model", "SemanticModel"}})

	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "Sales Model")
	assert.Contains(t, out, "SemanticModel")
}
