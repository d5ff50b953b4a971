package dax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

func sample() *Result {
	return &Result{
		Tables: []Table{{
			Columns: []string{"Year", "Total"},
			Rows:    [][]string{{"2024", "1200.5"}, {"2025", "80"}},
		}},
		Raw: []byte(`{"results":[]}`),
	}
}

func TestRender_Table(t *testing.T) {
	out, err := Render(sample(), FormatTable)
	require.NoError(t, err)
	expected := "Year | Total \n" +
		"-------------\n" +
		"2024 | 1200.5\n" +
		"2025 | 80    \n" +
		"\n" +
		"(2 row(s) returned)"
	assert.Equal(t, expected, out)
}

func TestRender_TableNoRows(t *testing.T) {
	out, err := Render(&Result{Tables: []Table{{Columns: []string{}, Rows: [][]string{}}}}, FormatTable)
	require.NoError(t, err)
	assert.Equal(t, "(No rows returned)", out)
}

func TestRender_CSV(t *testing.T) {
	r := sample()
	r.Tables[0].Rows = append(r.Tables[0].Rows, []string{"2026", "1,5"})

	out, err := Render(r, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "Year,Total\n2024,1200.5\n2025,80\n2026,\"1,5\"\n", out)
}

func TestRender_JSON(t *testing.T) {
	out, err := Render(sample(), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"results\": []\n}", out)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	f, err = ParseFormat("CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, errUtils.ErrInvalidFormat)

	_, err = Render(sample(), Format("xml"))
	stage, ok := errUtils.GetStage(err)
	require.True(t, ok)
	assert.Equal(t, errUtils.StageFormatOutput, stage)
}
