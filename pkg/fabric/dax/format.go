package dax

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

// Format selects the output shape of a result.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// Formats lists the supported formats.
func Formats() []string {
	return []string{string(FormatTable), string(FormatCSV), string(FormatJSON)}
}

// ParseFormat validates a format name. Empty selects table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	}
	return "", errUtils.Build(fmt.Errorf("%w: %q", errUtils.ErrInvalidFormat, s)).
		WithHintf("Use one of: %s", strings.Join(Formats(), ", ")).
		Err()
}

// Render formats r. Failures are tagged with the format-output stage.
func Render(r *Result, f Format) (string, error) {
	var (
		out string
		err error
	)
	switch f {
	case FormatTable, "":
		out = renderTable(r)
	case FormatCSV:
		out, err = renderCSV(r)
	case FormatJSON:
		out, err = renderJSON(r)
	default:
		_, err = ParseFormat(string(f))
	}
	if err != nil {
		return "", errUtils.WithStage(err, errUtils.StageFormatOutput)
	}
	return out, nil
}

func renderTable(r *Result) string {
	var lines []string
	for _, t := range r.Tables {
		if len(t.Rows) == 0 {
			lines = append(lines, "(No rows returned)")
			continue
		}
		widths := make([]int, len(t.Columns))
		for i, col := range t.Columns {
			widths[i] = lipgloss.Width(col)
		}
		for _, row := range t.Rows {
			for i, v := range row {
				widths[i] = max(widths[i], lipgloss.Width(v))
			}
		}

		header := joinPadded(t.Columns, widths)
		lines = append(lines, header, strings.Repeat("-", lipgloss.Width(header)))
		for _, row := range t.Rows {
			lines = append(lines, joinPadded(row, widths))
		}
		lines = append(lines, "", fmt.Sprintf("(%d row(s) returned)", len(t.Rows)))
	}
	return strings.Join(lines, "\n")
}

func joinPadded(values []string, widths []int) string {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = v + strings.Repeat(" ", widths[i]-lipgloss.Width(v))
	}
	return strings.Join(cells, " | ")
}

func renderCSV(r *Result) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, t := range r.Tables {
		if len(t.Rows) == 0 {
			continue
		}
		if err := w.Write(t.Columns); err != nil {
			return "", fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err)
		}
		if err := w.WriteAll(t.Rows); err != nil {
			return "", fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err)
	}
	return buf.String(), nil
}

func renderJSON(r *Result) (string, error) {
	raw := []byte(r.Raw)
	if len(raw) == 0 {
		data, err := json.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err)
		}
		raw = data
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", fmt.Errorf("%w: %v", errUtils.ErrInvalidResponse, err)
	}
	return buf.String(), nil
}
