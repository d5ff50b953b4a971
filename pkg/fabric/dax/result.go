package dax

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

// Table is one result table. Columns keep the order the service returned them in.
type Table struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// Result holds the parsed tables and the raw response body.
type Result struct {
	Tables []Table         `json:"tables" yaml:"tables"`
	Raw    json.RawMessage `json:"-" yaml:"-"`
}

// RowCount returns the number of rows across all tables.
func (r *Result) RowCount() int {
	n := 0
	for _, t := range r.Tables {
		n += len(t.Rows)
	}
	return n
}

// ParseResult reads an executeQueries response. Query errors come back inside a 200 and are
// returned as ErrQueryFailed.
func ParseResult(body []byte) (*Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: executeQueries returned invalid JSON", errUtils.ErrInvalidResponse)
	}
	doc := gjson.ParseBytes(body)
	if err := queryError(doc.Get("error")); err != nil {
		return nil, err
	}

	result := &Result{Tables: []Table{}, Raw: json.RawMessage(body)}
	var err error
	doc.Get("results").ForEach(func(_, rs gjson.Result) bool {
		if err = queryError(rs.Get("error")); err != nil {
			return false
		}
		rs.Get("tables").ForEach(func(_, t gjson.Result) bool {
			result.Tables = append(result.Tables, parseTable(t))
			return true
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// parseTable collects columns in order of first appearance. Rows omit null columns unless
// includeNulls was set, so later rows can add columns.
func parseTable(t gjson.Result) Table {
	table := Table{Columns: []string{}, Rows: [][]string{}}
	index := map[string]int{}
	var rows []map[string]string
	t.Get("rows").ForEach(func(_, row gjson.Result) bool {
		values := map[string]string{}
		row.ForEach(func(k, v gjson.Result) bool {
			name := k.String()
			if _, ok := index[name]; !ok {
				index[name] = len(table.Columns)
				table.Columns = append(table.Columns, name)
			}
			if v.Type != gjson.Null {
				values[name] = v.String()
			}
			return true
		})
		rows = append(rows, values)
		return true
	})
	for _, values := range rows {
		row := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			row[i] = values[col]
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func queryError(e gjson.Result) error {
	if !e.Exists() || e.Type == gjson.Null {
		return nil
	}
	code := e.Get("code").String()
	msg := firstNonEmpty(
		e.Get(`pbi\.error.details.#(code=="DetailsMessage").detail.value`).String(),
		e.Get(`pbi\.error.details.0.detail.value`).String(),
		e.Get("message").String(),
		e.Raw,
	)
	b := errUtils.Build(fmt.Errorf("%w: %s", errUtils.ErrQueryFailed, msg)).
		WithHint("Check table and column names; DAX names are quoted like 'Sales'[Amount]")
	if code != "" {
		b = b.WithContext("code", code)
	}
	return b.Err()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
