package directlake

import (
	"fmt"
	"strings"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

// TableRef names a lakehouse table as schema and table.
type TableRef struct {
	Schema string `json:"schema" yaml:"schema"`
	Name   string `json:"name" yaml:"name"`
}

func (t TableRef) String() string {
	return t.Schema + "." + t.Name
}

// ParseTable parses "schema.table".
func ParseTable(s string) (TableRef, error) {
	schemaName, name, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok || schemaName == "" || name == "" || strings.Contains(name, ".") {
		return TableRef{}, errUtils.Build(fmt.Errorf("%w: %q", errUtils.ErrInvalidTable, s)).
			WithHint("Tables are given as schema.table, for example dbo.sales").
			Err()
	}
	return TableRef{Schema: schemaName, Name: name}, nil
}

// Column is a lakehouse column with its source type.
type Column struct {
	Name    string `json:"name" yaml:"name"`
	SQLType string `json:"type" yaml:"type"`
}

// DataType maps the source type onto a TMDL data type.
func (c Column) DataType() string {
	return DataType(c.SQLType)
}

// DataType maps a SQL or Delta type name onto a TMDL data type. Checks run in order, so
// "datetime" is a dateTime and "bigint" an int64.
func DataType(sqlType string) string {
	t := strings.ToLower(sqlType)
	switch {
	case strings.Contains(t, "int"):
		return "int64"
	case strings.Contains(t, "float"), strings.Contains(t, "double"), strings.Contains(t, "decimal"):
		return "double"
	case strings.Contains(t, "bool"), strings.Contains(t, "bit"):
		return "boolean"
	case strings.Contains(t, "date"), strings.Contains(t, "time"):
		return "dateTime"
	default:
		return "string"
	}
}
