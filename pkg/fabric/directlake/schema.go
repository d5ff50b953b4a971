package directlake

import (
	"context"
	"fmt"
	"strings"

	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/fabcli"
)

// SQLEndpoint is the SQL analytics endpoint of a lakehouse.
type SQLEndpoint struct {
	ID                 string `json:"id"`
	ConnectionString   string `json:"connectionString"`
	ProvisioningStatus string `json:"provisioningStatus"`
}

// Lakehouse is a resolved source lakehouse.
type Lakehouse struct {
	Path        fabric.Path
	WorkspaceID string
	ID          string
	Endpoint    SQLEndpoint
}

// SchemaSource reads the columns of a lakehouse table. An unknown table returns no columns.
type SchemaSource interface {
	TableSchema(ctx context.Context, lh Lakehouse, table TableRef) ([]Column, error)
}

// FabSchemaSource reads schemas with `fab table schema`.
type FabSchemaSource struct {
	CLI *fabcli.CLI
}

// TableSchema implements SchemaSource.
func (s FabSchemaSource) TableSchema(ctx context.Context, lh Lakehouse, table TableRef) ([]Column, error) {
	tablePath := fmt.Sprintf("%s/Tables/%s/%s", lh.Path.String(), table.Schema, table.Name)
	out, err := s.CLI.TableSchema(ctx, tablePath)
	if err != nil {
		return nil, err
	}
	return ParseSchemaText(out), nil
}

// ParseSchemaText reads the two-column text table printed by `fab table schema`:
// a header, a dashed rule, then one "name type" row per column.
func ParseSchemaText(text string) []Column {
	var (
		columns []Column
		inData  bool
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "---") {
			inData = true
			continue
		}
		if !inData || line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			columns = append(columns, Column{Name: fields[0], SQLType: fields[1]})
		}
	}
	return columns
}
