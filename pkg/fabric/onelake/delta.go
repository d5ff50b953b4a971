package onelake

import (
	"bufio"
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/directlake"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
)

// maxLogLine bounds one Delta commit line; metaData lines with wide schemas can be large.
const maxLogLine = 16 << 20

// Delta primitive types without an "int" in their name.
var deltaIntegers = map[string]string{
	"long":  "bigint",
	"short": "smallint",
	"byte":  "tinyint",
}

// DeltaSchemaSource reads table columns from the newest metaData action in the Delta log.
type DeltaSchemaSource struct {
	Blobs BlobAPI
}

// TableSchema implements directlake.SchemaSource. Lakehouses without schemas keep tables
// directly under Tables/, so dbo tables are looked up there as well.
func (s DeltaSchemaSource) TableSchema(ctx context.Context, lh directlake.Lakehouse, table directlake.TableRef) ([]directlake.Column, error) {
	dirs := []string{lh.ID + "/Tables/" + table.Schema + "/" + table.Name}
	if table.Schema == "dbo" {
		dirs = append(dirs, lh.ID+"/Tables/"+table.Name)
	}
	for _, dir := range dirs {
		cols, err := s.schemaAt(ctx, lh.WorkspaceID, dir+"/_delta_log/")
		if err != nil {
			return nil, err
		}
		if len(cols) > 0 {
			return cols, nil
		}
	}
	return nil, nil
}

func (s DeltaSchemaSource) schemaAt(ctx context.Context, workspaceID, logDir string) ([]directlake.Column, error) {
	blobs, err := s.Blobs.List(ctx, workspaceID, logDir)
	if errors.Is(err, errUtils.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var commits []string
	for _, b := range blobs {
		if strings.HasSuffix(b.Name, ".json") && !b.IsFolder {
			commits = append(commits, b.Name)
		}
	}
	// Commit files are zero-padded versions, so names sort by version.
	sort.Sort(sort.Reverse(sort.StringSlice(commits)))

	for _, name := range commits {
		schemaString, err := s.metaData(ctx, workspaceID, name)
		if err != nil {
			return nil, err
		}
		if schemaString != "" {
			return ParseDeltaSchema(schemaString), nil
		}
	}
	if len(commits) > 0 {
		log.Warn("Delta log has no metaData in its JSON commits; it may only be in a checkpoint", "log", logDir)
	}
	return nil, nil
}

func (s DeltaSchemaSource) metaData(ctx context.Context, workspaceID, name string) (string, error) {
	body, err := s.Blobs.Download(ctx, workspaceID, name)
	if err != nil {
		return "", err
	}
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxLogLine)
	for scanner.Scan() {
		if schema := gjson.GetBytes(scanner.Bytes(), "metaData.schemaString"); schema.Exists() {
			return schema.String(), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", errUtils.Build(err).WithSentinel(errUtils.ErrOneLake).WithContext("blob", name).Err()
	}
	return "", nil
}

// ParseDeltaSchema reads a Delta struct schema. Nested types are reported by their type name
// and end up as strings in the model.
func ParseDeltaSchema(schemaString string) []directlake.Column {
	var cols []directlake.Column
	gjson.Get(schemaString, "fields").ForEach(func(_, f gjson.Result) bool {
		typ := f.Get("type")
		name := typ.String()
		if typ.IsObject() {
			name = typ.Get("type").String()
		}
		if mapped, ok := deltaIntegers[name]; ok {
			name = mapped
		}
		cols = append(cols, directlake.Column{Name: f.Get("name").String(), SQLType: name})
		return true
	})
	return cols
}
