package lineage

import (
	"regexp"
	"strings"

	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/definition"
)

// Fabric SQL endpoints sit behind these hosts.
var sqlEndpointHosts = []string{"datawarehouse.fabric.microsoft.com", "pbidedicated.windows.net"}

var (
	sourceCall     = regexp.MustCompile(`\b(Sql\.Databases?|Lakehouse\.Contents|AzureStorage\.DataLake|AzureStorage\.Blobs|Web\.Contents)\s*\(([^)]*)\)`)
	navWorkspaceID = regexp.MustCompile(`workspaceId\s*=\s*"([^"]+)"`)
	navLakehouseID = regexp.MustCompile(`lakehouseId\s*=\s*"([^"]+)"`)
	blockHeader    = regexp.MustCompile(`^(expression|partition|table)\s+('(?:[^']|'')+'|[^\s=]+)\s*(?:=\s*(\S+))?`)
	propertyLine   = regexp.MustCompile(`^(mode|entityName|schemaName|expressionSource)\s*:\s*(.+)$`)
)

type tmdlParser struct{}

func (tmdlParser) Type() fabric.ItemType { return fabric.ItemTypeSemanticModel }

type tmdlBlock struct {
	kind   string
	name   string
	value  string
	file   string
	indent int
	start  int
	end    int
	lines  []string
}

// Parse reads expressions first so Direct Lake partitions can be tied to the expression they
// name in expressionSource.
func (tmdlParser) Parse(source fabric.Path, files map[string]string) ([]Edge, error) {
	var blocks []*tmdlBlock
	for _, file := range sortedKeys(files) {
		if !definition.IsTMDL(file) {
			continue
		}
		blocks = append(blocks, tmdlBlocks(file, files[file])...)
	}

	expressions := map[string]Reference{}
	var edges []Edge
	for _, b := range blocks {
		if b.kind != "expression" {
			continue
		}
		calls := b.calls(source)
		if len(calls) > 0 {
			ref := calls[0].Target
			ref.Expression = b.name
			expressions[b.name] = ref
		}
		edges = append(edges, calls...)
	}

	for _, b := range blocks {
		if b.kind != "partition" {
			continue
		}
		if e, ok := b.entityEdge(source, expressions); ok {
			edges = append(edges, e)
			continue
		}
		edges = append(edges, b.calls(source)...)
	}
	return edges, nil
}

// tmdlBlocks splits a TMDL file into expression and partition blocks. A block ends at the
// next non-blank line indented no deeper than its header.
func tmdlBlocks(file, content string) []*tmdlBlock {
	var (
		blocks []*tmdlBlock
		open   *tmdlBlock
	)
	closeOpen := func() {
		if open != nil && open.kind != "table" {
			blocks = append(blocks, open)
		}
		open = nil
	}
	for i, raw := range strings.Split(content, "\n") {
		line := strings.TrimRight(raw, "\r")
		text := strings.TrimSpace(line)
		if text == "" {
			if open != nil {
				open.lines = append(open.lines, line)
			}
			continue
		}
		indent := indentation(line)
		if open != nil && indent <= open.indent {
			closeOpen()
		}
		if m := blockHeader.FindStringSubmatch(text); m != nil && (open == nil || open.kind == "table") {
			if open != nil {
				closeOpen()
			}
			open = &tmdlBlock{kind: m[1], name: unquoteName(m[2]), value: m[3], file: file, indent: indent, start: i + 1, end: i + 1}
			open.lines = append(open.lines, line)
			continue
		}
		if open != nil {
			open.end = i + 1
			open.lines = append(open.lines, line)
		}
	}
	closeOpen()
	return blocks
}

// calls returns one edge per source function call in the block.
func (b *tmdlBlock) calls(source fabric.Path) []Edge {
	var edges []Edge
	body := strings.Join(b.lines, "\n")
	workspaceID := firstSubmatch(navWorkspaceID, body)
	lakehouseID := firstSubmatch(navLakehouseID, body)
	for offset, line := range b.lines {
		for _, m := range sourceCall.FindAllStringSubmatch(line, -1) {
			fn, args := m[1], quotedArgs(m[2])
			ref := Reference{Kind: TargetDataSource, Function: fn}
			kind := KindModelDataSource
			switch fn {
			case "Sql.Database", "Sql.Databases":
				ref.Kind = TargetSQLDatabase
				if len(args) > 0 {
					ref.Server = args[0]
				}
				if len(args) > 1 {
					ref.Database = args[1]
				}
				if isSQLEndpoint(ref.Server) {
					ref.Kind = TargetSQLEndpoint
					kind = KindModelLakehouse
				}
			case "Lakehouse.Contents":
				ref.Kind = TargetLakehouse
				ref.WorkspaceID = workspaceID
				ref.ID = lakehouseID
				kind = KindModelLakehouse
			default:
				if len(args) > 0 {
					ref.Server = args[0]
				}
			}
			if b.kind == "expression" {
				ref.Expression = b.name
			}
			edges = append(edges, Edge{
				Kind:       kind,
				Source:     source,
				Target:     ref,
				Keyword:    fn,
				Fragment:   fragment(line, strings.Index(line, fn)),
				File:       b.file,
				Line:       b.start + offset,
				EndLine:    b.start + offset,
				Confidence: ConfidenceHigh,
				Note:       b.kind + " " + b.name,
			})
		}
	}
	return edges
}

// entityEdge reads a Direct Lake partition: entityName and schemaName over an expressionSource.
func (b *tmdlBlock) entityEdge(source fabric.Path, expressions map[string]Reference) (Edge, bool) {
	if b.value != "entity" {
		return Edge{}, false
	}
	props := map[string]string{}
	for _, line := range b.lines[1:] {
		if m := propertyLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			props[m[1]] = unquoteName(strings.TrimSpace(m[2]))
		}
	}
	if props["entityName"] == "" {
		return Edge{}, false
	}

	ref := Reference{Kind: TargetTable}
	if expr, ok := expressions[props["expressionSource"]]; ok {
		ref = expr
		ref.Kind = TargetTable
	}
	ref.Expression = props["expressionSource"]
	ref.Schema = props["schemaName"]
	ref.Table = props["entityName"]

	note := "partition " + b.name
	if props["mode"] != "" {
		note += ", mode: " + props["mode"]
	}
	return Edge{
		Kind:       KindModelLakehouse,
		Source:     source,
		Target:     ref,
		Keyword:    "entityName",
		Fragment:   strings.TrimSpace(b.lines[0]),
		File:       b.file,
		Line:       b.start,
		EndLine:    b.end,
		Confidence: ConfidenceHigh,
		Note:       note,
	}, true
}

func isSQLEndpoint(server string) bool {
	server = strings.ToLower(server)
	for _, host := range sqlEndpointHosts {
		if strings.Contains(server, host) {
			return true
		}
	}
	return false
}

func quotedArgs(args string) []string {
	var out []string
	for _, m := range quotedValue.FindAllStringSubmatch(args, -1) {
		out = append(out, m[1])
	}
	return out
}

func firstSubmatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// unquoteName strips TMDL single quotes and unescapes doubled quotes.
func unquoteName(name string) string {
	if len(name) >= 2 && name[0] == '\'' && name[len(name)-1] == '\'' {
		return strings.ReplaceAll(name[1:len(name)-1], "''", "'")
	}
	return name
}

// indentation counts leading whitespace with a tab as four columns.
func indentation(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case '\t':
			n += 4
		case ' ':
			n++
		default:
			return n
		}
	}
	return n
}
