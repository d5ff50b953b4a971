package lineage

import (
	"regexp"
	"sort"
	"strings"

	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
)

const maxFragment = 160

// Keywords searched in every definition part.
var Keywords = []string{"Sql.Database", "schemaName", "entityName", "modelId", "datasetId"}

var (
	quotedValue = regexp.MustCompile(`"([^"]*)"`)
	guidPattern = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

	keywordPattern = func() *regexp.Regexp {
		quoted := make([]string, len(Keywords))
		for i, kw := range Keywords {
			quoted[i] = regexp.QuoteMeta(kw)
		}
		return regexp.MustCompile(strings.Join(quoted, "|"))
	}()
)

// Scan returns one low-confidence edge per keyword occurrence, with the surrounding text.
// Every occurrence counts, including repeats on one line; hits come in file, line and column order.
func Scan(source fabric.Path, files map[string]string) []Edge {
	var edges []Edge
	for _, file := range sortedKeys(files) {
		for i, line := range strings.Split(files[file], "\n") {
			matches := keywordPattern.FindAllStringIndex(line, -1)
			for j, m := range matches {
				kw := line[m[0]:m[1]]
				// A hit's target is read up to the next hit so it never borrows a neighbour's value.
				end := len(line)
				if j+1 < len(matches) {
					end = matches[j+1][0]
				}
				edges = append(edges, Edge{
					Kind:       keywordKind(source.Type, kw),
					Source:     source,
					Target:     keywordTarget(kw, line[m[0]:end]),
					Keyword:    kw,
					Fragment:   fragment(line, m[0]),
					File:       file,
					Line:       i + 1,
					Column:     m[0] + 1,
					Confidence: ConfidenceLow,
				})
			}
		}
	}
	return edges
}

func keywordKind(sourceType fabric.ItemType, kw string) EdgeKind {
	switch kw {
	case "modelId", "datasetId":
		return KindReportModel
	case "schemaName", "entityName":
		if sourceType == fabric.ItemTypeNotebook {
			return KindNotebookLakehouse
		}
		return KindModelLakehouse
	default:
		return KindModelDataSource
	}
}

// keywordTarget takes the first quoted value or bare token after the keyword as a best guess.
func keywordTarget(kw, rest string) Reference {
	switch kw {
	case "modelId", "datasetId":
		if id := guidPattern.FindString(rest); id != "" {
			return Reference{Kind: TargetSemanticModel, ID: id}
		}
		return Reference{Kind: TargetSemanticModel}
	case "Sql.Database":
		m := quotedValue.FindAllStringSubmatch(rest, 2)
		ref := Reference{Kind: TargetSQLDatabase, Function: kw}
		if len(m) > 0 {
			ref.Server = m[0][1]
		}
		if len(m) > 1 {
			ref.Database = m[1][1]
		}
		return ref
	case "schemaName":
		return Reference{Kind: TargetTable, Schema: tmdlValue(rest, kw)}
	case "entityName":
		return Reference{Kind: TargetTable, Table: tmdlValue(rest, kw)}
	}
	return Reference{Kind: TargetUnknown}
}

// tmdlValue reads "key: value" or `"key": "value"` after the keyword.
func tmdlValue(rest, kw string) string {
	rest = strings.TrimPrefix(rest, kw)
	rest = strings.TrimLeft(rest, `"`)
	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, ":")
	rest = strings.TrimPrefix(rest, "=")
	rest = strings.TrimSpace(rest)
	rest = strings.TrimRight(rest, ",")
	return strings.Trim(rest, `"' `)
}

// fragment returns the trimmed line around idx, capped at maxFragment characters.
func fragment(line string, idx int) string {
	runes := []rune(line)
	pos := len([]rune(line[:idx]))
	start, end := 0, len(runes)
	if end-start > maxFragment {
		start = max(0, pos-maxFragment/2)
		end = min(len(runes), start+maxFragment)
	}
	return strings.TrimSpace(string(runes[start:end]))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
