package lineage

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/definition"
)

type reportParser struct{}

func (reportParser) Type() fabric.ItemType { return fabric.ItemTypeReport }

// Parse reads the dataset reference from definition.pbir and collects datasetId or modelId keys
// from every JSON part.
func (reportParser) Parse(source fabric.Path, files map[string]string) ([]Edge, error) {
	var edges []Edge
	for _, file := range sortedKeys(files) {
		if !strings.HasSuffix(strings.ToLower(file), ".json") && path.Base(file) != definition.PBIRFile {
			continue
		}
		var doc any
		if err := json.Unmarshal([]byte(files[file]), &doc); err != nil {
			// Not every part is JSON even with a .json name; the keyword scan still covers it.
			continue
		}
		if path.Base(file) == definition.PBIRFile {
			edges = append(edges, datasetReference(source, file, files[file], doc)...)
		}
		edges = append(edges, idKeys(source, file, files[file], doc)...)
	}
	return edges, nil
}

func datasetReference(source fabric.Path, file, text string, doc any) []Edge {
	var edges []Edge
	if cs, ok := lookupString("$.datasetReference.byConnection.connectionString", doc); ok {
		params := connectionParams(cs)
		ref := Reference{Kind: TargetSemanticModel, ID: params["semanticmodelid"], Name: params["initial catalog"]}
		if ref.ID == "" {
			if db, ok := lookupString("$.datasetReference.byConnection.pbiModelDatabaseName", doc); ok {
				ref.ID = db
			}
		}
		ref.Server = params["data source"]
		edges = append(edges, reportEdge(source, ref, "connectionString", file, text, cs))
	}
	if p, ok := lookupString("$.datasetReference.byPath.path", doc); ok {
		ref := Reference{Kind: TargetModelPath, Name: strings.TrimSuffix(path.Base(p), "."+string(fabric.ItemTypeSemanticModel))}
		edges = append(edges, reportEdge(source, ref, "byPath", file, text, p))
	}
	return edges
}

func idKeys(source fabric.Path, file, text string, doc any) []Edge {
	var edges []Edge
	for _, key := range []string{"datasetId", "modelId"} {
		found, err := jsonpath.Get("$.."+key, doc)
		if err != nil {
			continue
		}
		values, _ := found.([]any)
		seen := map[string]bool{}
		for _, v := range values {
			id := fmt.Sprint(v)
			if id == "" || id == "<nil>" || seen[id] {
				continue
			}
			seen[id] = true
			ref := Reference{Kind: TargetSemanticModel, ID: id}
			edges = append(edges, reportEdge(source, ref, key, file, text, id))
		}
	}
	return edges
}

func reportEdge(source fabric.Path, ref Reference, keyword, file, text, value string) Edge {
	line, content := locate(text, value)
	return Edge{
		Kind:       KindReportModel,
		Source:     source,
		Target:     ref,
		Keyword:    keyword,
		Fragment:   fragment(content, max(0, strings.Index(content, value))),
		File:       file,
		Line:       line,
		EndLine:    line,
		Confidence: ConfidenceHigh,
	}
}

func lookupString(expr string, doc any) (string, bool) {
	v, err := jsonpath.Get(expr, doc)
	if err != nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// connectionParams splits "Key=Value;Key=Value" with lowercased keys.
func connectionParams(cs string) map[string]string {
	params := map[string]string{}
	for _, pair := range strings.Split(cs, ";") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		params[strings.ToLower(strings.TrimSpace(key))] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	return params
}

// locate returns the 1-based line holding value and the line text.
func locate(text, value string) (int, string) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.Contains(line, value) {
			return i + 1, line
		}
	}
	// Values with escaped characters are not found verbatim; fall back to the first line.
	if len(lines) > 0 {
		return 1, lines[0]
	}
	return 1, ""
}
