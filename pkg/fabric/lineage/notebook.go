package lineage

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
)

const metaPrefix = "# META"

type notebookParser struct{}

func (notebookParser) Type() fabric.ItemType { return fabric.ItemTypeNotebook }

// Parse reads lakehouse dependencies from "# META" blocks in notebook-content files and from
// the metadata of .ipynb parts.
func (notebookParser) Parse(source fabric.Path, files map[string]string) ([]Edge, error) {
	var edges []Edge
	for _, file := range sortedKeys(files) {
		text := files[file]
		if strings.HasSuffix(strings.ToLower(file), ".ipynb") {
			meta := gjson.Get(text, "metadata")
			if meta.Exists() {
				edges = append(edges, lakehouseDependencies(source, file, text, meta.Raw, 0)...)
			}
			continue
		}
		for _, block := range metaBlocks(text) {
			edges = append(edges, lakehouseDependencies(source, file, text, block.json, block.start)...)
		}
	}
	return edges, nil
}

type metaBlock struct {
	json  string
	start int
	end   int
}

func metaBlocks(text string) []metaBlock {
	var (
		blocks []metaBlock
		cur    *metaBlock
		buf    strings.Builder
	)
	flush := func() {
		if cur != nil {
			cur.json = buf.String()
			blocks = append(blocks, *cur)
		}
		cur = nil
		buf.Reset()
	}
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line != metaPrefix && !strings.HasPrefix(line, metaPrefix+" ") {
			flush()
			continue
		}
		if cur == nil {
			cur = &metaBlock{start: i + 1}
		}
		cur.end = i + 1
		buf.WriteString(strings.TrimPrefix(line, metaPrefix))
		buf.WriteByte('\n')
	}
	flush()
	return blocks
}

// lakehouseDependencies emits the default lakehouse and every known lakehouse once.
func lakehouseDependencies(source fabric.Path, file, text, meta string, start int) []Edge {
	lh := gjson.Get(meta, "dependencies.lakehouse")
	if !lh.Exists() {
		return nil
	}
	var edges []Edge
	seen := map[string]bool{}
	add := func(ref Reference, keyword string) {
		if seen[ref.ID] {
			return
		}
		seen[ref.ID] = true
		line, content := locate(text, firstNonEmpty(ref.ID, ref.Name))
		if start > 0 && line < start {
			line = start
		}
		edges = append(edges, Edge{
			Kind:       KindNotebookLakehouse,
			Source:     source,
			Target:     ref,
			Keyword:    keyword,
			Fragment:   strings.TrimSpace(strings.TrimPrefix(content, metaPrefix)),
			File:       file,
			Line:       line,
			EndLine:    line,
			Confidence: ConfidenceHigh,
		})
	}

	if id := lh.Get("default_lakehouse").String(); id != "" {
		add(Reference{
			Kind:        TargetLakehouse,
			ID:          id,
			Name:        lh.Get("default_lakehouse_name").String(),
			WorkspaceID: lh.Get("default_lakehouse_workspace_id").String(),
		}, "default_lakehouse")
	}
	lh.Get("known_lakehouses").ForEach(func(_, v gjson.Result) bool {
		if id := v.Get("id").String(); id != "" {
			add(Reference{Kind: TargetLakehouse, ID: id}, "known_lakehouses")
		}
		return true
	})
	return edges
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
