package lineage

import (
	"sort"

	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
)

// Status tells "searched, none found" apart from "cannot search this".
type Status string

const (
	StatusFound       Status = "found"
	StatusNoneFound   Status = "none-found"
	StatusUnsupported Status = "unsupported"
)

// EdgeKind is the relationship an edge claims.
type EdgeKind string

const (
	KindModelDataSource   EdgeKind = "model->datasource"
	KindModelLakehouse    EdgeKind = "model->lakehouse"
	KindReportModel       EdgeKind = "report->model"
	KindNotebookLakehouse EdgeKind = "notebook->lakehouse"
)

// Confidence grades how an edge was found.
type Confidence string

const (
	// ConfidenceHigh edges come from a structured parse of the definition.
	ConfidenceHigh Confidence = "high"
	// ConfidenceLow edges are keyword hits without structural context.
	ConfidenceLow Confidence = "low"
)

// Target kinds.
const (
	TargetSQLDatabase   = "sql-database"
	TargetSQLEndpoint   = "sql-endpoint"
	TargetDataSource    = "datasource"
	TargetLakehouse     = "lakehouse"
	TargetTable         = "table"
	TargetSemanticModel = "semantic-model"
	TargetModelPath     = "model-path"
	TargetUnknown       = "unknown"
)

// Reference is what an edge points at, as far as the definition tells.
type Reference struct {
	Kind        string `json:"kind" yaml:"kind"`
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	WorkspaceID string `json:"workspaceId,omitempty" yaml:"workspaceId,omitempty"`
	Function    string `json:"function,omitempty" yaml:"function,omitempty"`
	Server      string `json:"server,omitempty" yaml:"server,omitempty"`
	Database    string `json:"database,omitempty" yaml:"database,omitempty"`
	Schema      string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Table       string `json:"table,omitempty" yaml:"table,omitempty"`
	Expression  string `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// Edge is a candidate lineage relationship. It is never confirmed unless Verified is set
// by a second lookup.
type Edge struct {
	Kind       EdgeKind    `json:"kind" yaml:"kind"`
	Source     fabric.Path `json:"source" yaml:"source"`
	Target     Reference   `json:"target" yaml:"target"`
	Keyword    string      `json:"keyword" yaml:"keyword"`
	Fragment   string      `json:"fragment" yaml:"fragment"`
	File       string      `json:"file" yaml:"file"`
	Line       int         `json:"line" yaml:"line"`
	Column     int         `json:"column,omitempty" yaml:"column,omitempty"`
	EndLine    int         `json:"endLine,omitempty" yaml:"endLine,omitempty"`
	Confidence Confidence  `json:"confidence" yaml:"confidence"`
	Verified   bool        `json:"verified" yaml:"verified"`
	Note       string      `json:"note,omitempty" yaml:"note,omitempty"`
}

func (e Edge) covers(file string, line int) bool {
	if e.File != file {
		return false
	}
	end := e.EndLine
	if end < e.Line {
		end = e.Line
	}
	return line >= e.Line && line <= end
}

// Result is the outcome of tracing one item.
type Result struct {
	Item   fabric.Path     `json:"item" yaml:"item"`
	Type   fabric.ItemType `json:"type" yaml:"type"`
	Status Status          `json:"status" yaml:"status"`
	Edges  []Edge          `json:"edges" yaml:"edges"`
	Reason string          `json:"reason,omitempty" yaml:"reason,omitempty"`
	// Failed lists definition parts that could not be decoded.
	Failed []string `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Merge combines structured edges with keyword hits. A hit on a line a structured edge
// already spans is dropped; every other hit is kept. The result is ordered by file and line.
func Merge(structured, hits []Edge) []Edge {
	out := make([]Edge, 0, len(structured)+len(hits))
	seen := map[Edge]bool{}
	for _, e := range structured {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	for _, h := range hits {
		covered := false
		for _, e := range structured {
			if e.covers(h.File, h.Line) {
				covered = true
				break
			}
		}
		if !covered && !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Column < out[j].Column
	})
	return out
}
