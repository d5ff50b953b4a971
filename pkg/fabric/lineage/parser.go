package lineage

import (
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
)

// Parser extracts structured edges from the decoded definition of one item type.
type Parser interface {
	Type() fabric.ItemType
	Parse(source fabric.Path, files map[string]string) ([]Edge, error)
}

var parsers = map[fabric.ItemType]Parser{}

func register(p Parser) {
	parsers[p.Type()] = p
}

func init() {
	register(tmdlParser{})
	register(reportParser{})
	register(notebookParser{})
}

// ParserFor returns the parser for t.
func ParserFor(t fabric.ItemType) (Parser, bool) {
	p, ok := parsers[t]
	return p, ok
}

// Supported reports whether lineage can be traced for t.
func Supported(t fabric.ItemType) bool {
	_, ok := parsers[t]
	return ok && t.SupportsDefinition()
}
