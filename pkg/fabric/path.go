package fabric

import (
	"encoding/json"
	"fmt"
	"strings"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

const workspaceSuffix = ".Workspace"

// Path addresses an item by display names: "<Workspace>.Workspace/<Item>.<Type>".
// It is only valid while both names stay unique and unchanged, so re-derive it per session.
type Path struct {
	Workspace string
	Item      string
	Type      ItemType
}

// NewPath builds a path from its parts.
func NewPath(workspace, item string, itemType ItemType) Path {
	return Path{Workspace: workspace, Item: item, Type: itemType}
}

func (p Path) String() string {
	if p.Item == "" {
		return p.WorkspacePath()
	}
	return p.WorkspacePath() + "/" + p.Item + "." + string(p.Type)
}

// WorkspacePath returns the "<Workspace>.Workspace" part.
func (p Path) WorkspacePath() string {
	return p.Workspace + workspaceSuffix
}

// Quoted returns the path in double quotes when it contains whitespace.
func (p Path) Quoted() string {
	s := p.String()
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}

// IsZero reports whether the path is empty.
func (p Path) IsZero() bool {
	return p.Workspace == "" && p.Item == "" && p.Type == ""
}

func (p Path) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p Path) MarshalYAML() (any, error) {
	return p.String(), nil
}

// ParsePath parses "<Workspace>.Workspace/<Item>.<Type>". It is the inverse of Path.String.
func ParsePath(s string) (Path, error) {
	return parsePath(s, "")
}

// ParsePathWithDefault parses s and uses defaultType when the item part has no known type suffix.
func ParsePathWithDefault(s string, defaultType ItemType) (Path, error) {
	return parsePath(s, defaultType)
}

// ParseWorkspacePath parses "<Workspace>" or "<Workspace>.Workspace" and returns the display name.
func ParseWorkspacePath(s string) (string, error) {
	s = strings.TrimSuffix(strings.TrimSpace(unquote(s)), "/")
	name := strings.TrimSuffix(s, workspaceSuffix)
	if name == "" || strings.Contains(name, "/") {
		return "", invalidPath(s, "expected <Workspace>.Workspace")
	}
	return name, nil
}

func parsePath(s string, defaultType ItemType) (Path, error) {
	raw := strings.TrimSpace(unquote(s))
	wsPart, itemPart, ok := strings.Cut(raw, "/")
	if !ok {
		return Path{}, invalidPath(s, "expected <Workspace>.Workspace/<Item>.<Type>")
	}

	workspace := strings.TrimSuffix(wsPart, workspaceSuffix)
	if workspace == "" {
		return Path{}, invalidPath(s, "workspace name is empty")
	}
	if itemPart == "" {
		return Path{}, invalidPath(s, "item name is empty")
	}

	if dot := strings.LastIndex(itemPart, "."); dot > 0 {
		if t, err := ParseItemType(itemPart[dot+1:]); err == nil {
			return Path{Workspace: workspace, Item: itemPart[:dot], Type: t}, nil
		} else if defaultType == "" {
			return Path{}, err
		}
	}

	if defaultType == "" {
		return Path{}, invalidPath(s, "item type suffix is missing")
	}
	return Path{Workspace: workspace, Item: itemPart, Type: defaultType}, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func invalidPath(s, reason string) error {
	return errUtils.Build(fmt.Errorf("%w: %q: %s", errUtils.ErrInvalidPath, s, reason)).
		WithHint(`Paths look like "Sales.Workspace/Sales Model.SemanticModel"`).
		Err()
}
