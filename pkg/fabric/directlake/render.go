package directlake

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/google/uuid"
	"github.com/samber/lo"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/definition"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	defaultCulture            = "en-US"
	defaultCompatibilityLevel = 1604
)

// ModelSpec is everything the TMDL templates need.
type ModelSpec struct {
	Model              string
	Table              TableRef
	Columns            []Column
	Endpoint           SQLEndpoint
	Culture            string
	CompatibilityLevel int
}

// Renderer renders a Direct Lake model definition.
type Renderer struct {
	newID func() string
	tmpl  *template.Template
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithIDs replaces the lineage tag and logical ID generator.
func WithIDs(newID func() string) RendererOption {
	return func(r *Renderer) {
		r.newID = newID
	}
}

// NewRenderer parses the embedded templates.
func NewRenderer(opts ...RendererOption) (*Renderer, error) {
	r := &Renderer{newID: uuid.NewString}
	for _, opt := range opts {
		opt(r)
	}

	funcs := lo.Assign(sprig.TxtFuncMap(), template.FuncMap{
		"q":      tmdlQuote,
		"uuidv4": func() string { return r.newID() },
	})
	tmpl, err := template.New("directlake").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse model templates: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

// Render returns the definition files keyed by part path.
func (r *Renderer) Render(spec ModelSpec) (map[string]string, error) {
	if spec.Culture == "" {
		spec.Culture = defaultCulture
	}
	if spec.CompatibilityLevel == 0 {
		spec.CompatibilityLevel = defaultCompatibilityLevel
	}

	files := map[string]string{}
	parts := map[string]string{
		"definition/model.tmdl":       "model.tmdl.tmpl",
		"definition/database.tmdl":    "database.tmdl.tmpl",
		"definition/expressions.tmdl": "expressions.tmdl.tmpl",
		"definition/tables/" + definition.SafeName(spec.Table.Name) + ".tmdl": "table.tmdl.tmpl",
	}
	paths := lo.Keys(parts)
	sort.Strings(paths)
	for _, p := range paths {
		var buf bytes.Buffer
		if err := r.tmpl.ExecuteTemplate(&buf, parts[p], spec); err != nil {
			return nil, errUtils.Build(fmt.Errorf("%w: render %s: %v", errUtils.ErrOutputWrite, p, err)).
				WithStage(errUtils.StageCreateItem).
				Err()
		}
		files[p] = buf.String()
	}

	pbism, err := definition.PBISM()
	if err != nil {
		return nil, err
	}
	files[definition.PBISMFile] = pbism

	platform, err := definition.Platform(fabric.ItemTypeSemanticModel, spec.Model, r.newID())
	if err != nil {
		return nil, err
	}
	files[definition.PlatformFile] = platform
	return files, nil
}

// tmdlQuote escapes a name for use inside single quotes.
func tmdlQuote(name string) string {
	return strings.ReplaceAll(name, "'", "''")
}
