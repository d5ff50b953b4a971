// Package pbip exports a semantic model as a Power BI project that opens in Power BI Desktop:
// the model's TMDL next to a blank report bound to it by path.
package pbip

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/definition"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/resolve"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
)

const (
	pbipSchema           = "https://developer.microsoft.com/json-schemas/fabric/pbip/pbipProperties/1.0.0/schema.json"
	reportSchema         = "https://developer.microsoft.com/json-schemas/fabric/item/report/definition/report/2.1.0/schema.json"
	versionSchema        = "https://developer.microsoft.com/json-schemas/fabric/item/report/definition/versionMetadata/1.0.0/schema.json"
	pageSchema           = "https://developer.microsoft.com/json-schemas/fabric/item/report/definition/page/2.0.0/schema.json"
	pagesSchema          = "https://developer.microsoft.com/json-schemas/fabric/item/report/definition/pagesMetadata/1.0.0/schema.json"
	editorSettingsSchema = "https://developer.microsoft.com/json-schemas/fabric/item/semanticModel/editorSettings/1.0.0/schema.json"

	baseTheme = "CY24SU10"
)

// Result describes an exported project.
type Result struct {
	Model fabric.Path `json:"model" yaml:"model"`
	// Dir is the project folder, <out>/<name>.
	Dir string `json:"dir" yaml:"dir"`
	// ProjectFile is the .pbip to open in Power BI Desktop.
	ProjectFile string `json:"projectFile" yaml:"projectFile"`
	// Parts is the number of model definition files written.
	Parts int `json:"parts" yaml:"parts"`
	// Failed lists parts that could not be decoded.
	Failed []string `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithIDs replaces the generator of logical and page IDs.
func WithIDs(next func() string) Option {
	return func(e *Exporter) {
		e.newID = next
	}
}

// Exporter writes semantic models as PBIP folders.
type Exporter struct {
	resolver    *resolve.Resolver
	definitions *definition.Client
	fs          afero.Fs
	newID       func() string
}

// New creates an exporter writing to fs. Exporting only reads from the service.
// A nil fs writes to the local disk.
func New(c *api.Client, fs afero.Fs, opts ...Option) *Exporter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	e := &Exporter{
		resolver:    resolve.New(c),
		definitions: definition.New(c),
		fs:          fs,
		newID:       func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export fetches the definition of the model at p and writes the project under outDir.
func (e *Exporter) Export(ctx context.Context, p fabric.Path, outDir string) (Result, error) {
	if p.Type == "" {
		p.Type = fabric.ItemTypeSemanticModel
	}
	if p.Type != fabric.ItemTypeSemanticModel {
		return Result{}, errUtils.Build(fmt.Errorf("%w: %s cannot be exported as PBIP", errUtils.ErrUnsupportedItemType, p.Type)).
			WithHint("Only semantic models can be exported as a Power BI project").
			WithStage(errUtils.StageResolveItem).
			Err()
	}

	ref, err := e.resolver.ResolveItem(ctx, p)
	if err != nil {
		return Result{}, err
	}
	def, err := e.definitions.Get(ctx, ref)
	if err != nil {
		return Result{}, err
	}
	decoded := def.Decode()

	name := definition.SafeName(p.Item)
	files, err := e.Project(name, decoded.Files)
	if err != nil {
		return Result{}, errUtils.WithStage(err, errUtils.StageWriteOutput)
	}

	dir := filepath.Join(outDir, name)
	if err := definition.WriteFiles(e.fs, dir, files); err != nil {
		return Result{}, errUtils.WithStage(err, errUtils.StageWriteOutput)
	}
	for file := range files {
		if strings.HasSuffix(file, "/page.json") {
			visuals := filepath.Join(dir, filepath.FromSlash(path.Dir(file)), "visuals")
			if err := e.fs.MkdirAll(visuals, 0o755); err != nil {
				return Result{}, errUtils.WithStage(fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err), errUtils.StageWriteOutput)
			}
		}
	}

	result := Result{
		Model:       p,
		Dir:         dir,
		ProjectFile: filepath.Join(dir, name+".pbip"),
		Parts:       len(decoded.Files) - countPlatform(decoded.Files),
		Failed:      decoded.Failed,
	}
	log.Info("Exported PBIP", "model", p.String(), "dir", dir, "parts", result.Parts)
	return result, nil
}

func countPlatform(files map[string]string) int {
	if _, ok := files[definition.PlatformFile]; ok {
		return 1
	}
	return 0
}

// Project lays out every file of the project relative to its folder.
// Model parts overwrite generated files of the same path, except .platform,
// which is always regenerated.
func (e *Exporter) Project(name string, parts map[string]string) (map[string]string, error) {
	reportDir := name + ".Report"
	modelDir := name + "." + string(fabric.ItemTypeSemanticModel)
	pageID := strings.ReplaceAll(e.newID(), "-", "")
	if len(pageID) > 16 {
		pageID = pageID[:16]
	}

	jsonFile := func(v any) func() (string, error) {
		return func() (string, error) { return marshalIndent(v) }
	}

	steps := []struct {
		file   string
		render func() (string, error)
	}{
		{name + ".pbip", jsonFile(map[string]any{
			"$schema":   pbipSchema,
			"version":   "1.0",
			"artifacts": []any{map[string]any{"report": map[string]string{"path": reportDir}}},
			"settings":  map[string]bool{"enableAutoRecovery": true},
		})},
		{reportDir + "/" + definition.PlatformFile, func() (string, error) {
			return definition.Platform(fabric.ItemTypeReport, name, e.newID())
		}},
		{reportDir + "/" + definition.PBIRFile, func() (string, error) {
			return definition.PBIRByPath("../" + modelDir)
		}},
		{reportDir + "/definition/report.json", jsonFile(map[string]any{
			"$schema": reportSchema,
			"themeCollection": map[string]any{
				"baseTheme": map[string]string{"name": baseTheme, "reportVersionAtImport": "5.59", "type": "SharedResources"},
			},
			"settings": map[string]bool{"useStylableVisualContainerHeader": true, "defaultDrillFilterOtherVisuals": true},
		})},
		{reportDir + "/definition/version.json", jsonFile(map[string]string{"$schema": versionSchema, "version": "2.0.0"})},
		{reportDir + "/definition/pages/pages.json", jsonFile(map[string]any{
			"$schema":        pagesSchema,
			"pageOrder":      []string{pageID},
			"activePageName": pageID,
		})},
		{reportDir + "/definition/pages/" + pageID + "/page.json", jsonFile(map[string]any{
			"$schema":     pageSchema,
			"name":        pageID,
			"displayName": "Page 1",
			"width":       1920,
			"height":      1080,
		})},
		{modelDir + "/" + definition.PlatformFile, func() (string, error) {
			return definition.Platform(fabric.ItemTypeSemanticModel, name, e.newID())
		}},
		{modelDir + "/" + definition.PBISMFile, definition.PBISM},
		{modelDir + "/.pbi/editorSettings.json", jsonFile(map[string]any{
			"$schema":                 editorSettingsSchema,
			"autodetectRelationships": true,
			"parallelQueryLoading":    true,
		})},
	}
	files := make(map[string]string, len(steps)+len(parts))
	for _, step := range steps {
		content, err := step.render()
		if err != nil {
			return nil, err
		}
		files[step.file] = content
	}

	for part, content := range parts {
		if part == definition.PlatformFile {
			continue
		}
		files[modelDir+"/"+part] = content
	}
	return files, nil
}

func marshalIndent(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err)
	}
	return string(data), nil
}
