// Package download copies a whole workspace to disk: every item definition the service
// can export, plus lakehouse files and table listings.
package download

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/definition"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/directlake"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/onelake"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/resolve"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
)

// DefaultRoot is the parent of the default output folder.
const DefaultRoot = "workspace_downloads"

// DefaultDir returns ./workspace_downloads/<workspace>.
func DefaultDir(workspace string) string {
	return filepath.Join(DefaultRoot, definition.SafeName(workspace))
}

// Item status values.
const (
	StatusDownloaded = "downloaded"
	StatusFailed     = "failed"
	StatusSkipped    = "skipped"
)

// FileSource downloads the Files area of a lakehouse.
type FileSource interface {
	DownloadFiles(ctx context.Context, workspaceID, lakehouseID, dest string) (onelake.Summary, error)
}

// Options tune a download.
type Options struct {
	// LakehouseFiles downloads lakehouse Files and table listings.
	LakehouseFiles bool
}

// ItemResult is the outcome for one item.
type ItemResult struct {
	Path   fabric.Path `json:"path" yaml:"path"`
	Status string      `json:"status" yaml:"status"`
	Dir    string      `json:"dir,omitempty" yaml:"dir,omitempty"`
	Files  int         `json:"files,omitempty" yaml:"files,omitempty"`
	Reason string      `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// LakehouseResult is the outcome of the lakehouse data phase.
type LakehouseResult struct {
	Name   string          `json:"name" yaml:"name"`
	Files  onelake.Summary `json:"files" yaml:"files"`
	Tables []string        `json:"tables" yaml:"tables"`
	Errors []string        `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Summary reports a finished download.
type Summary struct {
	Workspace  string            `json:"workspace" yaml:"workspace"`
	OutputDir  string            `json:"outputDir" yaml:"outputDir"`
	Succeeded  int               `json:"succeeded" yaml:"succeeded"`
	Failed     int               `json:"failed" yaml:"failed"`
	Skipped    int               `json:"skipped" yaml:"skipped"`
	Types      map[string]int    `json:"types" yaml:"types"`
	Items      []ItemResult      `json:"items" yaml:"items"`
	Lakehouses []LakehouseResult `json:"lakehouses,omitempty" yaml:"lakehouses,omitempty"`
}

type listedItem struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Type        string `json:"type"`
}

// Downloader writes workspaces to a filesystem.
type Downloader struct {
	api         *api.Client
	resolver    *resolve.Resolver
	definitions *definition.Client
	files       FileSource
	schemas     directlake.SchemaSource
	fs          afero.Fs
}

// New creates a read-only downloader. files may be nil when lakehouse files are not wanted;
// schemas may be nil when table columns cannot be read.
func New(c *api.Client, files FileSource, schemas directlake.SchemaSource, fs afero.Fs) *Downloader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	ro := c.ReadOnly()
	return &Downloader{
		api:         ro,
		resolver:    resolve.New(ro),
		definitions: definition.New(ro),
		files:       files,
		schemas:     schemas,
		fs:          fs,
	}
}

// fatal reports errors that will fail every remaining item as well.
func fatal(err error) bool {
	return errors.Is(err, errUtils.ErrUnauthenticated) ||
		errors.Is(err, errUtils.ErrSessionExpired) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Download exports every item of workspace under outDir/<Type>/<Name>.<Type>.
// Per-item failures are recorded and the download continues.
func (d *Downloader) Download(ctx context.Context, workspace, outDir string, opts Options) (Summary, error) {
	ws, err := d.resolver.ResolveWorkspace(ctx, workspace)
	if err != nil {
		return Summary{}, err
	}
	if outDir == "" {
		outDir = DefaultDir(ws.DisplayName)
	}
	summary := Summary{Workspace: ws.DisplayName, OutputDir: outDir, Types: map[string]int{}, Items: []ItemResult{}}

	listed, err := api.ListPager[listedItem](d.api, session.AudienceFabric, "workspaces/"+ws.ID+"/items", nil, "value").All(ctx)
	if err != nil {
		return summary, errUtils.WithStage(err, errUtils.StageResolveItem)
	}
	if err := d.fs.MkdirAll(outDir, 0o755); err != nil {
		return summary, errUtils.WithStage(fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err), errUtils.StageWriteOutput)
	}

	groups := lo.GroupBy(listed, func(li listedItem) string { return li.Type })
	types := lo.Keys(groups)
	sort.Strings(types)
	log.Info("Downloading workspace", "workspace", ws.DisplayName, "items", len(listed), "types", len(types), "dir", outDir)

	type lakehouse struct {
		ref fabric.ItemRef
		dir string
	}
	var lakehouses []lakehouse
	for _, t := range types {
		items := groups[t]
		summary.Types[t] = len(items)
		sort.SliceStable(items, func(i, j int) bool { return items[i].DisplayName < items[j].DisplayName })
		folders := lo.CountValuesBy(items, func(li listedItem) string { return folderKey(li.DisplayName) })

		for _, li := range items {
			itemType := fabric.ItemType(li.Type)
			if parsed, perr := fabric.ParseItemType(li.Type); perr == nil {
				itemType = parsed
			}
			ref := fabric.ItemRef{
				WorkspaceID: ws.ID,
				ItemID:      li.ID,
				Type:        itemType,
				Path:        fabric.NewPath(ws.DisplayName, li.DisplayName, itemType),
			}
			dir := itemDir(outDir, ref, folders[folderKey(li.DisplayName)] > 1)
			if itemType == fabric.ItemTypeLakehouse {
				lakehouses = append(lakehouses, lakehouse{ref: ref, dir: dir})
			}

			result, err := d.exportItem(ctx, ref, dir)
			if err != nil && fatal(err) {
				return summary, err
			}
			summary.Items = append(summary.Items, result)
			switch result.Status {
			case StatusDownloaded:
				summary.Succeeded++
			case StatusFailed:
				summary.Failed++
			default:
				summary.Skipped++
			}
		}
	}

	if opts.LakehouseFiles {
		for _, l := range lakehouses {
			lh, err := d.lakehouseData(ctx, l.ref, l.dir)
			if err != nil {
				return summary, err
			}
			summary.Lakehouses = append(summary.Lakehouses, lh)
		}
	}

	log.Info("Downloaded workspace", "workspace", ws.DisplayName, "succeeded", summary.Succeeded, "failed", summary.Failed, "skipped", summary.Skipped)
	return summary, nil
}

// itemDir is outDir/<Type>/<Name>.<Type>. Items whose folder would be shared with another
// item of the same type get their ID appended.
func itemDir(outDir string, ref fabric.ItemRef, shared bool) string {
	name := definition.SafeName(ref.Path.Item)
	if shared {
		name += "_" + ref.ItemID
	}
	return filepath.Join(outDir, string(ref.Type), name+"."+string(ref.Type))
}

// folderKey folds names that end up in the same folder, on case-insensitive filesystems too.
func folderKey(name string) string {
	return strings.ToLower(definition.SafeName(name))
}

// exportItem writes the definition parts of one item. The returned error is only set
// for failures; the result always describes the outcome.
func (d *Downloader) exportItem(ctx context.Context, ref fabric.ItemRef, dir string) (ItemResult, error) {
	result := ItemResult{Path: ref.Path, Dir: dir}
	if !ref.Type.SupportsDefinition() {
		result.Status = StatusSkipped
		result.Reason = fmt.Sprintf("%s has no exportable definition", ref.Type)
		return result, nil
	}

	def, err := d.definitions.Get(ctx, ref)
	if err == nil {
		decoded := def.Decode()
		err = definition.WriteFiles(d.fs, dir, decoded.Files)
		result.Files = len(decoded.Files)
		if err == nil && len(decoded.Failed) > 0 {
			err = fmt.Errorf("%w: cannot decode %v", errUtils.ErrInvalidResponse, decoded.Failed)
		}
	}
	if err != nil {
		log.Warn("Item export failed", "item", ref.Path.String(), "error", err)
		result.Status = StatusFailed
		result.Reason = err.Error()
		return result, err
	}
	result.Status = StatusDownloaded
	log.Debug("Exported item", "item", ref.Path.String(), "files", result.Files)
	return result, nil
}

type table struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location string `json:"location"`
	Format   string `json:"format"`
}

// TableSchema is written to Tables/<table>_schema.json.
type TableSchema struct {
	Schema   string              `json:"schema"`
	Name     string              `json:"name"`
	Type     string              `json:"type,omitempty"`
	Format   string              `json:"format,omitempty"`
	Location string              `json:"location,omitempty"`
	Columns  []directlake.Column `json:"columns"`
}

// tableRef reads "schema.table" names of schema-enabled lakehouses; plain names are dbo.
func tableRef(name string) directlake.TableRef {
	if schema, table, ok := strings.Cut(name, "."); ok && schema != "" && table != "" {
		return directlake.TableRef{Schema: schema, Name: table}
	}
	return directlake.TableRef{Schema: "dbo", Name: name}
}

// lakehouseData downloads Files and writes the column schema of every table under Tables/.
// Failures of either part are recorded on the result.
func (d *Downloader) lakehouseData(ctx context.Context, ref fabric.ItemRef, dir string) (LakehouseResult, error) {
	result := LakehouseResult{Name: ref.Path.Item, Tables: []string{}}

	if d.files == nil {
		result.Errors = append(result.Errors, "lakehouse files are not available with this backend")
	} else {
		files, err := d.files.DownloadFiles(ctx, ref.WorkspaceID, ref.ItemID, filepath.Join(dir, "Files"))
		if err != nil {
			if fatal(err) {
				return result, err
			}
			log.Warn("Lakehouse files download failed", "lakehouse", ref.Path.String(), "error", err)
			result.Errors = append(result.Errors, err.Error())
		}
		result.Files = files
	}

	endpoint := fmt.Sprintf("workspaces/%s/lakehouses/%s/tables", ref.WorkspaceID, ref.ItemID)
	tables, err := api.ListPager[table](d.api, session.AudienceFabric, endpoint, nil, "data").All(ctx)
	if err != nil {
		if fatal(err) {
			return result, err
		}
		log.Warn("Cannot list lakehouse tables", "lakehouse", ref.Path.String(), "error", err)
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}

	if d.schemas == nil {
		result.Errors = append(result.Errors, "table schemas are not available with this backend")
	}
	lh := directlake.Lakehouse{Path: ref.Path, WorkspaceID: ref.WorkspaceID, ID: ref.ItemID}
	for _, t := range tables {
		tr := tableRef(t.Name)
		schema := TableSchema{Schema: tr.Schema, Name: tr.Name, Type: t.Type, Format: t.Format, Location: t.Location, Columns: []directlake.Column{}}
		if d.schemas != nil {
			cols, err := d.schemas.TableSchema(ctx, lh, tr)
			if err != nil {
				if fatal(err) {
					return result, err
				}
				log.Warn("Cannot read table schema", "lakehouse", ref.Path.String(), "table", tr.String(), "error", err)
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", tr, err))
				continue
			}
			if len(cols) == 0 {
				log.Warn("Table has no readable schema", "lakehouse", ref.Path.String(), "table", tr.String())
			}
			schema.Columns = append(schema.Columns, cols...)
		}

		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return result, fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err)
		}
		file := filepath.Join(dir, "Tables", definition.SafeName(t.Name)+"_schema.json")
		if err := d.fs.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return result, errUtils.WithStage(fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err), errUtils.StageWriteOutput)
		}
		if err := afero.WriteFile(d.fs, file, data, 0o644); err != nil {
			return result, errUtils.WithStage(fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err), errUtils.StageWriteOutput)
		}
		result.Tables = append(result.Tables, t.Name)
	}
	log.Debug("Lakehouse data", "lakehouse", ref.Path.String(), "files", result.Files.Files, "tables", len(result.Tables))
	return result, nil
}
