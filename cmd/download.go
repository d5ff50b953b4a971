package cmd

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/data-goblin/fabric-cli-plugin/pkg/data"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/directlake"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/download"
	"github.com/data-goblin/fabric-cli-plugin/pkg/ui"
)

var downloadCmd = &cobra.Command{
	Use:   "download <workspace> [output-dir]",
	Short: "Download every item definition in a workspace",
	Long: `Exports the definition of every item in the workspace to <output-dir>/<Type>/<Name>.<Type>.
The default output folder is ./workspace_downloads/<workspace>.

Items that fail are recorded and the download continues. Lakehouse Files and table listings
are downloaded too unless --no-lakehouse-files is set; reading OneLake needs the rest backend.`,
	Example: `fabkit download Sales
fabkit download "Sales.Workspace" ./backup --no-lakehouse-files`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		noFiles, _ := cmd.Flags().GetBool("no-lakehouse-files")
		format, _ := cmd.Flags().GetString("format")
		outDir := ""
		if len(args) == 2 {
			outDir = args[1]
		}

		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		var (
			files   download.FileSource
			schemas directlake.SchemaSource
		)
		if !noFiles {
			if files, err = lakehouseFiles(); err != nil {
				return err
			}
			if schemas, err = schemaSource(); err != nil {
				return err
			}
		}

		summary, err := download.New(client, files, schemas, fs).Download(cmd.Context(), args[0], outDir, download.Options{LakehouseFiles: !noFiles})
		if err != nil {
			return err
		}
		return data.WriteFormatted(format, summary, func() string { return renderDownload(summary) })
	},
}

func renderDownload(s download.Summary) string {
	for _, item := range s.Items {
		if item.Status == download.StatusFailed {
			ui.Errorf("%s: %s", item.Path, item.Reason)
		}
	}
	for _, lh := range s.Lakehouses {
		for _, e := range lh.Errors {
			ui.Warningf("%s: %s", lh.Name, e)
		}
	}

	types := lo.Keys(s.Types)
	slices.Sort(types)
	rows := lo.Map(types, func(t string, _ int) []string { return []string{t, strconv.Itoa(s.Types[t])} })
	out := ui.Table([]string{"Type", "Items"}, rows)
	out += fmt.Sprintf("Downloaded %d, failed %d, skipped %d into %s\n", s.Succeeded, s.Failed, s.Skipped, s.OutputDir)
	for _, lh := range s.Lakehouses {
		out += fmt.Sprintf("%s: %d file(s), %d table(s)\n", lh.Name, lh.Files.Files, len(lh.Tables))
	}
	return out
}

func init() {
	downloadCmd.Flags().Bool("no-lakehouse-files", false, "Skip lakehouse Files and table listings")
	downloadCmd.Flags().StringP("format", "f", "", "Output format: json or yaml")
	RootCmd.AddCommand(downloadCmd)
}
