package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/data-goblin/fabric-cli-plugin/pkg/data"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/pbip"
	"github.com/data-goblin/fabric-cli-plugin/pkg/ui"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export items to local project formats",
	Args:  cobra.NoArgs,
}

var exportPBIPCmd = &cobra.Command{
	Use:   "pbip <model-path>",
	Short: "Export a semantic model as a Power BI project",
	Long: `Writes the model definition as TMDL together with a blank report bound to it, so the folder
opens in Power BI Desktop. The project is written to <output>/<model name>. Existing files
with the same names are replaced.`,
	Example: `fabkit export pbip "Sales.Workspace/Sales Model.SemanticModel" -o ./projects`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")

		path, err := fabric.ParsePathWithDefault(args[0], fabric.ItemTypeSemanticModel)
		if err != nil {
			return err
		}
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}

		result, err := pbip.New(client, fs).Export(cmd.Context(), path, outDir)
		if err != nil {
			return err
		}
		if len(result.Failed) > 0 {
			ui.Warningf("Skipped %d part(s) that could not be decoded: %s", len(result.Failed), strings.Join(result.Failed, ", "))
		}
		return data.WriteFormatted(format, result, func() string {
			ui.Successf("Exported %s (%d part(s))", result.Model, result.Parts)
			return fmt.Sprintf("Open %s in Power BI Desktop\n", result.ProjectFile)
		})
	},
}

func init() {
	exportPBIPCmd.Flags().StringP("output", "o", ".", "Folder the project is written under")
	exportPBIPCmd.Flags().StringP("format", "f", "", "Output format: json or yaml")
	exportCmd.AddCommand(exportPBIPCmd)
	RootCmd.AddCommand(exportCmd)
}
